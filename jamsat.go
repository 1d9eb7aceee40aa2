// Package jamsat provides an incremental, IPASIR-style interface to a CDCL
// SAT solver with clause learning, Glucose or Luby restarts, in-processing
// simplification and binary DRAT certificate generation.
//
// Literals use the IPASIR convention: nonzero integers, where the sign
// selects the polarity and the magnitude is the 1-based variable id.
package jamsat

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fkutzner/jamsat-go/internal/drat"
	"github.com/fkutzner/jamsat-go/internal/sat"
)

// Interval at which the termination callback is polled during Solve.
const terminatePollInterval = 100 * time.Millisecond

// MaxVariable is the largest accepted variable id; literals with a greater
// magnitude are rejected at the API boundary.
const MaxVariable = sat.MaxExternalVariable

// RestartPolicy selects the restart strategy.
type RestartPolicy string

const (
	RestartGlucose RestartPolicy = "glucose"
	RestartLuby    RestartPolicy = "luby"
)

// Options configures a Solver. Use DefaultOptions as a starting point.
type Options struct {
	// Maximum bytes of clause storage. Non-positive means unlimited.
	ClauseMemoryLimit int64 `yaml:"clause_memory_limit"`

	RestartPolicy     RestartPolicy `yaml:"restart_policy"`
	GlucoseWindowSize int           `yaml:"glucose_window_size"`
	GlucoseK          float64       `yaml:"glucose_k"`
	LubyGraceTime     uint64        `yaml:"luby_grace_time"`
	LubyScaleLog2     uint64        `yaml:"luby_scale_log2"`

	ReductionIntervalIncrease uint64  `yaml:"reduction_interval_increase"`
	VSIDSDecay                float64 `yaml:"vsids_decay"`

	// Conflicts between in-processing simplification runs; zero disables
	// simplification.
	SimplificationInterval uint64 `yaml:"simplification_interval"`

	// Optional path of a binary DRAT certificate. Setting it enables proof
	// recording.
	DRATOutputPath string `yaml:"drat_output_path"`
}

// DefaultOptions are the standard solver settings.
var DefaultOptions = Options{
	ClauseMemoryLimit:         2 << 30,
	RestartPolicy:             RestartGlucose,
	GlucoseWindowSize:         50,
	GlucoseK:                  0.8,
	LubyGraceTime:             10000,
	LubyScaleLog2:             7,
	ReductionIntervalIncrease: 300,
	VSIDSDecay:                0.95,
	SimplificationInterval:    5000,
}

func (o Options) core() sat.Options {
	return sat.Options{
		ClauseMemoryLimit:         o.ClauseMemoryLimit,
		RestartPolicy:             sat.RestartMode(o.RestartPolicy),
		GlucoseWindowSize:         o.GlucoseWindowSize,
		GlucoseK:                  o.GlucoseK,
		LubyGraceTime:             o.LubyGraceTime,
		LubyScaleLog2:             o.LubyScaleLog2,
		ReductionIntervalIncrease: o.ReductionIntervalIncrease,
		VSIDSDecay:                o.VSIDSDecay,
		SimplificationInterval:    o.SimplificationInterval,
	}
}

// Solver is an incremental SAT solver. Methods other than Stop must not be
// called concurrently.
type Solver struct {
	mu   sync.Mutex
	core *sat.Solver
	cert *drat.Recorder

	terminate func() bool
}

// New returns a solver configured with opts. When opts names a DRAT output
// path, the certificate file is created eagerly so that configuration errors
// surface before solving.
func New(opts Options) (*Solver, error) {
	s := &Solver{core: sat.NewSolver(opts.core())}
	if opts.DRATOutputPath != "" {
		if err := s.SetDRATCertificate(opts.DRATOutputPath); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewDefault returns a solver with DefaultOptions.
func NewDefault() *Solver {
	s, _ := New(DefaultOptions)
	return s
}

// AddClause adds a problem clause given as external literals.
func (s *Solver) AddClause(lits ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	internal := make([]sat.Literal, len(lits))
	for i, l := range lits {
		if l == 0 {
			return errors.New("literal 0 is not permitted in a clause")
		}
		if !sat.ValidExternal(l) {
			return errors.Errorf("literal %d out of range (maximum variable is %d)", l, MaxVariable)
		}
		internal[i] = sat.LiteralFromExternal(l)
	}
	return s.core.AddClause(internal)
}

// AddProblem adds every clause of a CNF problem instance.
func (s *Solver) AddProblem(clauses [][]int) error {
	for _, clause := range clauses {
		if err := s.AddClause(clause...); err != nil {
			return err
		}
	}
	return nil
}

// SetLogger installs a function receiving solver progress reports.
func (s *Solver) SetLogger(fn func(string)) {
	s.core.SetLogger(fn)
}

// SetTerminate installs a termination callback. While Solve runs, a watcher
// goroutine polls the callback on a coarse interval and requests a stop when
// it returns true. Passing nil removes the callback.
func (s *Solver) SetTerminate(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminate = fn
}

// SetDRATCertificate enables binary DRAT recording to the file at path,
// replacing any previously configured certificate.
func (s *Solver) SetDRATCertificate(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cert != nil {
		if err := s.cert.Close(); err != nil {
			return err
		}
	}
	rec, err := drat.NewFileRecorder(path)
	if err != nil {
		return err
	}
	s.cert = rec
	s.core.SetProof(rec)
	return nil
}

// Stop asynchronously requests a running Solve call to return an
// indeterminate result. Safe to call from any goroutine.
func (s *Solver) Stop() {
	s.core.Stop()
}

// Solve decides satisfiability under the given assumption literals.
//
// The returned error is non-nil for environment failures (certificate I/O,
// memory exhaustion); the result is then indeterminate. Unsatisfiability
// under assumptions is not an error: inspect Result.FailedAssumptions.
func (s *Solver) Solve(assumptions ...int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	internal := make([]sat.Literal, len(assumptions))
	for i, a := range assumptions {
		if a == 0 {
			return Result{}, errors.New("literal 0 is not a valid assumption")
		}
		if !sat.ValidExternal(a) {
			return Result{}, errors.Errorf("assumption %d out of range (maximum variable is %d)", a, MaxVariable)
		}
		internal[i] = sat.LiteralFromExternal(a)
	}

	stopWatcher := s.startTerminateWatcher()
	res := s.core.Solve(internal)
	stopWatcher()

	if s.cert != nil {
		if err := s.cert.Flush(); err != nil {
			return Result{status: StatusIndeterminate}, err
		}
	}
	if err := s.core.Err(); err != nil {
		return Result{status: StatusIndeterminate}, err
	}
	return newResult(res), nil
}

// startTerminateWatcher spawns the poller goroutine guarding the termination
// callback; the returned function shuts it down.
func (s *Solver) startTerminateWatcher() func() {
	fn := s.terminate
	if fn == nil {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(terminatePollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if fn() {
					s.core.Stop()
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// Close releases the certificate file, if any.
func (s *Solver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cert == nil {
		return nil
	}
	err := s.cert.Close()
	s.cert = nil
	s.core.SetProof(nil)
	return err
}

// Statistics returns a snapshot of the solver's search counters.
func (s *Solver) Statistics() sat.Statistics {
	return s.core.Statistics()
}
