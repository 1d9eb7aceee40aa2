package sat

import (
	"fmt"
	"sync/atomic"
)

// RestartMode selects the restart policy.
type RestartMode string

const (
	RestartGlucose RestartMode = "glucose"
	RestartLuby    RestartMode = "luby"
)

// Options configures the solver. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// Maximum bytes of clause arena storage. Non-positive means unlimited.
	ClauseMemoryLimit int64

	RestartPolicy     RestartMode
	GlucoseWindowSize int
	GlucoseK          float64
	LubyGraceTime     uint64
	LubyScaleLog2     uint64

	// Conflicts added to the interval between consecutive clause DB
	// reductions.
	ReductionIntervalIncrease uint64

	// Per-conflict variable activity decay factor in (0, 1].
	VSIDSDecay float64

	// Conflicts between in-processing simplification runs. Zero disables
	// simplification.
	SimplificationInterval uint64
}

// DefaultOptions are the solver's standard settings.
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

// Solver is a CDCL SAT solver with clause learning, Glucose or Luby
// restarts, LBD-based clause database reduction, in-processing
// simplification and binary DRAT certificate generation.
//
// A Solver is not safe for concurrent use, with the exception of Stop.
type Solver struct {
	opts Options

	assign *Assignment
	watch  *Watchers
	arena  *Arena

	problems []*Clause
	learnts  []*Clause

	order   *VarOrder
	restart RestartPolicy
	reduce  *reductionPolicy
	an      *analyzer
	min     *minimizer
	simp    *simplifier

	// Stamps over the literals assumed by the current solve call.
	assumedLits *StampMap

	proof    Proof
	proofBuf []int
	proofErr error

	logger func(string)

	stopRequested atomic.Bool

	// Level-0 unsatisfiability has been proved; permanent.
	unsat bool

	// Out-of-memory condition; all further solves report INDETERMINATE.
	memoryExhausted bool

	assumptionLevel uint32

	// Variables removed by bounded variable elimination, with the original
	// clauses stashed for model reconstruction, in elimination order.
	elimStack     []elimRecord
	eliminated    []bool
	numEliminated int

	// Clauses scheduled for deletion but not yet reclaimed.
	pendingDeletes int

	conflictsSinceSimp uint64

	stats Statistics

	model             *Model
	failedAssumptions []Literal
}

type elimRecord struct {
	v       Var
	clauses [][]Literal
}

// NewSolver returns an empty solver configured with opts.
func NewSolver(opts Options) *Solver {
	s := &Solver{
		opts:        opts,
		assign:      NewAssignment(0),
		watch:       NewWatchers(0),
		arena:       NewArena(opts.ClauseMemoryLimit),
		order:       NewVarOrder(opts.VSIDSDecay, 0),
		reduce:      newReductionPolicy(opts.ReductionIntervalIncrease),
		an:          newAnalyzer(0),
		min:         newMinimizer(0),
		assumedLits: NewStampMap(0),
	}
	s.simp = newSimplifier()
	switch opts.RestartPolicy {
	case RestartLuby:
		s.restart = NewLubyRestartPolicy(opts.LubyGraceTime, opts.LubyScaleLog2)
	default:
		s.restart = NewGlucoseRestartPolicy(opts.GlucoseWindowSize, opts.GlucoseK)
	}
	return s
}

// NewDefaultSolver returns a solver configured with DefaultOptions.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultOptions)
}

// SetLogger installs a function receiving periodic progress reports.
func (s *Solver) SetLogger(fn func(string)) {
	s.logger = fn
}

// SetProof installs the certificate recorder, enabling DRAT generation for
// subsequent derivations. Passing nil disables recording. Installing a
// recorder also clears a previously latched certificate I/O error.
func (s *Solver) SetProof(p Proof) {
	s.proof = p
	s.proofErr = nil
}

// Stop asynchronously requests the current solve call to return
// INDETERMINATE. It is safe to call from any goroutine and never blocks.
func (s *Solver) Stop() {
	s.stopRequested.Store(true)
}

// Statistics returns a snapshot of the solver's counters.
func (s *Solver) Statistics() Statistics {
	return s.stats
}

// Err reports the condition forcing INDETERMINATE results: memory exhaustion
// or a certificate write failure. It returns nil while the solver is
// healthy.
func (s *Solver) Err() error {
	if s.memoryExhausted {
		return ErrOutOfMemory
	}
	return s.proofErr
}

// NumVars returns the size of the variable space.
func (s *Solver) NumVars() int {
	return s.assign.NumVars()
}

func (s *Solver) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger(fmt.Sprintf(format, args...))
	}
}

// IncreaseMaxVar grows the variable space to numVars variables.
func (s *Solver) IncreaseMaxVar(numVars int) {
	if numVars <= s.assign.NumVars() {
		return
	}
	s.assign.IncreaseMaxVar(numVars)
	s.watch.IncreaseMaxVar(numVars)
	s.order.IncreaseMaxVar(numVars)
	s.an.increaseMaxVar(numVars)
	s.min.increaseMaxVar(numVars)
	s.assumedLits.Grow(2 * numVars)
	for len(s.eliminated) < numVars {
		s.eliminated = append(s.eliminated, false)
	}
}

func (s *Solver) isAssumption(l Literal) bool {
	return s.assumedLits.IsStamped(int(l))
}

// AddClause adds a problem clause. Adding is only permitted between solve
// calls; the clause is simplified against the current facts. An error is
// returned when the clause arena is exhausted.
func (s *Solver) AddClause(lits []Literal) error {
	if s.memoryExhausted {
		return ErrOutOfMemory
	}
	maxVar := -1
	for _, l := range lits {
		if int(l.Variable()) > maxVar {
			maxVar = int(l.Variable())
		}
	}
	s.IncreaseMaxVar(maxVar + 1)
	if s.unsat {
		return nil
	}

	// A clause mentioning an eliminated variable reintroduces it: the
	// stashed original clauses come back first so that elimination-derived
	// conclusions stay justified.
	for _, l := range lits {
		if s.eliminated[l.Variable()] {
			if err := s.reinstate(l.Variable()); err != nil {
				return err
			}
		}
	}

	norm, state := s.normalizeClause(lits)
	switch state {
	case clauseSatisfied:
		return nil
	case clauseEmpty:
		s.unsat = true
		return nil
	}

	if len(norm) == 1 {
		if !s.assign.Append(norm[0]) {
			// The opposite fact is already known.
			s.unsat = true
			return nil
		}
		if confl := s.propagateToFixpoint(includeRedundant); confl != nil {
			s.unsat = true
		}
		return nil
	}

	c, err := s.arena.Allocate(norm, false)
	if err != nil {
		s.memoryExhausted = true
		return err
	}
	s.watch.Register(c)
	s.problems = append(s.problems, c)
	return nil
}

// reinstate reverses the elimination of v: the stashed original clauses are
// added back (recorded as RAT additions on v's literal) and v becomes
// eligible for branching again.
func (s *Solver) reinstate(v Var) error {
	idx := -1
	for i := len(s.elimStack) - 1; i >= 0; i-- {
		if s.elimStack[i].v == v {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	rec := s.elimStack[idx]
	s.elimStack = append(s.elimStack[:idx], s.elimStack[idx+1:]...)
	s.eliminated[v] = false
	s.numEliminated--
	s.order.SetEligible(v, true)

	for _, cl := range rec.clauses {
		pivot := 0
		for i, l := range cl {
			if l.Variable() == v {
				pivot = i
				break
			}
		}
		s.proofAddRAT(cl, pivot)
		if err := s.AddClause(cl); err != nil {
			return err
		}
	}
	return nil
}

type clauseState uint8

const (
	clauseUsable clauseState = iota
	clauseSatisfied
	clauseEmpty
)

// normalizeClause deduplicates lits, drops literals false at level 0, and
// detects tautologies and clauses already satisfied by facts.
func (s *Solver) normalizeClause(lits []Literal) ([]Literal, clauseState) {
	s.min.litStamps.Clear()
	norm := make([]Literal, 0, len(lits))
	for _, l := range lits {
		if s.min.litStamps.IsStamped(int(l)) {
			continue
		}
		if s.min.litStamps.IsStamped(int(l.Opposite())) {
			return nil, clauseSatisfied // tautology
		}
		s.min.litStamps.Stamp(int(l))
		if s.assign.Value(l) == True && s.assign.Level(l.Variable()) == 0 {
			return nil, clauseSatisfied
		}
		if s.assign.Value(l) == False && s.assign.Level(l.Variable()) == 0 {
			continue
		}
		norm = append(norm, l)
	}
	if len(norm) == 0 {
		return nil, clauseEmpty
	}
	return norm, clauseUsable
}

// Solve decides satisfiability of the loaded problem under the given
// assumptions. It returns an INDETERMINATE result after Stop, on memory
// exhaustion, or when certificate writing failed.
func (s *Solver) Solve(assumptions []Literal) Result {
	s.stopRequested.Store(false)
	s.model = nil
	s.failedAssumptions = nil

	if s.memoryExhausted || s.proofErr != nil {
		return Result{Status: Unknown}
	}
	if s.unsat {
		s.proofFinishUnsat()
		if !s.checkProof() {
			return Result{Status: Unknown}
		}
		return Result{Status: False}
	}

	maxVar := -1
	for _, a := range assumptions {
		if int(a.Variable()) > maxVar {
			maxVar = int(a.Variable())
		}
	}
	s.IncreaseMaxVar(maxVar + 1)

	// Assuming an eliminated variable constrains it directly again, which
	// the distributed resolvents do not cover; bring its clauses back.
	for _, a := range assumptions {
		if s.eliminated[a.Variable()] {
			if err := s.reinstate(a.Variable()); err != nil {
				return Result{Status: Unknown}
			}
		}
	}
	if s.unsat {
		s.proofFinishUnsat()
		if !s.checkProof() {
			return Result{Status: Unknown}
		}
		return Result{Status: False}
	}

	// Flush any facts pending from AddClause.
	if confl := s.propagateToFixpoint(includeRedundant); confl != nil {
		return s.finishUnsat()
	}

	if res, done := s.assumeAll(assumptions); done {
		return res
	}
	s.assumptionLevel = s.assign.CurrentLevel()

	res := s.search()
	if !s.checkProof() {
		return Result{Status: Unknown}
	}
	s.logf("search done: %s", s.stats.String())
	return res
}

// assumeAll loads the assumptions at a dedicated decision level, propagating
// each in turn. done is true when the result is already decided.
func (s *Solver) assumeAll(assumptions []Literal) (Result, bool) {
	s.assumedLits.Clear()
	if len(assumptions) == 0 {
		return Result{}, false
	}
	for _, a := range assumptions {
		s.assumedLits.Stamp(int(a))
	}
	s.assign.NewLevel()
	for _, a := range assumptions {
		switch s.assign.Value(a) {
		case True:
			continue
		case False:
			failed := s.an.failedAssumptions(s.assign, []Literal{a}, []Literal{a}, s.isAssumption)
			return s.finishUnsatUnderAssumptions(failed), true
		}
		s.assign.Append(a)
		if confl := s.propagateToFixpoint(includeRedundant); confl != nil {
			failed := s.an.failedAssumptions(s.assign, confl.Literals(), nil, s.isAssumption)
			return s.finishUnsatUnderAssumptions(failed), true
		}
	}
	return Result{}, false
}

// search runs the main CDCL loop.
func (s *Solver) search() Result {
	for {
		if s.stopRequested.Load() {
			s.undoToLevel(0)
			return Result{Status: Unknown}
		}

		confl := s.propagateToFixpoint(includeRedundant)
		if confl != nil {
			s.stats.Conflicts++
			s.conflictsSinceSimp++

			if s.assign.CurrentLevel() == 0 {
				return s.finishUnsat()
			}
			if s.assign.CurrentLevel() <= s.assumptionLevel {
				failed := s.an.failedAssumptions(s.assign, confl.Literals(), nil, s.isAssumption)
				return s.finishUnsatUnderAssumptions(failed)
			}
			if err := s.handleConflict(confl); err != nil {
				return Result{Status: Unknown}
			}
			if s.stats.Conflicts%8192 == 0 {
				s.logf("progress: %s", s.stats.String())
			}
			continue
		}

		if s.restart.ShouldRestart() {
			if s.assign.CurrentLevel() > s.assumptionLevel {
				s.undoToLevel(s.assumptionLevel)
			}
			s.restart.RegisterRestart()
			s.stats.Restarts++
		}

		if s.reduce.shouldReduce(len(s.learnts)) {
			if err := s.reduceDB(); err != nil {
				return Result{Status: Unknown}
			}
		}

		if s.simplificationDue() {
			if err := s.runSimplification(); err != nil {
				return Result{Status: Unknown}
			}
			if s.unsat {
				return s.finishUnsat()
			}
			if confl := s.propagateToFixpoint(includeRedundant); confl != nil {
				return s.finishUnsat()
			}
		}

		if s.assign.NumAssignments()+s.numEliminated == s.assign.NumVars() {
			s.saveModel()
			s.undoToLevel(0)
			return Result{Status: True, Model: s.model}
		}

		decision, ok := s.order.NextDecision(s.assign)
		if !ok {
			// Only eliminated variables remain unassigned.
			s.saveModel()
			s.undoToLevel(0)
			return Result{Status: True, Model: s.model}
		}
		s.stats.Decisions++
		s.assign.NewLevel()
		s.assign.Append(decision)
	}
}

func (s *Solver) simplificationDue() bool {
	return s.opts.SimplificationInterval > 0 &&
		s.assumptionLevel == 0 &&
		s.assign.CurrentLevel() == 0 &&
		s.conflictsSinceSimp >= s.opts.SimplificationInterval
}

// handleConflict learns a clause from the conflict, backtracks, and asserts
// the learnt clause's first literal.
func (s *Solver) handleConflict(confl *Clause) error {
	lemma, _, seenVars := s.an.computeConflictClause(s.assign, confl)
	lemma = s.min.minimize(s.assign, s.watch, lemma)
	backtrackLevel := placeBacktrackLiteral(s.assign, lemma)
	if backtrackLevel < s.assumptionLevel {
		backtrackLevel = s.assumptionLevel
	}
	lbd := s.an.computeLBD(s.assign, lemma)

	for _, v := range seenVars {
		s.order.Bump(v)
	}
	s.order.Decay()
	s.restart.RegisterConflict(lbd)
	s.reduce.registerConflict()

	s.proofAdd(lemma)
	s.undoToLevel(backtrackLevel)

	if len(lemma) == 1 {
		// A unit lemma is implied by the problem clauses alone; it becomes a
		// fact, or a reasonless assignment on the assumption level when
		// assumptions are loaded.
		s.assign.Append(lemma[0])
		if backtrackLevel == 0 {
			s.stats.LearntFacts++
		}
		return nil
	}

	c, err := s.arena.Allocate(lemma, true)
	if err != nil {
		s.memoryExhausted = true
		return err
	}
	c.SetLBD(lbd)
	s.watch.Register(c)
	s.learnts = append(s.learnts, c)
	s.assign.AppendWithReason(lemma[0], c)
	s.stats.LearntClauses++
	return nil
}

func (s *Solver) undoToLevel(level uint32) {
	s.assign.UndoToLevel(level, func(v Var, _ LBool) {
		s.order.Reinsert(v)
	})
}

// reduceDB deletes the less valuable half of the learnt clauses.
func (s *Solver) reduceDB() error {
	toDelete := s.reduce.clausesToDelete(s.learnts)
	if len(toDelete) == 0 {
		return nil
	}
	mid := len(s.learnts) - len(toDelete)
	kept := s.learnts[:mid]
	for i := mid; i < len(s.learnts); i++ {
		c := s.learnts[i]
		if s.isAssignmentReason(c) {
			kept = append(kept, c)
			continue
		}
		s.deleteClause(c)
	}
	s.learnts = kept
	s.stats.Reductions++
	s.logf("reduced clause DB: %s", s.stats.String())

	if s.pendingDeletes*4 >= len(s.problems)+len(s.learnts) {
		return s.compact()
	}
	return nil
}

// deleteClause records the deletion, detaches the clause, and schedules its
// storage for reclamation.
func (s *Solver) deleteClause(c *Clause) {
	s.proofDelete(c.lits)
	s.watch.Unregister(c)
	c.ScheduleForDeletion()
	s.pendingDeletes++
	s.stats.DeletedClauses++
}

// compact rebuilds the clause arena, dropping deletion-scheduled clauses.
// Clauses are relocated in propagation order; reason pointers and watcher
// entries are rewritten to the relocated clauses.
func (s *Solver) compact() error {
	fresh := NewArena(s.opts.ClauseMemoryLimit)
	reloc := make(map[*Clause]*Clause, len(s.problems)+len(s.learnts))
	order := make([]*Clause, 0, len(s.problems)+len(s.learnts))

	var relocErr error
	clone := func(c *Clause) {
		if relocErr != nil || c.IsScheduledForDeletion() {
			return
		}
		if _, done := reloc[c]; done {
			return
		}
		nc, err := fresh.clone(c)
		if err != nil {
			relocErr = err
			return
		}
		reloc[c] = nc
		order = append(order, nc)
	}

	s.watch.ClausesInPropagationOrder(clone)
	for _, c := range s.problems {
		clone(c)
	}
	for _, c := range s.learnts {
		clone(c)
	}
	if relocErr != nil {
		s.memoryExhausted = true
		return relocErr
	}

	for _, l := range s.assign.trail {
		v := l.Variable()
		if r := s.assign.reasons[v]; r != nil {
			s.assign.reasons[v] = reloc[r]
		}
	}

	s.rewriteClauseList(&s.problems, reloc)
	s.rewriteClauseList(&s.learnts, reloc)

	s.watch.Clear()
	for _, c := range order {
		s.watch.Register(c)
	}

	s.arena = fresh
	s.pendingDeletes = 0
	s.stats.Compactions++
	return nil
}

func (s *Solver) rewriteClauseList(list *[]*Clause, reloc map[*Clause]*Clause) {
	clauses := *list
	j := 0
	for _, c := range clauses {
		if nc, ok := reloc[c]; ok {
			clauses[j] = nc
			j++
		}
	}
	*list = clauses[:j]
}

// finishUnsat reports level-0 unsatisfiability, permanently.
func (s *Solver) finishUnsat() Result {
	s.unsat = true
	s.undoToLevel(0)
	s.proofFinishUnsat()
	if !s.checkProof() {
		return Result{Status: Unknown}
	}
	return Result{Status: False}
}

// finishUnsatUnderAssumptions reports unsatisfiability relative to the
// current assumptions. The problem itself may still be satisfiable.
func (s *Solver) finishUnsatUnderAssumptions(failed []Literal) Result {
	s.failedAssumptions = failed
	s.undoToLevel(0)
	return Result{Status: False, FailedAssumptions: failed}
}

// saveModel snapshots the current complete assignment, reconstructing values
// for variables removed by elimination.
func (s *Solver) saveModel() {
	values := make([]LBool, s.assign.NumVars())
	for v := range values {
		values[v] = s.assign.VarValue(Var(v))
	}
	// Eliminated variables are reconstructed in reverse elimination order:
	// each one is set to satisfy its stashed original clauses, which the
	// distributed resolvents guarantee is possible for one polarity.
	for i := len(s.elimStack) - 1; i >= 0; i-- {
		rec := s.elimStack[i]
		values[rec.v] = False
		for _, clause := range rec.clauses {
			satisfied := false
			var own Literal
			for _, l := range clause {
				if l.Variable() == rec.v {
					own = l
					continue
				}
				if values[l.Variable()] == Lift(l.IsPositive()) {
					satisfied = true
					break
				}
			}
			if !satisfied {
				values[rec.v] = Lift(own.IsPositive())
			}
		}
	}
	s.model = &Model{values: values}
}
