package sat

// RestartPolicy decides when the search should restart, keeping learnt
// clauses and heuristic state.
type RestartPolicy interface {
	// RegisterConflict notifies the policy of a handled conflict and the LBD
	// of the clause learnt from it.
	RegisterConflict(lbd uint32)

	// RegisterRestart notifies the policy that the search restarted.
	RegisterRestart()

	// ShouldRestart returns true iff the search should restart now.
	ShouldRestart() bool
}

// lubySequence generates 1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8, ...
type lubySequence struct {
	index uint64
}

// current returns the element at the sequence's current position.
func (s *lubySequence) current() uint64 {
	return luby(s.index + 1)
}

// next advances the sequence and returns the new element.
func (s *lubySequence) next() uint64 {
	s.index++
	return s.current()
}

func luby(i uint64) uint64 {
	// Knuth's formulation: if i = 2^k - 1 the element is 2^(k-1); otherwise
	// recurse on i - 2^(k-1) + 1 with 2^(k-1) <= i < 2^k - 1.
	for k := uint64(1); ; k++ {
		pow := uint64(1) << k
		if i == pow-1 {
			return pow / 2
		}
		if i < pow-1 {
			return luby(i - pow/2 + 1)
		}
	}
}

// LubyRestartPolicy issues restarts following the Luby sequence scaled by
// 2^log2Scale, after an initial grace period with no restarts.
type LubyRestartPolicy struct {
	seq                   lubySequence
	conflictsUntilRestart uint64
	log2Scale             uint64
}

// NewLubyRestartPolicy returns a Luby policy. graceTime conflicts pass before
// the first restart is allowed; subsequent restart intervals are the Luby
// elements shifted by log2Scale.
func NewLubyRestartPolicy(graceTime uint64, log2Scale uint64) *LubyRestartPolicy {
	p := &LubyRestartPolicy{log2Scale: log2Scale}
	if graceTime > 0 {
		p.conflictsUntilRestart = graceTime + 1
	} else {
		p.conflictsUntilRestart = p.seq.current() << log2Scale
	}
	return p
}

func (p *LubyRestartPolicy) RegisterConflict(uint32) {
	if p.conflictsUntilRestart > 0 {
		p.conflictsUntilRestart--
	}
}

func (p *LubyRestartPolicy) RegisterRestart() {
	p.conflictsUntilRestart = p.seq.next() << p.log2Scale
}

func (p *LubyRestartPolicy) ShouldRestart() bool {
	return p.conflictsUntilRestart == 0
}

// simpleMovingAverage is a fixed-capacity sliding window average.
type simpleMovingAverage struct {
	window []uint32
	next   int
	filled bool
	sum    uint64
}

func newSimpleMovingAverage(size int) *simpleMovingAverage {
	return &simpleMovingAverage{window: make([]uint32, size)}
}

func (a *simpleMovingAverage) add(x uint32) {
	if a.filled {
		a.sum -= uint64(a.window[a.next])
	}
	a.window[a.next] = x
	a.sum += uint64(x)
	a.next++
	if a.next == len(a.window) {
		a.next = 0
		a.filled = true
	}
}

func (a *simpleMovingAverage) isFull() bool {
	return a.filled
}

func (a *simpleMovingAverage) average() float64 {
	n := a.next
	if a.filled {
		n = len(a.window)
	}
	if n == 0 {
		return 0
	}
	return float64(a.sum) / float64(n)
}

func (a *simpleMovingAverage) clear() {
	a.next = 0
	a.filled = false
	a.sum = 0
}

// GlucoseRestartPolicy restarts when the average LBD of the recent window
// exceeds the global average: windowAvg * K > sumLBD / conflictCount.
type GlucoseRestartPolicy struct {
	recentLBD     *simpleMovingAverage
	k             float64
	sumLBD        float64
	conflictCount uint64
}

// NewGlucoseRestartPolicy returns a Glucose-style policy with the given
// sliding window size and aggressiveness constant K.
func NewGlucoseRestartPolicy(windowSize int, k float64) *GlucoseRestartPolicy {
	return &GlucoseRestartPolicy{
		recentLBD: newSimpleMovingAverage(windowSize),
		k:         k,
	}
}

func (p *GlucoseRestartPolicy) RegisterConflict(lbd uint32) {
	p.conflictCount++
	p.sumLBD += float64(lbd)
	p.recentLBD.add(lbd)
}

func (p *GlucoseRestartPolicy) RegisterRestart() {
	p.recentLBD.clear()
}

func (p *GlucoseRestartPolicy) ShouldRestart() bool {
	return p.recentLBD.isFull() &&
		p.recentLBD.average()*p.k > p.sumLBD/float64(p.conflictCount)
}
