package sat

// simplifier holds the in-processing state: a per-literal occurrence map over
// the problem clauses, stamps for implied-literal marking, and the fact queue
// driving unary subsumption and strengthening.
type simplifier struct {
	occ       *occurrenceMap
	litStamps *StampMap

	factQueue *queue[Literal]

	// Trail index up to which facts have been consumed by unary
	// simplification.
	factMark int

	removeBuf []Literal
	oldBuf    []Literal
	resolvent []Literal
}

func newSimplifier() *simplifier {
	return &simplifier{
		occ:       newOccurrenceMap(0),
		litStamps: NewStampMap(0),
		factQueue: newQueue[Literal](64),
	}
}

// runSimplification performs one in-processing round: unary subsumption and
// strengthening, self-subsuming resolution with hyper-binary resolution
// (including failed-literal analysis), bounded variable elimination, and a
// final sweep plus compaction. Must be called at level 0.
func (s *Solver) runSimplification() error {
	s.conflictsSinceSimp = 0
	s.stats.SimplificationRounds++

	s.prepareSimplification()

	if err := s.unarySimplification(); err != nil || s.unsat {
		return err
	}
	if err := s.ssrWithHyperBinaryResolution(); err != nil || s.unsat {
		return err
	}
	if err := s.unarySimplification(); err != nil || s.unsat {
		return err
	}
	if err := s.eliminateVariables(); err != nil || s.unsat {
		return err
	}
	if err := s.unarySimplification(); err != nil || s.unsat {
		return err
	}

	s.sweepClauseLists()
	if err := s.compact(); err != nil {
		return err
	}
	s.logf("simplified: %s", s.stats.simplificationString())
	return nil
}

// prepareSimplification sizes the simplifier state and rebuilds the
// occurrence map over the live problem clauses.
func (s *Solver) prepareSimplification() {
	s.simp.occ.grow(s.assign.NumVars())
	s.simp.litStamps.Grow(2 * s.assign.NumVars())

	// Fact reasons are never consulted by analysis; clearing them frees every
	// clause for strengthening and deletion.
	s.clearFactReasons()

	s.simp.occ.clear()
	for _, c := range s.problems {
		if !c.IsScheduledForDeletion() {
			s.simp.occ.add(c)
		}
	}
}

func (s *Solver) clearFactReasons() {
	for _, l := range s.assign.LevelAssignments(0) {
		s.assign.reasons[l.Variable()] = nil
	}
}

// propagateFacts propagates at level 0 and clears the recorded reasons. It
// returns false iff a conflict proves unsatisfiability.
func (s *Solver) propagateFacts() bool {
	confl := s.propagateToFixpoint(includeRedundant)
	s.clearFactReasons()
	if confl != nil {
		s.unsat = true
		return false
	}
	return true
}

// unarySimplification consumes every fact not yet processed: clauses
// containing a fact literal are subsumed; occurrences of its negation are
// removed, possibly deriving further facts.
func (s *Solver) unarySimplification() error {
	q := s.simp.factQueue
	q.clear()

	for {
		for s.simp.factMark < s.assign.NumAssignments() {
			q.push(s.assign.trail[s.simp.factMark])
			s.simp.factMark++
		}
		if q.isEmpty() {
			break
		}
		for !q.isEmpty() {
			u := q.pop()

			// Record the fact itself before deleting the clauses it
			// subsumes: those deletions may include the clause the fact was
			// derived from.
			s.proofAdd([]Literal{u})

			for _, c := range s.simp.occ.occurrences(u) {
				s.deleteClause(c)
				s.stats.SubsumedClauses++
			}
			for _, c := range s.simp.occ.occurrences(u.Opposite()) {
				if err := s.strengthenClause(c, u.Opposite()); err != nil {
					return err
				}
				if s.unsat {
					return nil
				}
			}
		}
		if !s.propagateFacts() {
			return nil
		}
	}

	return s.simplifyLearntsWithFacts()
}

// simplifyLearntsWithFacts applies the level-0 assignment to the learnt
// clauses, which the occurrence map does not cover.
func (s *Solver) simplifyLearntsWithFacts() error {
	for _, c := range s.learnts {
		if c.IsScheduledForDeletion() {
			continue
		}
		satisfied := false
		s.simp.removeBuf = s.simp.removeBuf[:0]
		for _, l := range c.Literals() {
			if s.assign.Value(l) == True {
				satisfied = true
				break
			}
			if s.assign.Value(l) == False {
				s.simp.removeBuf = append(s.simp.removeBuf, l)
			}
		}
		if satisfied {
			s.deleteClause(c)
			s.stats.SubsumedClauses++
			continue
		}
		for _, l := range s.simp.removeBuf {
			if err := s.strengthenClause(c, l); err != nil {
				return err
			}
			if s.unsat || c.IsScheduledForDeletion() {
				break
			}
		}
		if s.unsat {
			return nil
		}
	}
	if !s.propagateFacts() {
		return nil
	}
	return nil
}

// strengthenClause removes l from c, recording the strengthened clause and
// the deletion of the original. A clause shrunk to a unit is converted into
// a fact and its storage scheduled for reclamation.
func (s *Solver) strengthenClause(c *Clause, l Literal) error {
	s.simp.oldBuf = append(s.simp.oldBuf[:0], c.Literals()...)

	s.watch.Unregister(c)
	for i, cl := range c.Literals() {
		if cl == l {
			c.removeLiteral(i)
			break
		}
	}
	s.stats.StrengthenedClauses++

	s.proofAdd(c.Literals())
	s.proofDelete(s.simp.oldBuf)

	switch c.Size() {
	case 0:
		s.unsat = true
	case 1:
		rem := c.Literals()[0]
		c.ScheduleForDeletion()
		s.pendingDeletes++
		if !s.assign.Append(rem) {
			s.unsat = true
		}
	default:
		s.reattachClause(c)
	}
	return nil
}

// reattachClause re-registers c with two watchable literals in the watched
// slots. During simplification assigned literals are level-0 facts, and
// literals false at level 0 are removed before the clause is watched again.
func (s *Solver) reattachClause(c *Clause) {
	w := 0
	lits := c.Literals()
	for i := 0; i < len(lits) && w < 2; i++ {
		if s.assign.Value(lits[i]) != False || s.assign.Level(lits[i].Variable()) > 0 {
			lits[w], lits[i] = lits[i], lits[w]
			w++
		}
	}
	s.watch.Register(c)
}

// ssrWithHyperBinaryResolution probes each resolution literal with both
// polarities present: the negation of the literal is propagated over the
// irredundant clauses at a temporary level, and the implied literals are used
// to subsume and strengthen the clauses containing the literal. A probe
// conflict identifies a failed literal.
func (s *Solver) ssrWithHyperBinaryResolution() error {
	numVars := s.assign.NumVars()
	for v := Var(0); int(v) < numVars; v++ {
		if s.unsat || s.stopRequested.Load() {
			return nil
		}
		if s.eliminated[v] {
			continue
		}
		for _, p := range [2]Literal{PositiveLiteral(v), NegativeLiteral(v)} {
			if s.unsat || s.assign.VarValue(v).Determinate() {
				break
			}
			if len(s.simp.occ.occurrences(p)) == 0 ||
				len(s.simp.occ.occurrences(p.Opposite())) == 0 {
				continue
			}
			if err := s.ssrAt(p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Solver) ssrAt(p Literal) error {
	s.assign.NewLevel()
	s.assign.Append(p.Opposite())
	if confl := s.propagateToFixpoint(excludeRedundant); confl != nil {
		s.stats.FailedLiterals++
		return s.analyzeFailedLiteral(p.Opposite(), confl)
	}

	// Every literal implied by ¬p yields a virtual binary (p ∨ implied).
	s.simp.litStamps.Clear()
	implied := s.assign.LevelAssignments(s.assign.CurrentLevel())
	if len(implied) <= 1 {
		s.undoToLevel(0)
		return nil
	}
	// The clauses that drove the probe propagation must not be rewritten
	// with its conclusions: the virtual binary (p ∨ q) may be derived from
	// exactly such a clause, and subsuming it with itself loses it.
	probeReasons := make(map[*Clause]struct{})
	for _, l := range implied[1:] {
		s.simp.litStamps.Stamp(int(l))
		if r := s.assign.Reason(l.Variable()); r != nil {
			probeReasons[r] = struct{}{}
		}
	}
	s.undoToLevel(0)

	for _, c := range s.simp.occ.occurrences(p) {
		if _, isReason := probeReasons[c]; isReason {
			continue
		}
		subsumed := false
		s.simp.removeBuf = s.simp.removeBuf[:0]
		for _, l := range c.Literals() {
			if l == p {
				continue
			}
			if s.simp.litStamps.IsStamped(int(l)) {
				// c ⊇ (p ∨ l), which hyper-binary resolution derives.
				subsumed = true
				break
			}
			if s.simp.litStamps.IsStamped(int(l.Opposite())) {
				s.simp.removeBuf = append(s.simp.removeBuf, l)
			}
		}
		if subsumed {
			s.deleteClause(c)
			s.stats.SubsumedClauses++
			continue
		}
		for _, l := range s.simp.removeBuf {
			if err := s.strengthenClause(c, l); err != nil {
				return err
			}
			if s.unsat || c.IsScheduledForDeletion() {
				break
			}
		}
		if s.unsat {
			return nil
		}
	}

	if !s.propagateFacts() {
		return nil
	}
	return nil
}

// analyzeFailedLiteral handles a probe of failed that conflicted: the
// asserting literal of the first-UIP analysis is learnt as a fact, and the
// probe's negation as well if it is still unassigned afterwards. Conflicts
// while propagating the new facts prove unsatisfiability.
func (s *Solver) analyzeFailedLiteral(failed Literal, confl *Clause) error {
	lemma, _, _ := s.an.computeConflictClause(s.assign, confl)
	asserting := lemma[0]
	s.undoToLevel(0)

	s.proofAdd([]Literal{asserting})
	if !s.assign.Append(asserting) {
		s.unsat = true
		return nil
	}
	if !s.propagateFacts() {
		return nil
	}

	if s.assign.Value(failed) == Unknown {
		neg := failed.Opposite()
		s.proofAdd([]Literal{neg})
		if !s.assign.Append(neg) {
			s.unsat = true
			return nil
		}
		if !s.propagateFacts() {
			return nil
		}
	}
	return nil
}

// eliminateVariables removes variables by clause distribution when the
// resolvent count is strictly below the number of clauses removed. Original
// clauses are stashed for model reconstruction.
func (s *Solver) eliminateVariables() error {
	learntOcc := make(map[Var][]*Clause)
	for _, c := range s.learnts {
		if c.IsScheduledForDeletion() {
			continue
		}
		for _, l := range c.Literals() {
			learntOcc[l.Variable()] = append(learntOcc[l.Variable()], c)
		}
	}

	numVars := s.assign.NumVars()
	for v := Var(0); int(v) < numVars; v++ {
		if s.unsat || s.stopRequested.Load() {
			return nil
		}
		if s.eliminated[v] || s.assign.VarValue(v).Determinate() {
			continue
		}
		pos := s.simp.occ.occurrences(PositiveLiteral(v))
		neg := s.simp.occ.occurrences(NegativeLiteral(v))
		if len(pos)+len(neg) == 0 {
			continue
		}
		if !s.distributionWorthwhile(v, pos, neg) {
			continue
		}
		if err := s.eliminate(v, pos, neg, learntOcc[v]); err != nil {
			return err
		}
		if s.unsat {
			return nil
		}
		if !s.propagateFacts() {
			return nil
		}
	}
	return nil
}

// distributionWorthwhile counts the trivially satisfied resolvents and
// admits elimination only when the surviving resolvents number strictly less
// than the clauses they replace.
func (s *Solver) distributionWorthwhile(v Var, pos, neg []*Clause) bool {
	tautologies := 0
	for _, pc := range pos {
		s.simp.litStamps.Clear()
		for _, l := range pc.Literals() {
			s.simp.litStamps.Stamp(int(l))
		}
		for _, nc := range neg {
			for _, l := range nc.Literals() {
				if l.Variable() != v && s.simp.litStamps.IsStamped(int(l.Opposite())) {
					tautologies++
					break
				}
			}
		}
	}
	total := uint64(len(pos) + len(neg))
	resolvents := uint64(len(pos))*uint64(len(neg)) - uint64(tautologies)
	return resolvents < total
}

// eliminate replaces the clauses containing v with their non-tautological
// resolvents. Learnt clauses containing v are deleted outright, and the
// original clauses are stashed for model reconstruction.
func (s *Solver) eliminate(v Var, pos, neg []*Clause, learnts []*Clause) error {
	stash := make([][]Literal, 0, len(pos)+len(neg))
	for _, c := range pos {
		stash = append(stash, append([]Literal(nil), c.Literals()...))
	}
	for _, c := range neg {
		stash = append(stash, append([]Literal(nil), c.Literals()...))
	}

	var resolvents [][]Literal
	for _, pc := range pos {
		s.simp.litStamps.Clear()
		base := s.simp.resolvent[:0]
		for _, l := range pc.Literals() {
			if l.Variable() != v {
				s.simp.litStamps.Stamp(int(l))
				base = append(base, l)
			}
		}
		baseLen := len(base)
		for _, nc := range neg {
			r := base[:baseLen]
			tautology := false
			for _, l := range nc.Literals() {
				if l.Variable() == v || s.simp.litStamps.IsStamped(int(l)) {
					continue
				}
				if s.simp.litStamps.IsStamped(int(l.Opposite())) {
					tautology = true
					break
				}
				r = append(r, l)
			}
			if tautology {
				continue
			}
			if len(r) == 0 {
				s.unsat = true
				return nil
			}
			resolvents = append(resolvents, append([]Literal(nil), r...))
		}
		s.simp.resolvent = base[:0]
	}

	// Each resolvent is an asymmetric tautology with respect to the original
	// clauses, so additions go to the certificate before the deletions.
	for _, r := range resolvents {
		s.proofAdd(r)
		if len(r) == 1 {
			if !s.assign.Append(r[0]) {
				s.unsat = true
				return nil
			}
			continue
		}
		c, err := s.arena.Allocate(r, false)
		if err != nil {
			s.memoryExhausted = true
			return err
		}
		s.watch.Register(c)
		s.problems = append(s.problems, c)
		s.simp.occ.add(c)
	}

	for _, c := range pos {
		s.deleteClause(c)
	}
	for _, c := range neg {
		s.deleteClause(c)
	}
	for _, c := range learnts {
		if !c.IsScheduledForDeletion() {
			s.deleteClause(c)
		}
	}

	s.elimStack = append(s.elimStack, elimRecord{v: v, clauses: stash})
	s.eliminated[v] = true
	s.numEliminated++
	s.order.SetEligible(v, false)
	s.stats.EliminatedVariables++
	return nil
}

// sweepClauseLists drops deletion-scheduled clauses from the clause lists.
// Their storage is reclaimed by the compaction that follows.
func (s *Solver) sweepClauseLists() {
	sweep := func(list *[]*Clause) {
		clauses := *list
		j := 0
		for _, c := range clauses {
			if !c.IsScheduledForDeletion() {
				clauses[j] = c
				j++
			}
		}
		*list = clauses[:j]
	}
	sweep(&s.problems)
	sweep(&s.learnts)
}
