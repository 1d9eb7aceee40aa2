package sat

// analyzer performs first-UIP conflict analysis. Its buffers are reused
// across conflicts to avoid per-conflict allocations.
type analyzer struct {
	// Stamps for variables visited during resolution.
	seen *StampMap

	// Stamps for decision levels, used for LBD computation.
	levelSeen *StampMap

	lemma    []Literal
	seenVars []Var
}

func newAnalyzer(numVars int) *analyzer {
	return &analyzer{
		seen:      NewStampMap(numVars),
		levelSeen: NewStampMap(numVars + 1),
	}
}

func (an *analyzer) increaseMaxVar(numVars int) {
	an.seen.Grow(numVars)
	an.levelSeen.Grow(numVars + 1)
}

// computeConflictClause resolves the conflict clause against the reasons on
// the trail until exactly one literal of the current decision level remains.
// It returns the learnt clause with the asserting literal at position 0 and
// the literal of the highest remaining level at position 1, the backtrack
// level, and the variables seen during resolution (for activity bumping).
// The returned slices are owned by the analyzer and valid until the next
// call.
func (an *analyzer) computeConflictClause(assign *Assignment, confl *Clause) ([]Literal, uint32, []Var) {
	an.seen.Clear()
	an.lemma = an.lemma[:0]
	an.lemma = append(an.lemma, 0) // reserved for the asserting literal
	an.seenVars = an.seenVars[:0]

	conflictLevel := assign.CurrentLevel()
	pending := 0
	idx := assign.NumAssignments() - 1
	var resolved Var = NoVar
	c := confl

	for {
		for _, q := range c.lits {
			v := q.Variable()
			if v == resolved {
				continue
			}
			if an.seen.IsStamped(int(v)) || assign.Level(v) == 0 {
				continue
			}
			an.seen.Stamp(int(v))
			an.seenVars = append(an.seenVars, v)
			if assign.Level(v) == conflictLevel {
				pending++
			} else {
				an.lemma = append(an.lemma, q)
			}
		}

		// Walk the trail backward to the most recently assigned pending
		// variable.
		var p Literal
		for {
			p = assign.trail[idx]
			idx--
			if an.seen.IsStamped(int(p.Variable())) {
				break
			}
		}
		pending--
		if pending <= 0 {
			an.lemma[0] = p.Opposite()
			break
		}
		resolved = p.Variable()
		c = assign.Reason(resolved)
	}

	// Place the literal of the highest level at position 1; its level is the
	// backtrack level.
	backtrackLevel := uint32(0)
	if len(an.lemma) > 1 {
		maxIdx := 1
		for i := 2; i < len(an.lemma); i++ {
			if assign.Level(an.lemma[i].Variable()) > assign.Level(an.lemma[maxIdx].Variable()) {
				maxIdx = i
			}
		}
		an.lemma[1], an.lemma[maxIdx] = an.lemma[maxIdx], an.lemma[1]
		backtrackLevel = assign.Level(an.lemma[1].Variable())
	}

	return an.lemma, backtrackLevel, an.seenVars
}

// placeBacktrackLiteral moves the literal with the highest decision level
// among lemma[1:] to position 1 and returns that level, the backtrack level.
// Unit lemmas backtrack to level 0. Minimization can remove the literal
// placed during analysis, so this runs after minimization.
func placeBacktrackLiteral(assign *Assignment, lemma []Literal) uint32 {
	if len(lemma) < 2 {
		return 0
	}
	maxIdx := 1
	for i := 2; i < len(lemma); i++ {
		if assign.Level(lemma[i].Variable()) > assign.Level(lemma[maxIdx].Variable()) {
			maxIdx = i
		}
	}
	lemma[1], lemma[maxIdx] = lemma[maxIdx], lemma[1]
	return assign.Level(lemma[1].Variable())
}

// computeLBD returns the number of distinct decision levels among lits.
func (an *analyzer) computeLBD(assign *Assignment, lits []Literal) uint32 {
	an.levelSeen.Clear()
	lbd := uint32(0)
	for _, l := range lits {
		level := int(assign.Level(l.Variable()))
		if !an.levelSeen.IsStamped(level) {
			an.levelSeen.Stamp(level)
			lbd++
		}
	}
	return lbd
}

// failedAssumptions collects the assumption literals whose propagation
// consequences include the variables of start. failed is an initial result
// list to extend (used when an assumption itself is directly contradicted).
// isAssumption distinguishes genuine assumptions from other reasonless
// assignments above level 0, such as asserted unit lemmas.
func (an *analyzer) failedAssumptions(assign *Assignment, start []Literal, failed []Literal, isAssumption func(Literal) bool) []Literal {
	an.seen.Clear()
	for _, q := range start {
		if assign.Level(q.Variable()) > 0 {
			an.seen.Stamp(int(q.Variable()))
		}
	}
	for i := len(assign.trail) - 1; i >= 0; i-- {
		p := assign.trail[i]
		v := p.Variable()
		if assign.Level(v) == 0 {
			break
		}
		if !an.seen.IsStamped(int(v)) {
			continue
		}
		if r := assign.Reason(v); r != nil {
			for _, q := range r.lits {
				if q.Variable() != v && assign.Level(q.Variable()) > 0 {
					an.seen.Stamp(int(q.Variable()))
				}
			}
		} else if isAssumption(p) {
			failed = append(failed, p)
		}
	}
	return failed
}
