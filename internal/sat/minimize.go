package sat

// minimizer removes redundant literals from learnt clauses. A literal is
// redundant if the reasons of its variable, followed transitively, are
// covered by the remaining lemma literals and facts; such literals can be
// resolved away without weakening the lemma.
type minimizer struct {
	varStamps *StampMap
	litStamps *StampMap
	work      []Var
	cleanup   []Var
}

func newMinimizer(numVars int) *minimizer {
	return &minimizer{
		varStamps: NewStampMap(numVars),
		litStamps: NewStampMap(2 * numVars),
	}
}

func (m *minimizer) increaseMaxVar(numVars int) {
	m.varStamps.Grow(numVars)
	m.litStamps.Grow(2 * numVars)
}

// minimize shrinks lemma in place and returns the shortened slice. The
// asserting literal at position 0 is never removed. The trail and reasons
// must still describe the conflict state.
func (m *minimizer) minimize(assign *Assignment, watch *Watchers, lemma []Literal) []Literal {
	lemma = m.eraseRedundantLiterals(assign, lemma)
	lemma = m.resolveWithBinaries(assign, watch, lemma)
	return lemma
}

// eraseRedundantLiterals implements recursive lemma minimization with an
// over-approximating set of the lemma's decision levels for early rejection.
func (m *minimizer) eraseRedundantLiterals(assign *Assignment, lemma []Literal) []Literal {
	m.varStamps.Clear()

	var levels overApproximatingSet
	levels.insert(0)
	for _, l := range lemma {
		m.varStamps.Stamp(int(l.Variable()))
		levels.insert(assign.Level(l.Variable()))
	}

	j := 1
	for i := 1; i < len(lemma); i++ {
		if !m.isRedundant(assign, lemma[i], levels) {
			lemma[j] = lemma[i]
			j++
		}
	}
	return lemma[:j]
}

func (m *minimizer) isRedundant(assign *Assignment, lit Literal, levels overApproximatingSet) bool {
	v := lit.Variable()
	if assign.Level(v) == assign.CurrentLevel() || assign.Reason(v) == nil {
		return false
	}

	m.work = m.work[:0]
	m.work = append(m.work, v)

	// Stamps added during this check must be rolled back if it fails.
	m.cleanup = m.cleanup[:0]

	for len(m.work) > 0 {
		item := m.work[len(m.work)-1]
		m.work = m.work[:len(m.work)-1]

		for _, q := range assign.Reason(item).Literals() {
			qv := q.Variable()
			qLevel := assign.Level(qv)

			if !levels.mightContain(qLevel) {
				// The lemma definitely has no literal on qLevel, so q cannot
				// be covered.
				m.rollback()
				return false
			}
			if qLevel == 0 || m.varStamps.IsStamped(int(qv)) {
				continue
			}
			if assign.Reason(qv) == nil {
				m.rollback()
				return false
			}
			m.varStamps.Stamp(int(qv))
			m.work = append(m.work, qv)
			m.cleanup = append(m.cleanup, qv)
		}
	}
	return true
}

func (m *minimizer) rollback() {
	for _, v := range m.cleanup {
		m.varStamps.Unstamp(int(v))
	}
}

// resolveWithBinaries applies binary self-subsuming resolution: for every
// binary clause (a ∨ lemma[0]), a lemma literal ¬a can be resolved away.
func (m *minimizer) resolveWithBinaries(assign *Assignment, watch *Watchers, lemma []Literal) []Literal {
	m.litStamps.Clear()
	stamped := false
	watch.binariesWith(lemma[0], func(other Literal) {
		m.litStamps.Stamp(int(other))
		stamped = true
	})
	if !stamped {
		return lemma
	}

	j := 1
	for i := 1; i < len(lemma); i++ {
		if !m.litStamps.IsStamped(int(lemma[i].Opposite())) {
			lemma[j] = lemma[i]
			j++
		}
	}
	return lemma[:j]
}
