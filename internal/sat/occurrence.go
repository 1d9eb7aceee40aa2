package sat

// occurrenceMap maps literals to the clauses containing them. Entries become
// stale when a clause is scheduled for deletion or strengthened; stale
// entries are pruned lazily on lookup.
type occurrenceMap struct {
	occ [][]*Clause
}

func newOccurrenceMap(numVars int) *occurrenceMap {
	return &occurrenceMap{occ: make([][]*Clause, 2*numVars)}
}

// add registers c under each of its literals.
func (m *occurrenceMap) add(c *Clause) {
	for _, l := range c.Literals() {
		m.occ[l] = append(m.occ[l], c)
	}
}

// occurrences returns the live clauses containing l. The returned slice is
// valid until the next call for the same literal; marking clauses deleted
// while iterating is allowed.
func (m *occurrenceMap) occurrences(l Literal) []*Clause {
	clauses := m.occ[l]
	j := 0
	for _, c := range clauses {
		if !c.IsScheduledForDeletion() && c.Contains(l) {
			clauses[j] = c
			j++
		}
	}
	m.occ[l] = clauses[:j]
	return clauses[:j]
}

// clear empties the map, keeping capacity.
func (m *occurrenceMap) clear() {
	for i := range m.occ {
		m.occ[i] = m.occ[i][:0]
	}
}

func (m *occurrenceMap) grow(numVars int) {
	for len(m.occ) < 2*numVars {
		m.occ = append(m.occ, nil)
	}
}
