package sat

import "sort"

// reductionPolicy selects learnt clauses for deletion, modeled after the
// Glucose solver: a reduction is admitted a growing number of conflicts after
// the previous one, and removes the worse half of the learnt clauses by LBD
// unless the database still consists of glue-like clauses.
type reductionPolicy struct {
	intervalIncrease uint64
	intervalSize     uint64
	conflictsLeft    uint64

	// Learnt clauses that are never deleted, e.g. clauses whose deletion
	// would invalidate in-flight state. Counted against the deletion budget.
	knownGood int
}

func newReductionPolicy(intervalIncrease uint64) *reductionPolicy {
	return &reductionPolicy{intervalIncrease: intervalIncrease}
}

func (p *reductionPolicy) registerConflict() {
	if p.conflictsLeft > 0 {
		p.conflictsLeft--
	}
}

func (p *reductionPolicy) shouldReduce(numLearnts int) bool {
	return p.conflictsLeft == 0 && numLearnts > 0
}

// clausesToDelete reorders learnts by ascending (LBD, size) and returns the
// suffix to be deleted. The suffix is empty when too few clauses are eligible
// or when the median clause still has LBD <= 3.
func (p *reductionPolicy) clausesToDelete(learnts []*Clause) []*Clause {
	p.intervalSize += p.intervalIncrease
	p.conflictsLeft = p.intervalSize

	mid := (p.knownGood + len(learnts)) / 2
	if mid >= len(learnts) {
		return nil
	}

	sort.Slice(learnts, func(i, j int) bool {
		if learnts[i].LBD() != learnts[j].LBD() {
			return learnts[i].LBD() < learnts[j].LBD()
		}
		// Smaller clauses propagate faster; keep them on ties.
		return learnts[i].Size() < learnts[j].Size()
	})

	if learnts[mid].LBD() <= 3 {
		return nil
	}
	return learnts[mid:]
}
