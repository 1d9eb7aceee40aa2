package sat

import "fmt"

// Statistics counts search and simplification events. Counters reset only
// when the solver is created; they accumulate across incremental solves.
type Statistics struct {
	Decisions    uint64
	Conflicts    uint64
	Propagations uint64
	Restarts     uint64
	Reductions   uint64
	Compactions  uint64

	LearntClauses  uint64
	LearntFacts    uint64
	DeletedClauses uint64

	SubsumedClauses      uint64
	StrengthenedClauses  uint64
	FailedLiterals       uint64
	EliminatedVariables  uint64
	SimplificationRounds uint64
}

func (st *Statistics) String() string {
	return fmt.Sprintf(
		"decisions=%d conflicts=%d propagations=%d restarts=%d reductions=%d learnt=%d facts=%d deleted=%d",
		st.Decisions, st.Conflicts, st.Propagations, st.Restarts,
		st.Reductions, st.LearntClauses, st.LearntFacts, st.DeletedClauses)
}

func (st *Statistics) simplificationString() string {
	return fmt.Sprintf(
		"simplifications=%d subsumed=%d strengthened=%d failedlits=%d eliminated=%d",
		st.SimplificationRounds, st.SubsumedClauses, st.StrengthenedClauses,
		st.FailedLiterals, st.EliminatedVariables)
}
