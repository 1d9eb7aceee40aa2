package sat

// Proof receives clause addition and deletion events for UNSAT certificate
// generation. Literals are passed in the external 1-based encoding. An
// implementation failing to write must latch the failure and report it from
// Err; event methods are fire-and-forget on the solver's hot path.
type Proof interface {
	AddClause(lits []int)
	AddRATClause(lits []int, pivotIdx int)
	DeleteClause(lits []int)
	Flush() error
	Err() error
}

func (s *Solver) proofLits(lits []Literal) []int {
	s.proofBuf = s.proofBuf[:0]
	for _, l := range lits {
		s.proofBuf = append(s.proofBuf, l.External())
	}
	return s.proofBuf
}

// proofAdd records lits as an asymmetric-tautology addition.
func (s *Solver) proofAdd(lits []Literal) {
	if s.proof == nil {
		return
	}
	s.proof.AddClause(s.proofLits(lits))
}

// proofAddRAT records lits as a resolution-asymmetric-tautology addition
// with the pivot at pivotIdx.
func (s *Solver) proofAddRAT(lits []Literal, pivotIdx int) {
	if s.proof == nil {
		return
	}
	s.proof.AddRATClause(s.proofLits(lits), pivotIdx)
}

// proofDelete records the deletion of lits.
func (s *Solver) proofDelete(lits []Literal) {
	if s.proof == nil {
		return
	}
	s.proof.DeleteClause(s.proofLits(lits))
}

// proofFinishUnsat emits the terminating empty clause and flushes.
func (s *Solver) proofFinishUnsat() {
	if s.proof == nil {
		return
	}
	s.proof.AddClause(nil)
	if err := s.proof.Flush(); err != nil {
		s.proofErr = err
	}
}

// checkProof latches any recorder error so that the current and subsequent
// solves report INDETERMINATE until the certificate is reset.
func (s *Solver) checkProof() bool {
	if s.proof == nil {
		return true
	}
	if err := s.proof.Err(); err != nil {
		s.proofErr = err
		return false
	}
	return true
}
