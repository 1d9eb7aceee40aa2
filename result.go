package jamsat

import "github.com/fkutzner/jamsat-go/internal/sat"

// Status is a solving outcome, using the IPASIR exit-code convention.
type Status int

const (
	StatusIndeterminate Status = 0
	StatusSatisfiable   Status = 10
	StatusUnsatisfiable Status = 20
)

func (s Status) String() string {
	switch s {
	case StatusSatisfiable:
		return "SATISFIABLE"
	case StatusUnsatisfiable:
		return "UNSATISFIABLE"
	default:
		return "INDETERMINATE"
	}
}

// Result is the outcome of a Solve call.
type Result struct {
	status Status
	model  []int
	failed []int
}

func newResult(res sat.Result) Result {
	r := Result{}
	switch res.Status {
	case sat.True:
		r.status = StatusSatisfiable
		r.model = make([]int, 0, res.Model.NumVars())
		for _, l := range res.Model.Literals() {
			r.model = append(r.model, l.External())
		}
	case sat.False:
		r.status = StatusUnsatisfiable
		r.failed = make([]int, 0, len(res.FailedAssumptions))
		for _, l := range res.FailedAssumptions {
			r.failed = append(r.failed, l.External())
		}
	default:
		r.status = StatusIndeterminate
	}
	return r
}

// Status returns the solving outcome.
func (r Result) Status() Status {
	return r.status
}

// IsSatisfiable returns true iff the problem was proved satisfiable.
func (r Result) IsSatisfiable() bool {
	return r.status == StatusSatisfiable
}

// Model returns the literals true under the satisfying assignment, one per
// variable in id order. It is nil unless the result is satisfiable.
func (r Result) Model() []int {
	return r.model
}

// FailedAssumptions returns the subset of the assumptions used to derive
// unsatisfiability. It is empty when the problem is unsatisfiable regardless
// of assumptions, and nil unless the result is unsatisfiable.
func (r Result) FailedAssumptions() []int {
	return r.failed
}
