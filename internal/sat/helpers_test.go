package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// lit converts an external 1-based literal for test readability.
func lit(e int) Literal {
	return LiteralFromExternal(e)
}

func lits(ext ...int) []Literal {
	out := make([]Literal, len(ext))
	for i, e := range ext {
		out[i] = lit(e)
	}
	return out
}

func addExt(t *testing.T, s *Solver, clauses ...[]int) {
	t.Helper()
	for _, cl := range clauses {
		require.NoError(t, s.AddClause(lits(cl...)))
	}
}

// newTestSolver builds a solver with simplification disabled so that unit
// tests exercise the search machinery in isolation.
func newTestSolver(t *testing.T, clauses ...[]int) *Solver {
	t.Helper()
	opts := DefaultOptions
	opts.SimplificationInterval = 0
	s := NewSolver(opts)
	addExt(t, s, clauses...)
	return s
}

func extModel(m *Model) []int {
	out := make([]int, 0, m.NumVars())
	for _, l := range m.Literals() {
		out = append(out, l.External())
	}
	return out
}

func toInternalProblem(clauses [][]int) [][]Literal {
	out := make([][]Literal, len(clauses))
	for i, cl := range clauses {
		out[i] = lits(cl...)
	}
	return out
}
