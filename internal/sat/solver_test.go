package sat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solveExt(t *testing.T, s *Solver, assumptions ...int) Result {
	t.Helper()
	return s.Solve(lits(assumptions...))
}

func TestSolveEmptyProblem(t *testing.T) {
	s := newTestSolver(t)
	res := solveExt(t, s)
	require.Equal(t, True, res.Status)
	assert.Equal(t, 0, res.Model.NumVars())
}

func TestSolveEmptyClauseIsUnsat(t *testing.T) {
	s := newTestSolver(t)
	require.NoError(t, s.AddClause(nil))
	res := solveExt(t, s)
	assert.Equal(t, False, res.Status)
	assert.Empty(t, res.FailedAssumptions)
}

func TestSolveConflictingUnitsAreUnsat(t *testing.T) {
	s := newTestSolver(t, []int{1}, []int{-1})
	res := solveExt(t, s)
	assert.Equal(t, False, res.Status)
}

func TestSolveSingleUnit(t *testing.T) {
	s := newTestSolver(t, []int{1})
	res := solveExt(t, s)
	require.Equal(t, True, res.Status)
	assert.Equal(t, True, res.Model.Value(lit(1).Variable()))
	assert.Equal(t, []int{1}, extModel(res.Model))
}

func TestSolveAtMostOneScenario(t *testing.T) {
	problem := [][]int{{1, 2, 3}, {-1, -2}, {-1, -3}, {-2, -3}}
	s := newTestSolver(t, problem...)

	res := solveExt(t, s)
	require.Equal(t, True, res.Status)
	require.True(t, res.Model.Check(toInternalProblem(problem)))

	trueCount := 0
	for v := Var(0); v < 3; v++ {
		if res.Model.Value(v) == True {
			trueCount++
		}
	}
	assert.Equal(t, 1, trueCount)
}

// pigeonhole returns the CNF encoding of fitting pigeons into holes,
// unsatisfiable whenever pigeons > holes.
func pigeonhole(pigeons, holes int) [][]int {
	x := func(p, h int) int {
		return p*holes + h + 1
	}
	var clauses [][]int
	for p := 0; p < pigeons; p++ {
		clause := make([]int, holes)
		for h := 0; h < holes; h++ {
			clause[h] = x(p, h)
		}
		clauses = append(clauses, clause)
	}
	for h := 0; h < holes; h++ {
		for p := 0; p < pigeons; p++ {
			for q := p + 1; q < pigeons; q++ {
				clauses = append(clauses, []int{-x(p, h), -x(q, h)})
			}
		}
	}
	return clauses
}

func TestSolvePigeonholeUnsat(t *testing.T) {
	s := newTestSolver(t, pigeonhole(4, 3)...)
	res := solveExt(t, s)
	assert.Equal(t, False, res.Status)
}

func TestSolvePigeonholeSat(t *testing.T) {
	problem := pigeonhole(3, 3)
	s := newTestSolver(t, problem...)
	res := solveExt(t, s)
	require.Equal(t, True, res.Status)
	assert.True(t, res.Model.Check(toInternalProblem(problem)))
}

func TestSolvePigeonholeWithSimplification(t *testing.T) {
	opts := DefaultOptions
	opts.SimplificationInterval = 100
	s := NewSolver(opts)
	addExt(t, s, pigeonhole(5, 4)...)
	res := solveExt(t, s)
	assert.Equal(t, False, res.Status)
}

// rule110 returns a cell's next state from its left neighbor, its own state
// and its right neighbor.
func rule110(a, b, c bool) bool {
	switch {
	case a && b && c:
		return false
	case !a && !b && !c:
		return false
	case a && !b && !c:
		return false
	default:
		return true
	}
}

// rule110Predecessor encodes "the first row steps to the given second row":
// variables 1..w are the unknown predecessor cells, w+1..2w the fixed
// successor cells.
func rule110Predecessor(next []bool) [][]int {
	w := len(next)
	prevVar := func(i int) int { return ((i+w)%w + 1) }
	nextVar := func(i int) int { return w + i + 1 }
	sel := func(v int, val bool) int {
		if val {
			return v
		}
		return -v
	}

	var clauses [][]int
	for i := 0; i < w; i++ {
		for combo := 0; combo < 8; combo++ {
			a := combo&4 != 0
			b := combo&2 != 0
			c := combo&1 != 0
			out := rule110(a, b, c)
			// If the neighborhood matches (a,b,c), the successor must be out.
			clauses = append(clauses, []int{
				sel(prevVar(i-1), !a),
				sel(prevVar(i), !b),
				sel(prevVar(i+1), !c),
				sel(nextVar(i), out),
			})
		}
	}
	for i, val := range next {
		clauses = append(clauses, []int{sel(nextVar(i), val)})
	}
	return clauses
}

func TestSolveRule110Predecessor(t *testing.T) {
	prev := []bool{false, true, true, false, true, false, false, false}
	w := len(prev)
	next := make([]bool, w)
	for i := range prev {
		next[i] = rule110(prev[(i-1+w)%w], prev[i], prev[(i+1)%w])
	}

	problem := rule110Predecessor(next)
	s := newTestSolver(t, problem...)
	res := solveExt(t, s)
	require.Equal(t, True, res.Status, "a predecessor is known to exist")

	// The model's first row must step to the fixed second row.
	got := make([]bool, w)
	for i := 0; i < w; i++ {
		got[i] = res.Model.Value(Var(i)) == True
	}
	for i := 0; i < w; i++ {
		stepped := rule110(got[(i-1+w)%w], got[i], got[(i+1)%w])
		assert.Equal(t, next[i], stepped, "cell %d", i)
	}
}

func TestSolveIncrementalAssumptions(t *testing.T) {
	s := newTestSolver(t, []int{1, 2, 3})

	res := solveExt(t, s)
	require.Equal(t, True, res.Status)

	res = solveExt(t, s, -1, -2, -3)
	require.Equal(t, False, res.Status)
	assert.NotEmpty(t, res.FailedAssumptions)
	for _, f := range res.FailedAssumptions {
		assert.Contains(t, lits(-1, -2, -3), f)
	}

	// The database is intact: solving without assumptions succeeds again.
	res = solveExt(t, s)
	assert.Equal(t, True, res.Status)
}

func TestSolveRepeatedIsDeterministic(t *testing.T) {
	mk := func() *Solver {
		return newTestSolver(t, []int{1, 2}, []int{-1, 3}, []int{-2, -3}, []int{2, 3, 4})
	}

	a := solveExt(t, mk(), -4)
	b := solveExt(t, mk(), -4)
	require.Equal(t, a.Status, b.Status)
	if a.Status == True {
		if diff := cmp.Diff(extModel(a.Model), extModel(b.Model)); diff != "" {
			t.Errorf("models differ between identical runs (-a +b):\n%s", diff)
		}
	}

	// Re-solving on the same solver with the same assumptions agrees too.
	s := mk()
	first := solveExt(t, s, -4)
	second := solveExt(t, s, -4)
	assert.Equal(t, first.Status, second.Status)
}

func TestSolveClauseOrderIndependentSatisfiability(t *testing.T) {
	clauses := [][]int{{1, 2}, {-1, 3}, {-3, -2}, {2, 4}}
	s1 := newTestSolver(t, clauses...)

	reversed := make([][]int, len(clauses))
	for i := range clauses {
		reversed[i] = clauses[len(clauses)-1-i]
	}
	s2 := newTestSolver(t, reversed...)

	assert.Equal(t, solveExt(t, s1).Status, solveExt(t, s2).Status)
}

func TestSolveOutOfMemoryIsIndeterminate(t *testing.T) {
	opts := DefaultOptions
	opts.ClauseMemoryLimit = 128
	s := NewSolver(opts)

	err := s.AddClause(lits(1, 2, 3))
	require.ErrorIs(t, err, ErrOutOfMemory)

	res := solveExt(t, s)
	assert.Equal(t, Unknown, res.Status)
	assert.ErrorIs(t, s.Err(), ErrOutOfMemory)

	// Later calls keep reporting INDETERMINATE instead of a wrong result.
	res = solveExt(t, s)
	assert.Equal(t, Unknown, res.Status)
}

func TestSolveStopViaProgressCallback(t *testing.T) {
	s := newTestSolver(t, pigeonhole(8, 7)...)
	s.SetLogger(func(string) {
		s.Stop()
	})
	res := solveExt(t, s)
	assert.Equal(t, Unknown, res.Status)

	// The stop is cooperative and confined to the stopped solver: a separate
	// solver still solves an easy problem.
	s2 := newTestSolver(t, []int{1, 2})
	res2 := solveExt(t, s2)
	assert.Equal(t, True, res2.Status)
}
