package jamsat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveSimpleSat(t *testing.T) {
	s := NewDefault()
	require.NoError(t, s.AddClause(1, 2))
	require.NoError(t, s.AddClause(-1))

	res, err := s.Solve()
	require.NoError(t, err)
	require.True(t, res.IsSatisfiable())
	assert.Equal(t, []int{-1, 2}, res.Model())
}

func TestSolveIncrementalWithAssumptions(t *testing.T) {
	s := NewDefault()
	require.NoError(t, s.AddClause(1, 2, 3))

	res, err := s.Solve()
	require.NoError(t, err)
	assert.Equal(t, StatusSatisfiable, res.Status())

	res, err = s.Solve(-1, -2, -3)
	require.NoError(t, err)
	require.Equal(t, StatusUnsatisfiable, res.Status())
	require.NotEmpty(t, res.FailedAssumptions())
	for _, f := range res.FailedAssumptions() {
		assert.Contains(t, []int{-1, -2, -3}, f)
	}

	// The incremental database is unchanged by the failed attempt.
	res, err = s.Solve()
	require.NoError(t, err)
	assert.Equal(t, StatusSatisfiable, res.Status())
}

func TestSolveRepeatedAssumptionsDeterministic(t *testing.T) {
	s := NewDefault()
	require.NoError(t, s.AddProblem([][]int{{1, 2}, {-2, 3}, {-1, -3}}))

	first, err := s.Solve(2)
	require.NoError(t, err)
	second, err := s.Solve(2)
	require.NoError(t, err)
	assert.Equal(t, first.Status(), second.Status())
	assert.Equal(t, first.Model(), second.Model())
}

func TestAddClauseRejectsZeroLiteral(t *testing.T) {
	s := NewDefault()
	assert.Error(t, s.AddClause(1, 0, 2))
	_, err := s.Solve(0)
	assert.Error(t, err)
}

func TestRejectsOutOfRangeLiterals(t *testing.T) {
	s := NewDefault()
	tooBig := MaxVariable + 1

	require.Error(t, s.AddClause(1, tooBig))
	require.Error(t, s.AddClause(-tooBig))
	_, err := s.Solve(tooBig)
	require.Error(t, err)
	_, err = s.Solve(-tooBig)
	require.Error(t, err)

	// The rejected inputs must not have corrupted the solver.
	require.NoError(t, s.AddClause(1))
	res, err := s.Solve()
	require.NoError(t, err)
	assert.True(t, res.IsSatisfiable())
}

func TestAssumptionsExpandVariableSpace(t *testing.T) {
	s := NewDefault()
	require.NoError(t, s.AddClause(1))

	res, err := s.Solve(42)
	require.NoError(t, err)
	require.True(t, res.IsSatisfiable())
	assert.Contains(t, res.Model(), 42)
}

func TestTerminateCallbackStopsSolve(t *testing.T) {
	s := NewDefault()
	// A hard pigeonhole instance: 9 pigeons, 8 holes.
	x := func(p, h int) int { return p*8 + h + 1 }
	for p := 0; p < 9; p++ {
		clause := make([]int, 8)
		for h := 0; h < 8; h++ {
			clause[h] = x(p, h)
		}
		require.NoError(t, s.AddClause(clause...))
	}
	for h := 0; h < 8; h++ {
		for p := 0; p < 9; p++ {
			for q := p + 1; q < 9; q++ {
				require.NoError(t, s.AddClause(-x(p, h), -x(q, h)))
			}
		}
	}

	s.SetTerminate(func() bool { return true })
	res, err := s.Solve()
	require.NoError(t, err)
	// Either the watcher fired within the first poll interval, or the solver
	// finished beforehand; both are legal, a wrong answer is not.
	assert.Contains(t, []Status{StatusIndeterminate, StatusUnsatisfiable}, res.Status())
}

func TestStopIsNonBlocking(t *testing.T) {
	s := NewDefault()
	s.Stop() // no solve in flight; must be a harmless no-op
	require.NoError(t, s.AddClause(1))
	res, err := s.Solve()
	require.NoError(t, err)
	assert.True(t, res.IsSatisfiable())
}

func TestDRATCertificateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proof.drat")
	opts := DefaultOptions
	opts.DRATOutputPath = path
	s, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, s.AddProblem([][]int{{1}, {-1}}))
	res, err := s.Solve()
	require.NoError(t, err)
	require.Equal(t, StatusUnsatisfiable, res.Status())
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	// The certificate ends with the terminating empty clause: 'a', 0x00.
	assert.Equal(t, []byte{0x61, 0x00}, data[len(data)-2:])
}

func TestSolverLoggerReceivesReports(t *testing.T) {
	s := NewDefault()
	var messages []string
	s.SetLogger(func(msg string) { messages = append(messages, msg) })
	require.NoError(t, s.AddClause(1, 2))
	_, err := s.Solve()
	require.NoError(t, err)
	assert.NotEmpty(t, messages)
}
