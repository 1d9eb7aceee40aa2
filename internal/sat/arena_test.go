package sat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocate(t *testing.T) {
	a := NewArena(0)
	lits := []Literal{PositiveLiteral(0), NegativeLiteral(1), PositiveLiteral(2)}

	c, err := a.Allocate(lits, false)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, 3, c.InitialSize())
	assert.Equal(t, lits, c.Literals())
	assert.False(t, c.IsLearnt())

	learnt, err := a.Allocate(lits[:2], true)
	require.NoError(t, err)
	assert.True(t, learnt.IsLearnt())
}

func TestArenaPointerStability(t *testing.T) {
	a := NewArena(0)
	var clauses []*Clause
	var snapshots [][]Literal
	for v := Var(0); v < 2000; v++ {
		lits := []Literal{PositiveLiteral(v), NegativeLiteral(v + 1), PositiveLiteral(v + 2)}
		c, err := a.Allocate(lits, false)
		require.NoError(t, err)
		clauses = append(clauses, c)
		snapshots = append(snapshots, lits)
	}
	for i, c := range clauses {
		assert.Equal(t, snapshots[i], c.Literals())
	}
}

func TestArenaClonePreservesFlagsAndLBD(t *testing.T) {
	a := NewArena(0)
	c, err := a.Allocate([]Literal{PositiveLiteral(0), PositiveLiteral(1)}, true)
	require.NoError(t, err)
	c.SetLBD(7)

	b := NewArena(0)
	nc, err := b.clone(c)
	require.NoError(t, err)
	assert.Equal(t, c.Literals(), nc.Literals())
	assert.True(t, nc.IsLearnt())
	assert.Equal(t, uint32(7), nc.LBD())
}

func TestArenaMemoryLimit(t *testing.T) {
	a := NewArena(64)
	_, err := a.Allocate([]Literal{PositiveLiteral(0), PositiveLiteral(1)}, false)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestArenaTraversalOrder(t *testing.T) {
	a := NewArena(0)
	first, err := a.Allocate([]Literal{PositiveLiteral(0), PositiveLiteral(1)}, false)
	require.NoError(t, err)
	second, err := a.Allocate([]Literal{PositiveLiteral(2), PositiveLiteral(3)}, false)
	require.NoError(t, err)

	var seen []*Clause
	a.Clauses(func(c *Clause) bool {
		seen = append(seen, c)
		return true
	})
	assert.Equal(t, []*Clause{first, second}, seen)
}
