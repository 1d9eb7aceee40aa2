package sat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiteralCoding(t *testing.T) {
	p := PositiveLiteral(3)
	n := NegativeLiteral(3)

	assert.Equal(t, Literal(6), p)
	assert.Equal(t, Literal(7), n)
	assert.Equal(t, Var(3), p.Variable())
	assert.Equal(t, Var(3), n.Variable())
	assert.True(t, p.IsPositive())
	assert.False(t, n.IsPositive())
	assert.Equal(t, n, p.Opposite())
	assert.Equal(t, p, n.Opposite())
}

func TestLiteralExternalRoundTrip(t *testing.T) {
	for _, ext := range []int{1, -1, 2, -2, 17, -42, 100000, -100000} {
		l := LiteralFromExternal(ext)
		assert.Equal(t, ext, l.External(), "round trip of %d", ext)
	}
	assert.Equal(t, PositiveLiteral(0), LiteralFromExternal(1))
	assert.Equal(t, NegativeLiteral(0), LiteralFromExternal(-1))
}

func TestValidExternal(t *testing.T) {
	assert.False(t, ValidExternal(0))
	assert.True(t, ValidExternal(1))
	assert.True(t, ValidExternal(-1))
	assert.True(t, ValidExternal(MaxExternalVariable))
	assert.True(t, ValidExternal(-MaxExternalVariable))
	assert.False(t, ValidExternal(MaxExternalVariable+1))
	assert.False(t, ValidExternal(-MaxExternalVariable-1))

	// The extremes of the accepted range still encode within 32 bits.
	l := LiteralFromExternal(-MaxExternalVariable)
	assert.Equal(t, -MaxExternalVariable, l.External())
}

func TestLBool(t *testing.T) {
	assert.Equal(t, False, True.Opposite())
	assert.Equal(t, True, False.Opposite())
	assert.Equal(t, Unknown, Unknown.Opposite())
	assert.Equal(t, True, Lift(true))
	assert.Equal(t, False, Lift(false))
	assert.True(t, True.Determinate())
	assert.True(t, False.Determinate())
	assert.False(t, Unknown.Determinate())
}
