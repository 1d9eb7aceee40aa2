package sat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestLubySequence(t *testing.T) {
	want := []uint64{1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8}
	var seq lubySequence
	got := []uint64{seq.current()}
	for len(got) < len(want) {
		got = append(got, seq.next())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("luby sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestLubyRestartPolicyGraceTime(t *testing.T) {
	p := NewLubyRestartPolicy(3, 0)
	for i := 0; i < 4; i++ {
		assert.False(t, p.ShouldRestart(), "restart advised during grace time (conflict %d)", i)
		p.RegisterConflict(0)
	}
	assert.True(t, p.ShouldRestart())
}

func TestLubyRestartPolicyIntervals(t *testing.T) {
	p := NewLubyRestartPolicy(0, 1) // intervals: 2*luby
	intervals := []int{2, 2, 4}
	// The initial interval uses the first Luby element.
	for _, interval := range intervals {
		for i := 0; i < interval; i++ {
			assert.False(t, p.ShouldRestart())
			p.RegisterConflict(0)
		}
		assert.True(t, p.ShouldRestart())
		p.RegisterRestart()
	}
}

func TestSimpleMovingAverage(t *testing.T) {
	a := newSimpleMovingAverage(3)
	assert.False(t, a.isFull())
	a.add(3)
	a.add(6)
	assert.InDelta(t, 4.5, a.average(), 1e-9)
	a.add(9)
	assert.True(t, a.isFull())
	assert.InDelta(t, 6.0, a.average(), 1e-9)
	a.add(12) // evicts 3
	assert.InDelta(t, 9.0, a.average(), 1e-9)
	a.clear()
	assert.False(t, a.isFull())
}

func TestGlucoseRestartPolicy(t *testing.T) {
	p := NewGlucoseRestartPolicy(2, 0.8)

	// Low recent LBDs relative to the global average: no restart.
	p.RegisterConflict(10)
	p.RegisterConflict(2)
	p.RegisterConflict(2)
	assert.False(t, p.ShouldRestart())

	// Recent LBDs spike above the global average.
	p.RegisterConflict(50)
	p.RegisterConflict(50)
	assert.True(t, p.ShouldRestart())

	// Restarting clears the window, so the policy needs it refilled.
	p.RegisterRestart()
	assert.False(t, p.ShouldRestart())
}
