package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	start := c.Now()
	if c.Since(start) < 0 {
		t.Error("Since should not be negative")
	}
}

func TestMockClock_Fixed(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(base)

	if !c.Now().Equal(base) || !c.Now().Equal(base) {
		t.Errorf("Now() should stay at %v without a step", base)
	}
	if got := c.Since(base.Add(-90 * time.Second)); got != 90*time.Second {
		t.Errorf("Since = %v, want 90s", got)
	}
}

func TestMockClock_Stepping(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewSteppingClock(base, 250*time.Millisecond)

	first := c.Now()
	second := c.Now()
	if got := second.Sub(first); got != 250*time.Millisecond {
		t.Errorf("step = %v, want 250ms", got)
	}
	// Since reads without stepping.
	if c.Since(first) != c.Since(first) {
		t.Error("Since should not advance the clock")
	}
	if got := c.Since(first); got != 500*time.Millisecond {
		t.Errorf("Since(first) = %v, want 500ms", got)
	}
}
