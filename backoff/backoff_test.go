package backoff

import (
	"testing"
	"time"
)

func TestExponential(t *testing.T) {
	t.Parallel()

	s := NewExponential(1*time.Second, 30*time.Second)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // capped
		{10, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := s.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponential_Uncapped(t *testing.T) {
	t.Parallel()

	s := NewExponential(1*time.Second, 0)
	if got := s.Delay(10); got != 512*time.Second {
		t.Errorf("Delay(10) = %v, want 512s", got)
	}
}

// fixed is a test strategy with a constant delay.
type fixed time.Duration

func (f fixed) Delay(int) time.Duration { return time.Duration(f) }

func TestJittered_StaysWithinBase(t *testing.T) {
	t.Parallel()

	j := Jittered{Base: fixed(10 * time.Second)}
	for attempt := 1; attempt <= 50; attempt++ {
		if d := j.Delay(attempt); d < 0 || d > 10*time.Second {
			t.Fatalf("Delay(%d) = %v, want within [0, 10s]", attempt, d)
		}
	}
}

func TestJittered_ZeroBase(t *testing.T) {
	t.Parallel()

	j := Jittered{Base: fixed(0)}
	if d := j.Delay(3); d != 0 {
		t.Errorf("Delay(3) = %v, want 0", d)
	}
}

func TestDefaultStrategy_Bounded(t *testing.T) {
	t.Parallel()

	s := DefaultStrategy()
	for attempt := 1; attempt <= 20; attempt++ {
		if d := s.Delay(attempt); d < 0 || d > 30*time.Second {
			t.Fatalf("Delay(%d) = %v, want within [0, 30s]", attempt, d)
		}
	}
}
