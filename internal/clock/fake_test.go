package clock

import (
	"testing"
	"time"
)

func TestFakeSleepAdvances(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	f.Sleep(time.Second)
	f.Sleep(500 * time.Millisecond)

	if got := f.Now().Sub(start); got != 1500*time.Millisecond {
		t.Errorf("elapsed: got %v, want 1.5s", got)
	}
	if len(f.Slept) != 2 {
		t.Fatalf("expected 2 recorded sleeps, got %d", len(f.Slept))
	}
	if f.TotalSlept() != 1500*time.Millisecond {
		t.Errorf("TotalSlept: got %v", f.TotalSlept())
	}
}

func TestFakeAdvanceDoesNotRecord(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	f.Advance(time.Minute)

	if len(f.Slept) != 0 {
		t.Errorf("Advance should not record sleeps, got %d", len(f.Slept))
	}
	if !f.Now().Equal(start.Add(time.Minute)) {
		t.Errorf("Now: got %v", f.Now())
	}
}
