package logic

import (
	"testing"
	"time"
)

func newTestDebouncer(now time.Time) *Debouncer {
	return NewDebouncer(DebounceWindow, NewButtonSample(now, false, false, false))
}

func TestPressRecognisedOnRelease(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := newTestDebouncer(now)

	// Press
	p := d.Process(NewButtonSample(now.Add(100*time.Millisecond), true, false, false))
	if p.Any() {
		t.Errorf("expected no press on push, got %+v", p)
	}

	// Release after the window
	p = d.Process(NewButtonSample(now.Add(200*time.Millisecond), false, false, false))
	if !p.USB {
		t.Error("expected USB press on release")
	}
	if p.Info || p.Inverter {
		t.Errorf("unexpected presses: %+v", p)
	}

	// Stable afterwards
	p = d.Process(NewButtonSample(now.Add(400*time.Millisecond), false, false, false))
	if p.Any() {
		t.Errorf("expected no press while released, got %+v", p)
	}
}

func TestBounceWithinWindowIgnored(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := newTestDebouncer(now)

	d.Process(NewButtonSample(now.Add(100*time.Millisecond), false, true, false))

	// Contact bounce 20ms later is ignored
	p := d.Process(NewButtonSample(now.Add(120*time.Millisecond), false, false, false))
	if p.Any() {
		t.Errorf("bounce should be ignored, got %+v", p)
	}
	if !d.State(ButtonInfo).Level {
		t.Error("info should still read pressed")
	}

	// Real release after the window
	p = d.Process(NewButtonSample(now.Add(200*time.Millisecond), false, false, false))
	if !p.Info {
		t.Error("expected info press")
	}
}

func TestButtonHeldAtBootNotAPress(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(DebounceWindow, NewButtonSample(now, false, false, true))

	p := d.Process(NewButtonSample(now.Add(100*time.Millisecond), false, false, true))
	if p.Any() {
		t.Errorf("held button should not press, got %+v", p)
	}
	p = d.Process(NewButtonSample(now.Add(200*time.Millisecond), false, false, false))
	if !p.Inverter {
		t.Error("release of a button held at boot should register")
	}
}

func TestTripleReleaseIsShutdown(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := newTestDebouncer(now)

	d.Process(NewButtonSample(now.Add(100*time.Millisecond), true, true, true))
	p := d.Process(NewButtonSample(now.Add(200*time.Millisecond), false, false, false))

	if !p.Shutdown() {
		t.Errorf("expected shutdown, got %+v", p)
	}
}

func TestInvalidButtonSkipped(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := newTestDebouncer(now)

	d.Process(NewButtonSample(now.Add(100*time.Millisecond), true, false, false))

	s := NewButtonSample(now.Add(200*time.Millisecond), false, false, false)
	s.Valid[ButtonUSB] = false
	if p := d.Process(s); p.USB {
		t.Error("unreadable button should not produce a press")
	}
	if !d.State(ButtonUSB).Level {
		t.Error("unreadable button should keep its last level")
	}
}

func TestButtonString(t *testing.T) {
	tests := []struct {
		b    Button
		want string
	}{
		{ButtonUSB, "usb"},
		{ButtonInfo, "info"},
		{ButtonInverter, "inverter"},
		{Button(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.b.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
