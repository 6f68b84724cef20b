package logic

import "time"

// Button identifies one of the three momentary buttons.
type Button int

const (
	ButtonUSB Button = iota
	ButtonInfo
	ButtonInverter
	numButtons
)

func (b Button) String() string {
	switch b {
	case ButtonUSB:
		return "usb"
	case ButtonInfo:
		return "info"
	case ButtonInverter:
		return "inverter"
	}
	return "unknown"
}

// ButtonState tracks debounce state for a single button.
type ButtonState struct {
	// Last level seen (true = pressed)
	Level bool
	// Time the level last changed
	ChangedAt time.Time
}

// ButtonSample is one sample of all three buttons. A button whose line
// could not be read is left out of Valid.
type ButtonSample struct {
	Levels [numButtons]bool
	Valid  [numButtons]bool
	Time   time.Time
}

// NewButtonSample returns a sample with every button readable.
func NewButtonSample(now time.Time, usb, info, inverter bool) ButtonSample {
	return ButtonSample{
		Levels: [numButtons]bool{usb, info, inverter},
		Valid:  [numButtons]bool{true, true, true},
		Time:   now,
	}
}

// Presses holds the buttons released since the previous sample.
type Presses struct {
	USB      bool
	Info     bool
	Inverter bool
}

// Shutdown reports the three-button release that requests a hard shutdown.
func (p Presses) Shutdown() bool {
	return p.USB && p.Info && p.Inverter
}

// Any reports whether any button was released.
func (p Presses) Any() bool {
	return p.USB || p.Info || p.Inverter
}

// Debouncer recognises a press on release, after a level has been stable
// for the debounce window.
type Debouncer struct {
	window  time.Duration
	buttons [numButtons]ButtonState
}

// NewDebouncer creates a debouncer whose baseline is the levels seen at boot,
// so a button held during power-up does not register until it is released.
func NewDebouncer(window time.Duration, boot ButtonSample) *Debouncer {
	d := &Debouncer{window: window}
	for i := range d.buttons {
		d.buttons[i] = ButtonState{Level: boot.Levels[i], ChangedAt: boot.Time}
	}
	return d
}

// Process takes a new sample and returns the presses it completes.
func (d *Debouncer) Process(s ButtonSample) Presses {
	var released [numButtons]bool
	for i := range d.buttons {
		if s.Valid[i] {
			released[i] = d.processButton(&d.buttons[i], s.Levels[i], s.Time)
		}
	}
	return Presses{
		USB:      released[ButtonUSB],
		Info:     released[ButtonInfo],
		Inverter: released[ButtonInverter],
	}
}

// processButton ignores the line until the window after its last change
// has elapsed, then records a new level. Returns true on a release.
func (d *Debouncer) processButton(b *ButtonState, level bool, now time.Time) bool {
	if now.Sub(b.ChangedAt) <= d.window {
		return false
	}
	if level == b.Level {
		return false
	}
	b.Level = level
	b.ChangedAt = now
	return !level
}

// State returns the debounce state of one button.
func (d *Debouncer) State(b Button) ButtonState {
	return d.buttons[b]
}
