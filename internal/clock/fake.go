package clock

import "time"

// Fake is a manually driven clock. Sleep advances the clock instead of
// blocking. Not safe for concurrent use.
type Fake struct {
	now time.Time

	// Slept records every Sleep duration in call order.
	Slept []time.Duration
}

// NewFake returns a Fake starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the current fake time.
func (f *Fake) Now() time.Time { return f.now }

// Sleep advances the fake time by d.
func (f *Fake) Sleep(d time.Duration) {
	f.Slept = append(f.Slept, d)
	f.now = f.now.Add(d)
}

// Advance moves the clock forward without recording a sleep.
func (f *Fake) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Set jumps the clock to t.
func (f *Fake) Set(t time.Time) {
	f.now = t
}

// TotalSlept sums all recorded sleeps.
func (f *Fake) TotalSlept() time.Duration {
	var total time.Duration
	for _, d := range f.Slept {
		total += d
	}
	return total
}
