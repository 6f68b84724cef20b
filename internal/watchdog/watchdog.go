// Package watchdog keeps the hardware watchdog fed while the service loop
// makes progress.
package watchdog

import "time"

// DefaultTimeout is the reset timeout programmed into the device.
const DefaultTimeout = 120 * time.Second

// Watchdog is fed by the service loop and by every slow step.
type Watchdog interface {
	Feed()
	Close() error
}

// Nop is used when no watchdog device is available.
type Nop struct{}

func (Nop) Feed()        {}
func (Nop) Close() error { return nil }

// Fake counts feeds.
type Fake struct {
	Feeds  int
	Closed bool
}

func (f *Fake) Feed() { f.Feeds++ }

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
