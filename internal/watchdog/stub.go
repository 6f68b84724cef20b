//go:build !linux

package watchdog

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
)

// Device is unavailable off Linux.
type Device struct{}

// Open always fails off Linux.
func Open(path string, timeout time.Duration, logger *log.Logger) (*Device, error) {
	return nil, errors.New("watchdog: not supported on this platform")
}

func (*Device) Feed()        {}
func (*Device) Close() error { return nil }
