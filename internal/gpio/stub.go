//go:build !linux

package gpio

import (
	"errors"

	"github.com/charmbracelet/log"
)

// Real is not available on non-Linux platforms.
type Real struct{}

// NewReal returns an error on non-Linux platforms.
func NewReal(string, PinMap, *log.Logger) (*Real, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Get is not implemented on non-Linux platforms.
func (r *Real) Get(Line) (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Set is not implemented on non-Linux platforms.
func (r *Real) Set(Line, bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *Real) Close() error {
	return nil
}
