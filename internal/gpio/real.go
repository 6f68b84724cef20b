//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/warthog618/go-gpiocdev"
)

// Real drives GPIO on actual hardware using the Linux GPIO character device.
type Real struct {
	chip  *gpiocdev.Chip
	lines map[Line]*gpiocdev.Line
}

// NewReal claims every mapped line on the named chip. A line that cannot be
// claimed is logged and left out; Get/Set on it return an error.
func NewReal(chipName string, pins PinMap, logger *log.Logger) (*Real, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &Real{chip: chip, lines: make(map[Line]*gpiocdev.Line)}
	for _, l := range Lines() {
		offset, ok := pins[l]
		if !ok || offset < 0 {
			continue
		}
		var line *gpiocdev.Line
		if l.IsInput() {
			line, err = chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullDown)
		} else {
			line, err = chip.RequestLine(offset, gpiocdev.AsOutput(boolToInt(initialLevel(l))))
		}
		if err != nil {
			logger.Warn("gpio line unavailable", "line", l, "offset", offset, "err", err)
			continue
		}
		r.lines[l] = line
	}
	return r, nil
}

// Get returns the level of a claimed line.
func (r *Real) Get(l Line) (bool, error) {
	line, ok := r.lines[l]
	if !ok {
		return false, fmt.Errorf("read %s: %w", l, ErrUnclaimed)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read %s: %w", l, err)
	}
	return v != 0, nil
}

// Set drives a claimed output line.
func (r *Real) Set(l Line, level bool) error {
	line, ok := r.lines[l]
	if !ok {
		return fmt.Errorf("set %s: %w", l, ErrUnclaimed)
	}
	if err := line.SetValue(boolToInt(level)); err != nil {
		return fmt.Errorf("set %s: %w", l, err)
	}
	return nil
}

// Close releases every claimed line. Outputs are released as-is: the
// stay-awake line must not glitch low on a clean exit.
func (r *Real) Close() error {
	var errs []error
	for l, line := range r.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", l, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
