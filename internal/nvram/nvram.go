// Package nvram persists small pieces of state in the I²C FRAM chip so they
// survive sleep and power loss.
package nvram

import (
	"fmt"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/at24cx"
)

// DefaultAddress is the FRAM's I²C address with A0..A2 tied low.
const DefaultAddress = 0x50

const (
	screenIndexOffset = 0
	framSize          = 32768
)

// Store holds the info-screen index.
type Store interface {
	ScreenIndex() (int, error)
	SetScreenIndex(i int) error
}

// FRAM is a Store on an AT24-compatible FRAM (two-byte memory addressing).
type FRAM struct {
	dev     at24cx.Device
	screens int
}

// NewFRAM creates a store on bus at addr. screens bounds the stored index;
// out of range values read back as 0.
func NewFRAM(bus drivers.I2C, addr uint16, screens int) *FRAM {
	dev := at24cx.New(bus)
	dev.Address = addr
	dev.Configure(at24cx.Config{EndRAMAddress: framSize - 1})
	return &FRAM{dev: dev, screens: screens}
}

// ScreenIndex reads the persisted index.
func (f *FRAM) ScreenIndex() (int, error) {
	b, err := f.dev.ReadByte(screenIndexOffset)
	if err != nil {
		return 0, fmt.Errorf("read screen index: %w", err)
	}
	return clamp(int(b), f.screens), nil
}

// SetScreenIndex persists i.
func (f *FRAM) SetScreenIndex(i int) error {
	if err := f.dev.WriteByte(screenIndexOffset, byte(clamp(i, f.screens))); err != nil {
		return fmt.Errorf("write screen index: %w", err)
	}
	return nil
}

func clamp(i, n int) int {
	if i < 0 || i >= n {
		return 0
	}
	return i
}

// Memory is an in-process Store, used when the FRAM is absent and in tests.
type Memory struct {
	Index    int
	ReadErr  error
	WriteErr error
	Writes   int
}

func (m *Memory) ScreenIndex() (int, error) {
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	return m.Index, nil
}

func (m *Memory) SetScreenIndex(i int) error {
	m.Writes++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Index = i
	return nil
}
