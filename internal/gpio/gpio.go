// Package gpio provides access to the battery pack's GPIO lines by role.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "fmt"

// Line identifies a GPIO role on the controller board.
type Line int

const (
	ButtonUSB Line = iota
	ButtonInfo
	ButtonInverter
	EnableUSB
	EnableInverter
	EnableCharge
	EnableFan
	Tilt
	SDChipSelect
	ModemPowerKey
	ModemReset
	DisplayEnable // active low
	StayAwake
	numLines
)

var lineNames = [numLines]string{
	ButtonUSB:      "button-usb",
	ButtonInfo:     "button-info",
	ButtonInverter: "button-inverter",
	EnableUSB:      "enable-usb",
	EnableInverter: "enable-inverter",
	EnableCharge:   "enable-charge",
	EnableFan:      "enable-fan",
	Tilt:           "tilt",
	SDChipSelect:   "sd-cs",
	ModemPowerKey:  "modem-pwrkey",
	ModemReset:     "modem-reset",
	DisplayEnable:  "display-enable",
	StayAwake:      "stay-awake",
}

func (l Line) String() string {
	if l < 0 || l >= numLines {
		return fmt.Sprintf("line(%d)", int(l))
	}
	return lineNames[l]
}

// ParseLine returns the role with the given name.
func ParseLine(name string) (Line, bool) {
	for l, n := range lineNames {
		if n == name {
			return Line(l), true
		}
	}
	return 0, false
}

// IsInput reports whether the line is read rather than driven.
func (l Line) IsInput() bool {
	switch l {
	case ButtonUSB, ButtonInfo, ButtonInverter, Tilt:
		return true
	}
	return false
}

// Lines returns every role in declaration order.
func Lines() []Line {
	out := make([]Line, 0, numLines)
	for l := Line(0); l < numLines; l++ {
		out = append(out, l)
	}
	return out
}

// Pins reads and drives GPIO lines by role.
type Pins interface {
	// Get returns the logical level of a line (true = high).
	Get(l Line) (bool, error)

	// Set drives an output line.
	Set(l Line, level bool) error

	// Close releases GPIO resources.
	Close() error
}

// PinMap maps roles to BCM offsets. A negative offset leaves the role
// unclaimed (for example when the kernel owns the SD chip-select).
type PinMap map[Line]int

// DefaultPinMap is the controller board wiring.
func DefaultPinMap() PinMap {
	return PinMap{
		ButtonUSB:      27,
		ButtonInfo:     21,
		ButtonInverter: 20,
		EnableUSB:      28,
		EnableInverter: 18,
		EnableCharge:   26,
		EnableFan:      19,
		Tilt:           22,
		SDChipSelect:   5,
		ModemPowerKey:  6,
		ModemReset:     7,
		DisplayEnable:  10,
		StayAwake:      15,
	}
}

// initialLevel is the level an output is driven to when first claimed.
func initialLevel(l Line) bool {
	switch l {
	case SDChipSelect, ModemPowerKey, DisplayEnable, StayAwake:
		return true
	}
	return false
}
