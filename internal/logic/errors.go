package logic

import "strings"

// ErrorCode is the single-character code of a failing subsystem.
type ErrorCode byte

const (
	ErrRTC          ErrorCode = 'R'
	ErrChargeSensor ErrorCode = 'C'
	ErrUSBSensor    ErrorCode = 'U'
	ErrTemperature  ErrorCode = 'T'
	ErrFuelGauge    ErrorCode = 'B'
	ErrGPS          ErrorCode = 'G'
	ErrSDCard       ErrorCode = 'S'
	ErrCellular     ErrorCode = 'L'
	ErrDisplay      ErrorCode = 'D'
)

// errorOrder is the order codes appear in the err field.
var errorOrder = []ErrorCode{
	ErrRTC, ErrChargeSensor, ErrUSBSensor, ErrTemperature, ErrFuelGauge,
	ErrGPS, ErrSDCard, ErrCellular, ErrDisplay,
}

// ErrorFlags is a set of error codes. The zero value is empty.
type ErrorFlags uint16

func bit(c ErrorCode) ErrorFlags {
	for i, o := range errorOrder {
		if o == c {
			return 1 << i
		}
	}
	return 0
}

// With returns the set with c added when on is true, removed otherwise.
func (f ErrorFlags) With(c ErrorCode, on bool) ErrorFlags {
	if on {
		return f | bit(c)
	}
	return f &^ bit(c)
}

// Has reports whether c is in the set.
func (f ErrorFlags) Has(c ErrorCode) bool {
	return f&bit(c) != 0
}

// Union returns the codes present in either set.
func (f ErrorFlags) Union(o ErrorFlags) ErrorFlags {
	return f | o
}

// String renders the codes in canonical order, each at most once.
func (f ErrorFlags) String() string {
	var b strings.Builder
	for _, c := range errorOrder {
		if f.Has(c) {
			b.WriteByte(byte(c))
		}
	}
	return b.String()
}
