// Package sensors reads the battery pack's sensors. Each sensor kind has its
// own capability interface so drivers, unavailable placeholders and test
// fakes are interchangeable.
package sensors

import (
	"errors"
	"time"

	"github.com/sweeney/battery-controller/internal/logic"
)

// ErrUnavailable is returned by every read of a peripheral that failed at boot.
var ErrUnavailable = errors.New("sensor unavailable")

// PowerSensor measures current, voltage and power on one rail.
type PowerSensor interface {
	Read() (logic.PowerSample, error)
}

// TemperatureSensor measures battery temperature in °C.
type TemperatureSensor interface {
	Temperature() (float64, error)
}

// GPS is a receiver that needs several Update calls after power-up
// before position and altitude are both known.
type GPS interface {
	Update() error
	Fix() logic.GPSFix
}

// FuelGauge reports the battery monitor fields.
type FuelGauge interface {
	Read() (logic.Battery, error)
}

// RTC is the battery-backed wall clock and its hourly wake alarm.
type RTC interface {
	Now() (time.Time, error)

	// ArmHourlyAlarm sets the alarm to fire every hour at mm:ss = 00:00.
	ArmHourlyAlarm() error

	// ClearAlarm acknowledges a fired alarm but leaves it armed.
	ClearAlarm() error

	// DisableAlarm stops the alarm from firing.
	DisableAlarm() error
}

// Unavailable stands in for a peripheral that could not be initialised.
// Every read fails with ErrUnavailable.
type Unavailable struct {
	Name string
}

func (u Unavailable) err() error {
	return &unavailableError{name: u.Name}
}

type unavailableError struct{ name string }

func (e *unavailableError) Error() string { return e.name + ": " + ErrUnavailable.Error() }
func (e *unavailableError) Unwrap() error { return ErrUnavailable }

func (u Unavailable) Read() (logic.PowerSample, error) { return logic.PowerSample{}, u.err() }
func (u Unavailable) Temperature() (float64, error)    { return 0, u.err() }
func (u Unavailable) Update() error                    { return u.err() }
func (u Unavailable) Fix() logic.GPSFix                { return logic.GPSFix{} }
func (u Unavailable) Now() (time.Time, error)          { return time.Time{}, u.err() }
func (u Unavailable) ArmHourlyAlarm() error            { return u.err() }
func (u Unavailable) ClearAlarm() error                { return u.err() }
func (u Unavailable) DisableAlarm() error              { return u.err() }

// UnavailableGauge stands in for a fuel gauge that could not be opened.
// It is separate from Unavailable because both gauges and power sensors
// have a Read method.
type UnavailableGauge struct {
	Name string
}

func (u UnavailableGauge) Read() (logic.Battery, error) {
	return logic.Battery{}, &unavailableError{name: u.Name}
}
