// Package logic contains pure business logic for the battery controller.
// This package has NO external dependencies (no GPIO, I²C, network, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Thresholds shared by the power controller and the sensor hub.
const (
	// TooHot is the battery temperature (°C) at or above which outputs are refused.
	TooHot = 48.0

	// ChargerConnectedMinVoltage is the charge-input voltage (V) at which a charger counts as connected.
	ChargerConnectedMinVoltage = 10.0

	// ChargingMinCurrent is the charge-input current (A) at which the pack counts as charging.
	ChargingMinCurrent = 0.1

	// DebounceWindow is the settle time after a button level change.
	DebounceWindow = 50 * time.Millisecond
)

// PowerSample is one reading of an INA260-style power sensor.
type PowerSample struct {
	Current float64 // A
	Voltage float64 // V
	Power   float64 // W
}

// ChargerState derives charger presence from a charge-input sample.
func ChargerState(s PowerSample) (connected, charging bool) {
	connected = s.Voltage >= ChargerConnectedMinVoltage
	charging = connected && s.Current >= ChargingMinCurrent
	return connected, charging
}

// Battery holds the fuel gauge fields.
type Battery struct {
	Voltage             float64
	Current             float64
	Power               float64
	StateOfCharge       float64 // %
	MinutesRemaining    float64 // -1 when the gauge cannot estimate
	ChargeConsumed      float64
	ChargeCycles        float64
	TotalChargeConsumed float64
}

// GPSFix holds the GPS fields of a reading. Date and Time are empty when
// the fix failed.
type GPSFix struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	FixQuality int
	Satellites int
	Date       string
	Time       string
}

// Outputs holds the four output-enable levels.
type Outputs struct {
	USB      bool
	Charge   bool
	Fan      bool
	Inverter bool
}

// Reading is a snapshot of every sensor value at one instant.
type Reading struct {
	BatteryID   int
	Date        string // YYYY-MM-DD from the RTC, empty on failure
	Time        string // HH:MM:SS from the RTC, empty on failure
	Charge      PowerSample
	USB         PowerSample
	Temperature float64
	Tilted      bool
	Outputs     Outputs
	Battery     Battery
	GPS         GPSFix

	// ChargerConnected and Charging are derived from Charge.
	ChargerConnected bool
	Charging         bool

	// Errors holds the codes of the subsystems that failed for this reading.
	Errors ErrorFlags
}
