package sensors

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/gpio"
	"github.com/sweeney/battery-controller/internal/logic"
)

const (
	// MaxGPSUpdateIterations caps GPS updates per reading.
	MaxGPSUpdateIterations = 5

	// RequiredGPSUpdates is how many successful updates give lat/lon and altitude.
	RequiredGPSUpdates = 3
)

// Devices holds the sensor drivers. Nil entries are treated as unavailable.
type Devices struct {
	Charge      PowerSensor
	USB         PowerSensor
	Temperature TemperatureSensor
	GPS         GPS
	Gauge       FuelGauge
	RTC         RTC
}

// Hub reads every sensor into a Reading. Each read is isolated: a failure
// sets defaults and that sensor's error code for the one reading only.
type Hub struct {
	batteryID int
	dev       Devices
	pins      gpio.Pins
	logger    *log.Logger
}

// NewHub creates a hub. Missing devices are replaced by Unavailable.
func NewHub(batteryID int, dev Devices, pins gpio.Pins, logger *log.Logger) *Hub {
	if dev.Charge == nil {
		dev.Charge = Unavailable{Name: "charge sensor"}
	}
	if dev.USB == nil {
		dev.USB = Unavailable{Name: "usb sensor"}
	}
	if dev.Temperature == nil {
		dev.Temperature = Unavailable{Name: "temperature sensor"}
	}
	if dev.GPS == nil {
		dev.GPS = Unavailable{Name: "gps"}
	}
	if dev.Gauge == nil {
		dev.Gauge = UnavailableGauge{Name: "fuel gauge"}
	}
	if dev.RTC == nil {
		dev.RTC = Unavailable{Name: "rtc"}
	}
	return &Hub{batteryID: batteryID, dev: dev, pins: pins, logger: logger}
}

// RTC returns the clock device.
func (h *Hub) RTC() RTC {
	return h.dev.RTC
}

// ReadAll reads every sensor. It never fails.
func (h *Hub) ReadAll() logic.Reading {
	r := h.ReadStatus()

	fix, err := h.ReadGPS()
	r.GPS = fix
	r.Errors = r.Errors.With(logic.ErrGPS, err != nil)
	return r
}

// ReadStatus reads every sensor except the GPS, which needs several slow
// updates. GPS fields are left zero and G is never set.
func (h *Hub) ReadStatus() logic.Reading {
	r := logic.Reading{BatteryID: h.batteryID}
	var errs logic.ErrorFlags

	date, clock, err := h.ReadRTC()
	r.Date, r.Time = date, clock
	errs = errs.With(logic.ErrRTC, err != nil)

	charge, connected, charging, err := h.ReadCharge()
	r.Charge, r.ChargerConnected, r.Charging = charge, connected, charging
	errs = errs.With(logic.ErrChargeSensor, err != nil)

	usb, err := h.dev.USB.Read()
	if err != nil {
		h.logger.Warn("usb sensor read failed", "err", err)
		usb = logic.PowerSample{}
	}
	r.USB = usb
	errs = errs.With(logic.ErrUSBSensor, err != nil)

	temp, err := h.ReadTemperature()
	r.Temperature = temp
	errs = errs.With(logic.ErrTemperature, err != nil)

	tilted, err := h.ReadTilt()
	if err != nil {
		h.logger.Warn("tilt switch read failed", "err", err)
	}
	r.Tilted = tilted
	r.Outputs = h.readOutputs()

	battery, err := h.ReadGauge()
	r.Battery = battery
	errs = errs.With(logic.ErrFuelGauge, err != nil)

	r.Errors = errs
	return r
}

// ReadRTC returns the RTC date (YYYY-MM-DD) and time (HH:MM:SS), or empty strings on failure.
func (h *Hub) ReadRTC() (date, clock string, err error) {
	t, err := h.dev.RTC.Now()
	if err != nil {
		h.logger.Warn("rtc read failed", "err", err)
		return "", "", err
	}
	return t.Format("2006-01-02"), t.Format("15:04:05"), nil
}

// Now returns the RTC time, falling back to fallback when the RTC cannot be read.
func (h *Hub) Now(fallback time.Time) (time.Time, bool) {
	t, err := h.dev.RTC.Now()
	if err != nil {
		return fallback, false
	}
	return t, true
}

// ReadCharge reads the charge-input sensor and derives charger state.
func (h *Hub) ReadCharge() (s logic.PowerSample, connected, charging bool, err error) {
	s, err = h.dev.Charge.Read()
	if err != nil {
		h.logger.Warn("charge sensor read failed", "err", err)
		return logic.PowerSample{}, false, false, err
	}
	connected, charging = logic.ChargerState(s)
	return s, connected, charging, nil
}

// ReadTemperature reads the battery temperature, 0.0 on failure.
func (h *Hub) ReadTemperature() (float64, error) {
	t, err := h.dev.Temperature.Temperature()
	if err != nil {
		h.logger.Warn("temperature read failed", "err", err)
		return 0, err
	}
	return t, nil
}

// ReadTilt reads the tilt switch (true = tilted).
func (h *Hub) ReadTilt() (bool, error) {
	return h.pins.Get(gpio.Tilt)
}

// ReadGauge reads the fuel gauge twice and keeps the second, latest, result.
func (h *Hub) ReadGauge() (logic.Battery, error) {
	if _, err := h.dev.Gauge.Read(); err != nil {
		h.logger.Warn("fuel gauge read failed", "err", err)
		return logic.Battery{}, err
	}
	b, err := h.dev.Gauge.Read()
	if err != nil {
		h.logger.Warn("fuel gauge read failed", "err", err)
		return logic.Battery{}, err
	}
	return b, nil
}

// ReadGPS runs bounded GPS updates: at most MaxGPSUpdateIterations, stopping
// once RequiredGPSUpdates have succeeded. Fewer successes is a soft failure.
func (h *Hub) ReadGPS() (logic.GPSFix, error) {
	ok := 0
	var lastErr error
	for i := 0; i < MaxGPSUpdateIterations && ok < RequiredGPSUpdates; i++ {
		if err := h.dev.GPS.Update(); err != nil {
			h.logger.Debug("gps update failed", "iteration", i, "err", err)
			lastErr = err
			continue
		}
		ok++
	}
	if ok < RequiredGPSUpdates {
		h.logger.Warn("gps read failed", "updates", ok, "err", lastErr)
		if lastErr == nil {
			lastErr = ErrUnavailable
		}
		return logic.GPSFix{}, lastErr
	}
	return h.dev.GPS.Fix(), nil
}

func (h *Hub) readOutputs() logic.Outputs {
	level := func(l gpio.Line) bool {
		v, err := h.pins.Get(l)
		if err != nil {
			h.logger.Debug("output readback failed", "line", l, "err", err)
			return false
		}
		return v
	}
	return logic.Outputs{
		USB:      level(gpio.EnableUSB),
		Charge:   level(gpio.EnableCharge),
		Fan:      level(gpio.EnableFan),
		Inverter: level(gpio.EnableInverter),
	}
}
