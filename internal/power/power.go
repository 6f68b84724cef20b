// Package power drives the pack's four outputs: USB, inverter, charge and
// fan. USB and inverter are gated on tilt and temperature.
package power

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/clock"
	"github.com/sweeney/battery-controller/internal/gpio"
	"github.com/sweeney/battery-controller/internal/logic"
)

const (
	// CoolingChecks is how many temperature checks a hot pack gets before a request is refused.
	CoolingChecks = 12

	// CoolingInterval spaces the cooling checks.
	CoolingInterval = time.Second

	// ChargeSettle is the wait between enabling charge and reading the charge sensor.
	ChargeSettle = 500 * time.Millisecond
)

// Refusal reasons for EnableUSB and EnableInverter.
var (
	ErrTilted          = errors.New("pack is tilted")
	ErrTiltUnknown     = errors.New("tilt switch unreadable")
	ErrTooHot          = errors.New("pack too hot")
	ErrTemperatureRead = errors.New("temperature unreadable")
)

// Sensors is what the controller reads. sensors.Hub satisfies it.
type Sensors interface {
	ReadTilt() (bool, error)
	ReadTemperature() (float64, error)
	ReadCharge() (s logic.PowerSample, connected, charging bool, err error)
}

// Action is what a button press asks the caller to do beyond toggling outputs.
type Action int

const (
	ActionNone Action = iota
	ActionNextScreen
	ActionShutdown
)

// ChargeStatus is the result of one charge-handling pass.
type ChargeStatus struct {
	Sample    logic.PowerSample
	Connected bool
	Charging  bool
	Err       error
}

// Controller owns the output lines. The last requested state is kept in
// memory; the pins are only written.
type Controller struct {
	pins    gpio.Pins
	sensors Sensors
	clock   clock.Clock
	logger  *log.Logger

	outputs       logic.Outputs
	connected     bool
	charging      bool
	chargeAllowed bool
	changed       bool
}

// New creates a controller with every output off and charging allowed.
func New(pins gpio.Pins, sensors Sensors, clk clock.Clock, logger *log.Logger) *Controller {
	return &Controller{
		pins:          pins,
		sensors:       sensors,
		clock:         clk,
		logger:        logger,
		chargeAllowed: true,
	}
}

// Outputs returns the current output state.
func (c *Controller) Outputs() logic.Outputs {
	return c.outputs
}

// Charging reports whether the last charge read showed active charging.
func (c *Controller) Charging() bool {
	return c.charging
}

// ChargerConnected reports whether the last charge read showed a charger.
func (c *Controller) ChargerConnected() bool {
	return c.connected
}

// Active reports whether anything keeps the pack awake.
func (c *Controller) Active() bool {
	return logic.IsActive(c.outputs, c.charging)
}

// SetChargeAllowed sets whether charge handling enables the charger.
func (c *Controller) SetChargeAllowed(allowed bool) {
	c.chargeAllowed = allowed
}

// TakeChanged reports and clears whether anything shown on screen changed.
func (c *Controller) TakeChanged() bool {
	changed := c.changed
	c.changed = false
	return changed
}

// HandlePresses acts on one tick's button presses. A release of all three
// buttons is a shutdown request and nothing else is done. Otherwise only
// the first press in USB, Info, Inverter order is handled.
func (c *Controller) HandlePresses(p logic.Presses) Action {
	switch {
	case p.Shutdown():
		return ActionShutdown
	case p.USB:
		c.SetFan(true)
		if c.outputs.USB {
			c.DisableUSB()
		} else if err := c.EnableUSB(); err != nil {
			c.logger.Warn("usb request refused", "err", err)
		}
	case p.Info:
		return ActionNextScreen
	case p.Inverter:
		c.SetFan(true)
		if c.outputs.Inverter {
			c.DisableInverter()
		} else if err := c.EnableInverter(); err != nil {
			c.logger.Warn("inverter request refused", "err", err)
		}
	}
	return ActionNone
}

// EnableUSB turns USB on if the safety gate passes.
func (c *Controller) EnableUSB() error {
	if err := c.safeToEnable(); err != nil {
		c.DisableUSB()
		return fmt.Errorf("enable usb: %w", err)
	}
	if err := c.write(gpio.EnableUSB, true); err != nil {
		c.DisableUSB()
		return fmt.Errorf("enable usb: %w", err)
	}
	c.outputs.USB = true
	c.SetFan(true)
	c.changed = true
	return nil
}

// DisableUSB turns USB off.
func (c *Controller) DisableUSB() {
	c.writeLogged(gpio.EnableUSB, false)
	c.outputs.USB = false
	c.FanIfNeeded()
	c.changed = true
}

// EnableInverter turns the inverter on if the safety gate passes.
func (c *Controller) EnableInverter() error {
	if err := c.safeToEnable(); err != nil {
		c.DisableInverter()
		return fmt.Errorf("enable inverter: %w", err)
	}
	if err := c.write(gpio.EnableInverter, true); err != nil {
		c.DisableInverter()
		return fmt.Errorf("enable inverter: %w", err)
	}
	c.outputs.Inverter = true
	c.SetFan(true)
	c.changed = true
	return nil
}

// DisableInverter turns the inverter off.
func (c *Controller) DisableInverter() {
	c.writeLogged(gpio.EnableInverter, false)
	c.outputs.Inverter = false
	c.FanIfNeeded()
	c.changed = true
}

// SetCharge drives the charge-enable line.
func (c *Controller) SetCharge(on bool) {
	c.writeLogged(gpio.EnableCharge, on)
	c.outputs.Charge = on
}

// SetFan drives the fan line.
func (c *Controller) SetFan(on bool) {
	c.writeLogged(gpio.EnableFan, on)
	c.outputs.Fan = on
}

// FanIfNeeded turns the fan off unless USB, inverter or active charging needs it.
func (c *Controller) FanIfNeeded() {
	if !logic.IsActive(c.outputs, c.charging) {
		c.SetFan(false)
	}
}

// ServiceCharge enables charging when allowed, lets it settle, reads the
// charge sensor and applies the fan rule.
func (c *Controller) ServiceCharge() ChargeStatus {
	if c.chargeAllowed {
		c.SetCharge(true)
		c.clock.Sleep(ChargeSettle)
	} else {
		c.SetCharge(false)
	}

	s, connected, charging, err := c.sensors.ReadCharge()
	c.UpdateCharger(connected, charging)

	if c.chargeAllowed && c.charging {
		c.SetFan(true)
	} else {
		c.FanIfNeeded()
	}
	return ChargeStatus{Sample: s, Connected: connected, Charging: charging, Err: err}
}

// UpdateCharger records charger state, flagging a screen change when it differs.
func (c *Controller) UpdateCharger(connected, charging bool) {
	if connected != c.connected || charging != c.charging {
		c.changed = true
	}
	c.connected = connected
	c.charging = charging
}

// AllOff disables every output, fan last.
func (c *Controller) AllOff() {
	c.SetCharge(false)
	c.DisableUSB()
	c.DisableInverter()
	c.SetFan(false)
}

// safeToEnable checks the tilt switch, then waits up to CoolingChecks
// temperature checks for the pack to cool, running the fan meanwhile.
func (c *Controller) safeToEnable() error {
	tilted, err := c.sensors.ReadTilt()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTiltUnknown, err)
	}
	if tilted {
		return ErrTilted
	}

	for i := 0; i < CoolingChecks; i++ {
		temp, err := c.sensors.ReadTemperature()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTemperatureRead, err)
		}
		if temp < logic.TooHot {
			return nil
		}
		c.logger.Info("pack hot, cooling", "temp", temp, "check", i+1)
		c.SetFan(true)
		if i < CoolingChecks-1 {
			c.clock.Sleep(CoolingInterval)
		}
	}
	return ErrTooHot
}

func (c *Controller) write(l gpio.Line, level bool) error {
	return c.pins.Set(l, level)
}

func (c *Controller) writeLogged(l gpio.Line, level bool) {
	if err := c.pins.Set(l, level); err != nil {
		c.logger.Warn("output write failed", "line", l, "level", level, "err", err)
	}
}
