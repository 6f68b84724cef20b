package sensors

import (
	"fmt"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ina260"

	"github.com/sweeney/battery-controller/internal/logic"
)

// INA260 is a power sensor on one rail.
type INA260 struct {
	bus *errBus
	dev ina260.Device
}

// NewINA260 opens the sensor at addr and checks its identity registers.
func NewINA260(bus drivers.I2C, addr uint16) (*INA260, error) {
	eb := &errBus{bus: bus}
	dev := ina260.New(eb)
	dev.Address = addr

	s := &INA260{bus: eb, dev: dev}
	if !s.dev.Connected() {
		if err := eb.take(); err != nil {
			return nil, fmt.Errorf("probe ina260 at %#x: %w", addr, err)
		}
		return nil, fmt.Errorf("probe ina260 at %#x: device id mismatch", addr)
	}
	return s, nil
}

// Read returns current (A), voltage (V) and power (W).
func (s *INA260) Read() (logic.PowerSample, error) {
	s.bus.take()
	current := s.dev.Current()
	voltage := s.dev.Voltage()
	power := s.dev.Power()
	if err := s.bus.take(); err != nil {
		return logic.PowerSample{}, fmt.Errorf("read ina260: %w", err)
	}
	return logic.PowerSample{
		Current: float64(current) / 1e6,
		Voltage: float64(voltage) / 1e6,
		Power:   float64(power) / 1e6,
	}, nil
}
