package sensors

import (
	"fmt"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp9808"
)

// MCP9808 is the battery temperature sensor.
type MCP9808 struct {
	dev mcp9808.Device
}

// NewMCP9808 opens the sensor at addr and checks its device id.
func NewMCP9808(bus drivers.I2C, addr uint16) (*MCP9808, error) {
	dev := mcp9808.New(bus)
	dev.Address = addr
	if !dev.Connected() {
		return nil, fmt.Errorf("probe mcp9808 at %#x: device id mismatch", addr)
	}
	return &MCP9808{dev: dev}, nil
}

func (s *MCP9808) Temperature() (float64, error) {
	t, err := s.dev.ReadTemperature()
	if err != nil {
		return 0, fmt.Errorf("read mcp9808: %w", err)
	}
	return t, nil
}
