package sensors

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/goburrow/modbus"

	"github.com/sweeney/battery-controller/internal/logic"
)

// Fuel gauge holding-register layout, relative to the configured base.
const (
	regVoltage             = iota // uint16, 0.01 V
	regCurrent                    // int16, 0.01 A (negative = discharging)
	regPower                      // int16, 0.1 W
	regStateOfCharge              // uint16, 0.1 %
	regMinutesRemaining           // int16, minutes, -1 = unknown
	regChargeConsumed             // int16, 0.1 Ah
	regChargeCycles               // uint16
	regTotalChargeConsumed        // uint16, 1 Ah
	gaugeRegisterCount
)

// GaugeConfig describes the fuel gauge's RS-485 link.
type GaugeConfig struct {
	Device   string
	BaudRate int
	SlaveID  byte
	Base     uint16
	Timeout  time.Duration
}

// RegisterReader reads Modbus holding registers. modbus.Client satisfies it.
type RegisterReader interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// ModbusGauge is a battery monitor polled over Modbus RTU.
type ModbusGauge struct {
	handler *modbus.RTUClientHandler
	client  RegisterReader
	base    uint16
}

// NewModbusGauge opens the serial link to the battery monitor.
func NewModbusGauge(cfg GaugeConfig) (*ModbusGauge, error) {
	h := modbus.NewRTUClientHandler(cfg.Device)
	h.BaudRate = cfg.BaudRate
	h.DataBits = 8
	h.Parity = "N"
	h.StopBits = 1
	h.SlaveId = cfg.SlaveID
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("open fuel gauge %s: %w", cfg.Device, err)
	}
	return &ModbusGauge{handler: h, client: modbus.NewClient(h), base: cfg.Base}, nil
}

// NewGaugeWithReader builds a gauge over an existing register reader.
func NewGaugeWithReader(r RegisterReader, base uint16) *ModbusGauge {
	return &ModbusGauge{client: r, base: base}
}

// Read polls the gauge's register block.
func (g *ModbusGauge) Read() (logic.Battery, error) {
	raw, err := g.client.ReadHoldingRegisters(g.base, gaugeRegisterCount)
	if err != nil {
		return logic.Battery{}, fmt.Errorf("read fuel gauge: %w", err)
	}
	return decodeBattery(raw)
}

// Close releases the serial port.
func (g *ModbusGauge) Close() error {
	if g.handler == nil {
		return nil
	}
	return g.handler.Close()
}

func decodeBattery(raw []byte) (logic.Battery, error) {
	if len(raw) < 2*gaugeRegisterCount {
		return logic.Battery{}, fmt.Errorf("decode fuel gauge: got %d bytes, want %d", len(raw), 2*gaugeRegisterCount)
	}
	u := func(reg int) float64 { return float64(binary.BigEndian.Uint16(raw[2*reg:])) }
	s := func(reg int) float64 { return float64(int16(binary.BigEndian.Uint16(raw[2*reg:]))) }

	return logic.Battery{
		Voltage:             u(regVoltage) / 100,
		Current:             s(regCurrent) / 100,
		Power:               s(regPower) / 10,
		StateOfCharge:       u(regStateOfCharge) / 10,
		MinutesRemaining:    s(regMinutesRemaining),
		ChargeConsumed:      s(regChargeConsumed) / 10,
		ChargeCycles:        u(regChargeCycles),
		TotalChargeConsumed: u(regTotalChargeConsumed),
	}, nil
}
