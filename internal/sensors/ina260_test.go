package sensors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers/ina260"
)

// wordBus is a fake I²C device with 16-bit big-endian registers.
type wordBus struct {
	addr uint16
	regs map[byte]uint16
	err  error
}

func newINA260Bus(addr uint16) *wordBus {
	return &wordBus{addr: addr, regs: map[byte]uint16{
		ina260.REG_MANF_ID: ina260.MANF_ID,
		ina260.REG_DIE_ID:  ina260.DEVICE_ID,
	}}
}

func (b *wordBus) Tx(addr uint16, w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	if addr != b.addr {
		return errors.New("nack")
	}
	if len(w) == 0 {
		return nil
	}
	if len(w) >= 3 {
		b.regs[w[0]] = uint16(w[1])<<8 | uint16(w[2])
	}
	if len(r) >= 2 {
		v := b.regs[w[0]]
		r[0], r[1] = byte(v>>8), byte(v)
	}
	return nil
}

func TestINA260Read(t *testing.T) {
	bus := newINA260Bus(0x41)
	s, err := NewINA260(bus, 0x41)
	require.NoError(t, err)

	bus.regs[ina260.REG_CURRENT] = 800      // 800 * 1.25 mA = 1 A
	bus.regs[ina260.REG_BUSVOLTAGE] = 10000 // 10000 * 1.25 mV = 12.5 V
	bus.regs[ina260.REG_POWER] = 1250       // 1250 * 10 mW = 12.5 W

	got, err := s.Read()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Current, 1e-9)
	assert.InDelta(t, 12.5, got.Voltage, 1e-9)
	assert.InDelta(t, 12.5, got.Power, 1e-9)
}

func TestINA260NegativeCurrent(t *testing.T) {
	bus := newINA260Bus(0x40)
	s, err := NewINA260(bus, 0x40)
	require.NoError(t, err)

	bus.regs[ina260.REG_CURRENT] = 0xFFFF // -1 LSB

	got, err := s.Read()
	require.NoError(t, err)
	assert.InDelta(t, -0.00125, got.Current, 1e-9)
}

func TestINA260ReadReportsBusError(t *testing.T) {
	bus := newINA260Bus(0x40)
	s, err := NewINA260(bus, 0x40)
	require.NoError(t, err)

	bus.err = errors.New("bus stuck")
	_, err = s.Read()
	assert.Error(t, err)

	bus.err = nil
	_, err = s.Read()
	assert.NoError(t, err, "error must not leak into the next read")
}

func TestINA260Missing(t *testing.T) {
	_, err := NewINA260(newINA260Bus(0x40), 0x45)
	assert.Error(t, err)
}
