package sensors

import (
	"fmt"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ds3231"
)

// Alarm 1 mask bits: A1M3 and A1M4 set, A1M1 and A1M2 clear, so the
// alarm fires when minutes and seconds both match.
const (
	alarmMaskBit  = 0x80
	controlINTCN  = 1 << ds3231.INTCN
	controlA1IE   = 1 << ds3231.A1IE
	statusA1F     = 1 << ds3231.A1F
	alarmRegCount = ds3231.REG_ALARMONE_SIZE
)

// DS3231 is the real-time clock. Time comes from the driver; the alarm
// registers are written directly.
type DS3231 struct {
	bus  drivers.I2C
	dev  ds3231.Device
	addr uint16
}

// NewDS3231 opens the clock and checks the oscillator is running.
func NewDS3231(bus drivers.I2C) (*DS3231, error) {
	dev := ds3231.New(bus)
	if !dev.IsRunning() {
		return nil, fmt.Errorf("probe ds3231: oscillator stopped or device missing")
	}
	return &DS3231{bus: bus, dev: dev, addr: ds3231.Address}, nil
}

// Now returns the RTC time (UTC).
func (r *DS3231) Now() (time.Time, error) {
	t, err := r.dev.ReadTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read rtc time: %w", err)
	}
	return t, nil
}

// ArmHourlyAlarm programs alarm 1 for mm:ss = 00:00, enables its interrupt
// output and clears any pending flag.
func (r *DS3231) ArmHourlyAlarm() error {
	regs := [alarmRegCount]byte{0x00, 0x00, alarmMaskBit, alarmMaskBit}
	if err := r.write(ds3231.REG_ALARMONE, regs[:]...); err != nil {
		return fmt.Errorf("arm rtc alarm: %w", err)
	}
	if err := r.update(ds3231.REG_CONTROL, controlINTCN|controlA1IE, 0); err != nil {
		return fmt.Errorf("arm rtc alarm: %w", err)
	}
	if err := r.update(ds3231.REG_STATUS, 0, statusA1F); err != nil {
		return fmt.Errorf("arm rtc alarm: %w", err)
	}
	return nil
}

// ClearAlarm clears the alarm 1 flag, releasing the interrupt line.
func (r *DS3231) ClearAlarm() error {
	if err := r.update(ds3231.REG_STATUS, 0, statusA1F); err != nil {
		return fmt.Errorf("clear rtc alarm: %w", err)
	}
	return nil
}

// DisableAlarm turns off the alarm 1 interrupt.
func (r *DS3231) DisableAlarm() error {
	if err := r.update(ds3231.REG_CONTROL, 0, controlA1IE); err != nil {
		return fmt.Errorf("disable rtc alarm: %w", err)
	}
	return nil
}

func (r *DS3231) write(reg byte, data ...byte) error {
	return r.bus.Tx(r.addr, append([]byte{reg}, data...), nil)
}

// update does a read-modify-write of one register.
func (r *DS3231) update(reg byte, set, clear byte) error {
	buf := []byte{0}
	if err := r.bus.Tx(r.addr, []byte{reg}, buf); err != nil {
		return err
	}
	return r.write(reg, (buf[0]|set)&^clear)
}
