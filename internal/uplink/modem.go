package uplink

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"

	"github.com/sweeney/battery-controller/internal/clock"
	"github.com/sweeney/battery-controller/internal/gpio"
)

// Power-key pulse timings.
const (
	pwrkeyOnPulse  = 200 * time.Millisecond
	pwrkeyOffPulse = 3 * time.Second
	resetGap       = time.Second
	flushSettle    = time.Second
	flushSpacing   = 500 * time.Millisecond
)

// UARTConfig describes the modem's serial line.
type UARTConfig struct {
	Device   string
	BaudRate int
	// ReadTimeout bounds each read while flushing.
	ReadTimeout time.Duration
}

// OpenFunc opens the modem's serial line.
type OpenFunc func() (io.ReadCloser, error)

// SerialOpener returns an OpenFunc for a serial device.
func SerialOpener(cfg UARTConfig) OpenFunc {
	return func() (io.ReadCloser, error) {
		port, err := serial.Open(&serial.Config{
			Address:  cfg.Device,
			BaudRate: cfg.BaudRate,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
			Timeout:  cfg.ReadTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("open modem uart %s: %w", cfg.Device, err)
		}
		return port, nil
	}
}

// GPIOModem drives the modem's power key and drains its serial line.
type GPIOModem struct {
	pins  gpio.Pins
	clock clock.Clock
	open  OpenFunc
}

// NewGPIOModem creates a modem controller.
func NewGPIOModem(pins gpio.Pins, clk clock.Clock, open OpenFunc) *GPIOModem {
	return &GPIOModem{pins: pins, clock: clk, open: open}
}

// PowerOn pulses the power key low briefly.
func (m *GPIOModem) PowerOn() error {
	if err := m.pulse(pwrkeyOnPulse); err != nil {
		return fmt.Errorf("modem power on: %w", err)
	}
	return nil
}

// PowerOff holds the power key low long enough for the modem to shut down.
func (m *GPIOModem) PowerOff() error {
	if err := m.pulse(pwrkeyOffPulse); err != nil {
		return fmt.Errorf("modem power off: %w", err)
	}
	return nil
}

// Reset powers the modem off, waits, and powers it back on.
func (m *GPIOModem) Reset() error {
	if err := m.PowerOff(); err != nil {
		return err
	}
	m.clock.Sleep(resetGap)
	return m.PowerOn()
}

func (m *GPIOModem) pulse(d time.Duration) error {
	if err := m.pins.Set(gpio.ModemPowerKey, false); err != nil {
		return err
	}
	m.clock.Sleep(d)
	return m.pins.Set(gpio.ModemPowerKey, true)
}

// Flush opens the line, lets it settle and reads until a read times out
// or MaxUARTFlushIterations reads have returned data.
func (m *GPIOModem) Flush() (int, error) {
	port, err := m.open()
	if err != nil {
		return 0, err
	}
	defer port.Close()

	return drain(port, m.clock)
}

func drain(r io.Reader, clk clock.Clock) (int, error) {
	clk.Sleep(flushSettle)
	buf := make([]byte, 256)
	n := 0
	for n < MaxUARTFlushIterations {
		got, err := r.Read(buf)
		if errors.Is(err, serial.ErrTimeout) || errors.Is(err, io.EOF) || (err == nil && got == 0) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read modem uart: %w", err)
		}
		n++
		clk.Sleep(flushSpacing)
	}
	return n, nil
}
