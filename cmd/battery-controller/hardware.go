package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/sweeney/battery-controller/internal/clock"
	"github.com/sweeney/battery-controller/internal/config"
	"github.com/sweeney/battery-controller/internal/display"
	"github.com/sweeney/battery-controller/internal/gpio"
	"github.com/sweeney/battery-controller/internal/nvram"
	"github.com/sweeney/battery-controller/internal/power"
	"github.com/sweeney/battery-controller/internal/sensors"
	"github.com/sweeney/battery-controller/internal/service"
	"github.com/sweeney/battery-controller/internal/telemetry"
	"github.com/sweeney/battery-controller/internal/uplink"
	"github.com/sweeney/battery-controller/internal/watchdog"
)

// closers releases devices in reverse order of opening.
type closers []io.Closer

func (c closers) closeAll(logger *log.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil {
			logger.Warn("close failed", "err", err)
		}
	}
}

// openHardware opens every device named in cfg. Only the GPIO chip is
// fatal; any other device that fails is logged and replaced so the loop
// still runs and flags it. cfg must have passed config.Validate.
func openHardware(cfg *config.Config, clk clock.Clock, logger *log.Logger) (service.Hardware, closers, error) {
	var cl closers

	pinMap, err := cfg.PinMap()
	if err != nil {
		return service.Hardware{}, nil, err
	}
	pppStart, pppStop, err := cfg.PPP.Commands()
	if err != nil {
		return service.Hardware{}, nil, err
	}
	pins, err := gpio.NewReal(cfg.GPIO.Chip, pinMap, logger.WithPrefix("gpio"))
	if err != nil {
		return service.Hardware{}, nil, fmt.Errorf("init gpio: %w", err)
	}
	cl = append(cl, pins)

	sensorLog := logger.WithPrefix("sensors")
	var dev sensors.Devices
	var store nvram.Store = &nvram.Memory{}

	bus, err := sensors.OpenI2C(cfg.I2C.Bus)
	if err != nil {
		sensorLog.Error("i2c bus unavailable, every i2c device is missing", "err", err)
	} else {
		cl = append(cl, bus)
		if s, err := sensors.NewINA260(bus, cfg.I2C.ChargeAddress); err != nil {
			sensorLog.Warn("charge sensor unavailable", "err", err)
		} else {
			dev.Charge = s
		}
		if s, err := sensors.NewINA260(bus, cfg.I2C.USBAddress); err != nil {
			sensorLog.Warn("usb sensor unavailable", "err", err)
		} else {
			dev.USB = s
		}
		if s, err := sensors.NewMCP9808(bus, cfg.I2C.TemperatureAddress); err != nil {
			sensorLog.Warn("temperature sensor unavailable", "err", err)
		} else {
			dev.Temperature = s
		}
		if r, err := sensors.NewDS3231(bus); err != nil {
			sensorLog.Warn("rtc unavailable", "err", err)
		} else {
			dev.RTC = r
		}
		dev.GPS = sensors.NewI2CGPS(bus, cfg.I2C.GPSTimeout)
		store = nvram.NewFRAM(bus, cfg.I2C.FRAMAddress, display.NumScreens)
	}

	if cfg.FuelGauge.Device != "" {
		g, err := sensors.NewModbusGauge(sensors.GaugeConfig{
			Device:   cfg.FuelGauge.Device,
			BaudRate: cfg.FuelGauge.BaudRate,
			SlaveID:  cfg.FuelGauge.SlaveID,
			Base:     cfg.FuelGauge.BaseRegister,
			Timeout:  cfg.FuelGauge.Timeout,
		})
		if err != nil {
			sensorLog.Warn("fuel gauge unavailable", "err", err)
		} else {
			dev.Gauge = g
			cl = append(cl, g)
		}
	}

	hub := sensors.NewHub(cfg.BatteryID, dev, pins, sensorLog)

	wd := watchdog.OpenOrNop(cfg.Watchdog.Device, logger.WithPrefix("watchdog"))
	cl = append(cl, wd)

	ppp := uplink.NewPPPD(uplink.PPPConfig{
		Start:          pppStart,
		Stop:           pppStop,
		Interface:      cfg.PPP.Interface,
		ConnectTimeout: cfg.PPP.ConnectTimeout,
	}, clk, wd, logger.WithPrefix("ppp"))
	modem := uplink.NewGPIOModem(pins, clk, uplink.SerialOpener(uplink.UARTConfig{
		Device:      cfg.Modem.Device,
		BaudRate:    cfg.Modem.BaudRate,
		ReadTimeout: cfg.Modem.ReadTimeout,
	}))
	api := uplink.NewHTTPAPI(cfg.API.BaseURL, cfg.BatteryID, cfg.API.Secret, nil)

	csvLog := telemetry.NewCSVLogger(cfg.SD.Path)
	sdLog := logger.WithPrefix("sd")
	sdLog.Info("logging readings", "path", csvLog.Path())

	var panel display.Panel = display.Missing{}
	if cfg.Display.Enabled {
		ep, err := display.OpenEPaper(cfg.Display.SPI, pins, clk)
		if err != nil {
			logger.Warn("display unavailable", "err", err)
		} else {
			panel = ep
			cl = append(cl, ep)
		}
	}

	return service.Hardware{
		Pins:     pins,
		Sensors:  hub,
		Power:    power.New(pins, hub, clk, logger.WithPrefix("power")),
		SD:       telemetry.NewSDLogger(csvLog, sdLog),
		Uplink:   uplink.New(modem, ppp, api, clk, wd, logger.WithPrefix("uplink")),
		Panel:    panel,
		Store:    store,
		Watchdog: wd,
		Clock:    clk,
	}, cl, nil
}
