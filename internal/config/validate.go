package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/google/shlex"

	"github.com/sweeney/battery-controller/internal/gpio"
	"github.com/sweeney/battery-controller/internal/watchdog"
)

// Validate checks the configuration. It does not modify it.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.BatteryID <= 0 {
		errs = append(errs, fmt.Errorf("battery_id must be positive, got %d", cfg.BatteryID))
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if cfg.Tick >= watchdog.DefaultTimeout {
		errs = append(errs, fmt.Errorf("tick %s must be shorter than the %s watchdog timeout", cfg.Tick, watchdog.DefaultTimeout))
	}
	if _, err := cfg.PinMap(); err != nil {
		errs = append(errs, err)
	}
	if cfg.FuelGauge.Device != "" && cfg.FuelGauge.BaudRate <= 0 {
		errs = append(errs, errors.New("fuel_gauge.baud_rate must be positive"))
	}
	if cfg.Modem.Device == "" {
		errs = append(errs, errors.New("modem.device is required"))
	} else if cfg.Modem.BaudRate <= 0 {
		errs = append(errs, errors.New("modem.baud_rate must be positive"))
	}
	if _, _, err := cfg.PPP.Commands(); err != nil {
		errs = append(errs, err)
	}
	if cfg.PPP.Interface == "" {
		errs = append(errs, errors.New("ppp.interface is required"))
	}
	if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q is not an absolute URL", cfg.API.BaseURL))
	}
	if cfg.SD.Path == "" {
		errs = append(errs, errors.New("sd.path is required"))
	}
	return errors.Join(errs...)
}

// PinMap returns the board's pin map with the configured overrides applied.
func (c *Config) PinMap() (gpio.PinMap, error) {
	pins := gpio.DefaultPinMap()
	for name, offset := range c.GPIO.Pins {
		l, ok := gpio.ParseLine(name)
		if !ok {
			return nil, fmt.Errorf("gpio.pins: unknown line %q", name)
		}
		pins[l] = offset
	}
	return pins, nil
}

// Commands splits the start and stop command lines into argv form.
func (c PPPConfig) Commands() (start, stop []string, err error) {
	if start, err = splitCommand("ppp.start_command", c.StartCommand); err != nil {
		return nil, nil, err
	}
	if stop, err = splitCommand("ppp.stop_command", c.StopCommand); err != nil {
		return nil, nil, err
	}
	return start, stop, nil
}

func splitCommand(key, cmd string) ([]string, error) {
	argv, err := shlex.Split(cmd)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", key, cmd, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%s is required", key)
	}
	return argv, nil
}
