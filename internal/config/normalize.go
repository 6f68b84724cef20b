package config

import (
	"strings"
	"time"
)

// normalize fills zero values that the YAML may have cleared.
func normalize(cfg *Config) {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 100 * time.Millisecond
	}
	if cfg.I2C.GPSTimeout <= 0 {
		cfg.I2C.GPSTimeout = 2 * time.Second
	}
	if cfg.FuelGauge.Timeout <= 0 {
		cfg.FuelGauge.Timeout = time.Second
	}
	if cfg.Modem.ReadTimeout <= 0 {
		cfg.Modem.ReadTimeout = time.Second
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
}
