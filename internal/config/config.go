// Package config loads the controller's YAML configuration and the secrets
// it takes from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables holding secrets.
const (
	EnvBatterySecret = "BATTERY_SECRET"
	EnvMQTTPassword  = "MQTT_PASSWORD"
)

// Config is the full controller configuration.
type Config struct {
	BatteryID int           `yaml:"battery_id"`
	LogLevel  string        `yaml:"log_level"`
	Tick      time.Duration `yaml:"tick"`

	GPIO      GPIOConfig      `yaml:"gpio"`
	I2C       I2CConfig       `yaml:"i2c"`
	FuelGauge FuelGaugeConfig `yaml:"fuel_gauge"`
	Modem     ModemConfig     `yaml:"modem"`
	PPP       PPPConfig       `yaml:"ppp"`
	API       APIConfig       `yaml:"api"`
	SD        SDConfig        `yaml:"sd"`
	Display   DisplayConfig   `yaml:"display"`
	Watchdog  WatchdogConfig  `yaml:"watchdog"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// GPIOConfig selects the GPIO chip and optionally overrides line offsets
// by role name (for example "button-usb": 27). A negative offset leaves the
// role unclaimed.
type GPIOConfig struct {
	Chip string         `yaml:"chip"`
	Pins map[string]int `yaml:"pins"`
}

// I2CConfig names the bus and the sensor addresses on it.
type I2CConfig struct {
	Bus                string        `yaml:"bus"`
	ChargeAddress      uint16        `yaml:"charge_address"`
	USBAddress         uint16        `yaml:"usb_address"`
	TemperatureAddress uint16        `yaml:"temperature_address"`
	FRAMAddress        uint16        `yaml:"fram_address"`
	GPSTimeout         time.Duration `yaml:"gps_timeout"`
}

// FuelGaugeConfig describes the Modbus RTU link to the battery monitor.
// An empty device disables the gauge.
type FuelGaugeConfig struct {
	Device       string        `yaml:"device"`
	BaudRate     int           `yaml:"baud_rate"`
	SlaveID      byte          `yaml:"slave_id"`
	BaseRegister uint16        `yaml:"base_register"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ModemConfig describes the cellular modem's serial line.
type ModemConfig struct {
	Device      string        `yaml:"device"`
	BaudRate    int           `yaml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// PPPConfig holds the commands that bring the data session up and down.
type PPPConfig struct {
	StartCommand   string        `yaml:"start_command"`
	StopCommand    string        `yaml:"stop_command"`
	Interface      string        `yaml:"interface"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// APIConfig locates the cloud API. Secret comes from BATTERY_SECRET.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Secret  string `yaml:"-"`
}

// SDConfig is where the CSV log is written.
type SDConfig struct {
	Path string `yaml:"path"`
}

// DisplayConfig selects the e-paper panel's SPI port.
type DisplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	SPI     string `yaml:"spi"`
}

// WatchdogConfig names the watchdog device; empty disables it.
type WatchdogConfig struct {
	Device string `yaml:"device"`
}

// MQTTConfig configures the optional telemetry mirror; an empty broker disables it.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username"`
	Password    string `yaml:"-"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// HTTPConfig configures the optional local status page; empty disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration of the production board.
func Default() *Config {
	return &Config{
		BatteryID: 0,
		LogLevel:  "info",
		Tick:      100 * time.Millisecond,
		GPIO:      GPIOConfig{Chip: "gpiochip0"},
		I2C: I2CConfig{
			Bus:                "",
			ChargeAddress:      0x40,
			USBAddress:         0x41,
			TemperatureAddress: 0x18,
			FRAMAddress:        0x50,
			GPSTimeout:         2 * time.Second,
		},
		FuelGauge: FuelGaugeConfig{
			Device:   "/dev/ttyAMA1",
			BaudRate: 19200,
			SlaveID:  1,
			Timeout:  time.Second,
		},
		Modem: ModemConfig{
			Device:      "/dev/ttyAMA0",
			BaudRate:    115200,
			ReadTimeout: time.Second,
		},
		PPP: PPPConfig{
			StartCommand:   "pon cellular",
			StopCommand:    "poff cellular",
			Interface:      "ppp0",
			ConnectTimeout: 60 * time.Second,
		},
		API:      APIConfig{BaseURL: "https://api.beppp.cloud"},
		SD:       SDConfig{Path: "/mnt/sd/log.csv"},
		Display:  DisplayConfig{Enabled: true},
		Watchdog: WatchdogConfig{Device: "/dev/watchdog"},
		MQTT:     MQTTConfig{TopicPrefix: "battery"},
	}
}

// Load reads path over the defaults, fills secrets from the environment
// (after loading envFile, if it exists) and validates the result. An empty
// path yields the defaults.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	cfg.API.Secret = os.Getenv(EnvBatterySecret)
	cfg.MQTT.Password = os.Getenv(EnvMQTTPassword)

	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
