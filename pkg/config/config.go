// Package config loads link settings for the zrna tools from YAML or TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zrna-research/zrna-go/pkg/transport"
)

// Link kinds.
const (
	KindStream   = "stream"
	KindRegister = "register"
	KindPolled   = "polled"
)

// Defaults.
const (
	DefaultBaudRate   = 115200
	DefaultProduct    = "zrna midi/cdc"
	DefaultI2CAddress = transport.DefaultRegisterAddress
	DefaultSPISpeedHz = 1_000_000
)

var (
	ErrUnknownFormat = errors.New("unknown config format")
	ErrInvalid       = errors.New("invalid config")
)

// Config selects and tunes the link to one device.
type Config struct {
	// Transport is one of stream, register or polled.
	Transport string `yaml:"transport" toml:"transport"`

	Serial  SerialConfig  `yaml:"serial" toml:"serial"`
	I2C     I2CConfig     `yaml:"i2c" toml:"i2c"`
	SPI     SPIConfig     `yaml:"spi" toml:"spi"`
	Polling PollingConfig `yaml:"polling" toml:"polling"`

	// SettleDelay is the pause between register write and read.
	SettleDelay time.Duration `yaml:"settle_delay" toml:"settle_delay"`

	// MaxFrameSize bounds received frames.
	MaxFrameSize int `yaml:"max_frame_size" toml:"max_frame_size"`

	// ProtocolLog is the capture file. A ".zst" suffix enables compression.
	ProtocolLog string `yaml:"protocol_log" toml:"protocol_log"`
}

// SerialConfig configures the stream link.
type SerialConfig struct {
	// Port is the device path. Empty means discover by Product.
	Port     string `yaml:"port" toml:"port"`
	BaudRate int    `yaml:"baud_rate" toml:"baud_rate"`

	// Product is the USB product description matched during discovery.
	Product string `yaml:"product" toml:"product"`
}

// I2CConfig configures the register link.
type I2CConfig struct {
	// Bus is the periph bus name. Empty opens the first bus.
	Bus     string `yaml:"bus" toml:"bus"`
	Address uint16 `yaml:"address" toml:"address"`
}

// SPIConfig configures the polled link.
type SPIConfig struct {
	Port    string `yaml:"port" toml:"port"`
	SpeedHz int64  `yaml:"speed_hz" toml:"speed_hz"`
}

// PollingConfig tunes the polled state machine.
type PollingConfig struct {
	Interval time.Duration `yaml:"interval" toml:"interval"`

	// MaxPolls bounds one exchange. Zero polls until the context ends.
	MaxPolls int `yaml:"max_polls" toml:"max_polls"`
}

// Default returns the configuration for a USB serial device found by
// discovery.
func Default() *Config {
	return &Config{
		Transport: KindStream,
		Serial: SerialConfig{
			BaudRate: DefaultBaudRate,
			Product:  DefaultProduct,
		},
		I2C: I2CConfig{Address: DefaultI2CAddress},
		SPI: SPIConfig{SpeedHz: DefaultSPISpeedHz},
		Polling: PollingConfig{
			Interval: transport.DefaultPollInterval,
		},
		SettleDelay:  transport.DefaultSettleDelay,
		MaxFrameSize: transport.DefaultMaxFrameSize,
	}
}

// Load reads path over Default. The format follows the extension:
// .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	var errs []error
	switch c.Transport {
	case KindStream:
		if c.Serial.Port == "" && c.Serial.Product == "" {
			errs = append(errs, errors.New("serial: port or product required"))
		}
		if c.Serial.BaudRate <= 0 {
			errs = append(errs, fmt.Errorf("serial: baud_rate %d", c.Serial.BaudRate))
		}
	case KindRegister:
		if c.I2C.Address == 0 || c.I2C.Address > 0x7F {
			errs = append(errs, fmt.Errorf("i2c: address %#x outside 7-bit range", c.I2C.Address))
		}
		if c.SettleDelay < 0 {
			errs = append(errs, fmt.Errorf("settle_delay %v", c.SettleDelay))
		}
	case KindPolled:
		if c.SPI.SpeedHz <= 0 {
			errs = append(errs, fmt.Errorf("spi: speed_hz %d", c.SPI.SpeedHz))
		}
		if c.Polling.Interval < 0 {
			errs = append(errs, fmt.Errorf("polling: interval %v", c.Polling.Interval))
		}
		if c.Polling.MaxPolls < 0 {
			errs = append(errs, fmt.Errorf("polling: max_polls %d", c.Polling.MaxPolls))
		}
	default:
		errs = append(errs, fmt.Errorf("transport %q", c.Transport))
	}
	if c.MaxFrameSize < 0 {
		errs = append(errs, fmt.Errorf("max_frame_size %d", c.MaxFrameSize))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// StreamConfig converts to the stream transport settings.
func (c *Config) StreamConfig() transport.StreamConfig {
	return transport.StreamConfig{MaxFrameSize: c.MaxFrameSize}
}

// RegisterConfig converts to the register transport settings.
func (c *Config) RegisterConfig() transport.RegisterConfig {
	return transport.RegisterConfig{SettleDelay: c.SettleDelay, MaxFrameSize: c.MaxFrameSize}
}

// PollConfig converts to the polled transport settings.
func (c *Config) PollConfig() transport.PollConfig {
	return transport.PollConfig{
		Interval:     c.Polling.Interval,
		MaxPolls:     c.Polling.MaxPolls,
		MaxFrameSize: c.MaxFrameSize,
	}
}
