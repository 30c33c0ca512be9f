package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/zrna-research/zrna-go/pkg/channel"
	"github.com/zrna-research/zrna-go/pkg/config"
	"github.com/zrna-research/zrna-go/pkg/interaction"
	"github.com/zrna-research/zrna-go/pkg/log"
)

// linkFlags are shared by every command that talks to a device. Flags the
// user set override the config file.
type linkFlags struct {
	fs *pflag.FlagSet

	configPath   string
	transport    string
	port         string
	baud         int
	product      string
	i2cBus       string
	i2cAddr      uint16
	spiPort      string
	spiSpeed     int64
	pollInterval time.Duration
	maxPolls     int
	settle       time.Duration
	protocolLog  string
	logLevel     string
	timeout      time.Duration
}

func addLinkFlags(fs *pflag.FlagSet) *linkFlags {
	d := config.Default()
	l := &linkFlags{fs: fs}
	fs.StringVarP(&l.configPath, "config", "c", "", "Link configuration file (.yaml, .yml or .toml)")
	fs.StringVarP(&l.transport, "transport", "t", d.Transport, "Link: stream, register or polled")
	fs.StringVarP(&l.port, "port", "p", "", "Serial port (discovered by USB product when empty)")
	fs.IntVar(&l.baud, "baud", d.Serial.BaudRate, "Serial baud rate")
	fs.StringVar(&l.product, "product", d.Serial.Product, "USB product description used for discovery")
	fs.StringVar(&l.i2cBus, "i2c-bus", "", "I2C bus name (first bus when empty)")
	fs.Uint16Var(&l.i2cAddr, "i2c-addr", d.I2C.Address, "I2C target address")
	fs.StringVar(&l.spiPort, "spi-port", "", "SPI port name (first port when empty)")
	fs.Int64Var(&l.spiSpeed, "spi-speed", d.SPI.SpeedHz, "SPI clock in Hz")
	fs.DurationVar(&l.pollInterval, "poll-interval", d.Polling.Interval, "Delay between SPI status polls")
	fs.IntVar(&l.maxPolls, "max-polls", 0, "Polls per exchange before giving up (0 = unbounded)")
	fs.DurationVar(&l.settle, "settle", d.SettleDelay, "Delay between I2C write and read")
	fs.StringVar(&l.protocolLog, "protocol-log", "", "Capture protocol events to this file (.zst compresses)")
	fs.StringVar(&l.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	fs.DurationVar(&l.timeout, "timeout", 5*time.Second, "Per-request timeout")
	return l
}

// load builds the link config: defaults, then the file, then changed flags.
func (l *linkFlags) load() (*config.Config, error) {
	cfg := config.Default()
	if l.configPath != "" {
		var err error
		if cfg, err = config.Load(l.configPath); err != nil {
			return nil, err
		}
	}

	set := func(name string, apply func()) {
		if l.fs.Changed(name) {
			apply()
		}
	}
	set("transport", func() { cfg.Transport = l.transport })
	set("port", func() { cfg.Serial.Port = l.port })
	set("baud", func() { cfg.Serial.BaudRate = l.baud })
	set("product", func() { cfg.Serial.Product = l.product })
	set("i2c-bus", func() { cfg.I2C.Bus = l.i2cBus })
	set("i2c-addr", func() { cfg.I2C.Address = l.i2cAddr })
	set("spi-port", func() { cfg.SPI.Port = l.spiPort })
	set("spi-speed", func() { cfg.SPI.SpeedHz = l.spiSpeed })
	set("poll-interval", func() { cfg.Polling.Interval = l.pollInterval })
	set("max-polls", func() { cfg.Polling.MaxPolls = l.maxPolls })
	set("settle", func() { cfg.SettleDelay = l.settle })
	set("protocol-log", func() { cfg.ProtocolLog = l.protocolLog })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *linkFlags) logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.logLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// clientConfig wires protocol capture: the capture file when configured,
// and the slog adapter at debug level.
func (l *linkFlags) clientConfig(cfg *config.Config) (interaction.ClientConfig, func(), error) {
	logger := l.logger()
	var sinks []log.Logger
	cleanup := func() {}

	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return interaction.ClientConfig{}, nil, fmt.Errorf("protocol log: %w", err)
		}
		sinks = append(sinks, fl)
		cleanup = func() { fl.Close() }
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}

	cc := interaction.ClientConfig{Logger: logger}
	if len(sinks) > 0 {
		cc.ProtocolLogger = log.NewMultiLogger(sinks...)
	}
	return cc, cleanup, nil
}

// connect opens the configured link and runs the handshake.
func (l *linkFlags) connect(ctx context.Context) (*interaction.Client, func(), error) {
	cfg, err := l.load()
	if err != nil {
		return nil, nil, err
	}
	cc, closeLog, err := l.clientConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	link, err := channel.Open(ctx, cfg)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	cleanup := func() {
		if link.Closer != nil {
			link.Closer.Close()
		}
		closeLog()
	}

	client := interaction.NewClient(link.Exchanger, cc)
	hctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := client.Connect(hctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%s: %w", link.Port, err)
	}
	return client, func() {
		client.Close()
		cleanup()
	}, nil
}
