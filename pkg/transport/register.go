package transport

import (
	"context"
	"time"

	"github.com/zrna-research/zrna-go/pkg/log"
)

// DefaultSettleDelay is the pause between sending a request over a register
// bus and reading its response.
const DefaultSettleDelay = 100 * time.Millisecond

// DefaultRegisterAddress is the device's I2C target address.
const DefaultRegisterAddress = 0x15

// RegisterConfig configures a Register exchanger.
type RegisterConfig struct {
	// SettleDelay is slept after the request frame has been written.
	SettleDelay time.Duration

	// MaxFrameSize bounds received and sent frames, terminator included.
	MaxFrameSize int
}

// DefaultRegisterConfig returns the configuration used for the I2C link.
func DefaultRegisterConfig() RegisterConfig {
	return RegisterConfig{
		SettleDelay:  DefaultSettleDelay,
		MaxFrameSize: DefaultMaxFrameSize,
	}
}

// Register exchanges frames one register access per byte.
type Register struct {
	frameLog
	config RegisterConfig
	writer *FrameWriter
	reader *FrameReader
}

// NewRegister creates a Register exchanger over dev.
func NewRegister(dev RegisterDevice, config RegisterConfig) *Register {
	return &Register{
		frameLog: frameLog{transport: "register"},
		config:   config,
		writer:   NewFrameWriter(registerWriter{dev: dev}, config.MaxFrameSize),
		reader:   NewFrameReader(dev, config.MaxFrameSize),
	}
}

// Exchange writes the framed payload byte by byte, waits the settle delay,
// then reads until the response terminator.
func (r *Register) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := r.writer.WriteFrame(payload)
	if err != nil {
		return nil, err
	}
	r.logFrame(frame, log.DirectionOut)

	if err := sleep(ctx, r.config.SettleDelay); err != nil {
		return nil, err
	}

	resp, err := r.reader.ReadFrame()
	if err != nil {
		return nil, err
	}
	return r.decodeReceived(resp)
}

// registerWriter adapts a RegisterDevice to io.Writer.
type registerWriter struct {
	dev RegisterDevice
}

func (w registerWriter) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := w.dev.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
