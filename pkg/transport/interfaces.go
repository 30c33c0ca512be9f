package transport

import (
	"context"

	"github.com/zrna-research/zrna-go/pkg/log"
)

// FrameExchanger sends one request payload and returns the one response
// payload, both unframed.
// Implemented by Stream, Register and Polled.
type FrameExchanger interface {
	// Exchange frames payload, sends it, and blocks until a complete response
	// frame has been received and decoded.
	Exchange(ctx context.Context, payload []byte) ([]byte, error)
}

// RegisterDevice is a device exposing a single byte-wide register, such as
// an I2C target.
type RegisterDevice interface {
	WriteByte(b byte) error
	ReadByte() (byte, error)
}

// BusConn is a full-duplex bus connection without a ready line, such as SPI.
type BusConn interface {
	// Transfer clocks out w and returns the bytes clocked in.
	Transfer(w []byte) ([]byte, error)

	// Write clocks out p, discarding what is clocked in.
	Write(p []byte) error

	// Read clocks in n bytes.
	Read(n int) ([]byte, error)
}

// LogSetter is implemented by exchangers that support protocol capture.
type LogSetter interface {
	SetLogger(logger log.Logger, connID string)
}

// Compile-time interface satisfaction checks.
var (
	_ FrameExchanger = (*Stream)(nil)
	_ FrameExchanger = (*Register)(nil)
	_ FrameExchanger = (*Polled)(nil)
	_ LogSetter      = (*Stream)(nil)
	_ LogSetter      = (*Register)(nil)
	_ LogSetter      = (*Polled)(nil)
)
