package transport

import (
	"context"
	"io"

	"github.com/zrna-research/zrna-go/pkg/log"
)

// StreamConfig configures a Stream exchanger.
type StreamConfig struct {
	// MaxFrameSize bounds received and sent frames, terminator included.
	MaxFrameSize int
}

// DefaultStreamConfig returns the configuration used for USB CDC serial ports.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{MaxFrameSize: DefaultMaxFrameSize}
}

// Stream exchanges frames over a byte stream such as a serial port.
type Stream struct {
	frameLog
	writer *FrameWriter
	reader *FrameReader
}

// NewStream creates a Stream over rw.
func NewStream(rw io.ReadWriter, config StreamConfig) *Stream {
	return &Stream{
		frameLog: frameLog{transport: "stream"},
		writer:   NewFrameWriter(rw, config.MaxFrameSize),
		reader:   NewFrameReader(&byteReader{r: rw}, config.MaxFrameSize),
	}
}

// Exchange writes the framed payload in one call, then reads one byte at a
// time until the response terminator.
func (s *Stream) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := s.writer.WriteFrame(payload)
	if err != nil {
		return nil, err
	}
	s.logFrame(frame, log.DirectionOut)

	resp, err := s.reader.ReadFrame()
	if err != nil {
		return nil, err
	}
	return s.decodeReceived(resp)
}
