package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zrna-research/zrna-go/pkg/log"
)

// Framing constants.
const (
	// DefaultMaxFrameSize bounds an encoded frame, terminator included (64 KB).
	// The polled bus cannot express more than 0xFFFF.
	DefaultMaxFrameSize = 65535
)

// Framing errors.
var (
	// ErrFrameTooLarge indicates the frame exceeds the maximum size.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrFrameTruncated indicates the channel ended inside a frame.
	ErrFrameTruncated = errors.New("frame truncated")
)

// EncodeFrame returns the COBS encoding of payload followed by the terminator.
func EncodeFrame(payload []byte) []byte {
	return append(Encode(payload), Terminator)
}

// DecodeFrame strips the trailing terminator from frame and decodes it.
func DecodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 || frame[len(frame)-1] != Terminator {
		return nil, &FrameDecodeError{Offset: len(frame), Reason: "missing terminator"}
	}
	return Decode(frame[:len(frame)-1])
}

// FrameWriter writes delimited frames to an underlying writer.
type FrameWriter struct {
	w            io.Writer
	maxFrameSize int
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer, maxFrameSize int) *FrameWriter {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &FrameWriter{w: w, maxFrameSize: maxFrameSize}
}

// WriteFrame encodes payload and writes it with its terminator in a single
// call. It returns the bytes written.
func (fw *FrameWriter) WriteFrame(payload []byte) ([]byte, error) {
	frame := EncodeFrame(payload)
	if len(frame) > fw.maxFrameSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(frame), fw.maxFrameSize)
	}
	if _, err := fw.w.Write(frame); err != nil {
		return nil, fmt.Errorf("failed to write frame: %w", err)
	}
	return frame, nil
}

// FrameReader reads delimited frames one byte at a time.
type FrameReader struct {
	r            io.ByteReader
	maxFrameSize int
}

// NewFrameReader creates a new frame reader.
func NewFrameReader(r io.ByteReader, maxFrameSize int) *FrameReader {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &FrameReader{r: r, maxFrameSize: maxFrameSize}
}

// ReadFrame reads bytes until the terminator and returns the encoded frame,
// terminator included. Stray terminators before a frame are skipped.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	var frame []byte
	for {
		b, err := fr.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(frame) == 0 {
					return nil, io.EOF
				}
				return nil, ErrFrameTruncated
			}
			return nil, fmt.Errorf("failed to read frame: %w", err)
		}

		if b == Terminator {
			if len(frame) == 0 {
				continue
			}
			return append(frame, b), nil
		}

		frame = append(frame, b)
		if len(frame) >= fr.maxFrameSize {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrFrameTooLarge, fr.maxFrameSize)
		}
	}
}

// byteReader reads single bytes from an io.Reader without buffering ahead.
type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (br *byteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(br.r, br.buf[:]); err != nil {
		return 0, err
	}
	return br.buf[0], nil
}

// frameLog emits protocol capture events for an exchanger.
type frameLog struct {
	logger    log.Logger
	connID    string
	transport string
}

// SetLogger configures protocol capture for this exchanger.
// Pass nil to disable logging.
func (fl *frameLog) SetLogger(logger log.Logger, connID string) {
	fl.logger = logger
	fl.connID = connID
}

func (fl *frameLog) logFrame(frame []byte, direction log.Direction) {
	if fl.logger == nil {
		return
	}

	fl.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: fl.connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Transport:    fl.transport,
		Frame:        log.NewFrameEvent(frame),
	})
}

func (fl *frameLog) logState(oldState, newState, reason string) {
	if fl.logger == nil {
		return
	}
	fl.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: fl.connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		Transport:    fl.transport,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityPoll,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// decodeReceived decodes a received frame, logging it first.
func (fl *frameLog) decodeReceived(frame []byte) ([]byte, error) {
	fl.logFrame(frame, log.DirectionIn)
	return DecodeFrame(frame)
}
