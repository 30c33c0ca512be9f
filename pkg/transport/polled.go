package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/zrna-research/zrna-go/pkg/log"
)

// Status bytes returned by the device in answer to a poll.
const (
	PollByte            byte = 0xFF
	StatusBusy          byte = 0xFF
	StatusReady         byte = 0xFE
	StatusRead          byte = 0xFD
	StatusDataAvailable byte = 0xFC
)

// DefaultPollInterval is slept after every poll that does not finish the
// exchange.
const DefaultPollInterval = 20 * time.Millisecond

// LengthHeaderSize is the size of the big-endian length sent before a frame.
const LengthHeaderSize = 2

// ErrPollLimit indicates the device did not complete an exchange within
// PollConfig.MaxPolls polls.
var ErrPollLimit = errors.New("poll limit reached")

// PollState is a state of the polled bus exchange.
type PollState uint8

const (
	PollPolling PollState = iota
	PollSending
	PollAwaitingLength
	PollAwaitingBody
	PollDone
)

func (s PollState) String() string {
	switch s {
	case PollPolling:
		return "POLLING"
	case PollSending:
		return "SENDING"
	case PollAwaitingLength:
		return "AWAITING_LENGTH"
	case PollAwaitingBody:
		return "AWAITING_BODY"
	case PollDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// PollConfig configures a Polled exchanger.
type PollConfig struct {
	// Interval is slept after each poll that does not complete the exchange.
	Interval time.Duration

	// MaxPolls bounds the polls per exchange. Zero polls until the device
	// answers or ctx is done.
	MaxPolls int

	// MaxFrameSize bounds encoded frames in both directions. Values outside
	// 1..DefaultMaxFrameSize fall back to DefaultMaxFrameSize, the largest
	// length the header can carry.
	MaxFrameSize int
}

// DefaultPollConfig returns the configuration used for the SPI link.
func DefaultPollConfig() PollConfig {
	return PollConfig{Interval: DefaultPollInterval, MaxFrameSize: DefaultMaxFrameSize}
}

// Polled exchanges frames over a bus without a ready line by polling the
// device for a status byte.
type Polled struct {
	frameLog
	conn   BusConn
	config PollConfig
	state  PollState
}

// NewPolled creates a Polled exchanger over conn.
func NewPolled(conn BusConn, config PollConfig) *Polled {
	return &Polled{
		frameLog: frameLog{transport: "polled"},
		conn:     conn,
		config:   config,
	}
}

// State returns the state the last exchange ended in.
func (p *Polled) State() PollState {
	return p.state
}

// Exchange sends payload when the device reports READY and returns the
// response once it reports DATA_AVAILABLE. Statuses that do not fit the
// current state count as busy.
func (p *Polled) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	limit := p.maxFrameSize()
	frame := EncodeFrame(payload)
	if len(frame) > limit {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(frame), limit)
	}

	p.state = PollPolling
	sent := false
	length := -1

	for polls := 0; ; polls++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.config.MaxPolls > 0 && polls >= p.config.MaxPolls {
			return nil, fmt.Errorf("%w: %d polls", ErrPollLimit, polls)
		}

		status, err := p.poll()
		if err != nil {
			return nil, err
		}

		switch {
		case status == StatusReady && !sent:
			p.setState(PollSending, "ready")
			if err := p.send(frame); err != nil {
				return nil, err
			}
			sent = true
			p.setState(PollPolling, "sent")

		case status == StatusRead && sent:
			p.setState(PollAwaitingLength, "read")
			length, err = p.readLength()
			if err != nil {
				return nil, err
			}
			if length > limit {
				return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, limit)
			}
			p.setState(PollPolling, fmt.Sprintf("length %d", length))

		case status == StatusDataAvailable && length >= 0:
			p.setState(PollAwaitingBody, "data available")
			resp, err := p.readBody(length)
			if err != nil {
				return nil, err
			}
			p.setState(PollDone, "frame")
			return resp, nil
		}

		if err := sleep(ctx, p.config.Interval); err != nil {
			return nil, err
		}
	}
}

func (p *Polled) maxFrameSize() int {
	if n := p.config.MaxFrameSize; n > 0 && n <= DefaultMaxFrameSize {
		return n
	}
	return DefaultMaxFrameSize
}

func (p *Polled) poll() (byte, error) {
	in, err := p.conn.Transfer([]byte{PollByte})
	if err != nil {
		return 0, fmt.Errorf("failed to poll: %w", err)
	}
	if len(in) == 0 {
		return StatusBusy, nil
	}
	return in[0], nil
}

func (p *Polled) send(frame []byte) error {
	buf := make([]byte, LengthHeaderSize, LengthHeaderSize+len(frame))
	binary.BigEndian.PutUint16(buf, uint16(len(frame)))
	buf = append(buf, frame...)

	if err := p.conn.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	p.logFrame(frame, log.DirectionOut)
	return nil
}

func (p *Polled) readLength() (int, error) {
	b, err := p.conn.Read(LengthHeaderSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read length: %w", err)
	}
	if len(b) != LengthHeaderSize {
		return 0, fmt.Errorf("%w: length header of %d bytes", ErrFrameTruncated, len(b))
	}
	return int(binary.BigEndian.Uint16(b)), nil
}

func (p *Polled) readBody(length int) ([]byte, error) {
	b, err := p.conn.Read(length)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	if len(b) != length {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrFrameTruncated, len(b), length)
	}
	return p.decodeReceived(b)
}

func (p *Polled) setState(next PollState, reason string) {
	if p.state == next {
		return
	}
	p.logState(p.state.String(), next.String(), reason)
	p.state = next
}
