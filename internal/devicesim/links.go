package devicesim

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/zrna-research/zrna-go/pkg/transport"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

// Link errors.
var (
	// ErrNoData is returned by Register.ReadByte when no response is queued.
	ErrNoData = errors.New("no data available")

	// ErrBusProtocol indicates a bus access that does not fit the status
	// the device last reported.
	ErrBusProtocol = errors.New("bus protocol violation")
)

// handleRaw answers one received frame, terminator included.
func (d *Device) handleRaw(raw []byte) []byte {
	payload, err := transport.DecodeFrame(raw)
	if err != nil {
		out, _ := wire.EncodeResponse(status(wire.StatusInvalidRequestError))
		return transport.EncodeFrame(out)
	}
	return transport.EncodeFrame(d.HandleFrame(payload))
}

// ServeStream answers frames read from rw until ctx is done or rw reaches
// EOF.
func (d *Device) ServeStream(ctx context.Context, rw io.ReadWriter) error {
	fr := transport.NewFrameReader(bufio.NewReader(rw), 0)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := fr.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}

		if _, err := rw.Write(d.handleRaw(raw)); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
}

// Register is the device behind a single-register bus.
// It implements transport.RegisterDevice.
type Register struct {
	mu  sync.Mutex
	dev *Device
	in  []byte
	out []byte
}

// Register returns a register-bus view of the device.
func (d *Device) Register() *Register {
	return &Register{dev: d}
}

// WriteByte receives one request byte. The terminator completes the frame.
func (r *Register) WriteByte(b byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.in = append(r.in, b)
	if b != transport.Terminator {
		return nil
	}
	if len(r.in) > 1 {
		r.out = append(r.out, r.dev.handleRaw(r.in)...)
	}
	r.in = r.in[:0]
	return nil
}

// ReadByte returns the next queued response byte.
func (r *Register) ReadByte() (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.out) == 0 {
		return 0, ErrNoData
	}
	b := r.out[0]
	r.out = r.out[1:]
	return b, nil
}

type busPhase uint8

const (
	busIdle busPhase = iota
	busLengthPending
	busBodyPending
)

// Bus is the device behind a polled bus without a ready line.
// It implements transport.BusConn.
type Bus struct {
	mu    sync.Mutex
	dev   *Device
	phase busPhase
	busy  int
	resp  []byte
	polls int
}

// Bus returns a polled-bus view of the device.
func (d *Device) Bus() *Bus {
	return &Bus{dev: d, busy: d.config.BusyPolls}
}

// Polls returns the number of status polls answered.
func (b *Bus) Polls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.polls
}

// Transfer answers a poll with the current status byte.
func (b *Bus) Transfer(w []byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(w) != 1 || w[0] != transport.PollByte {
		return nil, fmt.Errorf("%w: transfer of % X", ErrBusProtocol, w)
	}
	b.polls++

	if b.busy > 0 {
		b.busy--
		return []byte{transport.StatusBusy}, nil
	}
	switch b.phase {
	case busLengthPending:
		return []byte{transport.StatusRead}, nil
	case busBodyPending:
		return []byte{transport.StatusDataAvailable}, nil
	default:
		return []byte{transport.StatusReady}, nil
	}
}

// Write receives a length-prefixed request frame.
func (b *Bus) Write(p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.phase != busIdle || len(p) < transport.LengthHeaderSize {
		return fmt.Errorf("%w: unexpected write", ErrBusProtocol)
	}
	n := int(binary.BigEndian.Uint16(p))
	frame := p[transport.LengthHeaderSize:]
	if n != len(frame) {
		return fmt.Errorf("%w: length header %d, frame %d bytes", ErrBusProtocol, n, len(frame))
	}

	b.resp = b.dev.handleRaw(frame)
	b.phase = busLengthPending
	b.busy = b.dev.config.BusyPolls
	return nil
}

// Read returns the response length header, then the response frame.
func (b *Bus) Read(n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.phase == busLengthPending && n == transport.LengthHeaderSize:
		out := make([]byte, transport.LengthHeaderSize)
		binary.BigEndian.PutUint16(out, uint16(len(b.resp)))
		b.phase = busBodyPending
		b.busy = b.dev.config.BusyPolls
		return out, nil
	case b.phase == busBodyPending && n == len(b.resp):
		out := b.resp
		b.resp = nil
		b.phase = busIdle
		b.busy = b.dev.config.BusyPolls
		return out, nil
	}
	return nil, fmt.Errorf("%w: read of %d bytes", ErrBusProtocol, n)
}

// Compile-time interface satisfaction checks.
var (
	_ transport.RegisterDevice = (*Register)(nil)
	_ transport.BusConn        = (*Bus)(nil)
)
