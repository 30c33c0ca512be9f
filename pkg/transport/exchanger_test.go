package transport

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zrna-research/zrna-go/pkg/log"
)

var (
	pingRequest = []byte{0x12, 0x04, 0x0A, 0x02, 0x08, 0x26}
	ackResponse = []byte{0x12, 0x05, 0x0A, 0x03, 0xC0, 0xFF, 0xEE}
)

type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingLogger) states() []string {
	var out []string
	for _, e := range r.events {
		if e.StateChange != nil {
			out = append(out, e.StateChange.NewState)
		}
	}
	return out
}

// Stream

type pipeRW struct {
	io.Reader
	io.Writer
}

func TestStreamExchange(t *testing.T) {
	in := bytes.NewBuffer(EncodeFrame(ackResponse))
	out := new(bytes.Buffer)
	s := NewStream(pipeRW{Reader: in, Writer: out}, DefaultStreamConfig())

	logger := &recordingLogger{}
	s.SetLogger(logger, "conn-1")

	resp, err := s.Exchange(context.Background(), pingRequest)
	require.NoError(t, err)
	assert.Equal(t, ackResponse, resp)
	assert.Equal(t, EncodeFrame(pingRequest), out.Bytes())

	require.Len(t, logger.events, 2)
	assert.Equal(t, log.DirectionOut, logger.events[0].Direction)
	assert.Equal(t, log.DirectionIn, logger.events[1].Direction)
	assert.Equal(t, "stream", logger.events[1].Transport)
	assert.Equal(t, "conn-1", logger.events[1].ConnectionID)
}

func TestStreamExchangeInOrder(t *testing.T) {
	var replies []byte
	for i := byte(1); i <= 5; i++ {
		replies = append(replies, EncodeFrame([]byte{0x08, i})...)
	}
	s := NewStream(pipeRW{Reader: bytes.NewBuffer(replies), Writer: io.Discard}, DefaultStreamConfig())

	for i := byte(1); i <= 5; i++ {
		resp, err := s.Exchange(context.Background(), pingRequest)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x08, i}, resp)
	}
}

func TestStreamExchangeErrors(t *testing.T) {
	t.Run("closed channel", func(t *testing.T) {
		s := NewStream(pipeRW{Reader: bytes.NewBuffer(nil), Writer: io.Discard}, DefaultStreamConfig())
		_, err := s.Exchange(context.Background(), pingRequest)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("invalid frame", func(t *testing.T) {
		s := NewStream(pipeRW{Reader: bytes.NewBuffer([]byte{0x05, 0x11, 0x00}), Writer: io.Discard}, DefaultStreamConfig())
		_, err := s.Exchange(context.Background(), pingRequest)
		assert.ErrorIs(t, err, ErrFrameDecode)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out := new(bytes.Buffer)
		s := NewStream(pipeRW{Reader: bytes.NewBuffer(nil), Writer: out}, DefaultStreamConfig())
		_, err := s.Exchange(ctx, pingRequest)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, out.Len())
	})
}

// Register

type fakeRegister struct {
	written []byte
	reply   []byte
	lastW   time.Time
	firstR  time.Time
}

func (f *fakeRegister) WriteByte(b byte) error {
	f.written = append(f.written, b)
	f.lastW = time.Now()
	return nil
}

func (f *fakeRegister) ReadByte() (byte, error) {
	if f.firstR.IsZero() {
		f.firstR = time.Now()
	}
	if len(f.reply) == 0 {
		return 0, io.EOF
	}
	b := f.reply[0]
	f.reply = f.reply[1:]
	return b, nil
}

func TestRegisterExchange(t *testing.T) {
	dev := &fakeRegister{reply: EncodeFrame(ackResponse)}
	cfg := DefaultRegisterConfig()
	cfg.SettleDelay = 15 * time.Millisecond
	r := NewRegister(dev, cfg)

	resp, err := r.Exchange(context.Background(), pingRequest)
	require.NoError(t, err)
	assert.Equal(t, ackResponse, resp)
	assert.Equal(t, EncodeFrame(pingRequest), dev.written)
	assert.GreaterOrEqual(t, dev.firstR.Sub(dev.lastW), cfg.SettleDelay)
}

func TestRegisterSettleHonorsContext(t *testing.T) {
	dev := &fakeRegister{reply: EncodeFrame(ackResponse)}
	r := NewRegister(dev, RegisterConfig{SettleDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Exchange(ctx, pingRequest)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, dev.firstR.IsZero(), "no read after cancelled settle")
}

func TestDefaultConfigs(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, DefaultRegisterConfig().SettleDelay)
	assert.Equal(t, 20*time.Millisecond, DefaultPollConfig().Interval)
	assert.Zero(t, DefaultPollConfig().MaxPolls)
	assert.Equal(t, DefaultMaxFrameSize, DefaultPollConfig().MaxFrameSize)
	assert.Equal(t, DefaultMaxFrameSize, DefaultStreamConfig().MaxFrameSize)
}

// Polled

type mockBusConn struct {
	mock.Mock
}

func (m *mockBusConn) Transfer(w []byte) ([]byte, error) {
	args := m.Called(w)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *mockBusConn) Write(p []byte) error {
	return m.Called(p).Error(0)
}

func (m *mockBusConn) Read(n int) ([]byte, error) {
	args := m.Called(n)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *mockBusConn) status(s byte, times int) {
	m.On("Transfer", []byte{PollByte}).Return([]byte{s}, nil).Times(times)
}

func fastPoll() PollConfig {
	return PollConfig{Interval: time.Millisecond}
}

func TestPolledScriptedExchange(t *testing.T) {
	respFrame := EncodeFrame(ackResponse)
	reqFrame := EncodeFrame(pingRequest)

	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header, uint16(len(reqFrame)))

	lengthHeader := make([]byte, 2)
	binary.BigEndian.PutUint16(lengthHeader, uint16(len(respFrame)))

	conn := &mockBusConn{}
	conn.status(StatusBusy, 2)
	conn.status(StatusReady, 1)
	conn.status(StatusBusy, 1)
	conn.status(StatusRead, 1)
	conn.status(StatusDataAvailable, 1)
	conn.On("Write", append(header, reqFrame...)).Return(nil).Once()
	conn.On("Read", 2).Return(lengthHeader, nil).Once()
	conn.On("Read", len(respFrame)).Return(respFrame, nil).Once()

	p := NewPolled(conn, fastPoll())
	logger := &recordingLogger{}
	p.SetLogger(logger, "conn-spi")

	resp, err := p.Exchange(context.Background(), pingRequest)
	require.NoError(t, err)
	assert.Equal(t, ackResponse, resp)
	assert.Equal(t, PollDone, p.State())

	conn.AssertExpectations(t)
	conn.AssertNumberOfCalls(t, "Transfer", 6)
	conn.AssertNumberOfCalls(t, "Write", 1)
	conn.AssertNumberOfCalls(t, "Read", 2)

	assert.Equal(t, []string{
		"SENDING", "POLLING", "AWAITING_LENGTH", "POLLING", "AWAITING_BODY", "DONE",
	}, logger.states())
}

func TestPolledIgnoresOutOfOrderStatus(t *testing.T) {
	respFrame := EncodeFrame(ackResponse)
	lengthHeader := []byte{0x00, byte(len(respFrame))}

	conn := &mockBusConn{}
	conn.status(StatusDataAvailable, 1)
	conn.status(StatusRead, 1)
	conn.status(0x42, 1)
	conn.status(StatusReady, 1)
	conn.status(StatusReady, 1)
	conn.status(StatusRead, 1)
	conn.status(StatusDataAvailable, 1)
	conn.On("Write", mock.Anything).Return(nil).Once()
	conn.On("Read", 2).Return(lengthHeader, nil).Once()
	conn.On("Read", len(respFrame)).Return(respFrame, nil).Once()

	resp, err := NewPolled(conn, fastPoll()).Exchange(context.Background(), pingRequest)
	require.NoError(t, err)
	assert.Equal(t, ackResponse, resp)
	conn.AssertNumberOfCalls(t, "Write", 1)
}

func TestPolledPollLimit(t *testing.T) {
	conn := &mockBusConn{}
	conn.On("Transfer", []byte{PollByte}).Return([]byte{StatusBusy}, nil)

	_, err := NewPolled(conn, PollConfig{Interval: time.Millisecond, MaxPolls: 5}).
		Exchange(context.Background(), pingRequest)
	assert.ErrorIs(t, err, ErrPollLimit)
	conn.AssertNumberOfCalls(t, "Transfer", 5)
}

func TestPolledContextCancel(t *testing.T) {
	conn := &mockBusConn{}
	conn.On("Transfer", []byte{PollByte}).Return([]byte{StatusBusy}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := NewPolled(conn, fastPoll()).Exchange(ctx, pingRequest)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPolledFrameSizeLimit(t *testing.T) {
	t.Run("outgoing", func(t *testing.T) {
		conn := &mockBusConn{}
		cfg := fastPoll()
		cfg.MaxFrameSize = 8

		_, err := NewPolled(conn, cfg).Exchange(context.Background(), make([]byte, 16))
		assert.ErrorIs(t, err, ErrFrameTooLarge)
		conn.AssertNotCalled(t, "Transfer", mock.Anything)
		conn.AssertNotCalled(t, "Write", mock.Anything)
	})

	t.Run("incoming length", func(t *testing.T) {
		conn := &mockBusConn{}
		conn.status(StatusReady, 1)
		conn.status(StatusRead, 1)
		conn.On("Write", mock.Anything).Return(nil)
		conn.On("Read", 2).Return([]byte{0x01, 0x00}, nil)
		cfg := fastPoll()
		cfg.MaxFrameSize = 64

		_, err := NewPolled(conn, cfg).Exchange(context.Background(), pingRequest)
		assert.ErrorIs(t, err, ErrFrameTooLarge)
		conn.AssertNotCalled(t, "Read", 256)
	})

	t.Run("above header range", func(t *testing.T) {
		conn := &mockBusConn{}
		cfg := fastPoll()
		cfg.MaxFrameSize = 1 << 20

		_, err := NewPolled(conn, cfg).Exchange(context.Background(), make([]byte, DefaultMaxFrameSize))
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})
}

func TestPolledBusErrors(t *testing.T) {
	busErr := errors.New("bus fault")

	t.Run("poll", func(t *testing.T) {
		conn := &mockBusConn{}
		conn.On("Transfer", mock.Anything).Return(nil, busErr)
		_, err := NewPolled(conn, fastPoll()).Exchange(context.Background(), pingRequest)
		assert.ErrorIs(t, err, busErr)
	})

	t.Run("short body", func(t *testing.T) {
		conn := &mockBusConn{}
		conn.status(StatusReady, 1)
		conn.status(StatusRead, 1)
		conn.status(StatusDataAvailable, 1)
		conn.On("Write", mock.Anything).Return(nil)
		conn.On("Read", 2).Return([]byte{0x00, 0x09}, nil)
		conn.On("Read", 9).Return([]byte{0x01, 0x00}, nil)
		_, err := NewPolled(conn, fastPoll()).Exchange(context.Background(), pingRequest)
		assert.ErrorIs(t, err, ErrFrameTruncated)
	})

	t.Run("bad frame", func(t *testing.T) {
		conn := &mockBusConn{}
		conn.status(StatusReady, 1)
		conn.status(StatusRead, 1)
		conn.status(StatusDataAvailable, 1)
		conn.On("Write", mock.Anything).Return(nil)
		conn.On("Read", 2).Return([]byte{0x00, 0x03}, nil)
		conn.On("Read", 3).Return([]byte{0x05, 0x11, 0x00}, nil)
		_, err := NewPolled(conn, fastPoll()).Exchange(context.Background(), pingRequest)
		assert.ErrorIs(t, err, ErrFrameDecode)
	})
}
