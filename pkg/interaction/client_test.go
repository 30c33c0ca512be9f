package interaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zrna-research/zrna-go/internal/devicesim"
	"github.com/zrna-research/zrna-go/pkg/log"
	"github.com/zrna-research/zrna-go/pkg/transport"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

func TestConnectHandshake(t *testing.T) {
	for _, kind := range linkKinds {
		t.Run(kind, func(t *testing.T) {
			c, _ := connectedClient(t, kind, devicesim.Config{BusyPolls: 2})
			assert.True(t, c.Connected())
			assert.True(t, c.Ping(context.Background()))
		})
	}
}

func TestConnectRejectsBadAck(t *testing.T) {
	tests := []struct {
		name string
		ack  []byte
	}{
		{"missing last byte", []byte{0xC0, 0xFF}},
		{"wrong byte", []byte{0xC0, 0xFF, 0xEF}},
		{"empty", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := devicesim.New(devicesim.Config{AckBytes: tt.ack})
			c := NewClient(simLink(t, sim, "stream"), ClientConfig{})

			err := c.Connect(context.Background())
			var ce *ConnectionError
			require.ErrorAs(t, err, &ce)
			assert.ErrorIs(t, err, ErrConnection)
			assert.False(t, c.Connected())
			assert.False(t, c.Ping(context.Background()))

			_, err = c.Get(context.Background(), "/version")
			assert.ErrorIs(t, err, ErrNotConnected)
		})
	}
}

func TestConnectAcceptsLongerAck(t *testing.T) {
	sim := devicesim.New(devicesim.Config{AckBytes: []byte{0xC0, 0xFF, 0xEE, 0x01}})
	c := NewClient(simLink(t, sim, "stream"), ClientConfig{})
	assert.NoError(t, c.Connect(context.Background()))
}

func TestConnectPingStatusError(t *testing.T) {
	ex := exchangerFunc(func(context.Context, []byte) ([]byte, error) {
		return encodeResponse(t, &wire.Response{StatusCode: wire.StatusInternalError}), nil
	})
	c := NewClient(ex, ClientConfig{})

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnection)
	assert.NotErrorIs(t, err, ErrStatusCode)
}

func TestConnectTransportFailure(t *testing.T) {
	ex := exchangerFunc(func(context.Context, []byte) ([]byte, error) {
		return nil, io.ErrUnexpectedEOF
	})
	c := NewClient(ex, ClientConfig{})

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSendBeforeConnect(t *testing.T) {
	c := NewClient(devicesimStream(t), ClientConfig{})
	_, err := c.Get(context.Background(), "/version")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func devicesimStream(t *testing.T) transport.FrameExchanger {
	return simLink(t, devicesim.New(devicesim.Config{}), "stream")
}

func TestStatusCodeError(t *testing.T) {
	for _, kind := range linkKinds {
		t.Run(kind, func(t *testing.T) {
			c, _ := connectedClient(t, kind, devicesim.Config{})

			resp, err := c.Get(context.Background(), "/no/such/resource")
			assert.Nil(t, resp)

			var se *StatusCodeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, wire.StatusInvalidRequestError, se.Code)
			assert.Equal(t, "INVALID_REQUEST_ERROR", se.Name())
			assert.Equal(t, wire.MethodGet, se.Method)
			assert.ErrorIs(t, err, ErrStatusCode)
			assert.True(t, IsStatus(err, wire.StatusInvalidRequestError))
			assert.False(t, IsStatus(err, wire.StatusStorageError))

			// The session stays usable after a status error.
			_, err = c.Get(context.Background(), "/version")
			assert.NoError(t, err)
		})
	}
}

func TestUnknownStatusCodeKept(t *testing.T) {
	c := NewClient(scripted(t, func(*wire.Request) ([]byte, error) {
		return encodeResponse(t, &wire.Response{StatusCode: 42}), nil
	}), ClientConfig{})
	require.NoError(t, c.Connect(context.Background()))

	_, err := c.Get(context.Background(), "/version")
	var se *StatusCodeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, wire.StatusCode(42), se.Code)
	assert.Equal(t, "STATUS_CODE_42", se.Name())
}

func TestTransportErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		cause error
	}{
		{"io", io.ErrUnexpectedEOF, io.ErrUnexpectedEOF},
		{"poll limit", fmt.Errorf("%w: 5 polls", transport.ErrPollLimit), transport.ErrPollLimit},
		{"cancelled", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(scripted(t, func(*wire.Request) ([]byte, error) {
				return nil, tt.err
			}), ClientConfig{})
			require.NoError(t, c.Connect(context.Background()))

			_, err := c.Get(context.Background(), "/version")
			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.ErrorIs(t, err, ErrTransport)
			assert.ErrorIs(t, err, tt.cause)

			assert.False(t, c.Connected())
			_, err = c.Get(context.Background(), "/version")
			assert.ErrorIs(t, err, ErrNotConnected)
		})
	}
}

func TestFrameDecodeErrors(t *testing.T) {
	t.Run("invalid envelope", func(t *testing.T) {
		c := NewClient(scripted(t, func(*wire.Request) ([]byte, error) {
			return []byte{0x0A, 0x05, 0x01}, nil
		}), ClientConfig{})
		require.NoError(t, c.Connect(context.Background()))

		_, err := c.Get(context.Background(), "/version")
		var fde *transport.FrameDecodeError
		require.ErrorAs(t, err, &fde)
		assert.ErrorIs(t, err, transport.ErrFrameDecode)
		assert.NotErrorIs(t, err, ErrTransport)

		assert.False(t, c.Connected())
		_, err = c.Get(context.Background(), "/version")
		assert.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("invalid cobs", func(t *testing.T) {
		c := NewClient(scripted(t, func(*wire.Request) ([]byte, error) {
			_, err := transport.Decode([]byte{0x05, 0x01})
			return nil, err
		}), ClientConfig{})
		require.NoError(t, c.Connect(context.Background()))

		_, err := c.Get(context.Background(), "/version")
		assert.ErrorIs(t, err, transport.ErrFrameDecode)
		assert.NotErrorIs(t, err, ErrTransport)

		assert.False(t, c.Connected())
		_, err = c.Get(context.Background(), "/version")
		assert.ErrorIs(t, err, ErrNotConnected)
	})
}

func TestAbandonedExchangeFailsSession(t *testing.T) {
	tests := []struct {
		name string
		sim  devicesim.Config
		link func(sim *devicesim.Device) transport.FrameExchanger
	}{
		{
			name: "register",
			link: func(sim *devicesim.Device) transport.FrameExchanger {
				return transport.NewRegister(sim.Register(), transport.RegisterConfig{SettleDelay: 50 * time.Millisecond})
			},
		},
		{
			name: "polled",
			sim:  devicesim.Config{BusyPolls: 20},
			link: func(sim *devicesim.Device) transport.FrameExchanger {
				return transport.NewPolled(sim.Bus(), transport.PollConfig{Interval: time.Millisecond})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := devicesim.New(tt.sim)
			c := NewClient(tt.link(sim), ClientConfig{})
			require.NoError(t, c.Connect(context.Background()))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
			defer cancel()
			_, err := c.Get(ctx, "/version")
			require.ErrorIs(t, err, ErrTransport)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.False(t, c.Connected())

			// Whatever reply is still on the link must not be read as the
			// answer to a later request.
			handled := len(sim.Requests())
			_, err = c.Get(context.Background(), "/circuit/modules/count")
			assert.ErrorIs(t, err, ErrNotConnected)
			assert.Len(t, sim.Requests(), handled)
		})
	}
}

func TestRequestsAnsweredInOrder(t *testing.T) {
	for _, kind := range linkKinds {
		t.Run(kind, func(t *testing.T) {
			c, sim := connectedClient(t, kind, devicesim.Config{})
			d := NewDevice(c)
			ctx := context.Background()

			cutoff, _ := wire.ParseParameterID("CUTOFF")
			lowpass, _ := wire.ParseModuleType("LOWPASS_FILTER")
			m := devicesim.DescribeType(lowpass)
			_, err := d.AddModule(ctx, &m)
			require.NoError(t, err)

			const n = 10
			for i := 0; i < n; i++ {
				require.NoError(t, d.SetParameter(ctx, 0, cutoff, float32(i*100)))
				got, err := d.Parameter(ctx, 0, cutoff)
				require.NoError(t, err)
				assert.Equal(t, float32(i*100), got)
			}

			var puts []float32
			for _, req := range sim.Requests() {
				if v, ok := req.Payload.(wire.Requested); ok {
					puts = append(puts, float32(v))
				}
			}
			require.Len(t, puts, n)
			for i, v := range puts {
				assert.Equal(t, float32(i*100), v)
			}
		})
	}
}

func TestConcurrentCallersDoNotOverlap(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	c := NewClient(scripted(t, func(*wire.Request) ([]byte, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		return encodeResponse(t, &wire.Response{Body: wire.ModuleCount(1)}), nil
	}), ClientConfig{})
	require.NoError(t, c.Connect(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := c.Get(context.Background(), "/circuit/modules/count")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestCloseRejectsRequests(t *testing.T) {
	c, _ := connectedClient(t, "stream", devicesim.Config{})
	require.NoError(t, c.Close())

	_, err := c.Get(context.Background(), "/version")
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.False(t, c.Ping(context.Background()))
	assert.ErrorIs(t, c.Connect(context.Background()), ErrClientClosed)
}

func TestProtocolCapture(t *testing.T) {
	rec := &recordingLogger{}
	sim := devicesim.New(devicesim.Config{})
	c := NewClient(simLink(t, sim, "polled"), ClientConfig{ConnectionID: "sess-1", ProtocolLogger: rec})
	require.NoError(t, c.Connect(context.Background()))

	_, err := c.Get(context.Background(), "/version")
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "/bogus")
	require.Error(t, err)

	msgs := rec.messages()
	require.Len(t, msgs, 6)

	assert.Equal(t, log.MessageTypeRequest, msgs[0].Type)
	assert.Equal(t, "/ping", msgs[0].Path)
	require.NotNil(t, msgs[0].Method)
	assert.Equal(t, wire.MethodGet, *msgs[0].Method)

	assert.Equal(t, log.MessageTypeResponse, msgs[3].Type)
	assert.Equal(t, uint64(2), msgs[3].Sequence)
	assert.Equal(t, "Version", msgs[3].PayloadType)
	require.NotNil(t, msgs[3].RoundTrip)

	require.NotNil(t, msgs[5].Status)
	assert.Equal(t, wire.StatusInvalidRequestError, *msgs[5].Status)

	var frames, polls, sessions int
	for _, e := range rec.events {
		assert.Equal(t, "sess-1", e.ConnectionID)
		switch {
		case e.Frame != nil:
			frames++
			assert.Equal(t, "polled", e.Transport)
		case e.StateChange != nil && e.StateChange.Entity == log.StateEntityPoll:
			polls++
		case e.StateChange != nil && e.StateChange.Entity == log.StateEntitySession:
			sessions++
			assert.Equal(t, "CONNECTED", e.StateChange.NewState)
		}
	}
	assert.Equal(t, 6, frames)
	assert.Positive(t, polls)
	assert.Equal(t, 1, sessions)
}

func TestGeneratedConnectionID(t *testing.T) {
	a := NewClient(exchangerFunc(nil), ClientConfig{})
	b := NewClient(exchangerFunc(nil), ClientConfig{})
	assert.Len(t, a.ConnectionID(), 36)
	assert.NotEqual(t, a.ConnectionID(), b.ConnectionID())
}

func TestVerbsCompilePaths(t *testing.T) {
	var got []*wire.Request
	c := NewClient(scripted(t, func(req *wire.Request) ([]byte, error) {
		got = append(got, req)
		return encodeResponse(t, &wire.Response{}), nil
	}), ClientConfig{})
	require.NoError(t, c.Connect(context.Background()))

	ctx := context.Background()
	_, err := c.Get(ctx, "/circuit")
	require.NoError(t, err)
	_, err = c.Post(ctx, "/circuit/default", nil)
	require.NoError(t, err)
	_, err = c.Put(ctx, "/circuit/module/2/parameter/cutoff/requested", wire.Requested(0.5))
	require.NoError(t, err)
	_, err = c.Patch(ctx, "/system/resource/analog/clock", &wire.ProcessorClockConfiguration{})
	require.NoError(t, err)
	_, err = c.Delete(ctx, "/circuit/module/2", nil)
	require.NoError(t, err)

	require.Len(t, got, 5)
	want := []struct {
		method wire.Method
		path   string
	}{
		{wire.MethodGet, "/circuit"},
		{wire.MethodPost, "/circuit/default"},
		{wire.MethodPut, "/circuit/module/2/parameter/cutoff/requested"},
		{wire.MethodPatch, "/system/resource/analog/clock"},
		{wire.MethodDelete, "/circuit/module/2"},
	}
	for i, w := range want {
		assert.Equal(t, w.method, got[i].Method)
		assert.Equal(t, w.path, got[i].Path.String())
	}
	assert.Equal(t, wire.Requested(0.5), got[2].Payload)
	assert.Nil(t, got[1].Payload)
}

func TestErrorMessages(t *testing.T) {
	se := &StatusCodeError{Code: wire.StatusNotFoundError, Method: wire.MethodGet, Path: "/circuit/module/9"}
	assert.Equal(t, "GET /circuit/module/9: NOT_FOUND_ERROR", se.Error())

	ce := &ConnectionError{Reason: "missing acknowledge bytes"}
	assert.Equal(t, "connection failed: missing acknowledge bytes", ce.Error())

	te := &TransportError{Err: errors.New("bus fault")}
	assert.Equal(t, "transport failed: bus fault", te.Error())
}
