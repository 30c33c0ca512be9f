package interaction

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/zrna-research/zrna-go/internal/devicesim"
	"github.com/zrna-research/zrna-go/pkg/log"
	"github.com/zrna-research/zrna-go/pkg/transport"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

// linkKinds lists the link variants every end-to-end test runs over.
var linkKinds = []string{"stream", "register", "polled"}

// simLink puts sim behind the named link variant.
func simLink(t *testing.T, sim *devicesim.Device, kind string) transport.FrameExchanger {
	t.Helper()

	switch kind {
	case "register":
		return transport.NewRegister(sim.Register(), transport.RegisterConfig{SettleDelay: time.Millisecond})
	case "polled":
		return transport.NewPolled(sim.Bus(), transport.PollConfig{Interval: time.Millisecond})
	}

	host, dev := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sim.ServeStream(ctx, dev)
	}()
	t.Cleanup(func() {
		cancel()
		host.Close()
		dev.Close()
		<-done
	})
	return transport.NewStream(host, transport.DefaultStreamConfig())
}

// connectedClient returns a client connected to a fresh simulated device.
func connectedClient(t *testing.T, kind string, cfg devicesim.Config) (*Client, *devicesim.Device) {
	t.Helper()

	sim := devicesim.New(cfg)
	c := NewClient(simLink(t, sim, kind), ClientConfig{})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return c, sim
}

// exchangerFunc adapts a function to transport.FrameExchanger.
type exchangerFunc func(ctx context.Context, payload []byte) ([]byte, error)

func (f exchangerFunc) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	return f(ctx, payload)
}

// scripted answers pings with the acknowledge bytes and hands every other
// request to fn.
func scripted(t *testing.T, fn func(req *wire.Request) ([]byte, error)) exchangerFunc {
	return func(_ context.Context, payload []byte) ([]byte, error) {
		req, err := wire.DecodeRequest(payload)
		if err != nil {
			t.Errorf("client sent undecodable request: %v", err)
			return nil, err
		}
		if req.Path.String() == PingPath {
			return encodeResponse(t, &wire.Response{Body: &wire.Acknowledge{Data: AckBytes}}), nil
		}
		return fn(req)
	}
}

func encodeResponse(t *testing.T, resp *wire.Response) []byte {
	t.Helper()
	b, err := wire.EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}
	return b
}

// recordingLogger captures protocol events.
type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingLogger) messages() []*log.MessageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*log.MessageEvent
	for _, e := range r.events {
		if e.Message != nil {
			out = append(out, e.Message)
		}
	}
	return out
}
