package interaction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zrna-research/zrna-go/pkg/log"
	"github.com/zrna-research/zrna-go/pkg/path"
	"github.com/zrna-research/zrna-go/pkg/transport"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

// PingPath is the resource probed by Connect and Ping.
const PingPath = "/ping"

// AckBytes is the acknowledge body the device returns for a ping.
var AckBytes = []byte{0xC0, 0xFF, 0xEE}

// ClientConfig configures a Client.
type ClientConfig struct {
	// ConnectionID labels protocol log events. A UUID is generated when empty.
	ConnectionID string

	// Compiler resolves path strings. Nil uses the built-in catalog.
	Compiler *path.Compiler

	// ProtocolLogger receives frame, message and state events.
	// If nil, protocol capture is disabled.
	ProtocolLogger log.Logger

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

type clientState uint8

const (
	stateIdle clientState = iota
	stateConnected
	stateFailed
	stateClosed
)

func (s clientState) String() string {
	switch s {
	case stateIdle:
		return "IDLE"
	case stateConnected:
		return "CONNECTED"
	case stateFailed:
		return "FAILED"
	case stateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Client sends requests to a device over one FrameExchanger.
// Callers may share a Client; requests never overlap on the wire.
type Client struct {
	mu sync.Mutex

	exchanger transport.FrameExchanger
	compiler  *path.Compiler
	connID    string
	protocol  log.Logger
	logger    *slog.Logger

	state clientState
	seq   uint64
}

// NewClient creates a client over ex. Call Connect before Send.
func NewClient(ex transport.FrameExchanger, config ClientConfig) *Client {
	c := &Client{
		exchanger: ex,
		compiler:  config.Compiler,
		connID:    config.ConnectionID,
		protocol:  log.OrNoop(config.ProtocolLogger),
		logger:    config.Logger,
	}
	if c.compiler == nil {
		c.compiler = path.NewCompiler(nil)
	}
	if c.connID == "" {
		c.connID = uuid.NewString()
	}
	if ls, ok := ex.(transport.LogSetter); ok && config.ProtocolLogger != nil {
		ls.SetLogger(config.ProtocolLogger, c.connID)
	}
	return c
}

// ConnectionID returns the identifier used in protocol log events.
func (c *Client) ConnectionID() string {
	return c.connID
}

// Connected reports whether the handshake succeeded and the client is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateConnected
}

// Connect performs the handshake probe. On failure the client is unusable
// and every later Send returns ErrNotConnected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return ErrClientClosed
	}

	if err := c.probe(ctx); err != nil {
		c.setState(stateFailed, err.Error())
		return err
	}
	c.setState(stateConnected, "handshake")
	return nil
}

// Ping sends the handshake probe and reports whether the device answered
// with the expected acknowledge bytes.
func (c *Client) Ping(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return false
	}
	return c.probe(ctx) == nil
}

// Close marks the client closed. The channel is owned by the caller.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setState(stateClosed, "closed")
	return nil
}

// Send transmits req and waits for its response. A response with a status
// other than OK is returned as a *StatusCodeError.
func (c *Client) Send(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateClosed:
		return nil, ErrClientClosed
	case stateConnected:
	default:
		return nil, ErrNotConnected
	}

	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &StatusCodeError{Code: resp.StatusCode, Method: req.Method, Path: req.Path.String()}
	}
	return resp, nil
}

// Get reads the resource at p.
func (c *Client) Get(ctx context.Context, p string) (*wire.Response, error) {
	return c.Do(ctx, wire.MethodGet, p, nil)
}

// Post creates at p. payload may be nil.
func (c *Client) Post(ctx context.Context, p string, payload wire.Payload) (*wire.Response, error) {
	return c.Do(ctx, wire.MethodPost, p, payload)
}

// Put replaces the resource at p.
func (c *Client) Put(ctx context.Context, p string, payload wire.Payload) (*wire.Response, error) {
	return c.Do(ctx, wire.MethodPut, p, payload)
}

// Patch updates the resource at p.
func (c *Client) Patch(ctx context.Context, p string, payload wire.Payload) (*wire.Response, error) {
	return c.Do(ctx, wire.MethodPatch, p, payload)
}

// Delete removes the resource at p. payload may be nil or a filter.
func (c *Client) Delete(ctx context.Context, p string, payload wire.Payload) (*wire.Response, error) {
	return c.Do(ctx, wire.MethodDelete, p, payload)
}

// Do compiles p and sends it with method m.
func (c *Client) Do(ctx context.Context, m wire.Method, p string, payload wire.Payload) (*wire.Response, error) {
	return c.Send(ctx, &wire.Request{
		Method:  m,
		Path:    c.compiler.Compile(p),
		Payload: payload,
	})
}

// probe runs GET /ping. Caller holds c.mu.
func (c *Client) probe(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, &wire.Request{
		Method: wire.MethodGet,
		Path:   c.compiler.Compile(PingPath),
	})
	if err != nil {
		return &ConnectionError{Reason: "ping failed", Err: err}
	}
	if !resp.IsSuccess() {
		return &ConnectionError{Reason: "ping returned " + resp.StatusCode.String()}
	}

	ack, ok := resp.Body.(*wire.Acknowledge)
	if !ok || !bytes.HasPrefix(ack.Data, AckBytes) {
		return &ConnectionError{Reason: "missing acknowledge bytes"}
	}
	return nil
}

// roundTrip encodes req, exchanges one frame pair and decodes the reply
// without applying status policy. Caller holds c.mu.
func (c *Client) roundTrip(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	c.seq++
	seq := c.seq
	pathStr := req.Path.String()
	c.logRequest(seq, req, pathStr)
	c.debugLog("sending request", "seq", seq, "method", req.Method, "path", pathStr)

	start := time.Now()
	raw, err := c.exchanger.Exchange(ctx, data)
	if err != nil {
		c.logError(err)
		// The link may still hold this exchange's reply; nothing further
		// is sent until a new handshake.
		c.setState(stateFailed, err.Error())
		if errors.Is(err, transport.ErrFrameDecode) {
			return nil, err
		}
		return nil, &TransportError{Err: err}
	}

	resp, err := wire.DecodeResponse(raw)
	if err != nil {
		c.logError(err)
		c.setState(stateFailed, err.Error())
		return nil, &transport.FrameDecodeError{Reason: "invalid response envelope", Err: err}
	}

	rtt := time.Since(start)
	c.logResponse(seq, resp, pathStr, rtt)
	c.debugLog("received response", "seq", seq, "status", resp.StatusCode, "rtt", rtt)
	return resp, nil
}

func (c *Client) setState(next clientState, reason string) {
	if c.state == next {
		return
	}
	c.protocol.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Layer:        log.LayerSession,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: c.state.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
	c.state = next
}

func (c *Client) logRequest(seq uint64, req *wire.Request, pathStr string) {
	method := req.Method
	c.protocol.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:        log.MessageTypeRequest,
			Sequence:    seq,
			Method:      &method,
			Path:        pathStr,
			PayloadType: typeName(req.Payload),
		},
	})
}

func (c *Client) logResponse(seq uint64, resp *wire.Response, pathStr string, rtt time.Duration) {
	status := resp.StatusCode
	c.protocol.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:        log.MessageTypeResponse,
			Sequence:    seq,
			Path:        pathStr,
			Status:      &status,
			PayloadType: typeName(resp.Body),
			RoundTrip:   &rtt,
		},
	})
}

func (c *Client) logError(err error) {
	layer := log.LayerTransport
	if errors.Is(err, wire.ErrMalformed) || errors.Is(err, transport.ErrFrameDecode) {
		layer = log.LayerWire
	}
	c.protocol.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Layer:        layer,
		Category:     log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
		},
	})
}

func (c *Client) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

// typeName returns the bare type name of a payload or body, "" for nil.
func typeName(v any) string {
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// String implements fmt.Stringer for debugging.
func (c *Client) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("Client(%s, %s)", c.connID, c.state)
}
