package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zrna-research/zrna-go/pkg/interaction"
	"github.com/zrna-research/zrna-go/pkg/log"
	"github.com/zrna-research/zrna-go/pkg/path"
	"github.com/zrna-research/zrna-go/pkg/transport"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

// Connection errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
	ErrGaveUp           = errors.New("re-establishment attempts exhausted")
)

// DefaultAttemptTimeout bounds one open-plus-handshake attempt made by the
// reconnect loop.
const DefaultAttemptTimeout = 5 * time.Second

// State represents the session state.
type State uint8

const (
	// StateDisconnected indicates no open session.
	StateDisconnected State = iota

	// StateConnecting indicates an open or handshake is in progress.
	StateConnecting

	// StateConnected indicates a handshaken session.
	StateConnected

	// StateClosed indicates the manager has been closed.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Link is an opened channel and the exchanger framing it.
type Link struct {
	Exchanger transport.FrameExchanger

	// Closer releases the channel. May be nil.
	Closer io.Closer

	// Port names the channel in protocol log events.
	Port string
}

func (l *Link) close() error {
	if l == nil || l.Closer == nil {
		return nil
	}
	return l.Closer.Close()
}

// OpenFunc opens a fresh channel to the device.
type OpenFunc func(ctx context.Context) (*Link, error)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Client is applied to every session. ConnectionID is ignored: each
	// session gets a fresh UUID.
	Client interaction.ClientConfig

	Backoff BackoffConfig

	// MaxAttempts limits consecutive re-establishment attempts.
	// Zero retries until Close.
	MaxAttempts int

	// AttemptTimeout bounds each reconnect attempt. Zero uses DefaultAttemptTimeout.
	AttemptTimeout time.Duration
}

// Manager owns one device session at a time and re-establishes it after
// the link fails. Only transport failures tear the session down; a device
// that answers with an error status is still connected.
type Manager struct {
	mu sync.RWMutex

	state   State
	backoff *Backoff
	open    OpenFunc
	config  ManagerConfig

	id       string
	compiler *path.Compiler
	protocol log.Logger
	logger   *slog.Logger

	client  *interaction.Client
	link    *Link
	autoRec bool

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	reconnectCh chan struct{}

	onStateChange  func(oldState, newState State)
	onReconnecting func(attempt int, delay time.Duration)
}

// NewManager creates a manager that opens channels through open.
func NewManager(open OpenFunc, config ManagerConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = DefaultAttemptTimeout
	}
	compiler := config.Client.Compiler
	if compiler == nil {
		compiler = path.NewCompiler(nil)
		config.Client.Compiler = compiler
	}
	return &Manager{
		state:       StateDisconnected,
		backoff:     NewBackoffWithConfig(config.Backoff),
		open:        open,
		config:      config,
		id:          uuid.NewString(),
		compiler:    compiler,
		protocol:    log.OrNoop(config.Client.ProtocolLogger),
		logger:      config.Client.Logger,
		autoRec:     true,
		ctx:         ctx,
		cancel:      cancel,
		reconnectCh: make(chan struct{}, 1),
	}
}

// ID identifies the manager in its own state events.
func (m *Manager) ID() string {
	return m.id
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected returns true if a handshaken session is open.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Client returns the current session's client, or nil when disconnected.
func (m *Manager) Client() *interaction.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// SetAutoReconnect enables or disables re-establishment after link failure.
func (m *Manager) SetAutoReconnect(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoRec = enabled
}

// OnStateChange sets a callback for state changes.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnReconnecting sets a callback invoked before each backoff wait.
func (m *Manager) OnReconnecting(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnecting = fn
}

// BackoffAttempts returns the number of re-establishment attempts since
// the last successful handshake.
func (m *Manager) BackoffAttempts() int {
	return m.backoff.Attempts()
}

// Connect opens a channel and runs the handshake.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	case StateClosed:
		m.mu.Unlock()
		return ErrConnectionClosed
	}
	old := m.state
	m.state = StateConnecting
	m.mu.Unlock()
	m.notify(old, StateConnecting, "connect")

	if err := m.establish(ctx); err != nil {
		m.failAttempt(err)
		return err
	}
	return nil
}

// Send forwards req to the current session. A transport failure or an
// undecodable reply closes the session and, with auto-reconnect enabled, schedules re-establishment;
// the failed request is not repeated.
func (m *Manager) Send(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	m.mu.RLock()
	state, c := m.state, m.client
	m.mu.RUnlock()

	if state == StateClosed {
		return nil, ErrConnectionClosed
	}
	if state != StateConnected || c == nil {
		return nil, ErrNotConnected
	}

	resp, err := c.Send(ctx, req)
	if errors.Is(err, interaction.ErrTransport) || errors.Is(err, transport.ErrFrameDecode) {
		m.connectionLost(c, err)
	}
	return resp, err
}

// Do compiles p and sends it with method and payload.
func (m *Manager) Do(ctx context.Context, method wire.Method, p string, payload wire.Payload) (*wire.Response, error) {
	return m.Send(ctx, &wire.Request{
		Method:  method,
		Path:    m.compiler.Compile(p),
		Payload: payload,
	})
}

// Disconnect closes the current session without scheduling a reconnect.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return nil
	}
	c, link := m.detach()
	m.state = StateDisconnected
	m.mu.Unlock()

	c.Close()
	err := link.close()
	m.notify(StateConnected, StateDisconnected, "disconnect")
	return err
}

// StartReconnectLoop starts the background re-establishment loop.
// Must be called once before reconnection will work.
func (m *Manager) StartReconnectLoop() {
	m.wg.Add(1)
	go m.reconnectLoop()
}

// Close stops the reconnect loop and releases the current channel.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	old := m.state
	m.state = StateClosed
	c, link := m.detach()
	m.mu.Unlock()

	m.notify(old, StateClosed, "closed")
	m.cancel()
	m.wg.Wait()

	if c != nil {
		c.Close()
	}
	return link.close()
}

// establish opens a link and handshakes. On success the session is
// installed and the state becomes CONNECTED.
func (m *Manager) establish(ctx context.Context) error {
	link, err := m.open(ctx)
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	cfg := m.config.Client
	cfg.ConnectionID = uuid.NewString()
	c := interaction.NewClient(link.Exchanger, cfg)
	if err := c.Connect(ctx); err != nil {
		link.close()
		return err
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		c.Close()
		link.close()
		return ErrConnectionClosed
	}
	old := m.state
	m.client, m.link = c, link
	m.state = StateConnected
	m.backoff.Reset()
	m.mu.Unlock()

	m.debugLog("session established", "session", c.ConnectionID(), "port", link.Port)
	m.notify(old, StateConnected, "session "+c.ConnectionID())
	return nil
}

func (m *Manager) failAttempt(err error) {
	m.mu.Lock()
	if m.state != StateConnecting {
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	m.mu.Unlock()
	m.notify(StateConnecting, StateDisconnected, err.Error())
}

// connectionLost tears down c if it is still the current session.
func (m *Manager) connectionLost(c *interaction.Client, cause error) {
	m.mu.Lock()
	if m.client != c || m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	_, link := m.detach()
	m.state = StateDisconnected
	auto := m.autoRec
	m.mu.Unlock()

	c.Close()
	link.close()
	m.debugLog("session lost", "session", c.ConnectionID(), "error", cause)
	m.notify(StateConnected, StateDisconnected, cause.Error())

	if auto {
		m.triggerReconnect()
	}
}

// detach clears the current session. Caller holds m.mu.
func (m *Manager) detach() (*interaction.Client, *Link) {
	c, link := m.client, m.link
	m.client, m.link = nil, nil
	return c, link
}

func (m *Manager) triggerReconnect() {
	select {
	case m.reconnectCh <- struct{}{}:
	default:
		// Already pending
	}
}

func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.reconnectCh:
			m.attemptReconnect()
		}
	}
}

func (m *Manager) attemptReconnect() {
	for {
		m.mu.RLock()
		state, onReconnecting := m.state, m.onReconnecting
		m.mu.RUnlock()
		if state != StateDisconnected {
			return
		}

		if limit := m.config.MaxAttempts; limit > 0 && m.backoff.Attempts() >= limit {
			m.logError(ErrGaveUp)
			return
		}

		delay := m.backoff.Next()
		if onReconnecting != nil {
			onReconnecting(m.backoff.Attempts(), delay)
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(delay):
		}

		m.mu.Lock()
		if m.state != StateDisconnected {
			m.mu.Unlock()
			return
		}
		m.state = StateConnecting
		m.mu.Unlock()
		m.notify(StateDisconnected, StateConnecting, "reconnect")

		ctx, cancel := context.WithTimeout(m.ctx, m.config.AttemptTimeout)
		err := m.establish(ctx)
		cancel()
		if err == nil {
			return
		}
		m.debugLog("reconnect attempt failed", "attempt", m.backoff.Attempts(), "error", err)
		m.failAttempt(err)
	}
}

// notify records a state change and runs the callback. Must not be called
// with m.mu held.
func (m *Manager) notify(oldState, newState State, reason string) {
	m.protocol.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: m.id,
		Layer:        log.LayerSession,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})

	m.mu.RLock()
	fn := m.onStateChange
	m.mu.RUnlock()
	if fn != nil {
		fn(oldState, newState)
	}
}

func (m *Manager) logError(err error) {
	m.protocol.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: m.id,
		Layer:        log.LayerSession,
		Category:     log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerSession,
			Message: err.Error(),
		},
	})
	m.debugLog("reconnect stopped", "error", err)
}

func (m *Manager) debugLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

var _ interaction.Requester = (*Manager)(nil)
