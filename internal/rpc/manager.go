package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/Maphikza/chia-wallet-console.git/internal/logger"
	"github.com/lightningnetwork/lnd/clock"
)

// DefaultReconnectDelay mirrors the delay the wallet UI has always used
// between reconnection attempts.
const DefaultReconnectDelay = 100 * time.Millisecond

// transport is the part of Conn the Manager drives. Tests substitute a
// fake so reconnect behaviour can be exercised without a socket.
type transport interface {
	Connect(ctx context.Context)
	Send(payload []byte) error
	Close()
	State() State
}

// Manager owns the connection lifecycle: it creates the transport,
// reinstalls the event callbacks on every reconnect and schedules a new
// attempt after a fixed delay whenever the connection drops. Retries
// are unbounded unless a cap is configured.
type Manager struct {
	endpoint    string
	delay       time.Duration
	maxAttempts int
	clock       clock.Clock
	newConn     func(endpoint string, cb Callbacks) transport

	onOpen    func()
	onMessage func(raw []byte)

	mu       sync.Mutex
	conn     transport
	attempts int
	started  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithReconnectDelay sets the fixed delay between reconnect attempts.
func WithReconnectDelay(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithMaxAttempts caps the number of reconnect attempts. Zero keeps the
// unbounded retry policy.
func WithMaxAttempts(n int) ManagerOption {
	return func(m *Manager) {
		m.maxAttempts = n
	}
}

// WithClock injects the clock used to schedule reconnects.
func WithClock(c clock.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = c
	}
}

func withTransportFactory(f func(endpoint string, cb Callbacks) transport) ManagerOption {
	return func(m *Manager) {
		m.newConn = f
	}
}

// NewManager creates a Manager for the given endpoint.
func NewManager(endpoint string, opts ...ManagerOption) *Manager {
	m := &Manager{
		endpoint: endpoint,
		delay:    DefaultReconnectDelay,
		clock:    clock.NewDefaultClock(),
		newConn: func(endpoint string, cb Callbacks) transport {
			return NewConn(endpoint, cb)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnOpen installs the opened handler. Must be called before Start.
func (m *Manager) OnOpen(fn func()) {
	m.onOpen = fn
}

// OnMessage installs the message handler. Must be called before Start.
func (m *Manager) OnMessage(fn func(raw []byte)) {
	m.onMessage = fn
}

// Start establishes the first connection. Subsequent disconnects are
// handled internally until Stop is called.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.mu.Unlock()

	m.connect()
}

// Stop tears down the connection and stops all reconnect attempts.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel := m.cancel
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	m.wg.Wait()
}

// Send forwards a payload to the live connection. When there is none
// the payload is dropped, matching the fire-and-forget contract.
func (m *Manager) Send(payload []byte) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}
	return conn.Send(payload)
}

// State reports the lifecycle state of the current connection.
func (m *Manager) State() State {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return StateClosed
	}
	return conn.State()
}

// connect replaces the transport and dials. The previous handle is
// fully closed before a new one is created.
func (m *Manager) connect() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	conn := m.newConn(m.endpoint, Callbacks{
		OnOpen:    m.handleOpen,
		OnMessage: m.onMessage,
		OnClose:   m.handleClose,
	})
	m.conn = conn
	ctx := m.ctx
	m.mu.Unlock()

	conn.Connect(ctx)
}

func (m *Manager) handleOpen() {
	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()
	if m.onOpen != nil {
		m.onOpen()
	}
}

// handleClose schedules the next reconnect attempt. The transport
// failure itself is never surfaced to the user.
func (m *Manager) handleClose(err error) {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.attempts++
	if m.maxAttempts > 0 && m.attempts > m.maxAttempts {
		m.mu.Unlock()
		logger.Errorf("giving up after %d reconnect attempts", m.maxAttempts)
		return
	}
	attempt := m.attempts
	ctx := m.ctx
	m.mu.Unlock()

	logger.Infof("connection closed (%v), reconnecting in %s (attempt %d)", err, m.delay, attempt)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-ctx.Done():
		case <-m.clock.TickAfter(m.delay):
			m.connect()
		}
	}()
}
