package rpc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Maphikza/chia-wallet-console.git/internal/logger"
	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// ErrNotOpen is returned by Send when there is no open connection. The
// payload is dropped, callers must not assume delivery.
var ErrNotOpen = errors.New("connection is not open")

// Callbacks are the three events a Conn emits. All of them are invoked
// from the goroutine that owns the connection, never concurrently with
// each other.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(raw []byte)
	OnClose   func(err error)
}

// Conn owns a single websocket to the wallet service. At most one live
// socket handle exists at a time; a Connect call while connecting or
// open is a no-op.
type Conn struct {
	endpoint string
	cb       Callbacks

	mu         sync.Mutex
	state      State
	ws         *websocket.Conn
	cancelRead context.CancelFunc
}

// NewConn creates a Conn for the given websocket endpoint. Callbacks
// must be installed before Connect is called.
func NewConn(endpoint string, cb Callbacks) *Conn {
	return &Conn{endpoint: endpoint, cb: cb}
}

// State reports the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the endpoint. An unreachable endpoint does not surface
// an error to the caller, it lands the Conn in the closed state and
// emits the close event so the reconnect policy can take over.
func (c *Conn) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateClosed {
		// Re-entrant connect while connecting/open is rejected.
		c.mu.Unlock()
		logger.Infof("connect to %s ignored, connection is %s", c.endpoint, c.state)
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	ws, _, err := websocket.Dial(ctx, c.endpoint, nil)
	if err != nil {
		logger.Errorf("connect to %s failed: %v", c.endpoint, err)
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		if c.cb.OnClose != nil {
			c.cb.OnClose(err)
		}
		return
	}
	ws.SetReadLimit(1 << 20)

	readCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.state = StateOpen
	c.ws = ws
	c.cancelRead = cancel
	c.mu.Unlock()

	logger.Infof("connected to %s", c.endpoint)
	if c.cb.OnOpen != nil {
		c.cb.OnOpen()
	}
	go c.readLoop(readCtx, ws)
}

// Send writes one text frame. It requires the open state; otherwise the
// payload is dropped and ErrNotOpen returned.
func (c *Conn) Send(payload []byte) error {
	c.mu.Lock()
	ws := c.ws
	open := c.state == StateOpen
	c.mu.Unlock()
	if !open || ws == nil {
		return ErrNotOpen
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := ws.Write(ctx, websocket.MessageText, payload); err != nil {
		return err
	}
	return nil
}

// Close tears the socket down without emitting the close event, so no
// reconnect is triggered. Used on shutdown.
func (c *Conn) Close() {
	c.mu.Lock()
	ws := c.ws
	cancel := c.cancelRead
	c.ws = nil
	c.cancelRead = nil
	c.state = StateClosed
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ws != nil {
		ws.Close(websocket.StatusNormalClosure, "client shutting down")
	}
}

func (c *Conn) readLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		_, raw, err := ws.Read(ctx)
		if err != nil {
			c.mu.Lock()
			// Only tear down if this socket is still the live handle;
			// Close may already have replaced it with nil.
			stale := c.ws != ws
			if !stale {
				c.ws = nil
				c.cancelRead = nil
				c.state = StateClosed
			}
			c.mu.Unlock()
			if stale {
				return
			}
			ws.Close(websocket.StatusAbnormalClosure, "read failed")
			logger.Errorf("connection to %s lost: %v", c.endpoint, err)
			if c.cb.OnClose != nil {
				c.cb.OnClose(err)
			}
			return
		}
		if c.cb.OnMessage != nil {
			c.cb.OnMessage(raw)
		}
	}
}
