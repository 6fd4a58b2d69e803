package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Maphikza/chia-wallet-console.git/internal/logger"
)

// Sender is the outgoing half of the transport the Dispatcher writes
// to. Satisfied by *Manager.
type Sender interface {
	Send(payload []byte) error
}

// HandlerFunc consumes the data payload of a response. Errors are
// logged and dropped, nothing in the dispatch path is fatal.
type HandlerFunc func(data json.RawMessage) error

// Hook runs after a response has been dispatched to its handler. Hooks
// carry the side effects (rendering, persistence) so handlers stay
// pure state updates.
type Hook func(command string)

// Dispatcher maps command names to response handlers. The handler table
// is established at startup and not mutated afterwards; responses with
// no registered handler are logged and discarded.
type Dispatcher struct {
	sender Sender

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	hooks    []Hook
}

// NewDispatcher creates a Dispatcher that sends through the given
// Sender.
func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers the handler for a response command name.
func (d *Dispatcher) Handle(command string, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[command] = fn
}

// AfterDispatch registers a hook invoked after every handled response.
func (d *Dispatcher) AfterDispatch(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// Issue serializes {command, data} and sends it. A send while the
// connection is down drops the command, per the at-most-once contract.
func (d *Dispatcher) Issue(command string, data interface{}) error {
	env := Envelope{Command: command}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s data: %w", command, err)
		}
		env.Data = raw
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s command: %w", command, err)
	}

	if err := d.sender.Send(payload); err != nil {
		if errors.Is(err, ErrNotOpen) {
			logger.Infof("dropped %s command, connection not open", command)
			return nil
		}
		return fmt.Errorf("send %s command: %w", command, err)
	}
	return nil
}

// OnMessage decodes one incoming frame and dispatches by command name.
func (d *Dispatcher) OnMessage(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Errorf("discarding undecodable message: %v", err)
		return
	}

	d.mu.RLock()
	fn, ok := d.handlers[env.Command]
	hooks := d.hooks
	d.mu.RUnlock()

	if !ok {
		// Unknown responses are not an error condition.
		logger.Infof("no handler for command %q, response dropped", env.Command)
		return
	}

	if err := fn(env.Data); err != nil {
		logger.Errorf("handler for %s failed: %v", env.Command, err)
		return
	}
	for _, h := range hooks {
		h(env.Command)
	}
}
