// Package push keeps a single live subscription to the server's
// notification channel and bridges every inbound message into the
// notification history and a coalesced refresh request.
package push

import (
	"context"
	"sync"
	"time"

	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/notify"
	"github.com/ziris-labs/ziris/internal/refresh"
)

// State is the subscription state.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Conn is one established subscription.
type Conn interface {
	// Receive blocks until the next payload arrives or the connection ends.
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Transport establishes subscriptions.
type Transport interface {
	Name() string
	Dial(ctx context.Context) (Conn, error)
}

// Refresher is told to refresh after every inbound message.
type Refresher interface {
	RequestRefresh(trigger refresh.Trigger)
}

// Handlers receive listener output. Any of them may be nil.
type Handlers struct {
	// OnEvent receives every classified inbound message.
	OnEvent func(notify.Event)
	// OnState receives every state transition.
	OnState func(State)
	// OnError receives connect failures and unexpected disconnects.
	OnError func(error)
}

// Listener owns at most one subscription. It never reconnects on its own;
// after a drop, Connect must be called again.
type Listener struct {
	transport Transport
	refresher Refresher
	handlers  Handlers
	log       logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	state    State
	conn     Conn
	gen      uint64
	done     chan struct{}
	received int64
}

// NewListener creates a closed listener.
func NewListener(t Transport, r Refresher, h Handlers, log logger.Logger) *Listener {
	if log == nil {
		log = logger.NewEnvLogger("[push]")
	}
	return &Listener{
		transport: t,
		refresher: r,
		handlers:  h,
		log:       log,
		now:       time.Now,
	}
}

// State returns the current state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Received returns how many messages were handled.
func (l *Listener) Received() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.received
}

// Connect opens the subscription. It is a no-op while connecting or open.
func (l *Listener) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateClosed {
		l.mu.Unlock()
		return nil
	}
	l.gen++
	gen := l.gen
	l.setStateLocked(StateConnecting)
	l.mu.Unlock()

	conn, err := l.transport.Dial(ctx)

	l.mu.Lock()
	if gen != l.gen {
		// Closed while dialing.
		l.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return nil
	}
	if err != nil {
		l.setStateLocked(StateClosed)
		l.mu.Unlock()
		pushErr := errors.WrapWithCode(err, errors.ErrPush,
			"Notification channel unavailable ("+l.transport.Name()+")",
			"Live updates continue by polling; reconnect when the server is reachable")
		l.reportError(pushErr)
		return pushErr
	}
	done := make(chan struct{})
	l.conn = conn
	l.done = done
	l.setStateLocked(StateOpen)
	l.mu.Unlock()

	l.log.Info("subscribed via %s", l.transport.Name())
	go l.readLoop(gen, conn, done)
	return nil
}

// Reconnect is the explicit user action after a drop.
func (l *Listener) Reconnect(ctx context.Context) error {
	return l.Connect(ctx)
}

func (l *Listener) readLoop(gen uint64, conn Conn, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var readErr error
	for {
		payload, err := conn.Receive(ctx)
		if err != nil {
			readErr = err
			break
		}
		l.handle(payload)
	}

	l.mu.Lock()
	current := gen == l.gen
	if current {
		l.conn = nil
		l.setStateLocked(StateClosed)
	}
	l.mu.Unlock()

	_ = conn.Close()
	if current {
		l.log.Warn("subscription dropped: %v", readErr)
		l.reportError(errors.WrapWithCode(readErr, errors.ErrPush,
			"Notification channel closed",
			"Live updates continue by polling; reconnect to resume notifications"))
	}
}

// handle classifies one payload and requests exactly one refresh.
func (l *Listener) handle(payload []byte) {
	event := notify.FromPayload(payload, l.now())

	l.mu.Lock()
	l.received++
	l.mu.Unlock()

	l.log.Debug("received %s notification: %s", event.Level, event.Message)
	if l.handlers.OnEvent != nil {
		l.handlers.OnEvent(event)
	}
	if l.refresher != nil {
		l.refresher.RequestRefresh(refresh.TriggerPush)
	}
}

// Close tears down the subscription and waits for the reader to exit.
// Closing an already-closed listener is a no-op.
func (l *Listener) Close() error {
	l.mu.Lock()
	l.gen++
	conn, done := l.conn, l.done
	l.conn, l.done = nil, nil
	if l.state != StateClosed {
		l.setStateLocked(StateClosed)
	}
	l.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	if done != nil {
		<-done
	}
	return err
}

// setStateLocked must be called with l.mu held.
func (l *Listener) setStateLocked(s State) {
	if l.state == s {
		return
	}
	l.state = s
	if l.handlers.OnState != nil {
		// Handlers must not call back into the listener.
		l.handlers.OnState(s)
	}
}

func (l *Listener) reportError(err error) {
	if l.handlers.OnError != nil {
		l.handlers.OnError(err)
	}
}
