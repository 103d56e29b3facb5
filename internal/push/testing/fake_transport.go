// Package testing provides test doubles for the push package.
package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/ziris-labs/ziris/internal/push"
)

// ErrDropped is returned by Receive after Drop is called without an error.
var ErrDropped = errors.New("connection dropped")

// FakeTransport hands out FakeConns and records dial attempts.
type FakeTransport struct {
	mu sync.Mutex

	// Configuration
	DialErr   error
	DialBlock chan struct{} // if set, Dial waits until it is closed

	// Call tracking
	Dials int
	conns []*FakeConn
}

// NewFakeTransport creates a transport whose dials succeed.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Name implements push.Transport.
func (t *FakeTransport) Name() string { return "fake" }

// Dial implements push.Transport.
func (t *FakeTransport) Dial(ctx context.Context) (push.Conn, error) {
	t.mu.Lock()
	t.Dials++
	block, err := t.DialBlock, t.DialErr
	t.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	c := &FakeConn{
		inbox:  make(chan []byte, 32),
		closed: make(chan struct{}),
	}
	t.mu.Lock()
	t.conns = append(t.conns, c)
	t.mu.Unlock()
	return c, nil
}

// SetDialErr changes the dial outcome.
func (t *FakeTransport) SetDialErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.DialErr = err
}

// DialCount returns the number of Dial calls.
func (t *FakeTransport) DialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Dials
}

// Last returns the most recent connection, or nil.
func (t *FakeTransport) Last() *FakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

// FakeConn is an in-memory push.Conn.
type FakeConn struct {
	inbox  chan []byte
	closed chan struct{}

	mu      sync.Mutex
	dropErr error
	once    sync.Once
	Closes  int
}

// Deliver queues a payload for Receive.
func (c *FakeConn) Deliver(payload string) {
	c.inbox <- []byte(payload)
}

// Drop ends the connection from the server side.
func (c *FakeConn) Drop(err error) {
	if err == nil {
		err = ErrDropped
	}
	c.mu.Lock()
	c.dropErr = err
	c.mu.Unlock()
	c.once.Do(func() { close(c.closed) })
}

// Receive implements push.Conn. Queued payloads are delivered before a drop.
func (c *FakeConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case p := <-c.inbox:
		return p, nil
	default:
	}
	select {
	case p := <-c.inbox:
		return p, nil
	case <-c.closed:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.dropErr != nil {
			return nil, c.dropErr
		}
		return nil, errors.New("use of closed connection")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements push.Conn.
func (c *FakeConn) Close() error {
	c.mu.Lock()
	c.Closes++
	c.mu.Unlock()
	c.once.Do(func() { close(c.closed) })
	return nil
}

// IsClosed reports whether the connection ended.
func (c *FakeConn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
