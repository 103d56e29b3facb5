package push

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subscribes to a subject on a NATS server. The connection does not
// reconnect by itself; a drop surfaces as a receive error.
type NATS struct {
	URL     string
	Subject string
	Timeout time.Duration
}

// NewNATS creates a NATS transport.
func NewNATS(url, subject string) *NATS {
	return &NATS{URL: url, Subject: subject, Timeout: 5 * time.Second}
}

// Name implements Transport.
func (n *NATS) Name() string { return "nats" }

// Dial implements Transport.
func (n *NATS) Dial(ctx context.Context) (Conn, error) {
	c := &natsConn{
		msgs:   make(chan *nats.Msg, 64),
		closed: make(chan struct{}),
	}

	timeout := n.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	nc, err := nats.Connect(n.URL,
		nats.Name("ziris"),
		nats.Timeout(timeout),
		nats.NoReconnect(),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.fail(err)
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			c.fail(nil)
		}),
	)
	if err != nil {
		return nil, err
	}

	sub, err := nc.ChanSubscribe(n.Subject, c.msgs)
	if err != nil {
		nc.Close()
		return nil, err
	}
	c.nc, c.sub = nc, sub
	return c, nil
}

type natsConn struct {
	nc   *nats.Conn
	sub  *nats.Subscription
	msgs chan *nats.Msg

	mu     sync.Mutex
	err    error
	closed chan struct{}
	once   sync.Once
}

func (c *natsConn) fail(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		if err == nil {
			err = errors.New("nats connection closed")
		}
		c.err = err
		c.mu.Unlock()
		close(c.closed)
	})
}

// Receive implements Conn.
func (c *natsConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-c.msgs:
		return msg.Data, nil
	case <-c.closed:
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements Conn.
func (c *natsConn) Close() error {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	if c.nc != nil {
		c.nc.Close()
	}
	c.fail(nil)
	return nil
}
