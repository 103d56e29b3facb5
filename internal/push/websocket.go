package push

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a control frame.
	pongWait       = 60 * time.Second    // Time allowed between inbound frames or pongs.
	pingPeriod     = (pongWait * 9) / 10 // Must be less than pongWait.
	maxMessageSize = 64 * 1024
)

// WebSocket subscribes to the server's notification websocket.
type WebSocket struct {
	// URL returns the endpoint to dial. It is called on every Dial so a
	// token refreshed after login is picked up.
	URL func() (string, error)

	Dialer     *websocket.Dialer
	PingPeriod time.Duration
	PongWait   time.Duration
}

// NewWebSocket creates a websocket transport for the given URL source.
func NewWebSocket(url func() (string, error)) *WebSocket {
	return &WebSocket{
		URL:        url,
		Dialer:     websocket.DefaultDialer,
		PingPeriod: pingPeriod,
		PongWait:   pongWait,
	}
}

// Name implements Transport.
func (w *WebSocket) Name() string { return "websocket" }

// Dial implements Transport.
func (w *WebSocket) Dial(ctx context.Context) (Conn, error) {
	endpoint, err := w.URL()
	if err != nil {
		return nil, err
	}
	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake failed: %s", resp.Status)
		}
		return nil, err
	}

	pong := w.PongWait
	if pong <= 0 {
		pong = pongWait
	}
	ping := w.PingPeriod
	if ping <= 0 || ping >= pong {
		ping = (pong * 9) / 10
	}

	c := &wsConn{conn: conn, pongWait: pong, done: make(chan struct{})}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pong))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pong))
	})
	go c.pingLoop(ping)
	return c, nil
}

type wsConn struct {
	conn     *websocket.Conn
	pongWait time.Duration
	done     chan struct{}
	once     sync.Once
}

// Receive returns the next data frame. Text and binary frames are both
// treated as payloads.
func (c *wsConn) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	return data, nil
}

func (c *wsConn) pingLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Close sends a close frame and closes the socket. Safe to call twice.
func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}
