package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/push"
)

// DefaultDialTimeout bounds PushCheck and RelayCheck when no timeout is set.
const DefaultDialTimeout = 5 * time.Second

// PushCheck dials the push transport once and closes the connection.
// A nil Transport means push is disabled and the dashboard only polls.
type PushCheck struct {
	Transport push.Transport
	Timeout   time.Duration
}

func (c *PushCheck) Name() string     { return "push_channel" }
func (c *PushCheck) Category() string { return "PUSH" }

func (c *PushCheck) Run(ctx context.Context) CheckResult {
	if c.Transport == nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "Push disabled, refreshing on the interval only",
			Suggestion: "Set push.transport to websocket or nats for live updates",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOr(c.Timeout))
	defer cancel()

	start := time.Now()
	conn, err := c.Transport.Dial(ctx)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot open %s push channel", c.Transport.Name()),
			Suggestion: errors.Message(err),
		}
	}
	_ = conn.Close()

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s push channel connected (%s)", c.Transport.Name(), time.Since(start).Round(time.Millisecond)),
	}
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultDialTimeout
	}
	return d
}
