package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/ziris-labs/ziris/internal/errors"
)

// Pinger is a relay sink that can verify its connection.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// RelayCheck pings one relay sink.
type RelayCheck struct {
	Sink    Pinger
	Target  string // shown in the message, e.g. the redis address
	Timeout time.Duration
}

func (c *RelayCheck) Name() string     { return "relay_" + c.Sink.Name() }
func (c *RelayCheck) Category() string { return "RELAY" }

func (c *RelayCheck) Run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeoutOr(c.Timeout))
	defer cancel()

	if err := c.Sink.Ping(ctx); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot reach %s at %s", c.Sink.Name(), c.Target),
			Suggestion: errors.Message(err),
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s reachable at %s", c.Sink.Name(), c.Target),
	}
}
