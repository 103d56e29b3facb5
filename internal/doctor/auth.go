package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/ziris-labs/ziris/internal/api"
	"github.com/ziris-labs/ziris/internal/errors"
)

// ExpiryWarning is how close to expiry a token must be before TokenCheck warns.
const ExpiryWarning = 15 * time.Minute

// TokenCheck inspects the configured access token without contacting the API.
type TokenCheck struct {
	Token string
	Now   func() time.Time // defaults to time.Now
}

func (c *TokenCheck) Name() string     { return "token" }
func (c *TokenCheck) Category() string { return "AUTH" }

func (c *TokenCheck) Run(context.Context) CheckResult {
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}

	claims, err := api.CheckToken(c.Token, now)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    errors.Message(err),
			Suggestion: "Run 'ziris login' to obtain a new token",
		}
	}

	who := claims.Username
	if who == "" {
		who = claims.Subject
	}
	if claims.Role != "" {
		who = fmt.Sprintf("%s (%s)", who, claims.Role)
	}

	if claims.ExpiresAt.IsZero() {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("Logged in as %s", who),
		}
	}

	left := claims.ExpiresAt.Sub(now).Round(time.Second)
	if left < ExpiryWarning {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Logged in as %s, token expires in %s", who, left),
			Suggestion: "Run 'ziris login' before starting a long session",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Logged in as %s, token expires in %s", who, left),
	}
}

// APICheck verifies the monitoring API answers an authenticated request.
type APICheck struct {
	Client *api.Client
}

func (c *APICheck) Name() string     { return "api_reachable" }
func (c *APICheck) Category() string { return "API" }

func (c *APICheck) Run(ctx context.Context) CheckResult {
	start := time.Now()
	user, err := c.Client.Me(ctx)
	latency := time.Since(start).Round(time.Millisecond)

	switch {
	case err == nil:
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("%s reachable as %s (%s)", c.Client.BaseURL(), user.Username, latency),
		}
	case errors.IsCode(err, errors.ErrAuth):
		// The server answered, so the API itself is up.
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s reachable but rejected the token (%s)", c.Client.BaseURL(), latency),
			Suggestion: "Run 'ziris login' to obtain a new token",
		}
	default:
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot reach %s", c.Client.BaseURL()),
			Suggestion: errors.Message(err),
		}
	}
}
