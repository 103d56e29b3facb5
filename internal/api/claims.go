package api

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/spf13/cast"

	"github.com/ziris-labs/ziris/internal/errors"
)

// Claims are the identity fields carried by an access token.
type Claims struct {
	Subject   string    `json:"sub"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token is past its expiry. Tokens without an
// expiry never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// IsAdmin reports whether the token grants the admin role.
func (c Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// ParseClaims decodes a token's claims without verifying its signature.
// The server remains the authority; this only lets the console show who is
// logged in and refuse to start with a token that has already expired.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, mc); err != nil {
		return Claims{}, errors.WrapWithCode(err, errors.ErrAuth,
			"Access token is malformed",
			"Run 'ziris login' to obtain a new token")
	}

	c := Claims{
		Subject:  cast.ToString(mc["sub"]),
		Username: cast.ToString(mc["username"]),
		Role:     cast.ToString(mc["role"]),
	}
	if exp, ok := mc["exp"]; ok {
		secs, err := cast.ToInt64E(exp)
		if err != nil {
			return Claims{}, errors.WrapWithCode(fmt.Errorf("exp claim %v: %w", exp, err), errors.ErrAuth,
				"Access token has an invalid expiry", "Run 'ziris login' to obtain a new token")
		}
		c.ExpiresAt = time.Unix(secs, 0)
	}
	return c, nil
}

// CheckToken parses the token and fails with an AUTH error when it is
// missing or expired.
func CheckToken(token string, now time.Time) (Claims, error) {
	if token == "" {
		return Claims{}, errors.New(errors.ErrAuth, "Not logged in",
			"Run 'ziris login' or set api.token / ZIRIS_API_TOKEN")
	}
	c, err := ParseClaims(token)
	if err != nil {
		return Claims{}, err
	}
	if c.Expired(now) {
		return c, errors.New(errors.ErrAuth,
			fmt.Sprintf("Access token expired at %s", c.ExpiresAt.Format(time.RFC3339)),
			"Run 'ziris login' to obtain a new token")
	}
	return c, nil
}
