// Package token reads the claims of a session token without verifying its
// signature. The result only decides whether a logged-in UI is worth showing;
// the remote API still checks the signature on every protected call.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/hirelane/portal/internal/api/metrics"
)

var (
	ErrMalformed = errors.New("malformed session token")
	ErrExpired   = errors.New("session token expired")
	ErrNoExpiry  = errors.New("session token has no expiry")
)

// Claims is the subset of the token payload the portal reads.
type Claims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Codec decodes session tokens. The zero value is not usable; use New.
type Codec struct {
	parser *jwt.Parser
	now    func() time.Time
	log    zerolog.Logger
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func New(log zerolog.Logger, opts ...Option) *Codec {
	c := &Codec{
		parser: jwt.NewParser(),
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode splits the token into its three segments and parses the payload.
func (c *Codec) Decode(raw string) (claims *Claims, err error) {
	defer func() {
		if err != nil {
			metrics.TokenDecodeFailuresTotal.Inc()
			c.log.Debug().Err(err).Msg("session token decode failed")
		}
	}()

	claims = &Claims{}
	if _, _, err := c.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// ExpiresAt returns the exp claim of raw.
func (c *Codec) ExpiresAt(raw string) (time.Time, error) {
	claims, err := c.Decode(raw)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Check returns nil when raw decodes and its exp lies strictly in the future.
func (c *Codec) Check(raw string) error {
	exp, err := c.ExpiresAt(raw)
	if err != nil {
		return err
	}
	if !c.now().Before(exp) {
		return ErrExpired
	}
	return nil
}

// IsValid reports whether raw is well formed and not yet expired.
func (c *Codec) IsValid(raw string) bool {
	return c.Check(raw) == nil
}
