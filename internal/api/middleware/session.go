package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"

	"github.com/hirelane/portal/internal/core/ports"
)

// ContextKeySession is the echo context key holding the browser's ports.Session.
const ContextKeySession = "session"

// SessionConfig controls the browser session cookie.
type SessionConfig struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration
	// BootstrapWait bounds how long a request waits for a fresh session to
	// finish its startup validation before guards see it as loading.
	BootstrapWait time.Duration
}

type bootstrapWaiter interface {
	Wait(ctx context.Context) error
}

// Session resolves the browser session id from its cookie, issuing a new one
// when absent or malformed, and attaches the matching Session to the context.
// With a MaxAge the cookie is re-sent on every request.
func Session(source ports.SessionSource, cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = "portal_sid"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(cfg.CookieName); err == nil {
				if id, err := ulid.ParseStrict(ck.Value); err == nil {
					sid = id.String()
				}
			}
			switch {
			case sid == "":
				sid = ulid.Make().String()
				c.SetCookie(newCookie(cfg, sid))
			case cfg.MaxAge > 0:
				// Slide the expiry so active browsers keep their session id.
				c.SetCookie(newCookie(cfg, sid))
			}

			ctx := c.Request().Context()
			sess := source.Session(ctx, sid)
			if w, ok := sess.(bootstrapWaiter); ok && cfg.BootstrapWait > 0 {
				wctx, cancel := context.WithTimeout(ctx, cfg.BootstrapWait)
				_ = w.Wait(wctx)
				cancel()
			}

			c.Set(ContextKeySession, sess)
			return next(c)
		}
	}
}

func newCookie(cfg SessionConfig, sid string) *http.Cookie {
	ck := &http.Cookie{
		Name:     cfg.CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.MaxAge > 0 {
		ck.MaxAge = int(cfg.MaxAge.Seconds())
	}
	return ck
}

// CurrentSession returns the Session attached by the Session middleware.
func CurrentSession(c echo.Context) (ports.Session, bool) {
	sess, ok := c.Get(ContextKeySession).(ports.Session)
	return sess, ok && sess != nil
}
