package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/hirelane/portal/internal/api/metrics"
	"github.com/hirelane/portal/internal/core/domain"
	"github.com/hirelane/portal/internal/core/ports"
)

// LoginPath is where unauthenticated visitors of protected pages are sent.
const LoginPath = "/login"

// RetryAfterSeconds is sent with the waiting response.
const RetryAfterSeconds = "1"

var errNoSession = errors.New("guard: session middleware not installed")

// ProtectedRoute admits authenticated users whose role is in allowedRoles.
// An empty allowedRoles admits any role. While the session is loading no
// decision is made and the client is asked to retry.
func ProtectedRoute(allowedRoles []domain.Role, requireAuth bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := CurrentSession(c)
			if !ok {
				return errNoSession
			}
			st := sess.State()
			if st.Loading {
				return waiting(c, "protected")
			}

			authed, role := authenticated(c.Request().Context(), sess, st)
			if requireAuth && !authed {
				metrics.GuardDecisionsTotal.WithLabelValues("protected", "login").Inc()
				return c.Redirect(http.StatusFound, LoginPath+"?from="+url.QueryEscape(c.Request().URL.RequestURI()))
			}

			if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, role) {
				target := role.HomePath()
				if target == c.Request().URL.Path {
					metrics.GuardDecisionsTotal.WithLabelValues("protected", "block").Inc()
					return domain.ErrForbidden
				}
				metrics.GuardDecisionsTotal.WithLabelValues("protected", "redirect").Inc()
				return c.Redirect(http.StatusFound, target)
			}

			metrics.GuardDecisionsTotal.WithLabelValues("protected", "allow").Inc()
			return next(c)
		}
	}
}

// PublicRoute keeps signed-in users off the landing, login and register pages
// by sending them to their role's home.
func PublicRoute() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := CurrentSession(c)
			if !ok {
				return errNoSession
			}
			st := sess.State()
			if st.Loading {
				return waiting(c, "public")
			}

			if authed, role := authenticated(c.Request().Context(), sess, st); authed {
				if target := role.HomePath(); target != c.Request().URL.Path {
					metrics.GuardDecisionsTotal.WithLabelValues("public", "redirect").Inc()
					return c.Redirect(http.StatusFound, target)
				}
			}

			metrics.GuardDecisionsTotal.WithLabelValues("public", "allow").Inc()
			return next(c)
		}
	}
}

func waiting(c echo.Context, guard string) error {
	metrics.GuardDecisionsTotal.WithLabelValues(guard, "wait").Inc()
	c.Response().Header().Set("Retry-After", RetryAfterSeconds)
	return c.JSON(http.StatusAccepted, map[string]string{"status": "loading"})
}

// authenticated accepts a hydrated user, or the persisted flag when a token
// is stored next to it. A flag without a token is ignored.
func authenticated(ctx context.Context, sess ports.Session, st ports.SessionState) (bool, domain.Role) {
	store := sess.Store()
	stored := storedRole(ctx, store)

	if st.User != nil {
		return true, domain.ResolveRole("", firstValid(st.Role, st.User.Role), stored)
	}
	if store == nil {
		return false, ""
	}
	flag, _, err := store.Get(ctx, ports.KeyAuthenticated)
	if err != nil || flag != "true" {
		return false, ""
	}
	if tok, ok, err := store.Get(ctx, ports.KeyToken); err != nil || !ok || tok == "" {
		return false, ""
	}
	return true, domain.ResolveRole("", "", stored)
}

func storedRole(ctx context.Context, store ports.SessionStore) domain.Role {
	if store == nil {
		return ""
	}
	v, _, err := store.Get(ctx, ports.KeyRole)
	if err != nil {
		return ""
	}
	r, _ := domain.ParseRole(v)
	return r
}

func firstValid(roles ...domain.Role) domain.Role {
	for _, r := range roles {
		if r.Valid() {
			return r
		}
	}
	return ""
}
