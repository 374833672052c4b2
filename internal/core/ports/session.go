package ports

import (
	"context"

	"github.com/hirelane/portal/internal/core/domain"
)

// SessionState is the reactive triple consumers read. User is nil for as long
// as Loading is true.
type SessionState struct {
	User    *domain.User
	Role    domain.Role
	Loading bool
}

// Session is the per-browser auth context handed to guards and handlers.
type Session interface {
	State() SessionState
	SignIn(ctx context.Context, email, password string, role domain.Role) LoginResult
	SignUp(ctx context.Context, in RegisterInput) RegisterResult
	SignOut(ctx context.Context)
	// Store exposes the browser's Session Store for read-only hints.
	Store() SessionStore
}

// SessionSource resolves the Session of a browser session id.
type SessionSource interface {
	Session(ctx context.Context, sessionID string) Session
}
