package ports

import (
	"context"

	"github.com/hirelane/portal/internal/core/domain"
)

// LoginResult is what a login attempt resolves to. Error is set only when
// Success is false.
type LoginResult struct {
	Success bool
	Token   string
	User    *domain.User
	Error   string
}

// RegisterInput is the registration form. Role defaults to candidate.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
	Company  string
	Phone    string
}

type RegisterResult struct {
	Success bool
	User    *domain.User
	Error   string
}

// AuthService never returns errors: every failure is folded into the result.
type AuthService interface {
	Login(ctx context.Context, email, password string, role domain.Role) LoginResult
	Register(ctx context.Context, in RegisterInput) RegisterResult
	Logout(ctx context.Context)
	IsAuthenticated(ctx context.Context) bool
	GetUserData(ctx context.Context) *domain.User
}
