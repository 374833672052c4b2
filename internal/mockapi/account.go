// Package mockapi is a local stand-in for the remote recruitment API. It
// serves the four login and registration endpoints the portal consumes and
// issues real HS256 tokens, so the portal can be run and tested end to end.
package mockapi

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
)

// Kind separates the API's two identity concepts.
type Kind string

const (
	KindCandidate Kind = "candidate"
	KindClient    Kind = "client"
)

// Account is a registered identity. Candidates log in by email, clients by
// their client id.
type Account struct {
	ID           string
	Kind         Kind
	Email        string
	ClientID     string
	CandidateID  int64
	Name         string
	CompanyName  string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// LoginKey is the unique lookup key of the account.
func (a *Account) LoginKey() string {
	return LoginKey(a.Kind, a.login())
}

func (a *Account) login() string {
	if a.Kind == KindClient {
		return a.ClientID
	}
	return a.Email
}

// LoginKey builds the unique key of a kind and login identifier.
func LoginKey(kind Kind, login string) string {
	return string(kind) + ":" + login
}

// AccountRepository persists accounts. Create assigns CandidateID for
// candidate accounts and returns ErrAccountExists on a taken login key.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	Find(ctx context.Context, kind Kind, login string) (*Account, error)
}
