package ports

import "context"

// Stable Session Store keys. Other portal pages read these directly.
const (
	KeyToken         = "token"
	KeyUser          = "user"
	KeyRole          = "userRole"
	KeyAuthenticated = "isAuthenticated"
	KeyCandidateID   = "candidate_id"
	KeyClientID      = "client_id"
)

// AuthKeys are removed by Clear(ctx, true). KeyClientID is deliberately not
// part of the set: a client logs in again with the id stored at registration.
var AuthKeys = []string{KeyToken, KeyUser, KeyRole, KeyAuthenticated, KeyCandidateID}

// SessionStore is the persistent key-value store of one browser session.
// Writes are last-write-wins and there is no multi-key transaction.
type SessionStore interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Clear removes AuthKeys when authKeysOnly is set, every key otherwise.
	Clear(ctx context.Context, authKeysOnly bool) error
}

// SessionBackend hands out the store of each browser session.
type SessionBackend interface {
	Scope(sessionID string) SessionStore
	Ping(ctx context.Context) error
}
