// Package memstore keeps browser sessions in process memory. It is the
// default backend for development and the one tests run against.
package memstore

import (
	"context"
	"sync"

	"github.com/hirelane/portal/internal/core/ports"
)

// Backend holds every browser scope in one map.
type Backend struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

func NewBackend() *Backend {
	return &Backend{scopes: make(map[string]map[string]string)}
}

// Scope returns the store of one browser session.
func (b *Backend) Scope(sessionID string) ports.SessionStore {
	return &Store{backend: b, sid: sessionID}
}

// Ping always succeeds.
func (b *Backend) Ping(context.Context) error { return nil }

// Store is a single browser scope of a Backend.
type Store struct {
	backend *Backend
	sid     string
}

// New returns a standalone store with its own backend.
func New() *Store {
	return NewBackend().Scope("default").(*Store)
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	v, ok := s.backend.scopes[s.sid][key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	scope, ok := s.backend.scopes[s.sid]
	if !ok {
		scope = make(map[string]string)
		s.backend.scopes[s.sid] = scope
	}
	scope[key] = value
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	delete(s.backend.scopes[s.sid], key)
	return nil
}

func (s *Store) Clear(_ context.Context, authKeysOnly bool) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if !authKeysOnly {
		delete(s.backend.scopes, s.sid)
		return nil
	}
	scope := s.backend.scopes[s.sid]
	for _, k := range ports.AuthKeys {
		delete(scope, k)
	}
	return nil
}

// Snapshot copies the scope's contents, for tests and debugging.
func (s *Store) Snapshot() map[string]string {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	out := make(map[string]string, len(s.backend.scopes[s.sid]))
	for k, v := range s.backend.scopes[s.sid] {
		out[k] = v
	}
	return out
}
