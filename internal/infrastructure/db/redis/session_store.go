package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hirelane/portal/internal/core/ports"
)

const defaultIdleTTL = 24 * time.Hour

// SessionBackend keeps each browser session in one Redis hash.
// Key format: portal:session:<session_id>
type SessionBackend struct {
	client  *redis.Client
	idleTTL time.Duration
}

// NewSessionBackend wraps client. Every write pushes the hash expiry idleTTL
// into the future; a non-positive idleTTL uses defaultIdleTTL.
func NewSessionBackend(client *redis.Client, idleTTL time.Duration) *SessionBackend {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &SessionBackend{client: client, idleTTL: idleTTL}
}

func (b *SessionBackend) Scope(sessionID string) ports.SessionStore {
	return &SessionStore{backend: b, key: "portal:session:" + sessionID}
}

// Ping checks Redis connectivity for readiness probes.
func (b *SessionBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// SessionStore is one browser's hash.
type SessionStore struct {
	backend *SessionBackend
	key     string
}

func (s *SessionStore) Get(ctx context.Context, field string) (string, bool, error) {
	v, err := s.backend.client.HGet(ctx, s.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session get %s: %w", field, err)
	}
	return v, true, nil
}

func (s *SessionStore) Set(ctx context.Context, field, value string) error {
	_, err := s.backend.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.key, field, value)
		p.Expire(ctx, s.key, s.backend.idleTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session set %s: %w", field, err)
	}
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, field string) error {
	if err := s.backend.client.HDel(ctx, s.key, field).Err(); err != nil {
		return fmt.Errorf("session remove %s: %w", field, err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, authKeysOnly bool) error {
	var err error
	if authKeysOnly {
		err = s.backend.client.HDel(ctx, s.key, ports.AuthKeys...).Err()
	} else {
		err = s.backend.client.Del(ctx, s.key).Err()
	}
	if err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}
