package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hirelane/portal/internal/api/metrics"
	"github.com/hirelane/portal/internal/core/ports"
)

// Factory builds the Provider of a new browser session.
type Factory func(sessionID string) *Provider

type registryEntry struct {
	provider *Provider
	lastSeen time.Time
}

// Registry keeps one Provider per browser session id.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	now     func() time.Time
	log     zerolog.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewRegistry(factory Factory, idleTTL time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		factory: factory,
		idleTTL: idleTTL,
		now:     time.Now,
		log:     log,
		entries: make(map[string]*registryEntry),
	}
}

// Session returns the Provider of sessionID, creating and bootstrapping it on
// first use. Bootstrap runs in the background; callers may Wait on it.
func (r *Registry) Session(ctx context.Context, sessionID string) ports.Session {
	return r.Provider(ctx, sessionID)
}

func (r *Registry) Provider(ctx context.Context, sessionID string) *Provider {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.provider
	}
	p := r.factory(sessionID)
	r.entries[sessionID] = &registryEntry{provider: p, lastSeen: r.now()}
	metrics.SessionsActive.Set(float64(len(r.entries)))
	r.mu.Unlock()

	go p.Bootstrap(context.WithoutCancel(ctx))
	return p
}

// Len returns the number of held sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops sessions idle for longer than the idle TTL. Their stores are
// untouched, so a returning browser bootstraps from persisted state.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	metrics.SessionsActive.Set(float64(len(r.entries)))
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug().Int("evicted", n).Msg("idle sessions evicted")
			}
		}
	}
}
