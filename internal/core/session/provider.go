// Package session holds the auth context of each browser: the reactive
// {user, role, loading} triple and the operations that change it.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hirelane/portal/internal/api/metrics"
	"github.com/hirelane/portal/internal/core/domain"
	"github.com/hirelane/portal/internal/core/ports"
)

// Authenticator is the Auth Service as the Provider uses it.
type Authenticator interface {
	ports.AuthService
	StoredRole(ctx context.Context) domain.Role
}

// Provider is the auth context of one browser session. A new Provider starts
// loading with no user; Bootstrap settles it.
type Provider struct {
	auth  Authenticator
	store ports.SessionStore
	log   zerolog.Logger

	// opMu serializes Bootstrap, SignIn, SignUp and SignOut.
	opMu sync.Mutex

	mu        sync.RWMutex
	state     ports.SessionState
	listeners map[int]func(ports.SessionState)
	nextID    int

	ready     chan struct{}
	readyOnce sync.Once
}

func NewProvider(auth Authenticator, store ports.SessionStore, log zerolog.Logger) *Provider {
	return &Provider{
		auth:      auth,
		store:     store,
		log:       log,
		state:     ports.SessionState{Loading: true},
		listeners: make(map[int]func(ports.SessionState)),
		ready:     make(chan struct{}),
	}
}

// State returns a snapshot. The User pointer is a copy and safe to keep.
func (p *Provider) State() ports.SessionState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyState(p.state)
}

func (p *Provider) Store() ports.SessionStore { return p.store }

// Subscribe calls fn with every state change until cancel is called.
func (p *Provider) Subscribe(fn func(ports.SessionState)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Wait blocks until the first Bootstrap finished or ctx is done.
func (p *Provider) Wait(ctx context.Context) error {
	select {
	case <-p.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bootstrap is the startup validation flow: a stored token that the codec
// accepts, together with a readable user record, hydrates the state;
// anything else clears the auth keys. Loading turns false only afterwards.
func (p *Provider) Bootstrap(ctx context.Context) {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	defer p.readyOnce.Do(func() { close(p.ready) })

	start := time.Now()
	defer func() { metrics.BootstrapDuration.Observe(time.Since(start).Seconds()) }()

	p.set(ports.SessionState{Loading: true})

	if p.auth.IsAuthenticated(ctx) {
		if user := p.auth.GetUserData(ctx); user != nil {
			role := domain.ResolveRole("", user.Role, p.auth.StoredRole(ctx))
			user.Role = role
			p.set(ports.SessionState{User: user, Role: role})
			p.log.Debug().Str("role", role.String()).Msg("session restored")
			return
		}
		p.log.Warn().Msg("token present but user record unreadable, clearing session")
	}

	if err := p.store.Clear(ctx, true); err != nil {
		p.log.Warn().Err(err).Msg("bootstrap: clear session store")
	}
	p.set(ports.SessionState{})
}

// SignIn delegates to the Auth Service. While the call is pending the state
// is loading with no user; it always ends with Loading false. A failed
// attempt signs the browser out so the store and the state agree.
func (p *Provider) SignIn(ctx context.Context, email, password string, role domain.Role) ports.LoginResult {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	prev := p.State()
	p.set(ports.SessionState{Loading: true})

	res := p.auth.Login(ctx, email, password, explicitRole(role, prev.Role))
	if !res.Success {
		p.reset(ctx, "sign in")
		return res
	}

	user := *res.User
	p.set(ports.SessionState{User: &user, Role: user.Role})
	return res
}

// SignUp registers without signing in, so the state ends unauthenticated
// and any earlier auth keys are dropped along with it.
func (p *Provider) SignUp(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.set(ports.SessionState{Loading: true})
	res := p.auth.Register(ctx, in)
	p.reset(ctx, "sign up")
	return res
}

func (p *Provider) SignOut(ctx context.Context) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.auth.Logout(ctx)
	p.set(ports.SessionState{})
}

// reset clears the auth keys and the in-memory user together.
func (p *Provider) reset(ctx context.Context, op string) {
	if err := p.store.Clear(ctx, true); err != nil {
		p.log.Warn().Err(err).Str("op", op).Msg("clear session store")
	}
	p.set(ports.SessionState{})
}

func (p *Provider) set(s ports.SessionState) {
	p.mu.Lock()
	p.state = s
	listeners := make([]func(ports.SessionState), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(copyState(s))
	}
}

// explicitRole keeps the caller's role, else the in-memory one; an empty
// result lets the Auth Service fall back to the stored role.
func explicitRole(explicit, inMemory domain.Role) domain.Role {
	if explicit.Valid() {
		return explicit
	}
	if inMemory.Valid() {
		return inMemory
	}
	return ""
}

func copyState(s ports.SessionState) ports.SessionState {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
