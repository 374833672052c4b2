package mockapi

import (
	"context"
	"strings"
	"sync"
)

// MemoryAccounts is an in-process AccountRepository.
type MemoryAccounts struct {
	mu       sync.Mutex
	accounts map[string]Account
	lastID   int64
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[string]Account)}
}

func (m *MemoryAccounts) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalizeKey(a.LoginKey())
	if _, ok := m.accounts[key]; ok {
		return ErrAccountExists
	}
	if a.Kind == KindCandidate {
		m.lastID++
		a.CandidateID = m.lastID
	}
	m.accounts[key] = *a
	return nil
}

func (m *MemoryAccounts) Find(_ context.Context, kind Kind, login string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[normalizeKey(LoginKey(kind, login))]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
