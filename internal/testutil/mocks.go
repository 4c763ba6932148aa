package testutil

import (
	"context"
	"sync"

	"events-client/internal/tokenstore"
)

// MockTokenStore implements tokenstore.Store for testing, with call counts
// and per-method error injection.
type MockTokenStore struct {
	mu     sync.RWMutex
	tokens tokenstore.Tokens
	calls  map[string]int

	// Control error injection
	ErrorOnMethod map[string]error
}

// NewMockTokenStore creates a store holding tokens
func NewMockTokenStore(tokens tokenstore.Tokens) *MockTokenStore {
	return &MockTokenStore{
		tokens:        tokens,
		calls:         make(map[string]int),
		ErrorOnMethod: make(map[string]error),
	}
}

func (m *MockTokenStore) Load(ctx context.Context) (tokenstore.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Load"]++
	if err := m.ErrorOnMethod["Load"]; err != nil {
		return tokenstore.Tokens{}, err
	}
	return m.tokens, nil
}

func (m *MockTokenStore) Save(ctx context.Context, tokens tokenstore.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Save"]++
	if err := m.ErrorOnMethod["Save"]; err != nil {
		return err
	}
	m.tokens = tokens
	return nil
}

func (m *MockTokenStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Clear"]++
	if err := m.ErrorOnMethod["Clear"]; err != nil {
		return err
	}
	m.tokens = tokenstore.Tokens{}
	return nil
}

// Tokens returns what is currently stored
func (m *MockTokenStore) Tokens() tokenstore.Tokens {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens
}

// Calls returns how often method was invoked
func (m *MockTokenStore) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}
