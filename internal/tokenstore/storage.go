// Package tokenstore persists the session tokens between runs.
//
// Only the session store reads or writes a Store. Three backends exist:
// MemoryStore for tests and one-shot runs, FileStore for the CLI (mode
// 0600, optionally encrypted) and RedisStore for sharing a session between
// machines.
package tokenstore

import (
	"context"
	"sync"
	"time"
)

// Tokens is the persisted part of a session
type Tokens struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	SavedAt      time.Time `json:"savedAt"`
}

// Empty reports whether no access token is present
func (t Tokens) Empty() bool {
	return t.AccessToken == ""
}

// Store persists Tokens. Load returns empty Tokens and no error when
// nothing is stored.
type Store interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, tokens Tokens) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps tokens in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	tokens Tokens
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (Tokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens, nil
}

func (s *MemoryStore) Save(ctx context.Context, tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
	return nil
}
