package tokenstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"events-client/internal/redis"
)

// RedisInterface is the subset of the redis client the store needs
type RedisInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// DefaultRedisTTL bounds how long an unused session survives in redis
const DefaultRedisTTL = 30 * 24 * time.Hour

// RedisStore keeps tokens under a fixed key, one key per profile
type RedisStore struct {
	client RedisInterface
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a store for profile. ttl <= 0 uses DefaultRedisTTL.
func NewRedisStore(client RedisInterface, profile string, ttl time.Duration) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStore{
		client: client,
		key:    "eventsctl:session:" + profile,
		ttl:    ttl,
	}
}

// Key returns the redis key holding the session
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Load(ctx context.Context) (Tokens, error) {
	data, err := s.client.Get(ctx, s.key)
	if stderrors.Is(err, redis.ErrNotFound) {
		return Tokens{}, nil
	}
	if err != nil {
		return Tokens{}, err
	}

	var tokens Tokens
	if err := json.Unmarshal([]byte(data), &tokens); err != nil {
		return Tokens{}, fmt.Errorf("failed to deserialize session: %w", err)
	}
	return tokens, nil
}

func (s *RedisStore) Save(ctx context.Context, tokens Tokens) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return s.client.Set(ctx, s.key, string(data), s.ttl)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Delete(ctx, s.key)
}
