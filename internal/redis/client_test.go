package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewClient(&Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	config := &Config{Address: mr.Addr()}
	client, err := NewClient(config)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 4, config.PoolSize)
	assert.NoError(t, client.Health(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(&Config{Address: addr})
	assert.Error(t, err)
}

func TestClient_GetSetDelete(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := client.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, client.Set(ctx, "eventsctl:session:default", `{"token":"abc"}`, time.Hour))
	val, err := client.Get(ctx, "eventsctl:session:default")
	require.NoError(t, err)
	assert.Equal(t, `{"token":"abc"}`, val)

	ttl, err := client.TTL(ctx, "eventsctl:session:default")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	mr.FastForward(2 * time.Hour)
	_, err = client.Get(ctx, "eventsctl:session:default")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, client.Set(ctx, "k", "v", 0))
	require.NoError(t, client.Delete(ctx, "k", "never-existed"))
	assert.False(t, mr.Exists("k"))
	assert.NoError(t, client.Delete(ctx))
}
