package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-client/internal/crypto"
	"events-client/internal/redis"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
)

func sampleTokens() Tokens {
	return Tokens{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		SavedAt:      time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())

	require.NoError(t, s.Save(ctx, sampleTokens()))
	loaded, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleTokens(), loaded)

	rotated := sampleTokens()
	rotated.AccessToken = "access-2"
	require.NoError(t, s.Save(ctx, rotated))
	loaded, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", loaded.AccessToken)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	loaded, err = s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStore(t, NewFileStore(path, nil))
}

func TestFileStore_PermissionsAndPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path, nil)
	require.NoError(t, s.Save(context.Background(), sampleTokens()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "access-1")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFileStore_Encrypted(t *testing.T) {
	enc, err := crypto.NewEncryptor("passphrase")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "session.json")
	exerciseStore(t, NewFileStore(path, enc))

	s := NewFileStore(path, enc)
	require.NoError(t, s.Save(context.Background(), sampleTokens()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "access-1")
	assert.Contains(t, string(data), `"sealed"`)

	_, err = NewFileStore(path, nil).Load(context.Background())
	assert.ErrorContains(t, err, "encrypted")

	other, _ := crypto.NewEncryptor("different")
	_, err = NewFileStore(path, other).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path, nil).Load(context.Background())
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"version":9}`), 0o600))
	_, err = NewFileStore(path, nil).Load(context.Background())
	assert.True(t, err != nil && strings.Contains(err.Error(), "version"))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	s := NewRedisStore(client, "", time.Hour)
	assert.Equal(t, "eventsctl:session:default", s.Key())
	exerciseStore(t, s)

	require.NoError(t, s.Save(context.Background(), sampleTokens()))
	assert.Equal(t, time.Hour, mr.TTL(s.Key()))

	mr.FastForward(2 * time.Hour)
	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.Empty())
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	s := NewRedisStore(client, "work", 0)
	require.NoError(t, mr.Set(s.Key(), "garbage"))

	_, err = s.Load(context.Background())
	assert.Error(t, err)
}
