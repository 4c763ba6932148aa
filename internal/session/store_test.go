package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-client/internal/common/errors"
	apihttp "events-client/internal/common/http"
	"events-client/internal/common/logging"
	"events-client/internal/mapper"
	"events-client/internal/testutil"
	"events-client/internal/tokenstore"
)

type harness struct {
	fake   *testutil.FakeAPI
	client *apihttp.Client
	tokens *testutil.MockTokenStore
	store  *Store
}

func newHarness(t *testing.T, stored tokenstore.Tokens) *harness {
	t.Helper()

	fake := testutil.NewFakeAPI(t)
	client, err := apihttp.NewClient(fake.URL(), apihttp.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)

	tokens := testutil.NewMockTokenStore(stored)
	m := mapper.New(mapper.Config{APIOrigin: client.Origin()}, nil)
	store := New(client, tokens, m, WithLogger(logging.NewNopLogger()))

	return &harness{fake: fake, client: client, tokens: tokens, store: store}
}

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored token", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		assert.Equal(t, StateChecking, h.store.State())

		require.NoError(t, h.store.Init(ctx))
		assert.Equal(t, StateAnonymous, h.store.State())
		assert.Empty(t, h.store.Message())
		assert.Equal(t, 0, h.fake.Hits("GET", "/api/auth/check-token"))
	})

	t.Run("valid stored token", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		access, refresh := h.fake.IssueTokens(testutil.TestEmail)
		require.NoError(t, h.tokens.Save(ctx, tokenstore.Tokens{AccessToken: access, RefreshToken: refresh}))

		require.NoError(t, h.store.Init(ctx))
		assert.Equal(t, StateAuthenticated, h.store.State())
		user, ok := h.store.User()
		require.True(t, ok)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, access, h.client.BearerToken())
	})

	t.Run("rejected token without refresh", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{AccessToken: "stale"})

		require.NoError(t, h.store.Init(ctx))
		assert.Equal(t, StateAnonymous, h.store.State())
		assert.Equal(t, errors.MsgSessionExpired, h.store.Message())
		assert.True(t, h.tokens.Tokens().Empty())
		assert.Empty(t, h.client.BearerToken())
	})

	t.Run("expired access token is refreshed", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		access, refresh := h.fake.IssueTokens(testutil.TestEmail)
		require.NoError(t, h.tokens.Save(ctx, tokenstore.Tokens{AccessToken: access, RefreshToken: refresh}))
		h.fake.ExpireAccessTokens()

		require.NoError(t, h.store.Init(ctx))
		assert.Equal(t, StateAuthenticated, h.store.State())
		assert.Equal(t, 1, h.fake.Hits("POST", "/api/auth/refresh"))

		saved := h.tokens.Tokens()
		assert.NotEqual(t, access, saved.AccessToken)
		assert.NotEqual(t, refresh, saved.RefreshToken)
		assert.Equal(t, saved.AccessToken, h.client.BearerToken())
	})

	t.Run("server error clears the session", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		access, _ := h.fake.IssueTokens(testutil.TestEmail)
		require.NoError(t, h.tokens.Save(ctx, tokenstore.Tokens{AccessToken: access}))
		h.fake.FailNext("/api/auth/check-token", http.StatusInternalServerError, "boom")

		require.NoError(t, h.store.Init(ctx))
		assert.Equal(t, StateAnonymous, h.store.State())
		assert.Equal(t, errors.MsgSessionExpired, h.store.Message())
		assert.True(t, h.tokens.Tokens().Empty())
	})

	t.Run("unreadable storage is treated as signed out", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		h.tokens.ErrorOnMethod["Load"] = testutil.ErrStoreUnavailable

		require.NoError(t, h.store.Init(ctx))
		assert.Equal(t, StateAnonymous, h.store.State())
	})
}

func TestInitExpiredJWT(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(mock.Now().Add(-time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	fake := testutil.NewFakeAPI(t)
	client, err := apihttp.NewClient(fake.URL(), apihttp.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	tokens := testutil.NewMockTokenStore(tokenstore.Tokens{AccessToken: token})
	store := New(client, tokens, mapper.New(mapper.Config{}, nil),
		WithLogger(logging.NewNopLogger()), WithClock(mock))

	require.NoError(t, store.Init(ctx))
	assert.Equal(t, StateAnonymous, store.State())
	assert.Equal(t, errors.MsgSessionExpired, store.Message())
	// decided locally, without a round trip
	assert.Equal(t, 0, fake.Hits("GET", "/api/auth/check-token"))
	assert.Equal(t, 1, tokens.Calls("Clear"))
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		require.NoError(t, h.store.Init(ctx))

		var snapshots []Snapshot
		unsubscribe := h.store.Subscribe(func(s Snapshot) { snapshots = append(snapshots, s) })
		defer unsubscribe()

		require.NoError(t, h.store.SignIn(ctx, "  "+testutil.TestEmail, testutil.TestPassword))

		assert.Equal(t, StateAuthenticated, h.store.State())
		saved := h.tokens.Tokens()
		assert.NotEmpty(t, saved.AccessToken)
		assert.NotEmpty(t, saved.RefreshToken)
		assert.False(t, saved.SavedAt.IsZero())
		assert.Equal(t, saved.AccessToken, h.client.BearerToken())

		require.Len(t, snapshots, 1)
		assert.Equal(t, StateAuthenticated, snapshots[0].State)
		require.NotNil(t, snapshots[0].User)
		assert.Equal(t, "user-1", snapshots[0].User.ID)
	})

	t.Run("bad password leaves state unchanged", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		require.NoError(t, h.store.Init(ctx))

		err := h.store.SignIn(ctx, testutil.TestEmail, "wrong")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
		assert.Equal(t, "Invalid credentials", errors.UserMessage(err))
		assert.Equal(t, StateAnonymous, h.store.State())
		assert.Equal(t, 0, h.fake.Hits("POST", "/api/auth/refresh"))
		assert.Equal(t, 0, h.tokens.Calls("Save"))
	})

	t.Run("malformed email never reaches the server", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})

		err := h.store.SignIn(ctx, "alice", "pw")
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
		assert.Equal(t, 0, h.fake.Hits("POST", "/api/auth/login"))
	})

	t.Run("storage failure keeps the in-memory session", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		h.tokens.ErrorOnMethod["Save"] = testutil.ErrStoreUnavailable

		require.NoError(t, h.store.SignIn(ctx, testutil.TestEmail, testutil.TestPassword))
		assert.Equal(t, StateAuthenticated, h.store.State())
		assert.NotEmpty(t, h.client.BearerToken())
	})
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, tokenstore.Tokens{})
	require.NoError(t, h.store.SignIn(ctx, testutil.TestEmail, testutil.TestPassword))

	h.store.SignOut(ctx)

	assert.Equal(t, StateAnonymous, h.store.State())
	_, ok := h.store.User()
	assert.False(t, ok)
	assert.True(t, h.tokens.Tokens().Empty())
	assert.Empty(t, h.client.BearerToken())
	assert.Empty(t, h.store.Message())

	// clear failures do not stop a sign-out
	h.tokens.ErrorOnMethod["Clear"] = testutil.ErrStoreUnavailable
	h.store.SignOut(ctx)
	assert.Equal(t, StateAnonymous, h.store.State())
}

func TestReloadUser(t *testing.T) {
	ctx := context.Background()

	t.Run("not signed in", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		err := h.store.ReloadUser(ctx)
		assert.True(t, errors.IsType(err, errors.ErrTypeSessionExpired))
	})

	t.Run("refreshes the profile", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		require.NoError(t, h.store.SignIn(ctx, testutil.TestEmail, testutil.TestPassword))

		require.NoError(t, h.store.ReloadUser(ctx))
		user, ok := h.store.User()
		require.True(t, ok)
		assert.Equal(t, testutil.TestEmail, user.Email)
	})

	t.Run("invalid token forces sign-out", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		require.NoError(t, h.store.SignIn(ctx, testutil.TestEmail, testutil.TestPassword))
		h.fake.ExpireAccessTokens()
		h.fake.RevokeRefreshTokens()

		var notices []string
		h.store.Subscribe(func(s Snapshot) { notices = append(notices, s.Message) })

		err := h.store.ReloadUser(ctx)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeSessionExpired))
		assert.Equal(t, StateAnonymous, h.store.State())
		assert.Equal(t, errors.MsgSessionExpired, h.store.Message())
		assert.True(t, h.tokens.Tokens().Empty())
		assert.Equal(t, 1, h.fake.Hits("POST", "/api/auth/refresh"))
		assert.Equal(t, []string{errors.MsgSessionExpired}, notices)
	})

	t.Run("permission errors keep the session", func(t *testing.T) {
		h := newHarness(t, tokenstore.Tokens{})
		require.NoError(t, h.store.SignIn(ctx, testutil.TestEmail, testutil.TestPassword))
		h.fake.FailNext("/api/auth/check-token", http.StatusForbidden, "")

		err := h.store.ReloadUser(ctx)
		assert.True(t, errors.IsType(err, errors.ErrTypePermission))
		assert.Equal(t, StateAuthenticated, h.store.State())
	})
}

// refreshClient answers /auth/refresh after release is closed and counts calls.
type refreshClient struct {
	mu      sync.Mutex
	token   string
	calls   int32
	release chan struct{}
}

func (c *refreshClient) Do(ctx context.Context, req *apihttp.Request, out interface{}) error {
	if req.Path != "/auth/refresh" {
		return errors.NotFoundError(req.Path)
	}
	atomic.AddInt32(&c.calls, 1)
	<-c.release
	return json.Unmarshal([]byte(`{"token":"fresh","refreshToken":"rotated"}`), out)
}

func (c *refreshClient) SetBearerToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *refreshClient) SetRefresher(apihttp.Refresher) {}

func TestRefreshSessionSharesOneExchange(t *testing.T) {
	ctx := context.Background()
	client := &refreshClient{release: make(chan struct{})}
	tokens := tokenstore.NewMemoryStore()
	store := New(client, tokens, mapper.New(mapper.Config{}, nil), WithLogger(logging.NewNopLogger()))

	store.mu.Lock()
	store.refreshToken = "original"
	store.mu.Unlock()

	const callers = 5
	results := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := store.RefreshSession(ctx)
			assert.NoError(t, err)
			results <- token
		}()
	}

	// let every caller join the in-flight exchange before it completes
	require.Eventually(t, func() bool { return atomic.LoadInt32(&client.calls) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(client.release)
	wg.Wait()
	close(results)

	for token := range results {
		assert.Equal(t, "fresh", token)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.calls))

	saved, err := tokens.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "rotated", saved.RefreshToken)
	assert.Equal(t, "fresh", client.token)
}

func TestRefreshSessionWithoutRefreshToken(t *testing.T) {
	client := &refreshClient{release: make(chan struct{})}
	store := New(client, tokenstore.NewMemoryStore(), mapper.New(mapper.Config{}, nil), WithLogger(logging.NewNopLogger()))

	_, err := store.RefreshSession(context.Background())
	assert.True(t, errors.IsType(err, errors.ErrTypeSessionExpired))
	assert.Equal(t, int32(0), atomic.LoadInt32(&client.calls))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "checking", StateChecking.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "anonymous", StateAnonymous.String())
}
