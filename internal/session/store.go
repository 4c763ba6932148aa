// Package session owns the authentication lifecycle: the signed-in profile,
// the access and refresh tokens, and the bearer header of the shared API
// client. No other package writes the token store or the header.
package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"events-client/internal/common/errors"
	apihttp "events-client/internal/common/http"
	"events-client/internal/common/logging"
	"events-client/internal/common/validation"
	"events-client/internal/mapper"
	"events-client/internal/models"
	"events-client/internal/tokenstore"
)

// State is the session lifecycle state
type State int

const (
	// StateChecking is the initial state while a stored token is verified
	StateChecking State = iota
	// StateAuthenticated means a valid user is loaded
	StateAuthenticated
	// StateAnonymous means there is no usable token
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Client is the part of the API client the store drives. *apihttp.Client
// satisfies it.
type Client interface {
	Do(ctx context.Context, req *apihttp.Request, out interface{}) error
	SetBearerToken(token string)
	SetRefresher(r apihttp.Refresher)
}

// Snapshot is a consistent view of the session
type Snapshot struct {
	State   State
	User    *models.User
	Message string
}

// Listener is notified after every state change
type Listener func(Snapshot)

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock sets the clock used for token expiry checks
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// Store holds the current session. All methods are safe for concurrent use.
type Store struct {
	client    Client
	tokens    tokenstore.Store
	mapper    *mapper.Mapper
	validator *validation.Validator
	clock     clock.Clock
	logger    logging.Logger
	refreshes singleflight.Group

	mu           sync.RWMutex
	state        State
	user         *models.User
	message      string
	refreshToken string
	listeners    map[int]Listener
	nextListener int
}

// New creates a Store in the checking state and installs it as the client's
// Refresher.
func New(client Client, tokens tokenstore.Store, m *mapper.Mapper, opts ...Option) *Store {
	s := &Store{
		client:    client,
		tokens:    tokens,
		mapper:    m,
		validator: validation.Default(),
		clock:     clock.New(),
		logger:    logging.GetGlobalLogger(),
		state:     StateChecking,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithFields(logging.Field{Key: "component", Value: "session"})
	client.SetRefresher(s)
	return s
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	models.RawUser
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Init resynchronizes from durable storage. Without a stored token the
// session becomes anonymous. A stored token is checked against the server;
// on any failure it is cleared and the session expired notice is recorded.
// Only context cancellation is returned as an error.
func (s *Store) Init(ctx context.Context) error {
	s.setState(StateChecking, nil, "")

	stored, err := s.tokens.Load(ctx)
	if err != nil {
		if errors.IsCanceled(err) {
			return err
		}
		s.logger.Warn("Failed to load stored session", logging.Err(err))
	}
	if stored.Empty() {
		s.setState(StateAnonymous, nil, "")
		return nil
	}

	s.mu.Lock()
	s.refreshToken = stored.RefreshToken
	s.mu.Unlock()

	access := stored.AccessToken
	if s.expired(access) {
		s.logger.Debug("Stored access token has expired")
		if stored.RefreshToken == "" {
			s.expire(ctx, errors.SessionExpiredError(nil))
			return nil
		}
		access, err = s.RefreshSession(ctx)
		if err != nil {
			if errors.IsCanceled(err) {
				return err
			}
			s.expire(ctx, err)
			return nil
		}
	}
	s.client.SetBearerToken(access)

	user, err := s.fetchProfile(ctx)
	if err != nil {
		if errors.IsCanceled(err) {
			s.client.SetBearerToken("")
			s.setState(StateAnonymous, nil, "")
			return err
		}
		s.logger.Info("Stored session rejected", logging.Err(err))
		s.expireOnce(ctx, err)
		return nil
	}

	s.setState(StateAuthenticated, &user, "")
	s.logger.Info("Session restored", logging.String("user_id", user.ID))
	return nil
}

// SignIn exchanges credentials for a session. On failure the state is left
// unchanged and the error is returned.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	creds := credentials{Email: strings.TrimSpace(email), Password: password}
	if err := s.validator.Struct(creds); err != nil {
		return err
	}

	var resp loginResponse
	err := s.client.Do(ctx, &apihttp.Request{
		Method:        http.MethodPost,
		Path:          "/auth/login",
		Body:          creds,
		SkipAuthRetry: true,
		Anonymous:     true,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return errors.ServerError("login response did not include a token")
	}

	user := s.mapper.User(resp.RawUser)
	s.persist(ctx, tokenstore.Tokens{AccessToken: resp.Token, RefreshToken: resp.RefreshToken})

	// header first: listeners may issue requests as soon as they are notified
	s.client.SetBearerToken(resp.Token)
	s.mu.Lock()
	s.refreshToken = resp.RefreshToken
	s.mu.Unlock()
	s.setState(StateAuthenticated, &user, "")

	s.logger.Info("Signed in", logging.String("user_id", user.ID))
	return nil
}

// SignOut clears the session unconditionally
func (s *Store) SignOut(ctx context.Context) {
	s.clear(ctx)
	s.setState(StateAnonymous, nil, "")
	s.logger.Info("Signed out")
}

// ReloadUser re-validates the token and refreshes the profile. If the token
// turns out to be invalid the session is torn down and the error returned.
func (s *Store) ReloadUser(ctx context.Context) error {
	if s.State() != StateAuthenticated {
		return errors.SessionExpiredError(nil)
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		if errors.IsType(err, errors.ErrTypeSessionExpired) {
			s.expireOnce(ctx, err)
		}
		return err
	}

	s.setState(StateAuthenticated, &user, "")
	return nil
}

// RefreshSession exchanges the refresh token for a new access token, saves
// it and installs it on the client. Concurrent callers share one exchange.
func (s *Store) RefreshSession(ctx context.Context) (string, error) {
	ch := s.refreshes.DoChan("refresh", func() (interface{}, error) {
		// Detached so one caller giving up does not fail the others
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Store) refresh(ctx context.Context) (string, error) {
	s.mu.RLock()
	refreshToken := s.refreshToken
	s.mu.RUnlock()

	if refreshToken == "" {
		return "", errors.SessionExpiredError(nil).WithContext("reason", "no refresh token")
	}

	var resp refreshResponse
	err := s.client.Do(ctx, &apihttp.Request{
		Method:        http.MethodPost,
		Path:          "/auth/refresh",
		Body:          refreshRequest{RefreshToken: refreshToken},
		SkipAuthRetry: true,
		Anonymous:     true,
	}, &resp)
	if err != nil {
		s.logger.Warn("Token refresh failed", logging.Err(err))
		return "", err
	}
	if resp.Token == "" {
		return "", errors.SessionExpiredError(nil).WithContext("reason", "refresh response without token")
	}

	if resp.RefreshToken != "" {
		refreshToken = resp.RefreshToken
	}
	s.persist(ctx, tokenstore.Tokens{AccessToken: resp.Token, RefreshToken: refreshToken})
	s.client.SetBearerToken(resp.Token)

	s.mu.Lock()
	s.refreshToken = refreshToken
	s.mu.Unlock()

	s.logger.Debug("Access token refreshed")
	return resp.Token, nil
}

// ExpireSession forces a sign-out after an unrecoverable 401 and records the
// session expired notice.
func (s *Store) ExpireSession(ctx context.Context, cause error) {
	s.expire(ctx, cause)
}

func (s *Store) expire(ctx context.Context, cause error) {
	s.logger.Warn("Session expired", logging.Err(cause))
	s.clear(context.WithoutCancel(ctx))
	s.setState(StateAnonymous, nil, errors.MsgSessionExpired)
}

// expireOnce expires the session unless the client already did so while
// handling the failed request.
func (s *Store) expireOnce(ctx context.Context, cause error) {
	s.mu.RLock()
	done := s.state == StateAnonymous && s.message == errors.MsgSessionExpired
	s.mu.RUnlock()
	if !done {
		s.expire(ctx, cause)
	}
}

func (s *Store) clear(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear stored session", err)
	}
	s.client.SetBearerToken("")
	s.mu.Lock()
	s.refreshToken = ""
	s.mu.Unlock()
}

func (s *Store) persist(ctx context.Context, tokens tokenstore.Tokens) {
	tokens.SavedAt = s.clock.Now().UTC()
	if err := s.tokens.Save(ctx, tokens); err != nil {
		// The session still works for this process
		s.logger.Error("Failed to persist session", err)
	}
}

func (s *Store) fetchProfile(ctx context.Context) (models.User, error) {
	var raw models.RawUser
	if err := s.client.Do(ctx, &apihttp.Request{Method: http.MethodGet, Path: "/auth/check-token"}, &raw); err != nil {
		return models.User{}, err
	}
	return s.mapper.User(raw), nil
}

// expired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are never considered expired here; the server decides.
func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	// small leeway so a token about to lapse is refreshed up front
	return !s.clock.Now().Before(exp.Add(-5 * time.Second))
}

func (s *Store) setState(state State, user *models.User, message string) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.message = message
	snap := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// Subscribe registers l for state changes and returns a function that
// removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// State returns the lifecycle state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in profile
func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Message returns the last session notice, such as the session expired
// prompt. It is cleared by a successful sign-in.
func (s *Store) Message() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message
}

// Snapshot returns state, user and message together
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Message: s.message}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}
