// Package http is the client adapter for the events REST API. It attaches the
// bearer token, retries exactly once on 401 after a token refresh, and
// classifies every failure into the errors taxonomy.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"events-client/internal/circuitbreaker"
	"events-client/internal/common/errors"
	"events-client/internal/common/logging"
)

// maxBodyBytes bounds how much of a response is read
const maxBodyBytes = 8 << 20

// Refresher renews an expired session. RefreshSession must install the new
// token with SetBearerToken before returning it. ExpireSession is called when
// a 401 cannot be recovered and must tear the session down.
type Refresher interface {
	RefreshSession(ctx context.Context) (string, error)
	ExpireSession(ctx context.Context, cause error)
}

// ClientConfig holds client configuration
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
	RateLimit rate.Limit
	RateBurst int
	Transport http.RoundTripper
	Breaker   *circuitbreaker.Breaker
	Logger    logging.Logger
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:   15 * time.Second,
		UserAgent: "eventsctl/1.0",
		RateLimit: rate.Inf,
	}
}

// ClientOption is a function that modifies ClientConfig
type ClientOption func(*ClientConfig)

// WithTimeout sets the per-attempt timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *ClientConfig) {
		c.UserAgent = ua
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *ClientConfig) {
		if rps <= 0 {
			c.RateLimit = rate.Inf
			return
		}
		c.RateLimit = rate.Limit(rps)
		c.RateBurst = burst
	}
}

// WithTransport sets a custom transport
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *ClientConfig) {
		c.Transport = transport
	}
}

// WithBreaker routes every attempt through a circuit breaker
func WithBreaker(b *circuitbreaker.Breaker) ClientOption {
	return func(c *ClientConfig) {
		c.Breaker = b
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) ClientOption {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}

// Client talks to the API. The bearer token is shared state: only the
// session store may call SetBearerToken.
type Client struct {
	base      *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *circuitbreaker.Breaker
	userAgent string
	logger    logging.Logger

	mu        sync.RWMutex
	token     string
	refresher Refresher
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	cfg := DefaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid API base URL %q", baseURL))
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, errors.ConfigError(fmt.Sprintf("API base URL %q must be absolute http(s)", baseURL))
	}

	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 1
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	return &Client{
		base:      base,
		http:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
		limiter:   rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		breaker:   cfg.Breaker,
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger.WithFields(logging.Field{Key: "component", Value: "api_client"}),
	}, nil
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Origin returns scheme://host of the API, the root for uploaded files
func (c *Client) Origin() string {
	return c.base.Scheme + "://" + c.base.Host
}

// SetBearerToken sets the Authorization header sent with every request.
// An empty token sends no header.
func (c *Client) SetBearerToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// BearerToken returns the token currently attached to requests
func (c *Client) BearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetRefresher installs the component that renews tokens on 401
func (c *Client) SetRefresher(r Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresher = r
}

func (c *Client) currentRefresher() Refresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

// Request describes one API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}

	// SkipAuthRetry disables the refresh-and-retry path. Used by the auth
	// endpoints themselves, where a 401 means bad credentials.
	SkipAuthRetry bool
	// Anonymous omits the Authorization header
	Anonymous bool
}

type response struct {
	status int
	body   []byte
}

// Get issues a GET and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body and decodes the JSON response into out
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Do performs req. On a 401 it asks the Refresher for a new token and
// retries once; if the refresh fails or the retry is also rejected, the
// session is expired and an ErrTypeSessionExpired error is returned.
// Network failures and 5xx responses are never retried.
func (c *Client) Do(ctx context.Context, req *Request, out interface{}) error {
	payload, err := encodeBody(req.Body)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, req, payload, c.BearerToken())
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized && !req.SkipAuthRetry && !req.Anonymous {
		resp, err = c.retryAfterRefresh(ctx, req, payload)
		if err != nil {
			return err
		}
	}

	if resp.status < 200 || resp.status > 299 {
		return classify(resp, req.SkipAuthRetry || req.Anonymous)
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return errors.InternalError("failed to decode response", err).
			WithContext("path", req.Path).
			WithStatus(resp.status)
	}
	return nil
}

func (c *Client) retryAfterRefresh(ctx context.Context, req *Request, payload []byte) (*response, error) {
	refresher := c.currentRefresher()
	if refresher == nil {
		return nil, errors.SessionExpiredError(nil).WithStatus(http.StatusUnauthorized)
	}

	c.logger.Debug("Access token rejected, refreshing", logging.String("path", req.Path))
	token, err := refresher.RefreshSession(ctx)
	if err != nil {
		if errors.IsCanceled(err) {
			return nil, err
		}
		sessErr := errors.SessionExpiredError(err).WithStatus(http.StatusUnauthorized)
		refresher.ExpireSession(context.WithoutCancel(ctx), sessErr)
		return nil, sessErr
	}

	resp, err := c.send(ctx, req, payload, token)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized {
		sessErr := errors.SessionExpiredError(nil).WithStatus(http.StatusUnauthorized)
		refresher.ExpireSession(context.WithoutCancel(ctx), sessErr)
		return nil, sessErr
	}
	return resp, nil
}

// send performs one attempt, through the rate limiter and breaker when set.
// A non-2xx status is not an error here; only transport failures are.
func (c *Client) send(ctx context.Context, req *Request, payload []byte, token string) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.RateLimitError("")
	}

	var resp *response
	attempt := func() error {
		r, err := c.roundTrip(ctx, req, payload, token)
		if err != nil {
			return err
		}
		resp = r
		if r.status >= 500 {
			return errors.ServerError("").WithStatus(r.status)
		}
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, attempt)
	} else {
		err = attempt()
	}
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

func (c *Client) roundTrip(ctx context.Context, req *Request, payload []byte, token string) (*response, error) {
	start := time.Now()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.endpoint(req.Path, req.Query), body)
	if err != nil {
		return nil, errors.InternalError("failed to create request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" && !req.Anonymous {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr == context.Canceled {
			return nil, ctxErr
		}
		c.logger.Warn("API request failed",
			logging.String("method", req.Method),
			logging.String("path", req.Path),
			logging.Err(err),
		)
		return nil, errors.NetworkError(err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr == context.Canceled {
			return nil, ctxErr
		}
		return nil, errors.NetworkError(err)
	}

	c.logger.Debug("API request",
		logging.String("method", req.Method),
		logging.String("path", req.Path),
		logging.Int("status", httpResp.StatusCode),
		logging.Duration("duration", time.Since(start)),
	)

	return &response{status: httpResp.StatusCode, body: data}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base.String() + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.InternalError("failed to encode request body", err)
	}
	return data, nil
}
