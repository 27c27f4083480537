package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/metrics"
	"github.com/five82/harmonic/internal/response"
	"github.com/five82/harmonic/internal/session"
)

const (
	// DefaultBaseURL is where the backend listens in development.
	DefaultBaseURL   = "http://127.0.0.1:5001"
	defaultUserAgent = "harmonic/0.1"
	defaultTimeout   = 15 * time.Second
	defaultCooldown  = 10 * time.Second
	maxBodyBytes     = 16 << 20

	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second
)

var (
	errCircuitOpen  = errors.New("circuit open")
	errServerStatus = errors.New("server status")
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL           string
	Prefix            string
	Timeout           time.Duration
	Retry             RetryPolicy
	CacheEnabled      bool
	CacheTTL          time.Duration
	RequestsPerSecond float64
	RefreshCooldown   time.Duration
	BreakerThreshold  uint32
	BreakerTimeout    time.Duration
	UserAgent         string

	Session    *session.Manager
	Bus        *events.Bus
	Logger     *zap.Logger
	Metrics    *metrics.Collector
	Observer   Observer
	HTTPClient *http.Client
}

// Client sends requests to the Harmonic Universe backend. It formats URLs,
// attaches the bearer token, retries, caches GET responses and refreshes
// the token when the backend rejects it. It is safe for concurrent use.
type Client struct {
	baseURL   string
	prefix    string
	timeout   time.Duration
	userAgent string
	http      *http.Client

	retrier      *Retrier
	cache        *Cache
	cacheEnabled bool
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker

	session      *session.Manager
	bus          *events.Bus
	refreshGroup singleflight.Group
	cooldown     time.Duration

	log      *zap.Logger
	metrics  *metrics.Collector
	observer Observer
	now      func() time.Time
}

// New builds a Client from opts.
func New(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	policy := opts.Retry
	if len(policy.Statuses) == 0 && policy.BaseDelay == 0 && policy.MaxRetries == 0 {
		policy = DefaultRetryPolicy()
	}
	cooldown := opts.RefreshCooldown
	if cooldown < 0 {
		cooldown = 0
	} else if cooldown == 0 {
		cooldown = defaultCooldown
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sess := opts.Session
	if sess == nil {
		sess = session.NewManager(session.NewMemoryStorage())
	}
	bus := opts.Bus
	if bus == nil {
		bus = &events.Bus{}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		baseURL:      base,
		prefix:       prefix,
		timeout:      timeout,
		userAgent:    userAgent,
		http:         httpClient,
		retrier:      NewRetrier(policy),
		cache:        NewCache(opts.CacheTTL),
		cacheEnabled: opts.CacheEnabled,
		session:      sess,
		bus:          bus,
		cooldown:     cooldown,
		log:          logger.Named("http"),
		metrics:      opts.Metrics,
		observer:     opts.Observer,
		now:          time.Now,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	c.breaker = c.newBreaker(opts.BreakerThreshold, opts.BreakerTimeout)
	return c, nil
}

func (c *Client) newBreaker(threshold uint32, timeout time.Duration) *gobreaker.CircuitBreaker {
	if threshold == 0 {
		threshold = defaultBreakerThreshold
	}
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			c.metrics.Breaker(breakerGauge(to))
		},
	})
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// FormatURL resolves path against the client's base URL and API prefix.
func (c *Client) FormatURL(path string) string {
	return FormatURL(c.baseURL, c.prefix, path)
}

// Session returns the session manager the client reads tokens from.
func (c *Client) Session() *session.Manager { return c.session }

// Bus returns the event bus the client publishes to.
func (c *Client) Bus() *events.Bus { return c.bus }

// ClearCache drops every cached response.
func (c *Client) ClearCache() { c.cache.Clear() }

// Stats is a point-in-time view of the client's resilience state.
type Stats struct {
	BaseURL      string
	Breaker      string
	CacheEnabled bool
	CacheEntries int
}

// Stats reports breaker and cache state.
func (c *Client) Stats() Stats {
	return Stats{
		BaseURL:      c.baseURL,
		Breaker:      c.breaker.State().String(),
		CacheEnabled: c.cacheEnabled,
		CacheEntries: c.cache.Len(),
	}
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	noCache    bool
	skipAuth   bool
	replay     bool
	invalidate []string
	query      url.Values
	header     http.Header
}

// NoCache bypasses the response cache for a GET.
func NoCache() RequestOption { return func(o *requestOptions) { o.noCache = true } }

// SkipAuth sends the request without the bearer token and without the
// refresh-on-401 handling.
func SkipAuth() RequestOption { return func(o *requestOptions) { o.skipAuth = true } }

// Invalidate drops the cached entries for paths when the request succeeds.
func Invalidate(paths ...string) RequestOption {
	return func(o *requestOptions) { o.invalidate = append(o.invalidate, paths...) }
}

// WithQuery appends query parameters to the path.
func WithQuery(values url.Values) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		for k, vs := range values {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Set(key, value)
	}
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

// Patch sends a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// Do sends a request and returns the raw response body. Every failure is a
// *response.Error.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	if len(ro.query) > 0 {
		path = appendQuery(path, ro.query)
		ro.query = nil
	}
	return c.do(ctx, strings.ToUpper(method), path, body, ro)
}

func (c *Client) do(ctx context.Context, method, path string, body any, ro requestOptions) ([]byte, error) {
	target := c.FormatURL(path)
	reqID := uuid.NewString()
	start := c.now()
	c.observe(PhaseEvent{RequestID: reqID, Method: method, URL: target, Phase: PhaseIdle})

	cacheable := method == http.MethodGet && c.cacheEnabled && !ro.noCache
	if cacheable {
		if data, ok := c.cache.Get(target); ok {
			c.metrics.Cache(true)
			c.log.Debug("cache hit", zap.String("url", target))
			c.observe(PhaseEvent{RequestID: reqID, Method: method, URL: target, Phase: PhaseSuccess, Status: http.StatusOK, Cached: true})
			return data, nil
		}
		c.metrics.Cache(false)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, &response.Error{Kind: response.KindClient, Method: method, URL: target, Message: "encode request body", Err: err}
	}

	token := ""
	if !ro.skipAuth {
		token = c.bearer(ctx)
	}

	retrier := *c.retrier
	retrier.OnRetry = func(a Attempt) {
		reason := "network"
		if a.Status > 0 {
			reason = fmt.Sprintf("status_%d", a.Status)
		}
		c.metrics.Retry(reason)
		c.log.Info("retrying request",
			zap.String("method", method),
			zap.String("url", target),
			zap.Int("attempt", a.Number),
			zap.Int("status", a.Status),
			zap.Duration("delay", a.Delay),
			zap.Error(a.Err),
		)
		c.observe(PhaseEvent{RequestID: reqID, Method: method, URL: target, Phase: PhaseRetryWait, Attempt: a.Number, Status: a.Status, Delay: a.Delay})
	}
	attempt := 0
	out, retries, err := retrier.Do(ctx, func(ctx context.Context) (Outcome, error) {
		c.observe(PhaseEvent{RequestID: reqID, Method: method, URL: target, Phase: PhaseSent, Attempt: attempt})
		attempt++
		return c.send(ctx, method, target, payload, token, reqID, ro.header)
	})
	if err != nil {
		rerr := response.NetworkError(method, target, err)
		c.finish(reqID, method, target, start, retries, 0, rerr)
		return nil, rerr
	}

	env := response.Classify(out.Status, out.Body)
	if env.Kind == response.KindAuth && !ro.skipAuth {
		if !ro.replay {
			_, rerr := c.refresh(ctx, token)
			if rerr == nil {
				c.log.Info("replaying request with refreshed token", zap.String("method", method), zap.String("url", target))
				ro.replay = true
				return c.do(ctx, method, path, body, ro)
			}
			c.log.Warn("token refresh failed", zap.Error(rerr), zap.Bool("had_token", token != ""))
		}
		c.signOut(ctx, target, env.Message)
	}
	if env.Kind == response.KindServer {
		c.bus.Publish(events.Event{Topic: events.TopicServerError, Status: env.Status, URL: target, Message: env.Message})
	}
	if env.Success && cacheable {
		c.cache.Set(target, out.Body)
	}
	// A rejected mutation may still have changed server state.
	if isMutation(method) {
		c.invalidate(target, ro.invalidate)
	}
	rerr := env.Err(method, target)
	c.finish(reqID, method, target, start, retries, env.Status, rerr)
	if rerr != nil {
		return nil, rerr
	}
	return env.Data, nil
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, token, reqID string, extra http.Header) (Outcome, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Outcome{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	var out Outcome
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var err error
		out, err = c.roundTrip(ctx, method, target, payload, token, reqID, extra)
		if err != nil {
			return nil, err
		}
		if out.Status >= http.StatusInternalServerError {
			return nil, errServerStatus
		}
		return nil, nil
	})
	switch {
	case err == nil, errors.Is(err, errServerStatus):
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return Outcome{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
	default:
		return Outcome{}, err
	}
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte, token, reqID string, extra http.Header) (Outcome, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Outcome{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, values := range extra {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Outcome{}, fmt.Errorf("read response: %w", err)
	}
	return Outcome{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) invalidate(target string, extra []string) {
	urls := []string{target, parentPath(target)}
	for _, p := range extra {
		urls = append(urls, c.FormatURL(p))
	}
	if n := c.cache.Invalidate(urls...); n > 0 {
		c.log.Debug("cache invalidated", zap.String("url", target), zap.Int("entries", n))
	}
}

func (c *Client) finish(reqID, method, target string, start time.Time, retries, status int, err error) {
	elapsed := c.now().Sub(start)
	kind := response.KindOf(err)
	c.metrics.ObserveRequest(method, kind.String(), elapsed)
	phase := PhaseSuccess
	if err != nil {
		phase = PhaseFailed
	}
	c.observe(PhaseEvent{RequestID: reqID, Method: method, URL: target, Phase: phase, Attempt: retries, Status: status})

	fields := []zap.Field{
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", status),
		zap.Int("retries", retries),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		c.log.Warn("request failed", append(fields, zap.String("kind", kind.String()), zap.Error(err))...)
		return
	}
	c.log.Debug("request finished", fields...)
}

func (c *Client) observe(evt PhaseEvent) {
	if c.observer != nil {
		c.observer(evt)
	}
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func appendQuery(path string, values url.Values) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + values.Encode()
}

func parseBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}
