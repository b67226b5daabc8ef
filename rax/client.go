package rax

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Raxcore-dev/rax-ai-sdk/httpx"
	"github.com/Raxcore-dev/rax-ai-sdk/version"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.raxcore.dev"

const (
	DefaultTimeout     = 30 * time.Second
	DefaultRetries     = 3
	DefaultBackoffBase = 1 * time.Second
)

const (
	pathChatCompletions = "/v1/chat/completions"
	pathModels          = "/v1/models"
	pathUsage           = "/v1/usage"
)

// Config configures a Client. APIKey is required; zero values elsewhere take
// the package defaults. The struct is copied at construction and never read
// again, so later mutation by the caller has no effect.
type Config struct {
	// APIKey is the bearer credential. Required.
	APIKey string

	// BaseURL overrides DefaultBaseURL. A trailing slash is stripped.
	BaseURL string

	// Timeout bounds each HTTP attempt. Default 30s.
	Timeout time.Duration

	// Retries is the number of retries after the initial attempt for
	// transient failures. Default 3, so at most 4 calls per operation.
	// Negative disables retries.
	Retries int

	// BackoffBase is the base of the exponential backoff between attempts
	// (BackoffBase * 2^attempt). Default 1s.
	BackoffBase time.Duration

	// Transport optionally overrides the HTTP transport.
	Transport http.RoundTripper

	// Logger, when set, logs each attempt and failure. The SDK is silent
	// without it.
	Logger *zap.Logger
}

// Option mutates a Config before construction.
type Option func(*Config)

func WithBaseURL(u string) Option              { return func(c *Config) { c.BaseURL = u } }
func WithTimeout(d time.Duration) Option       { return func(c *Config) { c.Timeout = d } }
func WithRetries(n int) Option                 { return func(c *Config) { c.Retries = n } }
func WithBackoffBase(d time.Duration) Option   { return func(c *Config) { c.BackoffBase = d } }
func WithTransport(rt http.RoundTripper) Option { return func(c *Config) { c.Transport = rt } }
func WithLogger(l *zap.Logger) Option          { return func(c *Config) { c.Logger = l } }

// Client talks to the Rax API. It is safe for concurrent use; each operation
// is independent and shares only the immutable configuration. The credential
// is the sole mutable field and is guarded internally (see SetAPIKey).
type Client struct {
	mu     sync.RWMutex
	apiKey string

	cfg  Config
	http *httpx.Client
}

// New constructs a Client for the given credential plus options.
func New(apiKey string, opts ...Option) (*Client, error) {
	cfg := Config{APIKey: apiKey}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

// NewWithConfig constructs a Client. A missing credential fails here, never
// at first call.
func NewWithConfig(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}

	// Standard headers carried on every request, GETs included.
	hdr := make(http.Header)
	hdr.Set("Content-Type", "application/json")
	hdr.Set("X-Client-Platform", version.Platform())

	hc, err := httpx.NewWithConfig(httpx.Config{
		BaseURL:        cfg.BaseURL,
		AttemptTimeout: cfg.Timeout,
		Transport:      cfg.Transport,
		DefaultHeaders: hdr,
		UserAgent:      version.UserAgent(),
		Retry: httpx.RetryConfig{
			Retries:           cfg.Retries,
			Backoff:           httpx.ExponentialBackoff{Base: cfg.BackoffBase},
			RespectRetryAfter: true,
			MaxRetryAfter:     30 * time.Second,
		},
	})
	if err != nil {
		return nil, err
	}

	c := &Client{apiKey: cfg.APIKey, cfg: cfg, http: hc}
	if cfg.Logger != nil {
		installLogging(hc, cfg.Logger)
	}
	return c, nil
}

// Config returns a copy of the effective configuration, including the
// current credential.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.cfg
	out.APIKey = c.apiKey
	return out
}

// SetAPIKey replaces the bearer credential. Requests already in flight keep
// the credential they were built with.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// Chat performs a blocking chat completion.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := req.validate(); err != nil {
		return ChatResponse{}, err
	}
	wire := req.Clone()
	wire.Stream = false

	hreq, err := c.http.NewJSONRequest(ctx, http.MethodPost, pathChatCompletions, wire,
		httpx.WithBearerToken(c.bearer()),
	)
	if err != nil {
		return ChatResponse{}, err
	}
	var out ChatResponse
	if err := c.http.DoJSONInto(hreq, &out); err != nil {
		return ChatResponse{}, apiErrorFrom(err)
	}
	return out, nil
}

// ChatStream performs a streaming chat completion. The call is single-attempt
// (streams are never retried); a non-success response fails before any chunk
// is produced. The returned Stream must be closed by the caller.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest) (Stream, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	wire := req.Clone()
	wire.Stream = true

	hreq, err := c.http.NewJSONRequest(ctx, http.MethodPost, pathChatCompletions, wire,
		httpx.WithBearerToken(c.bearer()),
		httpx.WithHeader("Accept", "text/event-stream"),
	)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.DoStream(hreq)
	if err != nil {
		return nil, apiErrorFrom(err)
	}
	return newChatStream(resp.Body), nil
}

// ListModels returns the models available to the credential.
func (c *Client) ListModels(ctx context.Context) (ModelList, error) {
	hreq, err := c.http.NewRequest(ctx, http.MethodGet, pathModels,
		httpx.WithBearerToken(c.bearer()),
	)
	if err != nil {
		return ModelList{}, err
	}
	out, err := httpx.DoJSON[ModelList](c.http, hreq)
	if err != nil {
		return ModelList{}, apiErrorFrom(err)
	}
	return out, nil
}

// Usage returns usage statistics for the selected window.
func (c *Client) Usage(ctx context.Context, p UsageParams) (UsageReport, error) {
	q := url.Values{}
	if p.StartDate != "" {
		q.Set("start_date", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("end_date", p.EndDate)
	}
	hreq, err := c.http.NewRequest(ctx, http.MethodGet, pathUsage,
		httpx.WithBearerToken(c.bearer()),
		httpx.WithQuery(q),
	)
	if err != nil {
		return UsageReport{}, err
	}
	out, err := httpx.DoJSON[UsageReport](c.http, hreq)
	if err != nil {
		return UsageReport{}, apiErrorFrom(err)
	}
	return out, nil
}

// ValidateKey probes the credential against the models endpoint. An
// authentication failure reports (false, nil); any other failure is returned
// as its error.
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	_, err := c.ListModels(ctx)
	if err == nil {
		return true, nil
	}
	if IsAuth(err) {
		return false, nil
	}
	return false, err
}

func installLogging(hc *httpx.Client, l *zap.Logger) {
	before := []httpx.BeforeHook{func(req *http.Request, attempt int) {
		l.Debug("rax request",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("attempt", attempt),
		)
	}}
	after := []httpx.AfterHook{func(req *http.Request, resp *http.Response, err error, dur time.Duration, attempt int) {
		switch {
		case err != nil:
			l.Warn("rax request failed",
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt),
				zap.Duration("dur", dur),
				zap.Error(err),
			)
		case resp.StatusCode >= 400:
			l.Warn("rax request rejected",
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode),
				zap.Duration("dur", dur),
			)
		default:
			l.Debug("rax request done",
				zap.String("method", req.Method),
				zap.Int("status", resp.StatusCode),
				zap.Duration("dur", dur),
			)
		}
	}}
	hc.WithHooks(before, after)
}
