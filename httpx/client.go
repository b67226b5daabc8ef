package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	httpClient *http.Client

	baseURL *url.URL

	attemptTimeout time.Duration
	defaultHeaders http.Header
	userAgent      string

	retry      RetryConfig
	maxErrBody int64

	requestID RequestIDConfig

	before []BeforeHook
	after  []AfterHook
}

// New constructs a Client from DefaultConfig() plus the provided options.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Client, error) {
	var bu *url.URL
	if strings.TrimSpace(cfg.BaseURL) != "" {
		u, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, &url.Error{Op: "parse", URL: cfg.BaseURL, Err: errors.New("base url must be absolute")}
		}
		// Normalize so relative paths resolve as expected (treat BaseURL path as a prefix).
		if u.Path != "" && !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		bu = u
	}

	rt := cfg.Transport
	if rt == nil {
		rt = DefaultTransport()
	}

	maxErrBody := cfg.MaxErrorBodyBytes
	if maxErrBody == 0 {
		maxErrBody = DefaultMaxErrorBodyBytes
	}

	attemptTimeout := cfg.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}

	// Clone headers to avoid caller mutation.
	hdr := make(http.Header)
	for k, vv := range cfg.DefaultHeaders {
		for _, v := range vv {
			hdr.Add(k, v)
		}
	}

	c := &Client{
		httpClient:     &http.Client{Transport: rt},
		baseURL:        bu,
		attemptTimeout: attemptTimeout,
		defaultHeaders: hdr,
		userAgent:      cfg.UserAgent,
		retry:          cfg.Retry,
		maxErrBody:     maxErrBody,
		requestID:      cfg.RequestID,
	}
	if c.requestID.New == nil && c.requestID.Header != "" {
		c.requestID.New = DefaultRequestID
	}
	if c.retry.Backoff == nil {
		c.retry.Backoff = DefaultBackoff()
	}
	return c, nil
}

// WithMiddleware wraps the underlying RoundTripper with middleware.
// Call this during initialization (before the client is used concurrently).
func (c *Client) WithMiddleware(mws ...Middleware) *Client {
	if len(mws) == 0 {
		return c
	}
	rt := c.httpClient.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	c.httpClient.Transport = chain(rt, mws)
	return c
}

// WithHooks adds hooks (executed for every attempt).
func (c *Client) WithHooks(before []BeforeHook, after []AfterHook) *Client {
	c.before = append(c.before, before...)
	c.after = append(c.after, after...)
	return c
}

func (c *Client) resolveURL(path string, q url.Values) (*url.URL, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty url/path")
	}
	u, err := url.Parse(p)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		if c.baseURL == nil {
			return nil, errors.New("relative path requires BaseURL")
		}
		// Treat leading "/" as relative so a BaseURL with a path prefix
		// (e.g. https://host/api) still works with "/v1/models".
		if strings.HasPrefix(u.Path, "/") {
			u2 := *u
			u2.Path = strings.TrimPrefix(u2.Path, "/")
			u = &u2
		}
		u = c.baseURL.ResolveReference(u)
	}
	if q != nil {
		qq := u.Query()
		for k, vv := range q {
			for _, v := range vv {
				qq.Add(k, v)
			}
		}
		u.RawQuery = qq.Encode()
	}
	return u, nil
}

// Do executes the request under the retry policy with net/http semantics:
// transport errors are returned as error, non-2xx responses as resp with nil
// error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req, false)
}

// DoStatus executes the request under the retry policy and converts non-2xx
// responses into *Error. It reads up to MaxErrorBodyBytes from the response
// body and then closes it.
func (c *Client) DoStatus(req *http.Request) (*http.Response, error) {
	return c.do(req, true)
}

// DoStream performs exactly one attempt and, on success, returns the response
// with its body still open for incremental reads. Streaming calls are never
// retried: a replayed stream would duplicate content the caller may have
// already consumed. Non-2xx responses are converted into *Error.
func (c *Client) DoStream(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	// The attempt timeout bounds connection setup and response headers only;
	// once the stream is open, lifetime belongs to the caller's context and
	// the returned body.
	ctx, cancel := context.WithCancel(req.Context())
	headerTimer := time.AfterFunc(c.attemptTimeoutFor(req.Context()), cancel)
	req = req.Clone(ctx)

	c.runBefore(req, 1)

	t0 := time.Now()
	resp, err := c.httpClient.Do(req)
	headerTimer.Stop()
	c.runAfter(req, resp, err, time.Since(t0), 1)

	if err != nil {
		cancel()
		return nil, &Error{
			Method:    req.Method,
			URL:       req.URL.String(),
			RequestID: strings.TrimSpace(req.Header.Get(c.requestID.Header)),
			Cause:     err,
		}
	}
	if resp.StatusCode < 400 {
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}
	e := c.responseError(req, resp, false)
	cancel()
	return nil, e
}

// do runs the retry loop:
//   - each attempt is bounded by AttemptTimeout; an elapsed attempt counts as
//     a transient failure
//   - transport failures and retryable statuses (429/5xx) trigger backoff and
//     another attempt while attempts remain
//   - any other 4xx short-circuits with no retry, as does success
//   - the parent context aborts everything, including backoff sleeps
func (c *Client) do(req *http.Request, statusAsError bool) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	parent := req.Context()

	maxAttempts := c.retry.maxAttempts()

	var lastResp *http.Response
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if parent.Err() != nil {
			return nil, parent.Err()
		}

		if attempt > 0 && req.Body != nil && req.Body != http.NoBody {
			if req.GetBody == nil {
				return nil, errors.New("httpx: request body is not replayable (missing req.GetBody)")
			}
			b, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = b
		}

		attemptCtx, cancel := context.WithTimeout(parent, c.attemptTimeoutFor(parent))
		areq := req.Clone(attemptCtx)

		c.runBefore(areq, attempt+1)

		t0 := time.Now()
		resp, err := c.httpClient.Do(areq)
		c.runAfter(areq, resp, err, time.Since(t0), attempt+1)

		if err == nil {
			if resp.StatusCode < 400 {
				// The caller owns the body; release the attempt context only
				// when the body has been consumed.
				resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
				return resp, nil
			}
			if !c.retry.retryableStatus(resp.StatusCode) {
				// Fatal client error: report it as-is without burning retries.
				if statusAsError {
					e := c.responseError(areq, resp, false)
					cancel()
					return nil, e
				}
				resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
				return resp, nil
			}
		}

		lastErr = err

		final := attempt == maxAttempts-1
		if err != nil {
			cancel()
			if !transientTransportErr(err) {
				return nil, err
			}
			if final {
				break
			}
			if serr := sleep(parent, c.retry.Backoff.Next(attempt)); serr != nil {
				return nil, serr
			}
			continue
		}

		// Retryable status. Capture the last response; on the final attempt
		// hand it (or its error form) to the caller.
		if final {
			lastResp = resp
			lastResp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
			break
		}

		wait := c.retry.Backoff.Next(attempt)
		if c.retry.RespectRetryAfter {
			if ra, ok := parseRetryAfter(resp, time.Now()); ok {
				if c.retry.MaxRetryAfter > 0 && ra > c.retry.MaxRetryAfter {
					ra = c.retry.MaxRetryAfter
				}
				// Retry-After is a floor, not a replacement: the server is
				// telling us the earliest moment another attempt can succeed.
				if ra > wait {
					wait = ra
				}
			}
		}

		// Drain for connection reuse before retrying.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
		cancel()

		if serr := sleep(parent, wait); serr != nil {
			return nil, serr
		}
	}

	// Retries exhausted.
	if lastResp != nil {
		if !statusAsError {
			return lastResp, nil
		}
		return nil, c.responseError(req, lastResp, true)
	}
	cause := lastErr
	if cause == nil {
		cause = errors.New("request failed")
	}
	if !statusAsError {
		return nil, cause
	}
	return nil, &Error{
		Method:    req.Method,
		URL:       req.URL.String(),
		RequestID: strings.TrimSpace(req.Header.Get(c.requestID.Header)),
		Cause:     cause,
		Retryable: true,
	}
}

func (c *Client) attemptTimeoutFor(ctx context.Context) time.Duration {
	if d := requestTimeout(ctx); d > 0 {
		return d
	}
	return c.attemptTimeout
}

func (c *Client) runBefore(req *http.Request, attempt int) {
	for _, h := range c.before {
		if h != nil {
			h(req, attempt)
		}
	}
}

func (c *Client) runAfter(req *http.Request, resp *http.Response, err error, dur time.Duration, attempt int) {
	for _, h := range c.after {
		if h != nil {
			h(req, resp, err, dur, attempt)
		}
	}
}

// responseError converts a non-2xx response into *Error, reading and closing
// the body.
func (c *Client) responseError(req *http.Request, resp *http.Response, retryable bool) error {
	var raw []byte
	if resp.Body != nil {
		raw, _ = io.ReadAll(io.LimitReader(resp.Body, c.maxErrBody))
		_ = resp.Body.Close()
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	rid := ""
	if c.requestID.Header != "" {
		rid = strings.TrimSpace(resp.Header.Get(c.requestID.Header))
		if rid == "" {
			rid = strings.TrimSpace(req.Header.Get(c.requestID.Header))
		}
	}
	ra, _ := parseRetryAfter(resp, time.Now())

	return &Error{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		RequestID:  rid,
		RetryAfter: ra,
		RawBody:    raw,
		Retryable:  retryable,
		Cause:      errors.New(http.StatusText(resp.StatusCode)),
	}
}

// cancelOnClose ties an attempt context to the response body so the deadline
// timer is released once the caller is done reading.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return err
}
