package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testRetry(retries int) RetryConfig {
	return RetryConfig{
		Retries: retries,
		Backoff: ExponentialBackoff{Base: time.Millisecond},
	}
}

func TestResolveURL_BaseURLAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/v1/usage",
		WithQueryParam("start_date", "2025-01-01"),
		WithQueryParam("end_date", "2025-01-31"),
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	b, _ := io.ReadAll(resp.Body)
	got := string(b)
	if !strings.HasPrefix(got, "/v1/usage?") || !strings.Contains(got, "start_date=2025-01-01") || !strings.Contains(got, "end_date=2025-01-31") {
		t.Fatalf("unexpected path/query: %q", got)
	}
}

func TestDoStatus_RetriesOn5xxUntilSuccess(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithBaseURL(srv.URL), WithRetry(testRetry(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, err := c.NewRequest(context.Background(), http.MethodPost, "/", WithBodyBytes([]byte(`{}`)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := c.DoStatus(req)
	if err != nil {
		t.Fatalf("DoStatus: %v", err)
	}
	_ = resp.Body.Close()

	if got := atomic.LoadInt32(&n); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestDoStatus_ExhaustsRetriesOn5xx(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&n, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithBaseURL(srv.URL), WithRetry(testRetry(2)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, err := c.NewRequest(context.Background(), http.MethodPost, "/", WithBodyBytes([]byte(`{}`)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	_, err = c.DoStatus(req)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsHTTPStatus(err, http.StatusInternalServerError) {
		t.Fatalf("IsHTTPStatus(500)=false for %v", err)
	}
	if !IsRetryable(err) {
		t.Fatalf("expected Retryable=true after exhausted retries")
	}
	// Retries=2 means three calls total.
	if got := atomic.LoadInt32(&n); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestDoStatus_NoRetryOn4xx(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&n, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithBaseURL(srv.URL), WithRetry(testRetry(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, err := c.NewRequest(context.Background(), http.MethodPost, "/", WithBodyBytes([]byte(`{}`)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	_, err = c.DoStatus(req)
	if err == nil {
		t.Fatalf("expected error")
	}
	he, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *httpx.Error, got %T", err)
	}
	if !IsHTTPStatus(err, http.StatusBadRequest) {
		t.Fatalf("IsHTTPStatus(400)=false for %v", err)
	}
	if IsRetryable(err) {
		t.Fatalf("4xx must not be retryable")
	}
	if !strings.Contains(string(he.RawBody), "invalid_request_error") {
		t.Fatalf("RawBody=%q", he.RawBody)
	}
	if got := atomic.LoadInt32(&n); got != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", got)
	}
}

func TestDoStatus_TransportFailureGivesStatusZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c, err := New(WithBaseURL(srv.URL), WithRetry(testRetry(1)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	_, err = c.DoStatus(req)
	he, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *httpx.Error, got %v", err)
	}
	if he.StatusCode != 0 {
		t.Fatalf("StatusCode=%d, want 0", he.StatusCode)
	}
	if !he.Retryable {
		t.Fatalf("transport failure should be marked retryable")
	}
}

func TestDoStatus_AttemptTimeoutIsTransient(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(
		WithBaseURL(srv.URL),
		WithAttemptTimeout(50*time.Millisecond),
		WithRetry(testRetry(1)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := c.DoStatus(req)
	if err != nil {
		t.Fatalf("expected second attempt to succeed, got %v", err)
	}
	_ = resp.Body.Close()
	if got := atomic.LoadInt32(&n); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestDoStatus_ParentCancellationStopsLoop(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&n, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithBaseURL(srv.URL), WithRetry(RetryConfig{
		Retries: 5,
		Backoff: ExponentialBackoff{Base: time.Hour},
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req, err := c.NewRequest(ctx, http.MethodGet, "/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	start := time.Now()
	_, err = c.DoStatus(req)
	if err == nil {
		t.Fatalf("expected error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancellation did not interrupt backoff sleep")
	}
	if got := atomic.LoadInt32(&n); got != 1 {
		t.Fatalf("expected 1 attempt before cancellation, got %d", got)
	}
}

func TestDoJSONInto_MalformedSuccessBodyFailsHard(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&n, 1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id": "x",`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithBaseURL(srv.URL), WithRetry(testRetry(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	var out map[string]any
	if err := c.DoJSONInto(req, &out); err == nil {
		t.Fatalf("expected decode error")
	}
	if got := atomic.LoadInt32(&n); got != 1 {
		t.Fatalf("decode failures must not retry; attempts=%d", got)
	}
}

func TestDoStream_SingleAttempt(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&n, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithBaseURL(srv.URL), WithRetry(testRetry(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodPost, "/", WithBodyBytes([]byte(`{}`)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	_, err = c.DoStream(req)
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := atomic.LoadInt32(&n); got != 1 {
		t.Fatalf("streaming must be single-attempt; attempts=%d", got)
	}
}

func TestDoStream_BodyStaysOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		f, _ := w.(http.Flusher)
		for _, line := range []string{"data: one\n", "data: two\n"} {
			_, _ = io.WriteString(w, line)
			if f != nil {
				f.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := c.DoStream(req)
	if err != nil {
		t.Fatalf("DoStream: %v", err)
	}
	b, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !strings.Contains(string(b), "data: two") {
		t.Fatalf("unexpected stream payload: %q", b)
	}
}

func TestWithMiddleware_WrapsEveryAttempt(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Trace"); got != "on" {
			t.Errorf("X-Trace=%q, middleware did not run", got)
		}
		if atomic.AddInt32(&n, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	var rtCalls int32
	trace := func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			atomic.AddInt32(&rtCalls, 1)
			req.Header.Set("X-Trace", "on")
			return next.RoundTrip(req)
		})
	}

	c, err := New(WithBaseURL(srv.URL), WithRetry(testRetry(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.WithMiddleware(trace)

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := c.DoStatus(req)
	if err != nil {
		t.Fatalf("DoStatus: %v", err)
	}
	_ = resp.Body.Close()

	// Middleware sits under the retry loop, so it runs once per attempt.
	if got := atomic.LoadInt32(&rtCalls); got != 3 {
		t.Fatalf("middleware round trips=%d, want 3", got)
	}
}

func TestWithRequestTimeout_OverridesAttemptTimeout(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	// The client-level timeout is generous; the request-level one is what
	// must cut the slow first attempt short.
	c, err := New(
		WithBaseURL(srv.URL),
		WithAttemptTimeout(time.Minute),
		WithRetry(testRetry(1)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/",
		WithRequestTimeout(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := c.DoStatus(req)
	if err != nil {
		t.Fatalf("expected second attempt to succeed, got %v", err)
	}
	_ = resp.Body.Close()
	if got := atomic.LoadInt32(&n); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestDoJSON_DecodesTypedValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"m-1","ready":true}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	out, err := DoJSON[struct {
		ID    string `json:"id"`
		Ready bool   `json:"ready"`
	}](c, req)
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.ID != "m-1" || !out.Ready {
		t.Fatalf("out=%+v", out)
	}
}

func TestNewRequest_SetsStandardHeaders(t *testing.T) {
	c, err := New(
		WithBaseURL("https://api.example.com"),
		WithUserAgent("rax-ai-sdk-go/test"),
		WithDefaultHeader("X-Client-Platform", "go/test"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := c.NewJSONRequest(context.Background(), http.MethodPost, "/v1/chat/completions",
		map[string]string{"model": "m"},
		WithBearerToken("sk-test"),
	)
	if err != nil {
		t.Fatalf("NewJSONRequest: %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("Authorization=%q", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type=%q", got)
	}
	if got := req.Header.Get("User-Agent"); got != "rax-ai-sdk-go/test" {
		t.Fatalf("User-Agent=%q", got)
	}
	if got := req.Header.Get("X-Client-Platform"); got != "go/test" {
		t.Fatalf("X-Client-Platform=%q", got)
	}
	if req.GetBody == nil {
		t.Fatalf("JSON bodies must be replayable")
	}
}
