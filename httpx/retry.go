package httpx

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type RetryConfig struct {
	// Retries is the number of retries after the initial attempt, so a call
	// makes at most Retries+1 HTTP requests. Negative values disable retries.
	Retries int

	// Backoff computes the sleep before retry attempt+1.
	// If nil, DefaultBackoff() is used.
	Backoff Backoff

	// RetryableStatus reports whether a response status is transient.
	// If nil, DefaultRetryableStatus is used (429 and all 5xx).
	RetryableStatus func(code int) bool

	// RespectRetryAfter raises the computed backoff to the server's
	// Retry-After value (when present on 429/503) as a minimum floor.
	RespectRetryAfter bool

	// MaxRetryAfter caps Retry-After. If zero, no cap is applied.
	MaxRetryAfter time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries:           3,
		Backoff:           DefaultBackoff(),
		RespectRetryAfter: true,
		MaxRetryAfter:     30 * time.Second,
	}
}

// DefaultRetryableStatus treats rate limiting and server-side failures as
// transient. Every other 4xx is presumed fatal: retrying a bad request or a
// bad credential cannot succeed.
func DefaultRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func (c RetryConfig) retryableStatus(code int) bool {
	if c.RetryableStatus != nil {
		return c.RetryableStatus(code)
	}
	return DefaultRetryableStatus(code)
}

func (c RetryConfig) maxAttempts() int {
	if c.Retries < 0 {
		return 1
	}
	return c.Retries + 1
}

type Backoff interface {
	// Next returns how long to sleep before the next attempt.
	// attempt is 0-indexed: attempt 0 is the sleep after the first failure.
	Next(attempt int) time.Duration
}

// ExponentialBackoff sleeps Base * 2^attempt, optionally capped at Max and
// spread by +/- Jitter percent.
type ExponentialBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64 // 0..1
}

var (
	jitterMu  sync.Mutex
	jitterRng = rand.New(rand.NewSource(int64(seed64())))
)

func seed64() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint64(b[:])
	}
	// Fallback: time-based seed (still better than deterministic).
	return uint64(time.Now().UnixNano())
}

func jitterFloat64() float64 {
	jitterMu.Lock()
	defer jitterMu.Unlock()
	return jitterRng.Float64()
}

func DefaultBackoff() Backoff {
	return ExponentialBackoff{
		Base: 1 * time.Second,
		Max:  30 * time.Second,
	}
}

func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := b.Base
	if base <= 0 {
		base = 1 * time.Second
	}

	d := base
	for i := 0; i < attempt; i++ {
		if b.Max > 0 && d >= b.Max/2 {
			d = b.Max
			break
		}
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}

	j := b.Jitter
	if j <= 0 {
		return d
	}
	if j > 1 {
		j = 1
	}
	f := 1 + (jitterFloat64()*2-1)*j
	if f < 0 {
		f = 0
	}
	return time.Duration(float64(d) * f)
}

// transientTransportErr reports whether a transport-level failure is worth
// retrying. Attempt timeouts, DNS failures, refused and reset connections all
// qualify; cancellation of the parent context does not.
func transientTransportErr(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func parseRetryAfter(resp *http.Response, now time.Time) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
