package httpx

import (
	"net/http"
	"time"
)

// Config configures a Client. Use DefaultConfig() as a baseline.
type Config struct {
	// BaseURL is optional. If set, relative paths passed to NewRequest are resolved against it.
	BaseURL string

	// AttemptTimeout bounds a single attempt. When it elapses, the in-flight
	// call is aborted and counted as a transient failure; remaining attempts
	// (if any) proceed. The request context still bounds the whole operation.
	AttemptTimeout time.Duration

	// Transport is the underlying RoundTripper. If nil, a tuned default is used.
	Transport http.RoundTripper

	// DefaultHeaders are copied into every request (caller headers win).
	DefaultHeaders http.Header

	// UserAgent is set when the request does not already have a User-Agent header.
	UserAgent string

	// Retry configures automatic retries.
	Retry RetryConfig

	// MaxErrorBodyBytes limits how many bytes are read into Error.RawBody for non-2xx responses.
	// If zero, DefaultMaxErrorBodyBytes is used.
	MaxErrorBodyBytes int64

	// RequestID configures correlation id propagation.
	RequestID RequestIDConfig
}

const DefaultMaxErrorBodyBytes int64 = 64 << 10 // 64KiB

const DefaultAttemptTimeout = 30 * time.Second

// DefaultConfig returns a conservative baseline suitable for API clients.
func DefaultConfig() Config {
	return Config{
		AttemptTimeout:    DefaultAttemptTimeout,
		Transport:         DefaultTransport(),
		DefaultHeaders:    make(http.Header),
		Retry:             DefaultRetryConfig(),
		MaxErrorBodyBytes: DefaultMaxErrorBodyBytes,
		RequestID:         DefaultRequestIDConfig(),
	}
}
