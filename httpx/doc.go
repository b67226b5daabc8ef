// Package httpx implements the HTTP request executor used by the Rax SDK:
// - base URL resolution with default headers and bearer credentials
// - per-attempt timeouts, sequential retries and exponential backoff
// - status-driven retry classification (429/5xx transient, other 4xx fatal)
// - error type carrying status, request id, retry-after and a limited body
// - a single-attempt streaming entry point for event-stream responses
// - hook points for logging/metrics without hard dependencies
package httpx
