package rax

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Raxcore-dev/rax-ai-sdk/httpx"
)

// ErrorType is the stable, closed classification of API failures. Callers
// should switch on it (or use the Is* helpers) rather than matching messages.
type ErrorType string

const (
	ErrTypeAuthentication ErrorType = "authentication_error"
	ErrTypeRateLimit      ErrorType = "rate_limit_exceeded"
	ErrTypeInvalidRequest ErrorType = "invalid_request_error"
	ErrTypeServer         ErrorType = "server_error"
	ErrTypeNetwork        ErrorType = "network_error"
)

// APIError is the terminal outcome of a failed operation.
//
// StatusCode is 0 for transport-level failures that never received a
// response. RetryAfter carries the server's hint when one was present.
type APIError struct {
	StatusCode int
	Type       ErrorType

	// Code is the provider's machine-readable error code, when present.
	Code string

	// Message is human-readable.
	Message string

	RetryAfter time.Duration

	// Raw is the original response body, for debugging.
	Raw []byte
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("rax: ")
	if e.StatusCode != 0 {
		b.WriteString(fmt.Sprintf("http %d", e.StatusCode))
	} else {
		b.WriteString(string(ErrTypeNetwork))
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.StatusCode != 0 {
		msg = http.StatusText(e.StatusCode)
	}
	if msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	if strings.TrimSpace(e.Code) != "" {
		b.WriteString(" (")
		b.WriteString(strings.TrimSpace(e.Code))
		b.WriteString(")")
	}
	return b.String()
}

// AsAPIError extracts *APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Type == ErrTypeAuthentication
}

// IsRateLimit reports whether err is a rate-limit rejection.
func IsRateLimit(err error) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Type == ErrTypeRateLimit
}

// IsRetryable reports whether retrying the operation later could plausibly
// succeed. Note the executor has already retried before surfacing these.
func IsRetryable(err error) bool {
	ae, ok := AsAPIError(err)
	if !ok {
		return false
	}
	switch ae.Type {
	case ErrTypeRateLimit, ErrTypeServer, ErrTypeNetwork:
		return true
	}
	return false
}

var (
	errAPIKeyRequired   = errors.New("rax: api key required")
	errModelRequired    = errors.New("rax: model required")
	errMessagesRequired = errors.New("rax: messages must be non-empty")
	errInvalidRole      = errors.New("rax: message role must be system, user or assistant")
)

// wireError is the error body shape the API produces:
// {"error":{"message":"...","type":"...","code":"..."}}
type wireError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// classifyStatus maps a status code onto the closed ErrorType set.
func classifyStatus(code int) ErrorType {
	switch {
	case code == 0:
		return ErrTypeNetwork
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrTypeAuthentication
	case code == http.StatusTooManyRequests:
		return ErrTypeRateLimit
	case code >= 400 && code < 500:
		return ErrTypeInvalidRequest
	default:
		return ErrTypeServer
	}
}

func knownErrorType(t string) (ErrorType, bool) {
	switch ErrorType(t) {
	case ErrTypeAuthentication, ErrTypeRateLimit, ErrTypeInvalidRequest, ErrTypeServer, ErrTypeNetwork:
		return ErrorType(t), true
	}
	return "", false
}

// apiErrorFrom translates the executor's error into the SDK error model.
// Non-executor errors (request building, JSON decoding of a success body,
// context cancellation) pass through unchanged.
func apiErrorFrom(err error) error {
	if err == nil {
		return nil
	}
	he, ok := httpx.AsError(err)
	if !ok {
		return err
	}

	ae := &APIError{
		StatusCode: he.StatusCode,
		Type:       classifyStatus(he.StatusCode),
		RetryAfter: he.RetryAfter,
		Raw:        he.RawBody,
	}
	if he.StatusCode == 0 && he.Cause != nil {
		ae.Message = he.Cause.Error()
	}

	var we wireError
	if len(he.RawBody) > 0 && json.Unmarshal(he.RawBody, &we) == nil {
		if we.Error.Message != "" {
			ae.Message = we.Error.Message
		}
		ae.Code = we.Error.Code
		// The server's own type wins when it is one we know; anything else
		// keeps the status-derived classification so the set stays closed.
		if t, known := knownErrorType(we.Error.Type); known {
			ae.Type = t
		}
	}
	return ae
}
