// Package rax is the Go client for the Rax chat-completion API.
//
// Design goals:
//   - Stable domain model: callers build requests using canonical types
//     (ChatRequest, Message) and receive typed responses.
//   - Uniform retry policy: transient failures (transport errors, 429, 5xx)
//     are absorbed by exponential backoff; client errors surface immediately.
//   - Explicit streaming: ChatStream returns a Stream whose consumer pulls
//     StreamChunk values and may stop early; Close releases the connection.
//   - Programmatic errors: every failed operation surfaces an *APIError with
//     a stable ErrorType, so callers never match on message text.
package rax
