package rax

import (
	"encoding/json"
	"errors"
	"io"
)

// Stream yields StreamChunk values until a chunk with Done set, after which
// Recv returns io.EOF. Streams are finite and not restartable; every call to
// Client.ChatStream opens a fresh connection.
//
// A consumer that stops early must call Close to release the underlying
// connection. Close after exhaustion is a no-op.
type Stream interface {
	Recv() (StreamChunk, error)
	Close() error
}

// ErrStreamClosed is returned by Recv after Close was called on an
// unfinished stream.
var ErrStreamClosed = errors.New("rax: stream closed")

type chatStream struct {
	body io.ReadCloser
	dec  *lineDecoder

	done   bool
	closed bool
}

func newChatStream(body io.ReadCloser) *chatStream {
	return &chatStream{body: body, dec: newLineDecoder(body)}
}

// streamPayload is the wire shape of one streamed chunk:
// {"choices":[{"delta":{"content":"..."}}]}
type streamPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (s *chatStream) Recv() (StreamChunk, error) {
	if s.done {
		return StreamChunk{}, io.EOF
	}
	if s.closed {
		return StreamChunk{}, ErrStreamClosed
	}

	for {
		data, err := s.dec.next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// Transport closed without the sentinel: still terminate
				// cleanly so consumers observe exactly one Done chunk.
				return s.finish(), nil
			}
			return StreamChunk{}, err
		}

		if data == doneSentinel {
			return s.finish(), nil
		}

		var p streamPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			// Malformed payloads are skipped, not fatal: streaming favors
			// availability over per-chunk strictness.
			continue
		}
		if len(p.Choices) == 0 {
			continue
		}
		if content := p.Choices[0].Delta.Content; content != "" {
			return StreamChunk{Content: content}, nil
		}
	}
}

func (s *chatStream) finish() StreamChunk {
	s.done = true
	_ = s.body.Close()
	return StreamChunk{Done: true}
}

func (s *chatStream) Close() error {
	if s.done || s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// Collect drains the stream into the full assistant text. It closes the
// stream in every case.
func Collect(s Stream) (string, error) {
	defer s.Close()

	var b []byte
	for {
		chunk, err := s.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return string(b), err
		}
		if chunk.Done {
			break
		}
		b = append(b, chunk.Content...)
	}
	return string(b), nil
}
