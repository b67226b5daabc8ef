package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

func (c *Client) NewJSONRequest(ctx context.Context, method, path string, body any, opts ...RequestOption) (*http.Request, error) {
	opts2 := make([]RequestOption, 0, len(opts)+1)
	opts2 = append(opts2, WithJSON(body))
	opts2 = append(opts2, opts...)
	req, err := c.NewRequest(ctx, method, path, opts2...)
	if err != nil {
		return nil, err
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return req, nil
}

// DoJSONInto performs the request, treats non-2xx as error, and decodes a JSON
// response into dst. The response body is always closed.
//
// A success-status response with a malformed body fails hard with a decode
// error and is never retried: the server answered, so a retry would resend a
// request that already succeeded.
func (c *Client) DoJSONInto(req *http.Request, dst any) error {
	resp, err := c.DoStatus(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("httpx: decode response: %w", err)
	}
	// Reject trailing non-whitespace payload.
	var extra any
	if err := dec.Decode(&extra); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("httpx: decode response: %w", err)
	}
	if extra != nil {
		return errors.New("httpx: unexpected extra JSON value in response body")
	}
	return nil
}

// DoJSON is a generic helper around DoJSONInto.
func DoJSON[T any](c *Client, req *http.Request) (T, error) {
	var out T
	if err := c.DoJSONInto(req, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
