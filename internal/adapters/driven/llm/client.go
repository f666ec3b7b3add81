// Package llm holds the HTTP plumbing shared by the provider adapters.
// Provider failures are mapped onto domain errors here so the delegator
// can tell a retryable blip from a misconfiguration.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string

	kind error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: API returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap exposes ErrRateLimited or ErrLLMUnavailable where the status
// calls for it. Other statuses unwrap to nil and are retryable.
func (e *APIError) Unwrap() error {
	return e.kind
}

// Client sends JSON requests for one provider.
type Client struct {
	HTTP     *http.Client
	Provider string
	BaseURL  string
	Header   http.Header
}

// PostJSON sends body to path and decodes a 2xx answer into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.Provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Get fetches path and discards the body. Adapters use it to ping.
func (c *Client) Get(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Provider, err)
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return TransportError(c.Provider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.Provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StatusError(c.Provider, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Provider, err)
	}
	return nil
}

// StatusError builds the APIError for a failed call.
func StatusError(provider string, status int, body []byte) error {
	e := &APIError{Provider: provider, StatusCode: status, Message: errorMessage(body)}
	switch status {
	case http.StatusTooManyRequests:
		e.kind = domain.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		// Bad key or unknown model: retrying will not help.
		e.kind = domain.ErrLLMUnavailable
	}
	return e
}

// TransportError classifies a failure to get any answer at all. Timeouts
// keep their deadline error; anything else means the endpoint is unreachable.
func TransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", provider, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w: %w", provider, context.DeadlineExceeded, err)
	}
	return fmt.Errorf("%s: %w: %w", provider, domain.ErrLLMUnavailable, err)
}

// errorMessage pulls a message out of the usual provider error bodies:
// {"error": {"message": "..."}}, {"error": "..."} or plain text.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
