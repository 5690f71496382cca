// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion issues single blocking text-completion calls with
// bounded retry. Callers never see an error: a call that cannot be completed
// returns a failure marker string in place of generated text, so batch work
// can record it and move on.
package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/deal-analyzer/internal/httputil"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// Tier selects a model class. Providers map tiers to concrete model names.
type Tier string

const (
	// TierLite is for extraction and short summaries.
	TierLite Tier = "lite"

	// TierStandard is for section analysis and synthesis.
	TierStandard Tier = "standard"
)

// Request is one completion call.
type Request struct {
	Prompt    string
	System    string
	Tier      Tier
	MaxTokens int
}

// Backend performs exactly one call against a completion provider. Provider
// failures that carry a status are reported as *APIError.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Completer is the call surface consumed by the extractor and the
// orchestrator. *Client implements it.
type Completer interface {
	Complete(ctx context.Context, req Request) string
}

// APIError is a non-success response from a completion provider.
type APIError struct {
	Class      httputil.Class
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("completion API returned %d (%s): %s", e.StatusCode, e.Class, body)
}

// Failure reasons carried in markers.
const (
	reasonExhausted = "rate limit exceeded after retries."
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 120 * time.Second

// Client wraps a Backend with the retry policy. It holds no state between
// calls.
type Client struct {
	Backend Backend
	Policy  httputil.Policy

	// Timeout bounds each attempt (default 120s).
	Timeout time.Duration

	// Log receives retry and failure lines. Nil discards them.
	Log io.Writer
}

// NewClient creates a client with the given backend and policy.
func NewClient(b Backend, p httputil.Policy, log io.Writer) *Client {
	return &Client{Backend: b, Policy: p, Timeout: DefaultTimeout, Log: log}
}

// Complete runs req against the backend. Rate-limited and overloaded
// responses are retried within the policy's attempt budget; any other
// failure returns a marker immediately. The result is either generated text
// or a failure marker, never both.
func (c *Client) Complete(ctx context.Context, req Request) string {
	log := c.Log
	if log == nil {
		log = io.Discard
	}
	attempts := c.Policy.Attempts()

	for attempt := 0; attempt < attempts; attempt++ {
		text, err := c.generate(ctx, req)
		if err == nil {
			return text
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			fmt.Fprintf(log, "completion: request failed: %v\n", err)
			return types.FailureMarker(fmt.Sprintf("request error (%v).", err))
		}
		if !apiErr.Class.Retryable() {
			fmt.Fprintf(log, "completion: API error: %v\n", apiErr)
			return types.FailureMarker(fmt.Sprintf("API error (%d).", apiErr.StatusCode))
		}
		if attempt+1 >= attempts {
			break
		}

		wait := c.Policy.Wait(apiErr.Class, attempt)
		fmt.Fprintf(log, "completion: %s, waiting %v (attempt %d/%d)\n", apiErr.Class, wait, attempt+1, attempts)
		if err := httputil.Sleep(ctx, wait); err != nil {
			return types.FailureMarker(fmt.Sprintf("request error (%v).", err))
		}
	}

	fmt.Fprintf(log, "completion: giving up after %d attempts\n", attempts)
	return types.FailureMarker(reasonExhausted)
}

func (c *Client) generate(ctx context.Context, req Request) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Backend.Generate(callCtx, req)
}
