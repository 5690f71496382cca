// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides retry and classification helpers shared by the
// HTTP-backed components.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Class groups failure responses by how they are retried.
type Class string

const (
	// ClassRateLimited is a 429 response. The wait grows per attempt.
	ClassRateLimited Class = "rate_limited"

	// ClassOverloaded is a 529 (or 503) response. The wait is fixed.
	ClassOverloaded Class = "overloaded"

	// ClassOther is any other failure. It is never retried.
	ClassOther Class = "other"
)

// statusOverloaded is the non-standard status used by the Anthropic API when
// its capacity is exhausted.
const statusOverloaded = 529

// Classify maps an HTTP status code to its retry class.
func Classify(status int) Class {
	switch status {
	case http.StatusTooManyRequests:
		return ClassRateLimited
	case statusOverloaded, http.StatusServiceUnavailable:
		return ClassOverloaded
	default:
		return ClassOther
	}
}

// Retryable reports whether a class is retried at all.
func (c Class) Retryable() bool {
	return c == ClassRateLimited || c == ClassOverloaded
}

// Policy is the bounded backoff schedule for transient failures. Rate-limited
// and overloaded responses draw from the same attempt budget.
type Policy struct {
	// MaxAttempts is the total number of calls, first attempt included.
	MaxAttempts int

	// RateLimitStep is multiplied by the 1-based attempt number.
	RateLimitStep time.Duration

	// RateLimitCap bounds a single rate-limit wait.
	RateLimitCap time.Duration

	// OverloadWait is the fixed wait after an overloaded response.
	OverloadWait time.Duration
}

// DefaultPolicy returns the production schedule: 5 attempts, 15 s per
// attempt on rate limiting capped at 60 s, and 30 s on overload.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   5,
		RateLimitStep: 15 * time.Second,
		RateLimitCap:  60 * time.Second,
		OverloadWait:  30 * time.Second,
	}
}

// ZeroWaitPolicy keeps the attempt budget of DefaultPolicy but never sleeps.
// Tests use it to exercise retry paths deterministically.
func ZeroWaitPolicy() Policy {
	p := DefaultPolicy()
	p.RateLimitStep = 0
	p.RateLimitCap = 0
	p.OverloadWait = 0
	return p
}

// Attempts returns MaxAttempts, or 1 when unset.
func (p Policy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Wait returns the delay before the next call after attempt (0-based) failed
// with class c. Non-retryable classes return zero.
func (p Policy) Wait(c Class, attempt int) time.Duration {
	switch c {
	case ClassRateLimited:
		d := p.RateLimitStep * time.Duration(attempt+1)
		if p.RateLimitCap > 0 && d > p.RateLimitCap {
			d = p.RateLimitCap
		}
		return d
	case ClassOverloaded:
		return p.OverloadWait
	default:
		return 0
	}
}

// Sleep waits for d or until ctx is done. A zero duration returns at once.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// DoWithRetry executes an HTTP request and retries responses whose status
// classifies as rate-limited or overloaded, following p. Before each retry
// the response body is drained and closed. If the context is cancelled
// during a wait the function returns ctx.Err(). After the attempt budget is
// spent the last response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	attempts := p.Attempts()

	for attempt := 0; ; attempt++ {
		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			r.Body = body
		}

		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}

		class := Classify(resp.StatusCode)
		if resp.StatusCode < 400 || !class.Retryable() || attempt+1 >= attempts {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := Sleep(ctx, p.Wait(class, attempt)); err != nil {
			return nil, err
		}
	}
}
