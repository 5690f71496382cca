// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/deal-analyzer/internal/httputil"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// PolicyFromConfig builds the retry policy from configuration.
func PolicyFromConfig(cfg types.CompletionConfig) httputil.Policy {
	return httputil.Policy{
		MaxAttempts:   cfg.MaxAttempts,
		RateLimitStep: cfg.RateLimitStep,
		RateLimitCap:  cfg.RateLimitCap,
		OverloadWait:  cfg.OverloadWait,
	}
}

// NewFromConfig selects the backend named by cfg.Provider and wraps it in a
// Client. The returned closer releases provider resources and is never nil.
func NewFromConfig(ctx context.Context, cfg types.CompletionConfig, log io.Writer) (*Client, io.Closer, error) {
	models := map[Tier]string{
		TierLite:     cfg.LiteModel,
		TierStandard: cfg.StandardModel,
	}

	var (
		backend Backend
		closer  io.Closer = nopCloser{}
	)
	switch cfg.Provider {
	case types.ProviderGemini:
		g, err := NewGeminiBackend(ctx, cfg.APIKey, models)
		if err != nil {
			return nil, nil, err
		}
		backend, closer = g, g
	case types.ProviderAnthropic, "":
		if cfg.APIKey == "" {
			return nil, nil, fmt.Errorf("API key is required")
		}
		backend = &AnthropicBackend{
			APIKey: cfg.APIKey,
			Models: models,
			Client: &http.Client{},
		}
	default:
		return nil, nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}

	c := NewClient(backend, PolicyFromConfig(cfg), log)
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	return c, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
