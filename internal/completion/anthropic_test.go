// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deal-analyzer/internal/httputil"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

func withAnthropicServer(t *testing.T, h http.HandlerFunc) *AnthropicBackend {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	old := anthropicAPIURL
	anthropicAPIURL = ts.URL
	t.Cleanup(func() { anthropicAPIURL = old })

	return &AnthropicBackend{
		APIKey: "test-key",
		Models: map[Tier]string{TierLite: "lite-model", TierStandard: "std-model"},
		Client: ts.Client(),
	}
}

func TestAnthropicGenerate(t *testing.T) {
	b := withAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "lite-model", req.Model)
		assert.Equal(t, 300, req.MaxTokens)
		assert.Equal(t, "be brief", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicContent{
			{Type: "text", Text: "hello "},
			{Type: "text", Text: "world"},
		}})
	})

	got, err := b.Generate(context.Background(), Request{Prompt: "hi", System: "be brief", Tier: TierLite, MaxTokens: 300})
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestAnthropicGenerate_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		class  httputil.Class
	}{
		{http.StatusTooManyRequests, httputil.ClassRateLimited},
		{529, httputil.ClassOverloaded},
		{http.StatusUnauthorized, httputil.ClassOther},
	}
	for _, tt := range tests {
		b := withAnthropicServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"error":"x"}`))
		})
		_, err := b.Generate(context.Background(), Request{Prompt: "hi"})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr), "status %d", tt.status)
		assert.Equal(t, tt.class, apiErr.Class)
		assert.Equal(t, tt.status, apiErr.StatusCode)
	}
}

func TestAnthropicGenerate_NoTextContent(t *testing.T) {
	b := withAnthropicServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content":[{"type":"tool_use"}]}`))
	})
	_, err := b.Generate(context.Background(), Request{Prompt: "hi"})
	assert.Error(t, err)
}

func TestClientWithAnthropic_RecoversFromRateLimit(t *testing.T) {
	var calls int32
	b := withAnthropicServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"done"}]}`))
	})

	c := NewClient(b, httputil.ZeroWaitPolicy(), nil)
	assert.Equal(t, "done", c.Complete(context.Background(), Request{Prompt: "hi"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientWithAnthropic_ServerError(t *testing.T) {
	b := withAnthropicServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := NewClient(b, httputil.ZeroWaitPolicy(), nil)
	got := c.Complete(context.Background(), Request{Prompt: "hi"})
	assert.Equal(t, types.FailureMarker("API error (500)."), got)
}
