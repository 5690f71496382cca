// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/pdiddy/deal-analyzer/internal/httputil"
)

func TestClassifyGeminiError(t *testing.T) {
	err := classifyGeminiError(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"}))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, httputil.ClassRateLimited, apiErr.Class)

	err = classifyGeminiError(&googleapi.Error{Code: http.StatusServiceUnavailable})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, httputil.ClassOverloaded, apiErr.Class)

	err = classifyGeminiError(errors.New("rpc error: code = RESOURCE_EXHAUSTED"))
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)

	err = classifyGeminiError(errors.New("dial tcp: timeout"))
	assert.False(t, errors.As(err, &apiErr))
}

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Text("b")}},
	}}}
	got, err := geminiText(resp)
	require.NoError(t, err)
	assert.Equal(t, "ab", got)

	_, err = geminiText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = geminiText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)
}

func TestNewGeminiBackend_RequiresKey(t *testing.T) {
	_, err := NewGeminiBackend(context.Background(), "", nil)
	assert.Error(t, err)
}
