// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/pdiddy/deal-analyzer/internal/httputil"
)

// GeminiBackend calls Google Gemini once per Generate.
type GeminiBackend struct {
	client *genai.Client
	models map[Tier]string
}

// NewGeminiBackend creates a Gemini backend. Close releases the client.
func NewGeminiBackend(ctx context.Context, apiKey string, models map[Tier]string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiBackend{client: client, models: models}, nil
}

// Generate sends one GenerateContent request.
func (b *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	name := b.models[req.Tier]
	if name == "" {
		name = b.models[TierStandard]
	}
	if name == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	model := b.client.GenerativeModel(name)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return geminiText(resp)
}

// Close releases the underlying client.
func (b *GeminiBackend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// classifyGeminiError converts a Google API error into *APIError so the
// client's retry policy applies. RESOURCE_EXHAUSTED surfaces as 429.
func classifyGeminiError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &APIError{
			Class:      httputil.Classify(gErr.Code),
			StatusCode: gErr.Code,
			Body:       gErr.Message,
		}
	}
	if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		return &APIError{Class: httputil.ClassRateLimited, StatusCode: http.StatusTooManyRequests, Body: err.Error()}
	}
	return fmt.Errorf("calling Gemini API: %w", err)
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return "", fmt.Errorf("no content in Gemini response")
	}
	var parts []string
	for _, part := range c.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			parts = append(parts, string(t))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in Gemini response")
	}
	return strings.Join(parts, ""), nil
}
