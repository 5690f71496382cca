// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pdiddy/deal-analyzer/internal/httputil"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// braveAPIBase is the Brave web search endpoint. Declared as a var so tests
// can substitute an httptest server.
var braveAPIBase = "https://api.search.brave.com/res/v1/web/search"

// braveRetryPolicy allows one quick retry on rate limiting.
var braveRetryPolicy = httputil.Policy{
	MaxAttempts:   2,
	RateLimitStep: time.Second,
	RateLimitCap:  time.Second,
	OverloadWait:  time.Second,
}

// BraveSearcher queries the Brave Search web API.
type BraveSearcher struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Search returns up to count web results for query.
func (b *BraveSearcher) Search(ctx context.Context, query string, count int) ([]types.ResultItem, error) {
	if count <= 0 {
		count = 5
	}
	params := url.Values{
		"q":     {query},
		"count": {strconv.Itoa(count)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, braveRetryPolicy)
	if err != nil {
		return nil, fmt.Errorf("Brave search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Brave search returned HTTP %d", resp.StatusCode)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("decoding Brave response: %w", err)
	}

	items := make([]types.ResultItem, 0, len(br.Web.Results))
	for _, r := range br.Web.Results {
		items = append(items, types.ResultItem{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: stripTags(r.Description),
		})
	}
	return items, nil
}
