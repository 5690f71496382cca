// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// googleMaxNum is the largest page the Custom Search API returns.
const googleMaxNum = 10

// GoogleSearcher queries a Google Programmable Search engine.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearcher creates a searcher for engine cx. Extra options are
// passed to the API client.
func NewGoogleSearcher(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*GoogleSearcher, error) {
	if cx == "" {
		return nil, errors.New("google search requires an engine ID")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating customsearch service: %w", err)
	}
	return &GoogleSearcher{svc: svc, cx: cx}, nil
}

// Search returns up to count web results for query.
func (g *GoogleSearcher) Search(ctx context.Context, query string, count int) ([]types.ResultItem, error) {
	if count <= 0 {
		count = 5
	}
	if count > googleMaxNum {
		count = googleMaxNum
	}

	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(int64(count)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("Google search request: %w", err)
	}

	items := make([]types.ResultItem, 0, len(resp.Items))
	for _, r := range resp.Items {
		items = append(items, types.ResultItem{
			Title:   r.Title,
			URL:     r.Link,
			Snippet: stripTags(r.Snippet),
		})
	}
	return items, nil
}
