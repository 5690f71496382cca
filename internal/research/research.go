// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research builds web research queries from a DeckRecord and runs
// them sequentially against a search backend, collecting results by
// purpose. A failed or empty query never aborts the rest.
package research

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/deal-analyzer/internal/httputil"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// NoDataMarker replaces research context when no hits are available.
const NoDataMarker = "No relevant research data available."

// Searcher runs one web search. An empty result list is a valid answer.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]types.ResultItem, error)
}

// Coordinator issues research queries one at a time.
type Coordinator struct {
	// Searcher may be nil, in which case every purpose gets an empty list.
	Searcher Searcher

	// Count is the number of hits requested per query (default 5).
	Count int

	// InterQueryDelay spaces consecutive queries.
	InterQueryDelay time.Duration

	// Timeout bounds each query (default 10s).
	Timeout time.Duration

	Log io.Writer
}

// NewCoordinator creates a coordinator from configuration.
func NewCoordinator(s Searcher, cfg types.ResearchConfig, log io.Writer) *Coordinator {
	return &Coordinator{
		Searcher:        s,
		Count:           cfg.ResultsPerQuery,
		InterQueryDelay: cfg.InterQueryDelay,
		Timeout:         cfg.Timeout,
		Log:             log,
	}
}

// Run executes every query in stable purpose order and returns the results
// keyed by purpose. Every purpose in queries appears in the result, possibly
// with an empty list.
func (c *Coordinator) Run(ctx context.Context, queries types.ResearchQuerySet) types.ResearchResultSet {
	log := c.Log
	if log == nil {
		log = io.Discard
	}
	results := make(types.ResearchResultSet, len(queries))

	if c.Searcher == nil {
		fmt.Fprintln(log, "research: no search backend configured, skipping")
		for p := range queries {
			results[p] = []types.ResultItem{}
		}
		return results
	}

	count := c.Count
	if count <= 0 {
		count = 5
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	for i, p := range queries.Purposes() {
		if i > 0 {
			if err := httputil.Sleep(ctx, c.InterQueryDelay); err != nil {
				results[p] = []types.ResultItem{}
				continue
			}
		}

		items, err := c.search(ctx, queries[p], count, timeout)
		if err != nil {
			fmt.Fprintf(log, "research: warning: %s query failed: %v\n", p, err)
			items = nil
		}
		if items == nil {
			items = []types.ResultItem{}
		}
		results[p] = items
		fmt.Fprintf(log, "research: %s (%d results)\n", p, len(items))
	}
	return results
}

func (c *Coordinator) search(ctx context.Context, query string, count int, timeout time.Duration) ([]types.ResultItem, error) {
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Searcher.Search(qctx, query, count)
}

// FormatForSection renders up to perPurpose hits for each listed purpose as
// "- title: snippet" lines. When none of the purposes has a hit it returns
// NoDataMarker.
func FormatForSection(results types.ResearchResultSet, purposes []types.QueryPurpose, perPurpose int) string {
	if perPurpose <= 0 {
		perPurpose = 4
	}
	var lines []string
	for _, p := range purposes {
		items := results[p]
		if len(items) > perPurpose {
			items = items[:perPurpose]
		}
		for _, it := range items {
			lines = append(lines, fmt.Sprintf("- %s: %s", it.Title, it.Snippet))
		}
	}
	if len(lines) == 0 {
		return NoDataMarker
	}
	return strings.Join(lines, "\n")
}

// stripTags removes inline markup (e.g. <strong>) from a search snippet.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
