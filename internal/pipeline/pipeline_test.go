// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deal-analyzer/internal/analysis"
	"github.com/pdiddy/deal-analyzer/internal/checkpoint"
	"github.com/pdiddy/deal-analyzer/internal/completion"
	"github.com/pdiddy/deal-analyzer/internal/delivery"
	"github.com/pdiddy/deal-analyzer/internal/extract"
	"github.com/pdiddy/deal-analyzer/internal/lock"
	"github.com/pdiddy/deal-analyzer/internal/research"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

const acmeJSON = `{"company_name": "Acme", "industry": "logistics", "business_model": "SaaS",
"founder_names": ["Jane Doe"], "competitors_mentioned": ["Convoy"], "traction": "null"}`

// scripted answers extraction, section, and TL;DR calls by shape.
type scripted struct {
	mu        sync.Mutex
	extractOK bool
	failAll   bool
	calls     []completion.Request
}

func (s *scripted) Complete(_ context.Context, req completion.Request) string {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	switch {
	case s.failAll:
		return types.FailureMarker("API error (500).")
	case req.Tier == completion.TierLite && req.MaxTokens == 2000:
		if !s.extractOK {
			return "I could not read this deck."
		}
		return "Here you go:\n" + acmeJSON
	case req.Tier == completion.TierLite:
		return "Acme is a promising logistics SaaS."
	default:
		return "## Section\nAnalysis text."
	}
}

func (s *scripted) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubLoader struct {
	text  string
	err   error
	calls int
}

func (l *stubLoader) Load(context.Context, string) (string, error) {
	l.calls++
	return l.text, l.err
}

type stubSearcher struct{ queries []string }

func (s *stubSearcher) Search(_ context.Context, q string, _ int) ([]types.ResultItem, error) {
	s.queries = append(s.queries, q)
	return []types.ResultItem{{Title: "Freight market", URL: "https://example.com", Snippet: "Large."}}, nil
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(_ context.Context, _, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, text)
	return true
}

type captureDeliverer struct{ reports []delivery.Report }

func (c *captureDeliverer) Deliver(_ context.Context, r delivery.Report) error {
	c.reports = append(c.reports, r)
	return nil
}

type fixture struct {
	p         *Pipeline
	dir       string
	completer *scripted
	loader    *stubLoader
	searcher  *stubSearcher
	notes     *recorder
	delivered *captureDeliverer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		dir:       t.TempDir(),
		completer: &scripted{extractOK: true},
		loader:    &stubLoader{text: "Acme pitch deck: freight routing for mid-size shippers."},
		searcher:  &stubSearcher{},
		notes:     &recorder{},
		delivered: &captureDeliverer{},
	}
	coord := research.NewCoordinator(f.searcher, types.ResearchConfig{
		HTTPConfig:      types.HTTPConfig{Timeout: time.Second},
		ResultsPerQuery: 5,
	}, nil)
	f.p = &Pipeline{
		Source:     f.loader,
		Extractor:  extract.New(f.completer, nil),
		Researcher: coord,
		NewAnalysis: func() *analysis.Orchestrator {
			return analysis.New(f.completer, types.AnalysisConfig{}, 4, nil)
		},
		Checkpoint: checkpoint.New(f.dir, nil),
		Freshness:  types.DefaultFreshnessWindow,
		LockDir:    f.dir,
		Notifier:   f.notes,
		Progress:   f.notes,
		Target:     "+15550100",
		Deliverer:  f.delivered,
	}
	return f
}

func TestFullPass_Acme(t *testing.T) {
	f := newFixture(t)
	outcome, err := f.p.FullPass(context.Background(), "https://docsend.com/view/acme")
	require.NoError(t, err)

	require.Len(t, outcome.Sections, 12)
	for _, s := range outcome.Sections {
		assert.False(t, s.Failed, s.SectionID)
	}
	assert.Equal(t, "investment_memo", outcome.Sections[11].SectionID)
	assert.NotEmpty(t, outcome.TLDR)

	state, err := f.p.Checkpoint.Load()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "Acme", *state.DeckRecord.CompanyName)
	assert.Equal(t, "logistics", *state.DeckRecord.Industry)
	assert.Nil(t, state.DeckRecord.Traction)
	assert.Equal(t, "https://docsend.com/view/acme", state.SourceReference)
	require.NotNil(t, state.Outcome)
	assert.Len(t, state.Outcome.Sections, 12)
	assert.NotEmpty(t, state.RunID)

	require.Len(t, f.delivered.reports, 1)
	assert.Equal(t, "Acme", f.delivered.reports[0].Record.Company())

	assert.NotEmpty(t, f.searcher.queries)
	for _, q := range f.searcher.queries {
		assert.NotContains(t, q, "<nil>")
	}

	require.NotEmpty(t, f.notes.msgs)
	assert.Equal(t, "Evaluating *Acme*. Running 12-section deep analysis, results in 3-5 minutes.", f.notes.msgs[0])
	assert.Contains(t, f.notes.msgs, analysis.DefaultMilestones[4])
	assert.Contains(t, f.notes.msgs, analysis.DefaultMilestones[8])

	// 1 extraction + 11 sections + synthesis + TL;DR
	assert.Equal(t, 14, f.completer.count())
}

func TestFullPass_ReusesFreshCheckpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.p.QuickPass(ctx, "deck.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec.Company())
	assert.Equal(t, 1, f.loader.calls)
	assert.True(t, strings.HasPrefix(f.notes.msgs[0], "*Quick Analysis: Acme*"))

	_, err = f.p.FullPass(ctx, "deck.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, f.loader.calls, "extraction skipped")
	assert.Equal(t, 1+13, f.completer.count())

	// An empty source resumes the checkpointed one.
	_, err = f.p.FullPass(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.loader.calls)
	state, _ := f.p.Checkpoint.Load()
	assert.Equal(t, "deck.pdf", state.SourceReference)
}

func TestFullPass_DifferentSourceReextracts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.p.QuickPass(ctx, "a.pdf")
	require.NoError(t, err)
	_, err = f.p.FullPass(ctx, "b.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, f.loader.calls)
}

func TestFullPass_StaleCheckpointReextracts(t *testing.T) {
	f := newFixture(t)
	old := &types.PipelineState{
		DeckRecord:      types.DeckRecord{CompanyName: types.Str("Acme")},
		SourceReference: "deck.pdf",
		Timestamp:       time.Now().Add(-31 * time.Minute),
	}
	require.NoError(t, f.p.Checkpoint.Save(old))

	_, err := f.p.FullPass(context.Background(), "deck.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, f.loader.calls)
}

func TestFullPass_NoSourceNoCheckpoint(t *testing.T) {
	f := newFixture(t)
	_, err := f.p.FullPass(context.Background(), "")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Zero(t, f.loader.calls)
}

func TestFullPass_ExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.completer.extractOK = false

	outcome, err := f.p.FullPass(context.Background(), "deck.pdf")
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	var pf *extract.ParseFailure
	assert.True(t, errors.As(err, &pf))

	assert.Equal(t, []string{msgExtractFailed}, f.notes.msgs)
	assert.Equal(t, 1, f.completer.count(), "no downstream calls")
	assert.Empty(t, f.searcher.queries)

	state, _ := f.p.Checkpoint.Load()
	assert.Nil(t, state, "nothing checkpointed")
}

func TestFullPass_SourceFailure(t *testing.T) {
	f := newFixture(t)
	f.loader.err = errors.New("HTTP 404")

	_, err := f.p.FullPass(context.Background(), "https://docsend.com/view/x")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, []string{"Could not access deck at https://docsend.com/view/x. Check the link and try again."}, f.notes.msgs)
	assert.Zero(t, f.completer.count())
}

func TestFullPass_DegradedWithholdsDelivery(t *testing.T) {
	f := newFixture(t)
	_, err := f.p.QuickPass(context.Background(), "deck.pdf")
	require.NoError(t, err)
	f.completer.failAll = true

	outcome, err := f.p.FullPass(context.Background(), "deck.pdf")
	require.NoError(t, err)
	assert.Len(t, outcome.Sections, 12)
	assert.True(t, outcome.Degraded(0))
	assert.True(t, types.IsFailureMarker(outcome.TLDR))
	assert.Empty(t, f.delivered.reports)

	state, _ := f.p.Checkpoint.Load()
	require.NotNil(t, state.Outcome)
	assert.Equal(t, 12, state.Outcome.FailedCount())

	f.p.DeliverDegraded = true
	_, err = f.p.FullPass(context.Background(), "deck.pdf")
	require.NoError(t, err)
	assert.Len(t, f.delivered.reports, 1)
}

func TestPass_LockContention(t *testing.T) {
	f := newFixture(t)
	held, err := lock.InDir(f.dir)
	require.NoError(t, err)
	defer held.Release()

	_, err = f.p.FullPass(context.Background(), "deck.pdf")
	assert.ErrorIs(t, err, lock.ErrLocked)
	_, err = f.p.QuickPass(context.Background(), "deck.pdf")
	assert.ErrorIs(t, err, lock.ErrLocked)

	assert.Zero(t, f.loader.calls)
	assert.Empty(t, f.notes.msgs)
	state, _ := f.p.Checkpoint.Load()
	assert.Nil(t, state, "no checkpoint mutation")
}
