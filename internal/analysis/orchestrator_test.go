// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deal-analyzer/internal/completion"
	"github.com/pdiddy/deal-analyzer/internal/sections"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// sectionCompleter answers each section with "analysis of <title>", fails
// the titles in fail, and records every request.
type sectionCompleter struct {
	mu       sync.Mutex
	fail     map[string]bool
	requests []completion.Request
}

func (s *sectionCompleter) Complete(_ context.Context, req completion.Request) string {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if req.Tier == completion.TierLite {
		return "Acme is a logistics company worth monitoring."
	}
	for _, task := range sections.All() {
		if strings.Contains(req.Prompt, `"## `+task.Title+`"`) {
			if s.fail[task.Title] {
				return types.FailureMarker("rate limit exceeded after retries.")
			}
			return "analysis of " + task.Title
		}
	}
	return "unexpected prompt"
}

func (s *sectionCompleter) synthesisPrompt() string {
	for _, r := range s.requests {
		if strings.Contains(r.Prompt, `"## 12. Investment Memo Summary"`) {
			return r.Prompt
		}
	}
	return ""
}

func acme() *types.DeckRecord {
	return &types.DeckRecord{
		CompanyName: types.Str("Acme"),
		Industry:    types.Str("logistics"),
	}
}

func newTestOrchestrator(c completion.Completer) *Orchestrator {
	return New(c, types.AnalysisConfig{}, 4, nil)
}

func TestRun_AllSucceed(t *testing.T) {
	c := &sectionCompleter{}
	o := newTestOrchestrator(c)

	out, err := o.Run(context.Background(), acme(), types.ResearchResultSet{})
	require.NoError(t, err)

	require.Len(t, out.Sections, 12)
	for i, task := range sections.All() {
		assert.Equal(t, task.ID, out.Sections[i].SectionID)
		assert.False(t, out.Sections[i].Failed)
	}
	assert.NotEmpty(t, out.TLDR)
	assert.Equal(t, Complete, o.State())

	// 11 sections + synthesis + TL;DR
	assert.Len(t, c.requests, 13)
	for _, r := range c.requests[:12] {
		assert.Equal(t, completion.TierStandard, r.Tier)
		assert.Equal(t, sections.SystemPrompt, r.System)
	}
	assert.Equal(t, 2500, c.requests[11].MaxTokens)
	tl := c.requests[12]
	assert.Equal(t, completion.TierLite, tl.Tier)
	assert.Equal(t, 300, tl.MaxTokens)
}

func TestRun_KOfElevenFailuresIsolated(t *testing.T) {
	tasks := sections.Sections()
	for k := 0; k <= len(tasks); k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			fail := map[string]bool{}
			for _, task := range tasks[:k] {
				fail[task.Title] = true
			}
			c := &sectionCompleter{fail: fail}

			out, err := newTestOrchestrator(c).Run(context.Background(), acme(), nil)
			require.NoError(t, err)

			assert.Equal(t, k, out.FailedCount())
			assert.Len(t, out.Succeeded(), 12-k)

			memo, ok := out.Result("investment_memo")
			require.True(t, ok)
			assert.False(t, memo.Failed, "synthesis still runs")

			prompt := c.synthesisPrompt()
			for _, task := range tasks[k:] {
				assert.Contains(t, prompt, "analysis of "+task.Title)
			}
			for _, task := range tasks[:k] {
				assert.Contains(t, prompt, task.Title+"\n\nAnalysis failed:")
			}
		})
	}
}

func TestRun_ResearchReachesPrompt(t *testing.T) {
	c := &sectionCompleter{}
	res := types.ResearchResultSet{
		types.PurposeMarketSize: {{Title: "Freight TAM", Snippet: "$900B"}},
	}
	_, err := newTestOrchestrator(c).Run(context.Background(), acme(), res)
	require.NoError(t, err)

	assert.Contains(t, c.requests[0].Prompt, "- Freight TAM: $900B")
	// competitive_landscape has no research for its purposes
	assert.Contains(t, c.requests[1].Prompt, "No relevant research data available.")
}

func TestRun_SynthesisFailureStillCompletes(t *testing.T) {
	c := &sectionCompleter{fail: map[string]bool{sections.Synthesis().Title: true}}
	o := newTestOrchestrator(c)

	out, err := o.Run(context.Background(), acme(), nil)
	require.NoError(t, err)
	assert.Equal(t, Complete, o.State())
	assert.True(t, types.IsFailureMarker(out.Text("investment_memo")))
	assert.True(t, types.IsFailureMarker(out.TLDR))
	assert.Len(t, c.requests, 12, "no TL;DR call for a failed memo")
}

type recordingObserver struct {
	transitions []string
	done        []int
}

func (r *recordingObserver) StateChanged(from, to State) {
	r.transitions = append(r.transitions, from.String()+">"+to.String())
}

func (r *recordingObserver) SectionDone(done, _ int, _ types.SectionResult) {
	r.done = append(r.done, done)
}

func TestRun_ObserverAndProgress(t *testing.T) {
	obs := &recordingObserver{}
	var progress []string

	o := newTestOrchestrator(&sectionCompleter{})
	o.Observer = obs
	o.Progress = func(_ context.Context, msg string) { progress = append(progress, msg) }

	_, err := o.Run(context.Background(), acme(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"not_started>sections_running",
		"sections_running>synthesis_running",
		"synthesis_running>complete",
	}, obs.transitions)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, obs.done)
	assert.Equal(t, []string{DefaultMilestones[4], DefaultMilestones[8]}, progress)
}

func TestRun_Misuse(t *testing.T) {
	o := newTestOrchestrator(&sectionCompleter{})

	_, err := o.Run(context.Background(), &types.DeckRecord{}, nil)
	assert.ErrorIs(t, err, ErrNoRecord)
	assert.Equal(t, NotStarted, o.State())

	_, err = o.Run(context.Background(), acme(), nil)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), acme(), nil)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestTranscript(t *testing.T) {
	got := Transcript([]types.SectionResult{
		{Title: "1. A", Text: "alpha"},
		{Title: "2. B", Text: "beta"},
	})
	assert.Equal(t, "1. A\n\nalpha\n\n---\n\n2. B\n\nbeta", got)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "complete", Complete.String())
	assert.Equal(t, "state(9)", State(9).String())
}
