// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis runs the section tasks for one deck in registry order,
// then the synthesis task over their results, then the TL;DR. Section
// failures are recorded as failure markers and never stop the run.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/deal-analyzer/internal/completion"
	"github.com/pdiddy/deal-analyzer/internal/httputil"
	"github.com/pdiddy/deal-analyzer/internal/research"
	"github.com/pdiddy/deal-analyzer/internal/sections"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// State is the orchestrator's position in a run. It only moves forward.
type State int

const (
	NotStarted State = iota
	SectionsRunning
	SynthesisRunning
	Complete
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case SectionsRunning:
		return "sections_running"
	case SynthesisRunning:
		return "synthesis_running"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	tldrTokens     = 300
	tldrInputChars = 3000
	transcriptSep  = "\n\n---\n\n"
)

// DefaultMilestones are the progress messages sent after the given number of
// completed sections.
var DefaultMilestones = map[int]string{
	4: "Market, competition, team, and economics done...",
	8: "Almost there, finalizing strategy and exit analysis...",
}

var (
	// ErrAlreadyStarted is returned when Run is called twice on one
	// orchestrator.
	ErrAlreadyStarted = errors.New("analysis already started")

	// ErrNoRecord is returned when Run is given a record without a company
	// name.
	ErrNoRecord = errors.New("analysis requires a deck record with a company name")
)

// Observer receives run events. Methods are called synchronously from Run.
type Observer interface {
	StateChanged(from, to State)
	SectionDone(done, total int, result types.SectionResult)
}

// ProgressFunc delivers a milestone message. It must not block for long and
// its outcome is ignored.
type ProgressFunc func(ctx context.Context, message string)

// Orchestrator runs one analysis. Create a new one per run.
type Orchestrator struct {
	Completer completion.Completer

	// InterCallDelay spaces consecutive section calls.
	InterCallDelay time.Duration

	// ItemsPerPurpose limits research hits per purpose in a prompt.
	ItemsPerPurpose int

	Progress   ProgressFunc
	Milestones map[int]string
	Observer   Observer

	Log io.Writer

	mu    sync.Mutex
	state State
}

// New creates an orchestrator from configuration.
func New(c completion.Completer, cfg types.AnalysisConfig, itemsPerPurpose int, log io.Writer) *Orchestrator {
	return &Orchestrator{
		Completer:       c,
		InterCallDelay:  cfg.InterCallDelay,
		ItemsPerPurpose: itemsPerPurpose,
		Milestones:      DefaultMilestones,
		Log:             log,
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// start moves NotStarted to SectionsRunning, failing if the run already began.
func (o *Orchestrator) start() error {
	o.mu.Lock()
	if o.state != NotStarted {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.state = SectionsRunning
	o.mu.Unlock()

	if o.Observer != nil {
		o.Observer.StateChanged(NotStarted, SectionsRunning)
	}
	return nil
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	from := o.state
	if to <= from {
		o.mu.Unlock()
		panic(fmt.Sprintf("analysis: illegal transition %s -> %s", from, to))
	}
	o.state = to
	o.mu.Unlock()

	if o.Observer != nil {
		o.Observer.StateChanged(from, to)
	}
}

// Run analyzes rec with the given research. The returned outcome always
// holds one result per registry task, synthesis last, plus a TL;DR; any of
// them may be a failure marker. Errors are returned only for misuse.
func (o *Orchestrator) Run(ctx context.Context, rec *types.DeckRecord, res types.ResearchResultSet) (*types.AnalysisOutcome, error) {
	if !rec.Usable() {
		return nil, ErrNoRecord
	}
	if err := o.start(); err != nil {
		return nil, err
	}

	log := o.Log
	if log == nil {
		log = io.Discard
	}

	company := rec.Company()
	deck := rec.Text()
	tasks := sections.Sections()
	total := len(tasks)
	outcome := &types.AnalysisOutcome{Sections: make([]types.SectionResult, 0, total+1)}

	for i := range tasks {
		task := &tasks[i]
		text := o.runTask(ctx, task, sections.PromptData{
			Company:  company,
			Deck:     deck,
			Research: research.FormatForSection(res, task.Research, o.ItemsPerPurpose),
		})
		result := types.NewSectionResult(task.ID, task.Title, text)
		outcome.Sections = append(outcome.Sections, result)

		if result.Failed {
			fmt.Fprintf(log, "analysis: [%d/%d] failed: %s: %s\n", i+1, total, task.Title, text)
		} else {
			fmt.Fprintf(log, "analysis: [%d/%d] %s\n", i+1, total, task.Title)
		}
		if o.Observer != nil {
			o.Observer.SectionDone(i+1, total, result)
		}

		if msg, ok := o.Milestones[i+1]; ok && o.Progress != nil {
			o.Progress(ctx, msg)
		}

		if i < total-1 {
			httputil.Sleep(ctx, o.InterCallDelay)
		}
	}

	o.transition(SynthesisRunning)
	fmt.Fprintln(log, "analysis: running synthesis")

	syn := sections.Synthesis()
	memo := o.runTask(ctx, &syn, sections.PromptData{
		Company:       company,
		Deck:          deck,
		PriorAnalysis: Transcript(outcome.Sections),
	})
	outcome.Sections = append(outcome.Sections, types.NewSectionResult(syn.ID, syn.Title, memo))

	outcome.TLDR = o.tldr(ctx, memo)

	o.transition(Complete)
	fmt.Fprintf(log, "analysis: complete (%d of %d sections failed)\n", outcome.FailedCount(), len(outcome.Sections))
	return outcome, nil
}

func (o *Orchestrator) runTask(ctx context.Context, task *sections.Task, data sections.PromptData) string {
	prompt, err := task.Render(data)
	if err != nil {
		return types.FailureMarker(err.Error())
	}
	return o.Completer.Complete(ctx, completion.Request{
		Prompt:    prompt,
		System:    sections.SystemPrompt,
		Tier:      completion.TierStandard,
		MaxTokens: task.MaxTokens,
	})
}

// tldr condenses the memo. A failed memo yields a marker without a call.
func (o *Orchestrator) tldr(ctx context.Context, memo string) string {
	if types.IsFailureMarker(memo) {
		return types.FailureMarker("no memo to summarize.")
	}
	var buf bytes.Buffer
	if err := sections.TLDRPrompt.Execute(&buf, types.Truncate(memo, tldrInputChars)); err != nil {
		return types.FailureMarker(err.Error())
	}
	return o.Completer.Complete(ctx, completion.Request{
		Prompt:    buf.String(),
		Tier:      completion.TierLite,
		MaxTokens: tldrTokens,
	})
}

// Transcript joins results as "<title>\n\n<text>" blocks separated by
// horizontal rules, in the given order.
func Transcript(results []types.SectionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Title+"\n\n"+r.Text)
	}
	return strings.Join(parts, transcriptSep)
}
