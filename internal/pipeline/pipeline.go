// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one deal evaluation: load the deck, extract a
// record, research, analyze, checkpoint, deliver. It holds the run lock for
// the duration of a pass.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/deal-analyzer/internal/analysis"
	"github.com/pdiddy/deal-analyzer/internal/checkpoint"
	"github.com/pdiddy/deal-analyzer/internal/delivery"
	"github.com/pdiddy/deal-analyzer/internal/lock"
	"github.com/pdiddy/deal-analyzer/internal/notify"
	"github.com/pdiddy/deal-analyzer/internal/research"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

var (
	// ErrSourceUnavailable is returned when the deck cannot be loaded.
	ErrSourceUnavailable = errors.New("deck source unavailable")

	// ErrExtractionFailed is returned when no usable record could be
	// extracted. Nothing downstream runs.
	ErrExtractionFailed = errors.New("deck extraction failed")
)

// Messages sent to the notification target.
const (
	msgFetchFailed   = "Could not access deck at %s. Check the link and try again."
	msgExtractFailed = "Could not extract company information from the deck. Try a different link or format."
	msgAck           = "Evaluating *%s*. Running 12-section deep analysis, results in 3-5 minutes."
)

// Loader returns deck text for a source reference.
type Loader interface {
	Load(ctx context.Context, src string) (string, error)
}

// Extractor turns deck text into a usable record.
type Extractor interface {
	Extract(ctx context.Context, raw string) (*types.DeckRecord, error)
}

// Researcher runs a query set.
type Researcher interface {
	Run(ctx context.Context, queries types.ResearchQuerySet) types.ResearchResultSet
}

// Pipeline wires the phases together. Fields left nil are skipped where
// that makes sense (notifications, delivery) and required otherwise.
type Pipeline struct {
	Source     Loader
	Extractor  Extractor
	Researcher Researcher

	// NewAnalysis returns a fresh orchestrator for each run.
	NewAnalysis func() *analysis.Orchestrator

	Checkpoint *checkpoint.Store
	Freshness  time.Duration

	// LockDir holds the run lock; empty disables locking.
	LockDir string

	// Notifier sends acknowledgements and failure messages; Progress sends
	// milestone messages once, without retries.
	Notifier notify.Notifier
	Progress notify.Notifier
	Target   string

	Deliverer delivery.Deliverer

	// DegradedThreshold is the failed-section count at which delivery is
	// withheld. Zero means every section.
	DegradedThreshold int

	// DeliverDegraded delivers even degraded outcomes.
	DeliverDegraded bool

	Log io.Writer
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.Log != nil {
		fmt.Fprintf(p.Log, format, args...)
	}
}

func (p *Pipeline) notify(ctx context.Context, text string) {
	if p.Notifier == nil || p.Target == "" {
		return
	}
	if !p.Notifier.Notify(ctx, p.Target, text) {
		p.logf("pipeline: notification not delivered\n")
	}
}

func (p *Pipeline) lock() (func(), error) {
	if p.LockDir == "" {
		return func() {}, nil
	}
	l, err := lock.InDir(p.LockDir)
	if err != nil {
		return nil, err
	}
	return func() { l.Release() }, nil
}

// extract loads src and extracts a record, notifying the target on failure.
func (p *Pipeline) extract(ctx context.Context, src string) (*types.DeckRecord, error) {
	p.logf("pipeline: loading %s\n", src)
	raw, err := p.Source.Load(ctx, src)
	if err != nil {
		p.notify(ctx, fmt.Sprintf(msgFetchFailed, src))
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	rec, err := p.Extractor.Extract(ctx, raw)
	if err != nil {
		p.notify(ctx, msgExtractFailed)
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return rec, nil
}

// QuickPass extracts a record from src, checkpoints it for a later full
// pass, and sends the quick summary.
func (p *Pipeline) QuickPass(ctx context.Context, src string) (*types.DeckRecord, error) {
	unlock, err := p.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := p.extract(ctx, src)
	if err != nil {
		return nil, err
	}

	state := &types.PipelineState{
		RunID:           uuid.NewString(),
		DeckRecord:      *rec,
		SourceReference: src,
	}
	if err := p.Checkpoint.Save(state); err != nil {
		p.logf("pipeline: %v\n", err)
	}

	p.notify(ctx, delivery.QuickSummary(*rec))
	return rec, nil
}

// reusable returns the checkpointed record when it is fresh, usable and
// came from src. An empty src accepts any fresh record.
func (p *Pipeline) reusable(src string) *types.DeckRecord {
	state, err := p.Checkpoint.LoadFresh(p.Freshness)
	if err != nil || state == nil || !state.DeckRecord.Usable() {
		return nil
	}
	if src != "" && state.SourceReference != "" && state.SourceReference != src {
		return nil
	}
	rec := state.DeckRecord
	return &rec
}

// FullPass runs the whole pipeline for src. A fresh checkpoint from the same
// source skips loading and extraction. The outcome is checkpointed, then
// delivered unless degraded. Delivery failures are logged, never returned.
func (p *Pipeline) FullPass(ctx context.Context, src string) (*types.AnalysisOutcome, error) {
	unlock, err := p.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	runID := uuid.NewString()

	rec := p.reusable(src)
	if rec != nil {
		p.logf("pipeline: reusing extraction for %s\n", rec.Company())
		if src == "" {
			if state, _ := p.Checkpoint.Load(); state != nil {
				src = state.SourceReference
			}
		}
	} else {
		if src == "" {
			return nil, fmt.Errorf("%w: no source and no fresh checkpoint", ErrSourceUnavailable)
		}
		if rec, err = p.extract(ctx, src); err != nil {
			return nil, err
		}
		if err := p.Checkpoint.Save(&types.PipelineState{RunID: runID, DeckRecord: *rec, SourceReference: src}); err != nil {
			p.logf("pipeline: %v\n", err)
		}
	}

	company := rec.Company()
	p.notify(ctx, fmt.Sprintf(msgAck, company))

	p.logf("pipeline: researching %s\n", company)
	var results types.ResearchResultSet
	if p.Researcher != nil {
		results = p.Researcher.Run(ctx, research.BuildQueries(rec))
	}

	orch := p.NewAnalysis()
	if p.Progress != nil && p.Target != "" {
		orch.Progress = func(ctx context.Context, msg string) {
			p.Progress.Notify(ctx, p.Target, msg)
		}
	}
	outcome, err := orch.Run(ctx, rec, results)
	if err != nil {
		return nil, fmt.Errorf("running analysis: %w", err)
	}

	state := &types.PipelineState{
		RunID:           runID,
		DeckRecord:      *rec,
		Outcome:         outcome,
		SourceReference: src,
	}
	if err := p.Checkpoint.Save(state); err != nil {
		p.logf("pipeline: %v\n", err)
	}

	switch {
	case p.Deliverer == nil:
	case outcome.Degraded(p.DegradedThreshold) && !p.DeliverDegraded:
		p.logf("pipeline: %d of %d sections failed, delivery withheld\n", outcome.FailedCount(), len(outcome.Sections))
	default:
		p.Deliver(ctx, *rec, outcome)
	}

	p.logf("pipeline: done in %s, %s evaluation complete\n", time.Since(start).Round(time.Second), company)
	return outcome, nil
}

// Deliver hands an outcome to the deliverer and logs any failure.
func (p *Pipeline) Deliver(ctx context.Context, rec types.DeckRecord, outcome *types.AnalysisOutcome) {
	if p.Deliverer == nil {
		return
	}
	if err := p.Deliverer.Deliver(ctx, delivery.NewReport(rec, outcome)); err != nil {
		p.logf("pipeline: delivery: %v\n", err)
	}
}
