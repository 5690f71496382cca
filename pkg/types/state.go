// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DefaultFreshnessWindow is how long a checkpoint stays reusable.
const DefaultFreshnessWindow = 30 * time.Minute

// PipelineState is the checkpointed snapshot of one pipeline run. It is
// written after extraction and overwritten after analysis.
type PipelineState struct {
	// RunID identifies the invocation that wrote the state.
	RunID string `json:"run_id,omitempty"`

	DeckRecord DeckRecord `json:"deck_record"`

	// Outcome is nil until analysis completes.
	Outcome *AnalysisOutcome `json:"analysis_outcome,omitempty"`

	// SourceReference is the deck URL or path the record came from.
	SourceReference string `json:"source_reference,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Fresh reports whether the state is young enough to reuse at now. The
// freshness policy belongs to callers; the store returns raw state.
func (s *PipelineState) Fresh(now time.Time, window time.Duration) bool {
	if s == nil || s.Timestamp.IsZero() {
		return false
	}
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	age := now.Sub(s.Timestamp)
	return age >= 0 && age < window
}

// Reusable reports whether the state is fresh and carries a usable record.
func (s *PipelineState) Reusable(now time.Time, window time.Duration) bool {
	return s.Fresh(now, window) && s.DeckRecord.Usable()
}
