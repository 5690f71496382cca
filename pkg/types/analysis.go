// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// failurePrefix starts every failure marker. Delivery code looks for it to
// flag degraded sections.
const failurePrefix = "Analysis failed:"

// FailureMarker builds the sentinel text stored in place of a section result
// that could not be generated.
func FailureMarker(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error."
	}
	return failurePrefix + " " + reason
}

// IsFailureMarker reports whether text is a failure marker.
func IsFailureMarker(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), failurePrefix)
}

// SectionResult is the stored output of one section task.
type SectionResult struct {
	SectionID string `json:"section_id" yaml:"section_id"`
	Title     string `json:"title" yaml:"title"`
	Text      string `json:"text" yaml:"text"`
	Failed    bool   `json:"failed" yaml:"failed"`
}

// NewSectionResult records text for a section, marking it failed when the
// text is a failure marker.
func NewSectionResult(id, title, text string) SectionResult {
	return SectionResult{
		SectionID: id,
		Title:     title,
		Text:      text,
		Failed:    IsFailureMarker(text),
	}
}

// AnalysisOutcome is the complete report: every section result in registry
// order (synthesis last) plus the condensed TL;DR.
type AnalysisOutcome struct {
	Sections []SectionResult `json:"sections" yaml:"sections"`
	TLDR     string          `json:"tldr" yaml:"tldr"`
}

// Result returns the stored result for a section ID.
func (o *AnalysisOutcome) Result(id string) (SectionResult, bool) {
	if o == nil {
		return SectionResult{}, false
	}
	for _, s := range o.Sections {
		if s.SectionID == id {
			return s, true
		}
	}
	return SectionResult{}, false
}

// Text returns the stored text for a section ID, or "" when missing.
func (o *AnalysisOutcome) Text(id string) string {
	r, _ := o.Result(id)
	return r.Text
}

// FailedCount returns the number of sections holding a failure marker.
func (o *AnalysisOutcome) FailedCount() int {
	if o == nil {
		return 0
	}
	n := 0
	for _, s := range o.Sections {
		if s.Failed {
			n++
		}
	}
	return n
}

// Succeeded returns the sections that hold generated text.
func (o *AnalysisOutcome) Succeeded() []SectionResult {
	if o == nil {
		return nil
	}
	var out []SectionResult
	for _, s := range o.Sections {
		if !s.Failed {
			out = append(out, s)
		}
	}
	return out
}

// Degraded reports whether at least threshold sections failed. A threshold
// of zero or less means "every section failed".
func (o *AnalysisOutcome) Degraded(threshold int) bool {
	if o == nil || len(o.Sections) == 0 {
		return true
	}
	if threshold <= 0 {
		threshold = len(o.Sections)
	}
	return o.FailedCount() >= threshold
}
