// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package delivery renders an analysis outcome for its readers (the full
// markdown report, a chat summary, a CRM note) and hands it to deliverers.
package delivery

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/deal-analyzer/internal/sections"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

const (
	// ChatMemoLimit bounds the memo text in a chat summary.
	ChatMemoLimit = 2500

	// NoteMemoLimit bounds the memo text in a CRM note.
	NoteMemoLimit = 3000

	missingSection   = "Analysis not available for this section."
	missingSynthesis = "Synthesis not available."

	footer = "*This analysis was generated by an automated deal evaluation system. " +
		"All assessments should be validated through direct founder engagement " +
		"and independent due diligence.*"
)

// Report is an outcome ready for rendering.
type Report struct {
	Record  types.DeckRecord
	Outcome *types.AnalysisOutcome
	Date    time.Time
}

// NewReport stamps a report with the current date.
func NewReport(rec types.DeckRecord, outcome *types.AnalysisOutcome) Report {
	return Report{Record: rec, Outcome: outcome, Date: time.Now()}
}

func (r Report) company() string { return r.Record.Company() }

func (r Report) memo() string { return r.Outcome.Text(sections.Synthesis().ID) }

func (r Report) tldr() string {
	if r.Outcome == nil {
		return ""
	}
	return strings.TrimSpace(r.Outcome.TLDR)
}

// Subject is the email subject line.
func (r Report) Subject() string {
	return "Deal Evaluation: " + r.company()
}

// FullReport renders the markdown report: TL;DR first, then the eleven
// sections in registry order, then the synthesis and a footer.
func FullReport(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Investment Analysis: %s\n", r.company())
	fmt.Fprintf(&b, "*Generated: %s | Deal Evaluation*\n\n", r.Date.Format("January 2, 2006"))

	if tldr := r.tldr(); tldr != "" {
		fmt.Fprintf(&b, "**TL;DR:** %s\n\n", tldr)
	}
	b.WriteString("---\n\n")

	for _, task := range sections.Sections() {
		text := r.Outcome.Text(task.ID)
		if strings.TrimSpace(text) == "" {
			text = missingSection
		}
		b.WriteString(text)
		b.WriteString("\n\n---\n\n")
	}

	memo := r.memo()
	if strings.TrimSpace(memo) == "" {
		memo = missingSynthesis
	}
	b.WriteString(memo)
	b.WriteString("\n\n---\n\n")
	b.WriteString(footer)
	return b.String()
}

// ChatSummary renders the short message sent to chat: TL;DR plus the memo
// cut to ChatMemoLimit characters.
func ChatSummary(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Deal Evaluation: %s*\n%s\n\n", r.company(), r.Date.Format("January 2, 2006"))
	fmt.Fprintf(&b, "*TL;DR:* %s\n\n", r.tldr())
	b.WriteString(types.Truncate(r.memo(), ChatMemoLimit))
	b.WriteString("\n\n---\n_Full 12-section report sent separately._")
	return b.String()
}

// CRMNote renders the condensed note stored with the evaluation log.
func CRMNote(r Report) string {
	memo := r.memo()
	if memo == "" {
		memo = "No analysis available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "DEAL EVALUATION: %s (AI-Generated, %s)\n\n", r.company(), r.Date.Format("Jan 02 2006"))
	if tldr := r.tldr(); tldr != "" {
		fmt.Fprintf(&b, "TL;DR: %s\n\n", tldr)
	}
	b.WriteString(types.Truncate(memo, NoteMemoLimit))
	if len([]rune(memo)) > NoteMemoLimit {
		b.WriteString("\n\n[Full 12-section analysis available in the report]")
	}
	return b.String()
}

// QuickSummary renders the quick-pass message: the extracted attributes and
// a prompt to request the full evaluation.
func QuickSummary(rec types.DeckRecord) string {
	return fmt.Sprintf("*Quick Analysis: %s*\n\n%s\n\n---\nWant the full 12-section investment report? Run `deal-analyzer evaluate`.",
		rec.Company(), rec.Text())
}
