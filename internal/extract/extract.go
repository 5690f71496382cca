// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns raw pitch-deck text into a structured DeckRecord
// with one lite-tier completion call.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"text/template"

	"github.com/pdiddy/deal-analyzer/internal/completion"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// MaxInputChars bounds the deck text sent to the model, counted in runes.
const MaxInputChars = 25000

// maxOutputTokens is the response budget for the extraction call.
const maxOutputTokens = 2000

// ErrUnusableRecord is returned when the model produced a record without a
// company name.
var ErrUnusableRecord = errors.New("extracted record has no company name")

// ErrCompletionFailed is returned when the extraction call itself failed.
var ErrCompletionFailed = errors.New("extraction call failed")

var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`Read the pitch deck content below and return the facts it states as a single JSON object with exactly these keys:

{
  "company_name": null,
  "product_overview": null,
  "problem_solution": null,
  "key_capabilities": null,
  "team_background": null,
  "gtm_strategy": null,
  "traction": null,
  "fundraising": null,
  "industry": null,
  "business_model": null,
  "target_customers": null,
  "location": null,
  "competitors_mentioned": [],
  "founder_names": []
}

Rules:
- Use short plain-text strings. Keep numbers and units as written in the deck.
- Leave a key as null (or an empty list) when the deck does not state it. Do not guess.
- industry is a short market label such as "logistics software" or "fintech".
- business_model names how the company charges, for example "SaaS subscription" or "marketplace take rate".
- Respond with the JSON object only.

Deck content:
{{.Content}}
`))

// Extractor produces DeckRecords from raw deck text.
type Extractor struct {
	Completer completion.Completer

	// Log receives progress lines. Nil discards them.
	Log io.Writer
}

// New creates an extractor backed by c.
func New(c completion.Completer, log io.Writer) *Extractor {
	return &Extractor{Completer: c, Log: log}
}

// Extract returns the record for raw, or nil with an error when the call
// failed, the response could not be parsed, or the record has no company
// name. No partially filled record is ever returned.
func (e *Extractor) Extract(ctx context.Context, raw string) (*types.DeckRecord, error) {
	log := e.Log
	if log == nil {
		log = io.Discard
	}

	prompt, err := renderPrompt(types.Truncate(raw, MaxInputChars))
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	text := e.Completer.Complete(ctx, completion.Request{
		Prompt:    prompt,
		Tier:      completion.TierLite,
		MaxTokens: maxOutputTokens,
	})
	if types.IsFailureMarker(text) {
		fmt.Fprintf(log, "extract: %s\n", text)
		return nil, fmt.Errorf("%w: %s", ErrCompletionFailed, text)
	}

	res := ParseRecord(text)
	if !res.OK() {
		fmt.Fprintf(log, "extract: %s\n", res.Failure.Reason)
		return nil, res.Failure
	}
	if !res.Record.Usable() {
		fmt.Fprintln(log, "extract: no company name in response")
		return nil, ErrUnusableRecord
	}

	fmt.Fprintf(log, "extract: %s (%d fields)\n", res.Record.Company(), res.Record.PopulatedFields())
	return res.Record, nil
}

func renderPrompt(content string) (string, error) {
	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, struct{ Content string }{Content: content}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
