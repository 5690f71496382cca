// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pdiddy/deal-analyzer/pkg/types"
)

//go:embed schema.json
var recordSchema string

var schemaLoader = gojsonschema.NewStringLoader(recordSchema)

// ParseFailure explains why a model response could not become a record.
type ParseFailure struct {
	Reason string

	// Raw is the response text, truncated for logging.
	Raw string
}

func (f *ParseFailure) Error() string {
	return "parsing deck record: " + f.Reason
}

// ParseResult is either a decoded record or a failure, never both.
type ParseResult struct {
	Record  *types.DeckRecord
	Failure *ParseFailure
}

// OK reports whether parsing produced a record.
func (r ParseResult) OK() bool {
	return r.Failure == nil && r.Record != nil
}

func failed(reason, raw string) ParseResult {
	if len(raw) > 500 {
		raw = raw[:500]
	}
	return ParseResult{Failure: &ParseFailure{Reason: reason, Raw: raw}}
}

// ParseRecord locates the first top-level JSON object in text, validates it
// against the record schema, and decodes it. Surrounding prose and markdown
// fences are ignored. Placeholder values ("null", "n/a", "not mentioned",
// blank) become absent fields.
func ParseRecord(text string) ParseResult {
	obj, ok := FirstJSONObject(text)
	if !ok {
		return failed("no JSON object in response", text)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(obj))
	if err != nil {
		return failed(fmt.Sprintf("invalid JSON: %v", err), obj)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return failed("schema mismatch: "+strings.Join(msgs, "; "), obj)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return failed(fmt.Sprintf("decoding JSON: %v", err), obj)
	}

	rec := &types.DeckRecord{
		CompanyName:     scalar(fields["company_name"]),
		ProductOverview: scalar(fields["product_overview"]),
		ProblemSolution: scalar(fields["problem_solution"]),
		KeyCapabilities: scalar(fields["key_capabilities"]),
		TeamBackground:  scalar(fields["team_background"]),
		GTMStrategy:     scalar(fields["gtm_strategy"]),
		Traction:        scalar(fields["traction"]),
		Fundraising:     scalar(fields["fundraising"]),
		Industry:        scalar(fields["industry"]),
		BusinessModel:   scalar(fields["business_model"]),
		TargetCustomers: scalar(fields["target_customers"]),
		Location:        scalar(fields["location"]),
		Competitors:     list(fields["competitors_mentioned"]),
		Founders:        list(fields["founder_names"]),
	}
	return ParseResult{Record: rec}
}

// placeholders are model outputs that mean "not in the deck".
var placeholders = map[string]bool{
	"":              true,
	"null":          true,
	"none":          true,
	"n/a":           true,
	"na":            true,
	"unknown":       true,
	"not mentioned": true,
	"not specified": true,
	"not provided":  true,
}

func isPlaceholder(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	return placeholders[s]
}

// scalar normalizes a decoded JSON value to an optional string. Arrays are
// joined with ", ".
func scalar(v any) *string {
	switch t := v.(type) {
	case string:
		if isPlaceholder(t) {
			return nil
		}
		return types.Str(t)
	case float64:
		return types.Str(strconv.FormatFloat(t, 'f', -1, 64))
	case []any:
		items := list(t)
		if len(items) == 0 {
			return nil
		}
		return types.Str(strings.Join(items, ", "))
	default:
		return nil
	}
}

// list normalizes a decoded JSON value to a string list. A single string is
// split on commas.
func list(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := scalar(item); s != nil {
				raw = append(raw, *s)
			}
		}
	case string:
		raw = strings.Split(t, ",")
	}

	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if !isPlaceholder(s) {
			out = append(out, s)
		}
	}
	return out
}

// FirstJSONObject returns the first balanced top-level {...} in text. Braces
// inside JSON strings are skipped.
func FirstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if end, ok := matchBrace(text, start); ok {
			return text[start : end+1], true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
