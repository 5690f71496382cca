// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deal-analyzer pipeline:
// the extracted deck record, research queries and results, section results,
// the analysis outcome, the checkpointed pipeline state, and configuration.
package types

import (
	"fmt"
	"strings"
)

// DeckRecord holds the structured attributes extracted from a pitch deck.
// String fields are pointers so that "not found in the deck" is represented
// as absent (nil) rather than an empty placeholder.
type DeckRecord struct {
	CompanyName     *string `json:"company_name" yaml:"company_name,omitempty"`
	ProductOverview *string `json:"product_overview" yaml:"product_overview,omitempty"`
	ProblemSolution *string `json:"problem_solution" yaml:"problem_solution,omitempty"`
	KeyCapabilities *string `json:"key_capabilities" yaml:"key_capabilities,omitempty"`
	TeamBackground  *string `json:"team_background" yaml:"team_background,omitempty"`
	GTMStrategy     *string `json:"gtm_strategy" yaml:"gtm_strategy,omitempty"`
	Traction        *string `json:"traction" yaml:"traction,omitempty"`
	Fundraising     *string `json:"fundraising" yaml:"fundraising,omitempty"`
	Industry        *string `json:"industry" yaml:"industry,omitempty"`
	BusinessModel   *string `json:"business_model" yaml:"business_model,omitempty"`
	TargetCustomers *string `json:"target_customers" yaml:"target_customers,omitempty"`
	Location        *string `json:"location" yaml:"location,omitempty"`

	// Competitors lists competitor names mentioned in the deck.
	Competitors []string `json:"competitors_mentioned,omitempty" yaml:"competitors_mentioned,omitempty"`

	// Founders lists founder names in deck order.
	Founders []string `json:"founder_names,omitempty" yaml:"founder_names,omitempty"`
}

// unknownCompany is substituted in prompts and reports when no name is set.
const unknownCompany = "Unknown Company"

// Str returns a pointer to s, or nil when s is blank.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// value dereferences p, returning "" for nil.
func value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Usable reports whether the record carries a non-empty company name. No
// downstream phase runs on a record that is not usable.
func (d *DeckRecord) Usable() bool {
	return d != nil && strings.TrimSpace(value(d.CompanyName)) != ""
}

// Company returns the company name, or "Unknown Company" when absent.
func (d *DeckRecord) Company() string {
	if !d.Usable() {
		return unknownCompany
	}
	return strings.TrimSpace(*d.CompanyName)
}

// Field returns the value of a string field by its JSON name. Unknown names
// and absent fields return "".
func (d *DeckRecord) Field(name string) string {
	if d == nil {
		return ""
	}
	for _, f := range d.stringFields() {
		if f.key == name {
			return value(f.ptr)
		}
	}
	return ""
}

// PopulatedFields counts the fields that carry a value, lists included.
func (d *DeckRecord) PopulatedFields() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, f := range d.stringFields() {
		if f.ptr != nil {
			n++
		}
	}
	if len(d.Competitors) > 0 {
		n++
	}
	if len(d.Founders) > 0 {
		n++
	}
	return n
}

// WithCompanyName returns a copy of the record carrying a more authoritative
// company name discovered downstream. The receiver is not modified.
func (d DeckRecord) WithCompanyName(name string) DeckRecord {
	d.CompanyName = Str(name)
	d.Competitors = append([]string(nil), d.Competitors...)
	d.Founders = append([]string(nil), d.Founders...)
	return d
}

type labeledField struct {
	label string
	key   string
	ptr   *string
}

// stringFields lists the string attributes in report order.
func (d *DeckRecord) stringFields() []labeledField {
	return []labeledField{
		{"Company", "company_name", d.CompanyName},
		{"Product", "product_overview", d.ProductOverview},
		{"Problem/Solution", "problem_solution", d.ProblemSolution},
		{"Key Capabilities", "key_capabilities", d.KeyCapabilities},
		{"Team", "team_background", d.TeamBackground},
		{"GTM Strategy", "gtm_strategy", d.GTMStrategy},
		{"Traction", "traction", d.Traction},
		{"Fundraising", "fundraising", d.Fundraising},
		{"Industry", "industry", d.Industry},
		{"Business Model", "business_model", d.BusinessModel},
		{"Target Customers", "target_customers", d.TargetCustomers},
		{"Location", "location", d.Location},
	}
}

// Text renders the populated fields as "Label: value" lines for prompts and
// quick summaries. Absent fields are skipped.
func (d *DeckRecord) Text() string {
	if d == nil {
		return ""
	}
	var lines []string
	for _, f := range d.stringFields() {
		if f.ptr != nil && *f.ptr != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", f.label, *f.ptr))
		}
	}
	if len(d.Competitors) > 0 {
		lines = append(lines, "Competitors Mentioned: "+strings.Join(d.Competitors, ", "))
	}
	if len(d.Founders) > 0 {
		lines = append(lines, "Founders: "+strings.Join(d.Founders, ", "))
	}
	return strings.Join(lines, "\n")
}
