// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckRecordCompany(t *testing.T) {
	var nilRec *DeckRecord
	assert.False(t, nilRec.Usable())
	assert.Equal(t, "Unknown Company", nilRec.Company())

	rec := DeckRecord{CompanyName: Str("   ")}
	assert.Nil(t, rec.CompanyName, "Str drops blank values")
	assert.False(t, rec.Usable())

	rec = DeckRecord{CompanyName: Str(" Acme ")}
	assert.True(t, rec.Usable())
	assert.Equal(t, "Acme", rec.Company())
}

func TestDeckRecordFieldsAndText(t *testing.T) {
	rec := DeckRecord{
		CompanyName: Str("Acme"),
		Industry:    Str("Fintech"),
		Founders:    []string{"Ada", "Grace"},
	}
	assert.Equal(t, "Fintech", rec.Field("industry"))
	assert.Equal(t, "", rec.Field("traction"))
	assert.Equal(t, "", rec.Field("no_such_field"))
	assert.Equal(t, 3, rec.PopulatedFields())
	assert.Equal(t, "Company: Acme\nIndustry: Fintech\nFounders: Ada, Grace", rec.Text())
}

func TestDeckRecordJSONNulls(t *testing.T) {
	var rec DeckRecord
	require.NoError(t, json.Unmarshal([]byte(`{"company_name":"Acme","traction":null,"competitors_mentioned":["Beta"]}`), &rec))
	assert.Equal(t, "Acme", rec.Company())
	assert.Nil(t, rec.Traction)
	assert.Equal(t, []string{"Beta"}, rec.Competitors)
}

func TestWithCompanyNameCopies(t *testing.T) {
	orig := DeckRecord{CompanyName: Str("Acme"), Founders: []string{"Ada"}}
	renamed := orig.WithCompanyName("Acme Corp")
	renamed.Founders[0] = "Bob"

	assert.Equal(t, "Acme", orig.Company())
	assert.Equal(t, "Acme Corp", renamed.Company())
	assert.Equal(t, "Ada", orig.Founders[0])
}

func TestFailureMarker(t *testing.T) {
	m := FailureMarker("rate limited")
	assert.Equal(t, "Analysis failed: rate limited", m)
	assert.True(t, IsFailureMarker(m))
	assert.True(t, IsFailureMarker(FailureMarker("")))
	assert.False(t, IsFailureMarker("The analysis failed to convince."))
}

func TestAnalysisOutcome(t *testing.T) {
	o := &AnalysisOutcome{Sections: []SectionResult{
		NewSectionResult("a", "A", "fine"),
		NewSectionResult("b", "B", FailureMarker("boom")),
		NewSectionResult("c", "C", "also fine"),
	}}

	assert.Equal(t, 1, o.FailedCount())
	assert.Len(t, o.Succeeded(), 2)
	assert.Equal(t, "also fine", o.Text("c"))
	assert.Equal(t, "", o.Text("missing"))

	assert.False(t, o.Degraded(0), "zero threshold means every section")
	assert.True(t, o.Degraded(1))
	assert.False(t, o.Degraded(2))

	var empty *AnalysisOutcome
	assert.True(t, empty.Degraded(0))
	assert.Equal(t, 0, empty.FailedCount())
}

func TestPurposesOrder(t *testing.T) {
	q := ResearchQuerySet{
		PurposeUnitEconomics: "u",
		"zeta":               "z",
		PurposeMarketSize:    "m",
		"alpha":              "a",
		PurposeCompetitors:   "c",
	}
	assert.Equal(t, []QueryPurpose{PurposeMarketSize, PurposeCompetitors, PurposeUnitEconomics, "alpha", "zeta"}, q.Purposes())
}

func TestResearchResultSetCounts(t *testing.T) {
	r := ResearchResultSet{
		PurposeMarketSize:  {{Title: "a"}, {Title: "b"}},
		PurposeCompetitors: {},
		PurposeCompanyNews: {{Title: "c"}},
	}
	assert.Equal(t, 3, r.Total())
	assert.Equal(t, 2, r.Populated())
}

func TestPipelineStateFreshness(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &PipelineState{DeckRecord: DeckRecord{CompanyName: Str("Acme")}, Timestamp: now.Add(-10 * time.Minute)}

	assert.True(t, s.Fresh(now, 0))
	assert.True(t, s.Reusable(now, 30*time.Minute))
	assert.False(t, s.Fresh(now, 5*time.Minute))
	assert.False(t, s.Fresh(now.Add(-time.Hour), 0), "future timestamps are not fresh")

	s.DeckRecord = DeckRecord{}
	assert.False(t, s.Reusable(now, 0))

	var nilState *PipelineState
	assert.False(t, nilState.Fresh(now, 0))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "héé", Truncate("hééllo", 3))
}

func TestDefaultConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err, "defaults carry no API key")
	assert.Contains(t, err.Error(), "APIKey")

	cfg.Completion.APIKey = "k"
	require.NoError(t, cfg.Validate())

	cfg.Completion.Provider = "openai"
	assert.Error(t, cfg.Validate())
}

func TestDefaultConfigDomainsAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source.AllowedDomains[0] = "evil.example"
	assert.Equal(t, "docsend.com", DefaultAllowedDomains[0])
}

func TestGoogleBackendNeedsEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Completion.APIKey = "k"
	cfg.Research.Backend = SearchGoogle
	assert.Error(t, cfg.Validate())

	cfg.Research.EngineID = "engine-1"
	assert.NoError(t, cfg.Validate())
}
