// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// QueryPurpose names why a research query was issued. Section tasks declare
// the purposes they draw on.
type QueryPurpose string

const (
	PurposeMarketSize        QueryPurpose = "market_size"
	PurposeIndustryTrends    QueryPurpose = "industry_trends"
	PurposeInvestorLandscape QueryPurpose = "investor_landscape"
	PurposeCompetitors       QueryPurpose = "competitors"
	PurposeCompanyNews       QueryPurpose = "company_news"
	PurposeFounderBackground QueryPurpose = "founder_bg"
	PurposeComparableExits   QueryPurpose = "comparable_exits"
	PurposeUnitEconomics     QueryPurpose = "unit_economics"
)

// AllPurposes lists every purpose in the order queries are issued.
var AllPurposes = []QueryPurpose{
	PurposeMarketSize,
	PurposeIndustryTrends,
	PurposeInvestorLandscape,
	PurposeCompetitors,
	PurposeCompanyNews,
	PurposeFounderBackground,
	PurposeComparableExits,
	PurposeUnitEconomics,
}

// ResearchQuerySet maps each generated purpose to its single query string.
// A purpose is absent when its required deck field was not populated.
type ResearchQuerySet map[QueryPurpose]string

// Purposes returns the purposes present in the set in issue order. Purposes
// not listed in AllPurposes sort last, alphabetically.
func (q ResearchQuerySet) Purposes() []QueryPurpose {
	rank := make(map[QueryPurpose]int, len(AllPurposes))
	for i, p := range AllPurposes {
		rank[p] = i
	}
	out := make([]QueryPurpose, 0, len(q))
	for p := range q {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := rank[out[i]]
		rj, jok := rank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// ResultItem is one lightweight search hit.
type ResultItem struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// ResearchResultSet maps each purpose to its ordered search hits. It is
// populated once and never mutated afterwards; an empty list is valid.
type ResearchResultSet map[QueryPurpose][]ResultItem

// Total returns the number of hits across all purposes.
func (r ResearchResultSet) Total() int {
	n := 0
	for _, items := range r {
		n += len(items)
	}
	return n
}

// Populated returns how many purposes have at least one hit.
func (r ResearchResultSet) Populated() int {
	n := 0
	for _, items := range r {
		if len(items) > 0 {
			n++
		}
	}
	return n
}
