// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sections defines the fixed, ordered list of analysis tasks: eleven
// independent sections followed by one synthesis task that consumes all of
// their results.
package sections

import (
	"bytes"
	"fmt"
	"io"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deal-analyzer/pkg/types"
)

const (
	sectionTokens   = 1500
	synthesisTokens = 2500
)

// Task is one unit of analysis.
type Task struct {
	ID        string               `yaml:"id"`
	Title     string               `yaml:"title"`
	Ordinal   int                  `yaml:"ordinal"`
	Research  []types.QueryPurpose `yaml:"research,omitempty"`
	MaxTokens int                  `yaml:"max_tokens"`
	Synthesis bool                 `yaml:"synthesis,omitempty"`

	// Focus lists the points the section must address.
	Focus []string `yaml:"focus"`

	// Verdict is the closing judgement line requested from the model.
	Verdict string `yaml:"verdict,omitempty"`

	Prompt *template.Template `yaml:"-"`
}

// Render executes the task's prompt template.
func (t *Task) Render(data PromptData) (string, error) {
	data.Task = t
	var buf bytes.Buffer
	if err := t.Prompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.ID, err)
	}
	return buf.String(), nil
}

func section(ordinal int, id, title string, research []types.QueryPurpose, verdict string, focus ...string) Task {
	return Task{
		ID:        id,
		Title:     fmt.Sprintf("%d. %s", ordinal, title),
		Ordinal:   ordinal,
		Research:  research,
		MaxTokens: sectionTokens,
		Focus:     focus,
		Verdict:   verdict,
		Prompt:    sectionTmpl,
	}
}

var registry = []Task{
	section(1, "market_sizing", "Market Sizing & TAM Analysis",
		[]types.QueryPurpose{types.PurposeMarketSize, types.PurposeIndustryTrends},
		"Verdict: is this a venture-scale market (Yes/No), with confidence.",
		"TAM with sources and method",
		"SAM given geography, channel, and product scope",
		"SOM reachable in three to five years",
		"Five-year growth rate and its drivers",
		"Segment breakdown with sizes",
		"Bottom-up check from price times reachable customers",
		"Reasons the market may be smaller than claimed",
	),
	section(2, "competitive_landscape", "Competitive Landscape Analysis",
		[]types.QueryPurpose{types.PurposeCompetitors, types.PurposeCompanyNews},
		"Verdict: can the company win this market (Yes/No), with confidence.",
		"Direct competitors with funding, stage, and differentiation",
		"Indirect alternatives customers use today",
		"Positioning on price against capability",
		"Each competitor's moat",
		"Unserved gaps the company could own",
		"Threat rating per competitor",
		"Recent competitor funding, acquisitions, or pivots",
	),
	section(3, "founder_background", "Founder Background Check",
		[]types.QueryPurpose{types.PurposeFounderBackground, types.PurposeCompanyNews},
		"Verdict: founder-market fit score from 1 to 10, with confidence.",
		"Each founder's prior roles and companies",
		"Domain expertise relevant to this problem",
		"Prior exits or failures and what they taught",
		"Gaps in the founding team",
		"Signals of execution speed",
		"Red flags worth a reference check",
	),
	section(4, "unit_economics", "Unit Economics Deep Dive",
		[]types.QueryPurpose{types.PurposeUnitEconomics, types.PurposeMarketSize},
		"Verdict: are the unit economics venture-backable (Yes/No), with confidence.",
		"Customer acquisition cost by channel",
		"Lifetime value and its assumptions",
		"LTV to CAC ratio against benchmarks",
		"Gross margin and its trajectory",
		"Payback period",
		"Contribution margin at scale",
	),
	section(5, "product_market_fit", "Product-Market Fit Assessment",
		[]types.QueryPurpose{types.PurposeCompetitors, types.PurposeIndustryTrends},
		"Verdict: stage of product-market fit (pre, emerging, strong), with confidence.",
		"Severity and frequency of the problem",
		"Evidence of pull from customers",
		"Retention or engagement signals",
		"Ideal customer profile clarity",
		"Willingness to pay",
		"What would prove or disprove fit in six months",
	),
	section(6, "traction_growth", "Traction & Growth Metrics",
		[]types.QueryPurpose{types.PurposeCompanyNews, types.PurposeUnitEconomics},
		"Verdict: is the growth rate top quartile for the stage (Yes/No), with confidence.",
		"Revenue or usage figures and their growth rate",
		"Customer count and concentration",
		"Pipeline and conversion",
		"Comparison to stage benchmarks",
		"Quality of the growth (organic against paid)",
		"Leading indicators to watch",
	),
	section(7, "financial_model", "Financial Model Review",
		[]types.QueryPurpose{types.PurposeUnitEconomics, types.PurposeComparableExits},
		"Verdict: are the projections credible (Yes/No), with confidence.",
		"Burn rate and runway",
		"Use of funds from this round",
		"Plausibility of revenue projections",
		"Key cost drivers",
		"Path to profitability",
		"Sensitivity to the main assumptions",
	),
	section(8, "technology_ip", "Technology & IP Assessment",
		[]types.QueryPurpose{types.PurposeCompetitors, types.PurposeIndustryTrends},
		"Verdict: is the technology a durable advantage (Yes/No), with confidence.",
		"Core technology and architecture",
		"Difficulty of replicating it",
		"Patents, data assets, or proprietary processes",
		"Technical risks and dependencies",
		"Engineering team depth",
		"Scalability limits",
	),
	section(9, "gtm_strategy", "Go-to-Market Strategy Evaluation",
		[]types.QueryPurpose{types.PurposeCompetitors, types.PurposeMarketSize},
		"Verdict: is the go-to-market motion repeatable (Yes/No), with confidence.",
		"Target segment and buyer",
		"Primary channels and their economics",
		"Sales cycle length",
		"Pricing strategy",
		"Partnerships and distribution leverage",
		"Expansion path to adjacent segments",
	),
	section(10, "market_timing", "Market Timing & Trend Analysis",
		[]types.QueryPurpose{types.PurposeIndustryTrends, types.PurposeInvestorLandscape},
		"Verdict: is the timing early, right, or late, with confidence.",
		"Why now: the shifts that enable this company",
		"Regulatory or technology tailwinds",
		"Headwinds and cyclical risk",
		"Investor appetite in the sector",
		"Window before incumbents respond",
	),
	section(11, "exit_scenarios", "Exit Scenario & Return Analysis",
		[]types.QueryPurpose{types.PurposeComparableExits, types.PurposeInvestorLandscape},
		"Verdict: can this return the fund (Yes/No), with confidence.",
		"Likely acquirers and their rationale",
		"Comparable exits and multiples",
		"IPO feasibility",
		"Bear, base, and bull exit values",
		"Implied return multiple at the current round",
		"Time to liquidity",
	),
}

var synthesis = Task{
	ID:        "investment_memo",
	Title:     "12. Investment Memo Summary",
	Ordinal:   12,
	MaxTokens: synthesisTokens,
	Synthesis: true,
	Focus: []string{
		"Executive summary in three paragraphs: opportunity, solution and team, why now",
		"Recommendation (STRONG PASS, PASS, MONITOR, INVEST, STRONG INVEST) with conviction and rationale",
		"Investment thesis, or why the company cannot reach venture scale",
		"Top five strengths with evidence",
		"Top five risks with mitigations",
		"Deal terms relative to stage and traction",
		"Milestones needed for the next round",
		"Critical questions before proceeding",
		"Comparable companies and what their outcomes imply",
	},
	Prompt: synthesisTmpl,
}

// Sections returns the eleven non-synthesis tasks in execution order. The
// returned slice is a copy.
func Sections() []Task {
	out := make([]Task, len(registry))
	copy(out, registry)
	return out
}

// Synthesis returns the task that runs after every section.
func Synthesis() Task {
	return synthesis
}

// All returns every task in report order, synthesis last.
func All() []Task {
	return append(Sections(), synthesis)
}

// Lookup returns the task with the given ID.
func Lookup(id string) (Task, bool) {
	for _, t := range All() {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Dump writes the registry as YAML.
func Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(All()); err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	return enc.Close()
}
