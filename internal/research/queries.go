// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// now supplies the reference year for time-scoped queries. Tests pin it.
var now = time.Now

// BuildQueries derives the research queries for a record. Each purpose is
// generated only when the fields it needs are populated:
//
//   - industry: market_size, industry_trends, investor_landscape,
//     comparable_exits, unit_economics
//   - company name: competitors, company_news
//   - founder names: founder_bg (first founder only)
//
// The result is deterministic for a given record and year.
func BuildQueries(rec *types.DeckRecord) types.ResearchQuerySet {
	q := types.ResearchQuerySet{}
	if rec == nil {
		return q
	}

	year := now().Year()
	industry := strings.TrimSpace(rec.Field("industry"))
	company := strings.TrimSpace(rec.Field("company_name"))

	if industry != "" {
		q[types.PurposeMarketSize] = fmt.Sprintf("%s market size TAM %d %d", industry, year-1, year)
		q[types.PurposeIndustryTrends] = fmt.Sprintf("%s trends growth drivers %d %d", industry, year-1, year)
		q[types.PurposeInvestorLandscape] = fmt.Sprintf("%s VC investment funding rounds %d", industry, year-1)
		q[types.PurposeComparableExits] = fmt.Sprintf("%s startup acquisitions exits M&A %d %d", industry, year-2, year-1)
		if isSubscription(rec.Field("business_model")) {
			q[types.PurposeUnitEconomics] = industry + " SaaS unit economics benchmarks LTV CAC"
		} else {
			q[types.PurposeUnitEconomics] = industry + " startup benchmarks unit economics metrics"
		}
	}

	if company != "" {
		q[types.PurposeCompetitors] = strings.Join(strings.Fields(fmt.Sprintf("%s competitors %s landscape", company, industry)), " ")
		q[types.PurposeCompanyNews] = fmt.Sprintf("%s startup funding news %d %d", company, year-1, year)
	}

	for _, f := range rec.Founders {
		if f = strings.TrimSpace(f); f != "" {
			q[types.PurposeFounderBackground] = f + " founder CEO startup background"
			break
		}
	}

	return q
}

func isSubscription(model string) bool {
	m := strings.ToLower(model)
	return strings.Contains(m, "saas") || strings.Contains(m, "subscription")
}
