package analyze

import (
	"fmt"
	"sort"
	"time"

	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
)

const maxRootCauses = 5

// buildInsights assembles the executive summary written to insights.json.
func (a *Analyzer) buildInsights(
	metrics insight.AggregateMetrics,
	categories map[insight.Category]insight.CategoryStat,
	patterns []string,
	records []recon.ReconciledRecord,
	generatedAt time.Time,
) insight.Insights {
	missing := categories[insight.CategoryMissingSettlements]
	fees := categories[insight.CategoryUnexpectedFees]
	delays := categories[insight.CategoryTimingDelays]
	totalImpact := missing.AmountUSD + fees.AmountUSD

	providers := make(map[string]struct{})
	countries := make(map[string]struct{})
	for i := range records {
		providers[records[i].Provider] = struct{}{}
		countries[records[i].Country] = struct{}{}
	}

	breakdown := func(c insight.Category) insight.BreakdownStat {
		stat := categories[c]
		pct := 0.0
		if totalImpact > 0 {
			pct = round1f(stat.AmountUSD / totalImpact * 100)
		}
		return insight.BreakdownStat{
			Count:      stat.Count,
			AmountUSD:  stat.AmountUSD,
			Severity:   stat.Severity,
			Percentage: pct,
		}
	}

	rootCauses := make([]insight.RootCause, 0, 3)
	if missing.AmountUSD > 0 {
		rootCauses = append(rootCauses, insight.RootCause{
			Cause:       "Missing Settlements",
			ImpactUSD:   missing.AmountUSD,
			Description: fmt.Sprintf("%d captured transactions have no settlement record", missing.Count),
		})
	}
	if fees.AmountUSD > 0 {
		rootCauses = append(rootCauses, insight.RootCause{
			Cause:       "Unexpected Fees",
			ImpactUSD:   fees.AmountUSD,
			Description: fmt.Sprintf("%d transactions with fee discrepancies", fees.Count),
		})
	}
	if delays.Count > 0 {
		rootCauses = append(rootCauses, insight.RootCause{
			Cause:       "Settlement Delays",
			ImpactUSD:   delays.AmountUSD,
			Description: fmt.Sprintf("%d settlements delayed beyond normal timeframe", delays.Count),
		})
	}
	sort.SliceStable(rootCauses, func(i, j int) bool {
		return rootCauses[i].ImpactUSD > rootCauses[j].ImpactUSD
	})
	if len(rootCauses) > maxRootCauses {
		rootCauses = rootCauses[:maxRootCauses]
	}

	return insight.Insights{
		GeneratedAt: generatedAt.Format(payment.TimestampLayout),
		Summary: insight.Summary{
			TotalMissingRevenueUSD:    round2f(totalImpact),
			TotalTransactionsAnalyzed: len(records),
			CriticalIssues:            missing.Count + fees.Count,
			ProvidersAnalyzed:         len(providers),
			CountriesAnalyzed:         len(countries),
		},
		CategoryBreakdown: insight.CategoryBreakdown{
			UnsettledAuthorizations: breakdown(insight.CategoryUnsettledAuthorizations),
			MissingSettlements:      breakdown(insight.CategoryMissingSettlements),
			UnexpectedFees:          breakdown(insight.CategoryUnexpectedFees),
			Chargebacks:             breakdown(insight.CategoryChargebacks),
			Refunds:                 breakdown(insight.CategoryRefunds),
			TimingDelays:            breakdown(insight.CategoryTimingDelays),
			GhostSettlements:        breakdown(insight.CategoryGhostSettlements),
		},
		TopRootCauses:         rootCauses,
		ProviderPerformance:   topDimensions(metrics.ByProvider, 5),
		PaymentMethodAnalysis: metrics.ByMethod,
		CountryAnalysis:       metrics.ByCountry,
		Patterns:              patterns,
		Recommendations:       a.recommendations(missing),
	}
}

// topDimensions returns the first n entries of an already-ranked dimension
// slice.
func topDimensions(dims []insight.DimensionMetrics, n int) []insight.DimensionMetrics {
	if len(dims) > n {
		return dims[:n]
	}
	return dims
}

// recommendations lists the fixed follow-up actions. Only the first line
// varies with the run's numbers.
func (a *Analyzer) recommendations(missing insight.CategoryStat) []insight.Recommendation {
	return []insight.Recommendation{
		{
			Priority: "Critical",
			Action: fmt.Sprintf("Immediately contact providers about %d missing settlements worth $%s USD",
				missing.Count, formatUSD(missing.AmountUSD)),
		},
		{
			Priority: "High",
			Action:   "Review and renegotiate fee agreements with providers showing unexpected fee deductions",
		},
		{
			Priority: "High",
			Action:   "Implement automated daily reconciliation to catch settlement gaps faster",
		},
		{
			Priority: "Medium",
			Action:   "Establish SLAs with payment providers for settlement timing and investigate delays",
		},
		{
			Priority: "Medium",
			Action:   "Set up alerts for transactions that exceed expected settlement windows",
		},
	}
}
