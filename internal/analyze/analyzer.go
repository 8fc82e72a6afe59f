// Package analyze turns reconciled records and ghost settlements into
// aggregate metrics, categorized revenue impacts, a ranked anomaly list,
// and an executive insights summary.
package analyze

import (
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/config"
	"github.com/payment-recon/internal/currency"
	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
	"github.com/payment-recon/internal/reconcile"
)

var hundred = decimal.NewFromInt(100)

// Report bundles every product of one analysis pass.
type Report struct {
	Metrics   insight.AggregateMetrics
	Insights  insight.Insights
	Anomalies []insight.Anomaly
}

// Analyzer computes the analysis outputs. It holds no state between runs;
// identical input yields identical output.
type Analyzer struct {
	converter *currency.Converter
	topN      int
	logger    *slog.Logger
}

// NewAnalyzer builds an analyzer with the configured anomaly-list cap.
func NewAnalyzer(converter *currency.Converter, cfg *config.AnalysisConfig, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		converter: converter,
		topN:      cfg.TopAnomalies,
		logger:    logger,
	}
}

// Analyze runs the full analysis over one reconciliation result. The caller
// supplies the generation timestamp so the output is reproducible in tests.
func (a *Analyzer) Analyze(result *reconcile.Result, generatedAt time.Time) *Report {
	metrics := a.aggregateMetrics(result.Records)
	categories := a.categorize(result.Records, result.Ghosts)
	patterns := a.identifyPatterns(result.Records, categories)
	anomalies := a.prioritize(a.collectAnomalies(result.Records, result.Ghosts))
	insights := a.buildInsights(metrics, categories, patterns, result.Records, generatedAt)

	a.logger.Info("analysis complete",
		"records", len(result.Records),
		"ghosts", len(result.Ghosts),
		"anomalies", len(anomalies),
		"critical_issues", insights.Summary.CriticalIssues,
		"total_missing_revenue_usd", insights.Summary.TotalMissingRevenueUSD,
	)

	return &Report{Metrics: metrics, Insights: insights, Anomalies: anomalies}
}

// categorize computes the seven revenue categories. Categories are not
// mutually exclusive: a discrepant and delayed record counts in both
// unexpected_fees and timing_delays.
func (a *Analyzer) categorize(
	records []recon.ReconciledRecord,
	ghosts []recon.GhostSettlement,
) map[insight.Category]insight.CategoryStat {
	counts := make(map[insight.Category]int)
	amounts := make(map[insight.Category]decimal.Decimal)
	add := func(c insight.Category, usd decimal.Decimal) {
		counts[c]++
		amounts[c] = amounts[c].Add(usd)
	}

	for i := range records {
		rec := &records[i]
		usd := a.converter.ToUSD(rec.Amount, rec.Currency)

		switch rec.Status {
		case payment.StatusApproved:
			add(insight.CategoryUnsettledAuthorizations, usd)
		case payment.StatusChargedback:
			add(insight.CategoryChargebacks, usd)
		case payment.StatusRefunded:
			add(insight.CategoryRefunds, usd)
		}

		switch rec.SettlementStatus {
		case recon.SettlementStatusMissing:
			add(insight.CategoryMissingSettlements, usd)
		case recon.SettlementStatusDiscrepancy:
			if rec.DiscrepancyAmount != nil {
				add(insight.CategoryUnexpectedFees, a.converter.ToUSD(rec.DiscrepancyAmount.Abs(), rec.Currency))
			}
		}

		if rec.TimingAnomaly {
			add(insight.CategoryTimingDelays, usd)
		}
	}

	for i := range ghosts {
		add(insight.CategoryGhostSettlements, a.converter.ToUSD(ghosts[i].Amount, ghosts[i].Currency))
	}

	stats := make(map[insight.Category]insight.CategoryStat, len(insight.AllCategories))
	for _, c := range insight.AllCategories {
		stats[c] = insight.CategoryStat{
			Count:       counts[c],
			AmountUSD:   round2(amounts[c]),
			Severity:    c.Severity(),
			Description: c.Description(),
		}
	}
	return stats
}

// round2 converts a decimal USD amount to the float64 representation used
// in the JSON outputs, rounded to cents.
func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// round2f re-rounds a float64 sum of already-rounded amounts.
func round2f(v float64) float64 {
	return math.Round(v*100) / 100
}

// round1f rounds to one decimal place, used for percentages.
func round1f(v float64) float64 {
	return math.Round(v*10) / 10
}
