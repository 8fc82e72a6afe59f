package insight

import "github.com/payment-recon/internal/domain/payment"

// OverallMetrics summarizes the whole reconciled set in USD
type OverallMetrics struct {
	TotalTransactions    int     `json:"total_transactions"`
	TotalAmountUSD       float64 `json:"total_amount_usd"`
	TotalSettledUSD      float64 `json:"total_settled_usd"`
	MissingRevenueUSD    float64 `json:"missing_revenue_usd"`
	DiscrepancyAmountUSD float64 `json:"discrepancy_amount_usd"`
	TotalDiscrepancyUSD  float64 `json:"total_discrepancy_usd"`
}

// DimensionMetrics aggregates one slice of the reconciled set (a single
// provider, payment method, or country). Exactly one of the three name
// fields is set.
type DimensionMetrics struct {
	Provider               string         `json:"provider,omitempty"`
	Method                 payment.Method `json:"payment_method,omitempty"`
	Country                string         `json:"country,omitempty"`
	TotalTransactions      int            `json:"total_transactions"`
	TotalVolumeUSD         float64        `json:"total_volume_usd"`
	TotalSettledUSD        float64        `json:"total_settled_usd"`
	MissingSettlements     int            `json:"missing_settlements"`
	MissingRevenueUSD      float64        `json:"missing_revenue_usd"`
	TotalDiscrepancyUSD    float64        `json:"total_discrepancy_usd"`
	DiscrepancyRatePercent float64        `json:"discrepancy_rate_percent"`
}

// TimeSeriesPoint aggregates one calendar day of transaction activity
type TimeSeriesPoint struct {
	Date                   string  `json:"date"`
	TotalTransactions      int     `json:"total_transactions"`
	TotalVolumeUSD         float64 `json:"total_volume_usd"`
	TotalSettledUSD        float64 `json:"total_settled_usd"`
	MissingRevenueUSD      float64 `json:"missing_revenue_usd"`
	TotalDiscrepancyUSD    float64 `json:"total_discrepancy_usd"`
	DiscrepancyRatePercent float64 `json:"discrepancy_rate_percent"`
}

// AggregateMetrics holds every aggregation the analysis computes
type AggregateMetrics struct {
	Overall    OverallMetrics     `json:"overall"`
	ByProvider []DimensionMetrics `json:"by_provider"`
	ByMethod   []DimensionMetrics `json:"by_payment_method"`
	ByCountry  []DimensionMetrics `json:"by_country"`
	TimeSeries []TimeSeriesPoint  `json:"time_series"`
}

// BreakdownStat is a category entry in the insights summary
type BreakdownStat struct {
	Count      int      `json:"count"`
	AmountUSD  float64  `json:"amount_usd"`
	Severity   Severity `json:"severity"`
	Percentage float64  `json:"percentage"`
}

// CategoryBreakdown lists every category in a fixed serialization order so
// repeated runs produce identical output bytes
type CategoryBreakdown struct {
	UnsettledAuthorizations BreakdownStat `json:"unsettled_authorizations"`
	MissingSettlements      BreakdownStat `json:"missing_settlements"`
	UnexpectedFees          BreakdownStat `json:"unexpected_fees"`
	Chargebacks             BreakdownStat `json:"chargebacks"`
	Refunds                 BreakdownStat `json:"refunds"`
	TimingDelays            BreakdownStat `json:"timing_delays"`
	GhostSettlements        BreakdownStat `json:"ghost_settlements"`
}

// RootCause names one driver of missing revenue
type RootCause struct {
	Cause       string  `json:"cause"`
	ImpactUSD   float64 `json:"impact_usd"`
	Description string  `json:"description"`
}

// Recommendation is a suggested follow-up action for the merchant
type Recommendation struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
}

// Summary carries the headline numbers of a run
type Summary struct {
	TotalMissingRevenueUSD    float64 `json:"total_missing_revenue_usd"`
	TotalTransactionsAnalyzed int     `json:"total_transactions_analyzed"`
	CriticalIssues            int     `json:"critical_issues"`
	ProvidersAnalyzed         int     `json:"providers_analyzed"`
	CountriesAnalyzed         int     `json:"countries_analyzed"`
}

// Insights is the executive summary written to insights.json
type Insights struct {
	GeneratedAt           string             `json:"generated_at"`
	Summary               Summary            `json:"summary"`
	CategoryBreakdown     CategoryBreakdown  `json:"category_breakdown"`
	TopRootCauses         []RootCause        `json:"top_root_causes"`
	ProviderPerformance   []DimensionMetrics `json:"provider_performance"`
	PaymentMethodAnalysis []DimensionMetrics `json:"payment_method_analysis"`
	CountryAnalysis       []DimensionMetrics `json:"country_analysis"`
	Patterns              []string           `json:"patterns"`
	Recommendations       []Recommendation   `json:"recommendations"`
}
