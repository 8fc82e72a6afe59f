// Package insight defines the analysis outputs: revenue categories,
// ranked anomalies, and the insights summary consumed by the reporting
// boundary.
package insight

import (
	"github.com/payment-recon/internal/domain/payment"
)

// Severity ranks how urgently an anomaly needs attention
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// AnomalyType identifies what kind of reconciliation finding produced an
// anomaly record
type AnomalyType string

const (
	AnomalyMissingSettlement AnomalyType = "missing_settlement"
	AnomalyFeeDiscrepancy    AnomalyType = "fee_discrepancy"
	AnomalyTimingDelay       AnomalyType = "timing_delay"
	AnomalyGhostSettlement   AnomalyType = "ghost_settlement"
)

// Category buckets missing revenue by root cause. A record may fall into
// more than one category; categories are computed independently.
type Category string

const (
	CategoryUnsettledAuthorizations Category = "unsettled_authorizations"
	CategoryMissingSettlements      Category = "missing_settlements"
	CategoryUnexpectedFees          Category = "unexpected_fees"
	CategoryChargebacks             Category = "chargebacks"
	CategoryRefunds                 Category = "refunds"
	CategoryTimingDelays            Category = "timing_delays"
	CategoryGhostSettlements        Category = "ghost_settlements"
)

// AllCategories lists every category in reporting order
var AllCategories = []Category{
	CategoryUnsettledAuthorizations,
	CategoryMissingSettlements,
	CategoryUnexpectedFees,
	CategoryChargebacks,
	CategoryRefunds,
	CategoryTimingDelays,
	CategoryGhostSettlements,
}

// Severity returns the fixed severity of a category. Severity is a function
// of the category alone, never of the dollar amount.
func (c Category) Severity() Severity {
	switch c {
	case CategoryMissingSettlements:
		return SeverityCritical
	case CategoryUnexpectedFees, CategoryGhostSettlements:
		return SeverityHigh
	case CategoryTimingDelays, CategoryChargebacks:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Description returns the human-readable explanation of a category
func (c Category) Description() string {
	switch c {
	case CategoryUnsettledAuthorizations:
		return "Authorized but not captured transactions (abandoned carts - expected)"
	case CategoryMissingSettlements:
		return "Captured transactions with no settlement record"
	case CategoryUnexpectedFees:
		return "Settlement amounts differ from expected fees"
	case CategoryChargebacks:
		return "Transactions reversed due to customer disputes"
	case CategoryRefunds:
		return "Transactions refunded to customers"
	case CategoryTimingDelays:
		return "Settlements delayed beyond expected timeframe"
	case CategoryGhostSettlements:
		return "Settlements with no matching transaction record"
	default:
		return ""
	}
}

// Anomaly is one flagged finding, traceable to exactly one source
// transaction or ghost settlement. USD amounts are rounded to cents for
// reporting; the list order is the priority ranking.
type Anomaly struct {
	ID              string         `json:"anomaly_id"`
	TransactionID   string         `json:"transaction_id"`
	SettlementID    string         `json:"settlement_id,omitempty"`
	Date            string         `json:"date"`
	Provider        string         `json:"provider"`
	Method          payment.Method `json:"payment_method,omitempty"`
	Country         string         `json:"country"`
	Type            AnomalyType    `json:"anomaly_type"`
	Category        Category       `json:"category"`
	Amount          float64        `json:"amount"`
	ExpectedAmount  *float64       `json:"expected_amount,omitempty"`
	ActualAmount    *float64       `json:"actual_amount,omitempty"`
	Discrepancy     *float64       `json:"discrepancy,omitempty"`
	Currency        string         `json:"currency"`
	AmountUSD       float64        `json:"amount_usd"`
	DaysDelayed     *int           `json:"days_delayed,omitempty"`
	Severity        Severity       `json:"severity"`
	SuggestedAction string         `json:"suggested_action"`
}

// CategoryStat aggregates one revenue category across a run
type CategoryStat struct {
	Count       int      `json:"count"`
	AmountUSD   float64  `json:"amount_usd"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}
