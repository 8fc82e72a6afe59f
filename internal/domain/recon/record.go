// Package recon defines the reconciliation outcome types: one reconciled
// record per ledger transaction and one ghost record per settlement that
// references no known transaction.
package recon

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/domain/payment"
)

// SettlementStatus classifies the reconciliation outcome of a transaction
type SettlementStatus string

const (
	SettlementStatusMatched         SettlementStatus = "matched"
	SettlementStatusMissing         SettlementStatus = "missing"
	SettlementStatusMissingExpected SettlementStatus = "missing_expected"
	SettlementStatusDiscrepancy     SettlementStatus = "discrepancy"
	SettlementStatusNotApplicable   SettlementStatus = "not_applicable"
)

// ReconciledRecord is a transaction augmented with its reconciliation
// outcome. Records are created once per pipeline run and never mutated.
type ReconciledRecord struct {
	payment.Transaction

	ExpectedSettledAmount  decimal.Decimal  `json:"expected_settled_amount"`
	SettlementID           string           `json:"settlement_id,omitempty"`
	SettlementDate         *time.Time       `json:"settlement_date,omitempty"`
	ActualSettledAmount    *decimal.Decimal `json:"actual_settled_amount,omitempty"`
	DiscrepancyAmount      *decimal.Decimal `json:"discrepancy_amount,omitempty"`
	DiscrepancyPercent     *decimal.Decimal `json:"discrepancy_percent,omitempty"`
	SettlementStatus       SettlementStatus `json:"settlement_status"`
	TimingAnomaly          bool             `json:"timing_anomaly"`
	DaysToSettle           *int             `json:"days_to_settle,omitempty"`
	ExpectedSettlementDate time.Time        `json:"expected_settlement_date"`
}

// Settled reports whether a settlement row was matched to the transaction
func (r *ReconciledRecord) Settled() bool {
	return r.SettlementID != ""
}

// GhostSettlement is a settlement whose referenced transaction id does not
// exist in the transaction set
type GhostSettlement struct {
	payment.Settlement

	AnomalyType string `json:"anomaly_type"`
}

// GhostAnomalyType tags every ghost settlement row in the output
const GhostAnomalyType = "ghost_settlement"

// NewGhost wraps a settlement as a ghost record
func NewGhost(s payment.Settlement) GhostSettlement {
	return GhostSettlement{Settlement: s, AnomalyType: GhostAnomalyType}
}
