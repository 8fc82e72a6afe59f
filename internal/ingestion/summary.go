package ingestion

import (
	"math"
	"time"

	"github.com/payment-recon/internal/domain/payment"
)

// Expected band for the settlement rate, in percent of captured
// transactions. Rates outside it usually mean a truncated input file.
const (
	expectedSettlementRateMin = 60.0
	expectedSettlementRateMax = 85.0
)

// Summary describes the shape of one loaded dataset pair.
type Summary struct {
	Transactions     int
	Captured         int
	Settlements      int
	SettlementRate   float64 // settlements per captured transaction, in percent, 1 decimal
	Providers        int
	Countries        int
	FirstTransaction time.Time
	LastTransaction  time.Time
	GhostReferences  int // distinct settlement references to unknown transactions
}

// ValidateDataset computes shape statistics over a loaded dataset and logs
// them, warning when a distribution looks off. Structural validity is
// already enforced row by row at load time; this pass judges the dataset as
// a whole.
func (l *Loader) ValidateDataset(transactions []payment.Transaction, settlements []payment.Settlement) Summary {
	summary := Summary{
		Transactions: len(transactions),
		Settlements:  len(settlements),
	}

	providers := make(map[string]struct{})
	countries := make(map[string]struct{})
	known := make(map[string]struct{}, len(transactions))
	for i := range transactions {
		txn := &transactions[i]
		known[txn.ID] = struct{}{}
		providers[txn.Provider] = struct{}{}
		countries[txn.Country] = struct{}{}
		if txn.Status == payment.StatusCaptured {
			summary.Captured++
		}
		if summary.FirstTransaction.IsZero() || txn.Timestamp.Before(summary.FirstTransaction) {
			summary.FirstTransaction = txn.Timestamp
		}
		if txn.Timestamp.After(summary.LastTransaction) {
			summary.LastTransaction = txn.Timestamp
		}
	}
	summary.Providers = len(providers)
	summary.Countries = len(countries)

	ghostRefs := make(map[string]struct{})
	for i := range settlements {
		if _, ok := known[settlements[i].TransactionID]; !ok {
			ghostRefs[settlements[i].TransactionID] = struct{}{}
		}
	}
	summary.GhostReferences = len(ghostRefs)

	var rate float64
	if summary.Captured > 0 {
		rate = float64(summary.Settlements) / float64(summary.Captured) * 100
	}
	summary.SettlementRate = math.Round(rate*10) / 10

	attrs := []any{
		"transactions", summary.Transactions,
		"captured", summary.Captured,
		"settlements", summary.Settlements,
		"settlement_rate_percent", summary.SettlementRate,
		"providers", summary.Providers,
		"countries", summary.Countries,
		"ghost_references", summary.GhostReferences,
	}
	if summary.Transactions > 0 {
		attrs = append(attrs,
			"first_transaction", summary.FirstTransaction.Format(payment.TimestampLayout),
			"last_transaction", summary.LastTransaction.Format(payment.TimestampLayout),
		)
	}
	l.logger.Info("dataset summary", attrs...)

	if summary.Captured > 0 && (rate < expectedSettlementRateMin || rate > expectedSettlementRateMax) {
		l.logger.Warn("settlement rate outside expected range",
			"settlement_rate_percent", summary.SettlementRate,
			"expected_min", expectedSettlementRateMin,
			"expected_max", expectedSettlementRateMax,
		)
	}
	if summary.Transactions > 0 && summary.Captured*2 < summary.Transactions {
		l.logger.Warn("low captured transaction share",
			"captured", summary.Captured,
			"transactions", summary.Transactions,
		)
	}

	return summary
}
