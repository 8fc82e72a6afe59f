// Package reconcile matches provider settlements to ledger transactions and
// classifies every transaction's settlement outcome.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/config"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
	"github.com/payment-recon/internal/fees"
	"github.com/payment-recon/internal/platform/workerpool"
)

var hundred = decimal.NewFromInt(100)

// Datasets below this size always run on the sequential path; partitioning
// overhead wins only on larger inputs.
const parallelCutover = 256

// Result holds the full outcome of one reconciliation pass.
type Result struct {
	Records []recon.ReconciledRecord
	Ghosts  []recon.GhostSettlement
}

// Engine performs settlement matching and classification. It is stateless
// across runs; all tuning comes from configuration at construction.
type Engine struct {
	feeModel        *fees.Model
	timing          config.TimingConfig
	thresholdAmount decimal.Decimal
	thresholdPct    decimal.Decimal
	pool            *workerpool.Pool
	logger          *slog.Logger
}

// NewEngine builds a reconciliation engine. A nil pool disables the
// partitioned path; every run is then sequential.
func NewEngine(
	feeModel *fees.Model,
	timing config.TimingConfig,
	thresholds config.DiscrepancyConfig,
	pool *workerpool.Pool,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		feeModel:        feeModel,
		timing:          timing,
		thresholdAmount: decimal.NewFromFloat(thresholds.ThresholdAmount),
		thresholdPct:    decimal.NewFromFloat(thresholds.ThresholdPercent),
		pool:            pool,
		logger:          logger,
	}
}

// Reconcile matches settlements to transactions by exact transaction id and
// classifies each transaction. Record order equals input transaction order.
// Settlements referencing no known transaction come back as ghosts, in
// input order, one per settlement id.
func (e *Engine) Reconcile(
	ctx context.Context,
	transactions []payment.Transaction,
	settlements []payment.Settlement,
) (*Result, error) {
	index := indexSettlements(settlements)

	records, err := e.classifyAll(ctx, transactions, index)
	if err != nil {
		return nil, err
	}

	ghosts := collectGhosts(transactions, settlements)

	matched := 0
	for i := range records {
		if records[i].Settled() {
			matched++
		}
	}

	e.logger.Info("reconciliation complete",
		"transactions", len(transactions),
		"settlements", len(settlements),
		"matched", matched,
		"ghosts", len(ghosts),
	)

	return &Result{Records: records, Ghosts: ghosts}, nil
}

// indexSettlements maps transaction id to the settlement that wins for it.
// Duplicate references are resolved deterministically: rows are visited in
// ascending settlement-id order, so the highest settlement id wins.
func indexSettlements(settlements []payment.Settlement) map[string]payment.Settlement {
	ordered := make([]payment.Settlement, len(settlements))
	copy(ordered, settlements)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	index := make(map[string]payment.Settlement, len(ordered))
	for _, s := range ordered {
		index[s.TransactionID] = s
	}
	return index
}

// collectGhosts returns settlements whose transaction id does not exist in
// the transaction set. Ghost detection is a pure set difference; it is
// independent of how duplicates were resolved during matching.
func collectGhosts(
	transactions []payment.Transaction,
	settlements []payment.Settlement,
) []recon.GhostSettlement {
	known := make(map[string]struct{}, len(transactions))
	for i := range transactions {
		known[transactions[i].ID] = struct{}{}
	}

	ghosts := make([]recon.GhostSettlement, 0)
	seen := make(map[string]struct{})
	for _, s := range settlements {
		if _, ok := known[s.TransactionID]; ok {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		ghosts = append(ghosts, recon.NewGhost(s))
	}
	return ghosts
}

func (e *Engine) classifyAll(
	ctx context.Context,
	transactions []payment.Transaction,
	index map[string]payment.Settlement,
) ([]recon.ReconciledRecord, error) {
	records := make([]recon.ReconciledRecord, len(transactions))

	if e.pool == nil || e.pool.Capacity() <= 1 || len(transactions) < parallelCutover {
		for i := range transactions {
			records[i] = e.classify(transactions[i], index)
		}
		return records, nil
	}

	// Partition the transaction slice across the pool. Each worker writes
	// only its own index range, so the merged output keeps input order
	// without coordination.
	chunk := (len(transactions) + e.pool.Capacity() - 1) / e.pool.Capacity()
	var wg sync.WaitGroup
	for start := 0; start < len(transactions); start += chunk {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}

		end := start + chunk
		if end > len(transactions) {
			end = len(transactions)
		}

		wg.Add(1)
		start, end := start, end
		if err := e.pool.Submit(func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				records[i] = e.classify(transactions[i], index)
			}
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to submit reconcile partition: %w", err)
		}
	}
	wg.Wait()

	return records, nil
}

// classify produces the reconciled record for one transaction.
func (e *Engine) classify(
	txn payment.Transaction,
	index map[string]payment.Settlement,
) recon.ReconciledRecord {
	timing := e.methodTiming(txn.Method)

	rec := recon.ReconciledRecord{
		Transaction:            txn,
		ExpectedSettledAmount:  e.feeModel.ExpectedSettlement(txn.Amount, txn.Method),
		ExpectedSettlementDate: expectedSettlementDate(txn.Timestamp, timing),
	}

	settlement, settled := index[txn.ID]
	if settled {
		rec.SettlementID = settlement.ID
		settledAt := settlement.Timestamp
		rec.SettlementDate = &settledAt

		actual := settlement.Amount
		rec.ActualSettledAmount = &actual

		diff := rec.ExpectedSettledAmount.Sub(actual)
		rec.DiscrepancyAmount = &diff
		if !rec.ExpectedSettledAmount.IsZero() {
			pct := diff.Div(rec.ExpectedSettledAmount).Mul(hundred)
			rec.DiscrepancyPercent = &pct
		}

		days := wholeDays(txn.Timestamp, settlement.Timestamp)
		rec.DaysToSettle = &days
		rec.TimingAnomaly = days > timing.ThresholdDays
	}

	rec.SettlementStatus = e.status(&rec, settled)
	return rec
}

// status applies the classification rules in precedence order.
func (e *Engine) status(rec *recon.ReconciledRecord, settled bool) recon.SettlementStatus {
	// Approved-only and declined transactions never owe a settlement, even
	// when a provider reports one.
	if rec.Status == payment.StatusApproved || rec.Status == payment.StatusDeclined {
		return recon.SettlementStatusNotApplicable
	}

	if !settled {
		switch rec.Status {
		case payment.StatusCaptured:
			return recon.SettlementStatusMissing
		case payment.StatusRefunded, payment.StatusChargedback:
			return recon.SettlementStatusMissingExpected
		default:
			return recon.SettlementStatusNotApplicable
		}
	}

	// Money moved; compare it regardless of transaction status.
	if e.exceedsThresholds(rec) {
		return recon.SettlementStatusDiscrepancy
	}
	return recon.SettlementStatusMatched
}

// exceedsThresholds reports whether the settled amount differs from the
// expected amount by more than the fixed-dollar limit AND the percentage
// limit. A $0.50 difference on $100 stays matched; $50 on $100 does not.
func (e *Engine) exceedsThresholds(rec *recon.ReconciledRecord) bool {
	if rec.DiscrepancyAmount == nil {
		return false
	}
	if !rec.DiscrepancyAmount.Abs().GreaterThan(e.thresholdAmount) {
		return false
	}
	if rec.DiscrepancyPercent == nil {
		// Expected amount of zero: any dollar breach counts.
		return true
	}
	return rec.DiscrepancyPercent.Abs().GreaterThan(e.thresholdPct)
}

func (e *Engine) methodTiming(m payment.Method) config.MethodTiming {
	switch m {
	case payment.MethodCreditCard, payment.MethodDebitCard:
		return e.timing.Card
	case payment.MethodBankTransfer:
		return e.timing.Bank
	case payment.MethodCashVoucher:
		return e.timing.Voucher
	default:
		return e.timing.Default
	}
}

// expectedSettlementDate is the transaction timestamp plus the midpoint of
// the method's normal settlement band. Odd min+max sums land on a half day.
func expectedSettlementDate(ts time.Time, timing config.MethodTiming) time.Time {
	hours := float64(timing.MinDays+timing.MaxDays) / 2 * 24
	return ts.Add(time.Duration(hours * float64(time.Hour)))
}

// wholeDays returns the number of full days between two timestamps, floored.
func wholeDays(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}
