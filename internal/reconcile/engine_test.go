package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payment-recon/internal/config"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
	"github.com/payment-recon/internal/fees"
	"github.com/payment-recon/internal/platform/workerpool"
)

func testTiming() config.TimingConfig {
	return config.TimingConfig{
		Card:    config.MethodTiming{MinDays: 2, MaxDays: 3, ThresholdDays: 5},
		Bank:    config.MethodTiming{MinDays: 5, MaxDays: 7, ThresholdDays: 10},
		Voucher: config.MethodTiming{MinDays: 3, MaxDays: 5, ThresholdDays: 8},
		Default: config.MethodTiming{MinDays: 2, MaxDays: 5, ThresholdDays: 7},
	}
}

func testEngine(pool *workerpool.Pool) *Engine {
	feeModel := fees.NewModel(&config.FeesConfig{
		CardPercent:    2.9,
		CardFixed:      0.30,
		BankPercent:    1.5,
		VoucherPercent: 3.5,
	})
	thresholds := config.DiscrepancyConfig{ThresholdPercent: 1.0, ThresholdAmount: 1.0}
	return NewEngine(feeModel, testTiming(), thresholds, pool, slog.Default())
}

func mustTime(value string) time.Time {
	ts, err := time.Parse(payment.TimestampLayout, value)
	if err != nil {
		panic(err)
	}
	return ts
}

func makeTxn(id, ts, amount string, status payment.TransactionStatus, method payment.Method) payment.Transaction {
	return payment.Transaction{
		ID:         id,
		Timestamp:  mustTime(ts),
		Amount:     decimal.RequireFromString(amount),
		Currency:   "BRL",
		Status:     status,
		Provider:   "PayBridge",
		Method:     method,
		Country:    "Brazil",
		CustomerID: "CUST_1001",
	}
}

func makeSettlement(id, txnID, ts, amount string) payment.Settlement {
	return payment.Settlement{
		ID:            id,
		TransactionID: txnID,
		Timestamp:     mustTime(ts),
		Amount:        decimal.RequireFromString(amount),
		Currency:      "BRL",
		Provider:      "PayBridge",
	}
}

func TestEngine_Classification(t *testing.T) {
	engine := testEngine(nil)

	tests := []struct {
		name       string
		txn        payment.Transaction
		settlement *payment.Settlement
		wantStatus recon.SettlementStatus
	}{
		{
			name:       "captured with exact settlement matches",
			txn:        makeTxn("TXN_000001", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000001", "TXN_000001", "2025-06-03 10:00:00", "96.80")),
			wantStatus: recon.SettlementStatusMatched,
		},
		{
			name:       "fifty cent difference stays matched",
			txn:        makeTxn("TXN_000002", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000002", "TXN_000002", "2025-06-03 10:00:00", "96.30")),
			wantStatus: recon.SettlementStatusMatched,
		},
		{
			name:       "fifty dollar difference is a discrepancy",
			txn:        makeTxn("TXN_000003", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000003", "TXN_000003", "2025-06-03 10:00:00", "46.80")),
			wantStatus: recon.SettlementStatusDiscrepancy,
		},
		{
			name:       "exactly one dollar difference stays matched",
			txn:        makeTxn("TXN_000004", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000004", "TXN_000004", "2025-06-03 10:00:00", "95.80")),
			wantStatus: recon.SettlementStatusMatched,
		},
		{
			name:       "over a dollar but under one percent stays matched",
			txn:        makeTxn("TXN_000005", "2025-06-01 10:00:00", "1000.00", payment.StatusCaptured, payment.MethodBankTransfer),
			settlement: ptr(makeSettlement("SET_000005", "TXN_000005", "2025-06-06 10:00:00", "983.90")),
			wantStatus: recon.SettlementStatusMatched,
		},
		{
			name:       "over one percent but under a dollar stays matched",
			txn:        makeTxn("TXN_000006", "2025-06-01 10:00:00", "20.00", payment.StatusCaptured, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000006", "TXN_000006", "2025-06-03 10:00:00", "18.40")),
			wantStatus: recon.SettlementStatusMatched,
		},
		{
			name:       "captured without settlement is missing",
			txn:        makeTxn("TXN_000007", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard),
			wantStatus: recon.SettlementStatusMissing,
		},
		{
			name:       "approved without settlement is not applicable",
			txn:        makeTxn("TXN_000008", "2025-06-01 10:00:00", "100.00", payment.StatusApproved, payment.MethodCreditCard),
			wantStatus: recon.SettlementStatusNotApplicable,
		},
		{
			name:       "approved with settlement is still not applicable",
			txn:        makeTxn("TXN_000009", "2025-06-01 10:00:00", "100.00", payment.StatusApproved, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000009", "TXN_000009", "2025-06-03 10:00:00", "96.80")),
			wantStatus: recon.SettlementStatusNotApplicable,
		},
		{
			name:       "declined with settlement is not applicable",
			txn:        makeTxn("TXN_000010", "2025-06-01 10:00:00", "100.00", payment.StatusDeclined, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000010", "TXN_000010", "2025-06-03 10:00:00", "96.80")),
			wantStatus: recon.SettlementStatusNotApplicable,
		},
		{
			name:       "refunded without settlement is missing expected",
			txn:        makeTxn("TXN_000011", "2025-06-01 10:00:00", "100.00", payment.StatusRefunded, payment.MethodCreditCard),
			wantStatus: recon.SettlementStatusMissingExpected,
		},
		{
			name:       "chargedback without settlement is missing expected",
			txn:        makeTxn("TXN_000012", "2025-06-01 10:00:00", "100.00", payment.StatusChargedback, payment.MethodCreditCard),
			wantStatus: recon.SettlementStatusMissingExpected,
		},
		{
			name:       "refunded with discrepant settlement is a discrepancy",
			txn:        makeTxn("TXN_000013", "2025-06-01 10:00:00", "100.00", payment.StatusRefunded, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000013", "TXN_000013", "2025-06-03 10:00:00", "46.80")),
			wantStatus: recon.SettlementStatusDiscrepancy,
		},
		{
			name:       "pending without settlement is not applicable",
			txn:        makeTxn("TXN_000014", "2025-06-01 10:00:00", "100.00", payment.StatusPending, payment.MethodCreditCard),
			wantStatus: recon.SettlementStatusNotApplicable,
		},
		{
			name:       "pending with clean settlement matches",
			txn:        makeTxn("TXN_000015", "2025-06-01 10:00:00", "100.00", payment.StatusPending, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000015", "TXN_000015", "2025-06-03 10:00:00", "96.80")),
			wantStatus: recon.SettlementStatusMatched,
		},
		{
			name:       "unknown status without settlement is not applicable",
			txn:        makeTxn("TXN_000016", "2025-06-01 10:00:00", "100.00", payment.TransactionStatus("disputed"), payment.MethodCreditCard),
			wantStatus: recon.SettlementStatusNotApplicable,
		},
		{
			name:       "tiny card amount with settlement stays matched",
			txn:        makeTxn("TXN_000017", "2025-06-01 10:00:00", "0.10", payment.StatusCaptured, payment.MethodCreditCard),
			settlement: ptr(makeSettlement("SET_000017", "TXN_000017", "2025-06-03 10:00:00", "0.10")),
			wantStatus: recon.SettlementStatusMatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var settlements []payment.Settlement
			if tt.settlement != nil {
				settlements = append(settlements, *tt.settlement)
			}

			result, err := engine.Reconcile(context.Background(), []payment.Transaction{tt.txn}, settlements)
			require.NoError(t, err)
			require.Len(t, result.Records, 1)

			rec := result.Records[0]
			assert.Equal(t, tt.wantStatus, rec.SettlementStatus)
			assert.Equal(t, tt.settlement != nil, rec.Settled())

			if tt.settlement != nil {
				require.NotNil(t, rec.ActualSettledAmount)
				assert.True(t, tt.settlement.Amount.Equal(*rec.ActualSettledAmount))
				require.NotNil(t, rec.DiscrepancyAmount)
				require.NotNil(t, rec.DaysToSettle)
			} else {
				assert.Nil(t, rec.ActualSettledAmount)
				assert.Nil(t, rec.DiscrepancyAmount)
				assert.Nil(t, rec.DaysToSettle)
				assert.False(t, rec.TimingAnomaly)
			}
		})
	}
}

func TestEngine_DiscrepancyFields(t *testing.T) {
	engine := testEngine(nil)

	txn := makeTxn("TXN_000001", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard)
	settlement := makeSettlement("SET_000001", "TXN_000001", "2025-06-03 10:00:00", "46.80")

	result, err := engine.Reconcile(context.Background(), []payment.Transaction{txn}, []payment.Settlement{settlement})
	require.NoError(t, err)
	rec := result.Records[0]

	// expected 96.80, actual 46.80: discrepancy is signed expected - actual
	assert.True(t, decimal.RequireFromString("96.80").Equal(rec.ExpectedSettledAmount))
	require.NotNil(t, rec.DiscrepancyAmount)
	assert.True(t, decimal.RequireFromString("50").Equal(*rec.DiscrepancyAmount))
	require.NotNil(t, rec.DiscrepancyPercent)
	assert.True(t, rec.DiscrepancyPercent.GreaterThan(decimal.RequireFromString("51")))
	assert.True(t, rec.DiscrepancyPercent.LessThan(decimal.RequireFromString("52")))
}

func TestEngine_OverpaymentIsAlsoADiscrepancy(t *testing.T) {
	engine := testEngine(nil)

	// actual above expected: signed discrepancy goes negative, still flagged
	txn := makeTxn("TXN_000001", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard)
	settlement := makeSettlement("SET_000001", "TXN_000001", "2025-06-03 10:00:00", "110.00")

	result, err := engine.Reconcile(context.Background(), []payment.Transaction{txn}, []payment.Settlement{settlement})
	require.NoError(t, err)
	rec := result.Records[0]

	assert.Equal(t, recon.SettlementStatusDiscrepancy, rec.SettlementStatus)
	require.NotNil(t, rec.DiscrepancyAmount)
	assert.True(t, rec.DiscrepancyAmount.IsNegative())
}

func TestEngine_TimingAnomalies(t *testing.T) {
	engine := testEngine(nil)

	tests := []struct {
		name     string
		method   payment.Method
		settled  string
		wantDays int
		wantFlag bool
	}{
		{"card at threshold not flagged", payment.MethodCreditCard, "2025-06-06 10:00:00", 5, false},
		{"card past threshold flagged", payment.MethodCreditCard, "2025-06-07 10:00:00", 6, true},
		{"partial day floors below threshold", payment.MethodCreditCard, "2025-06-07 09:00:00", 5, false},
		{"bank at threshold not flagged", payment.MethodBankTransfer, "2025-06-11 10:00:00", 10, false},
		{"bank past threshold flagged", payment.MethodBankTransfer, "2025-06-12 10:00:00", 11, true},
		{"voucher past threshold flagged", payment.MethodCashVoucher, "2025-06-10 10:00:00", 9, true},
		{"unknown method uses default threshold", payment.Method("pix"), "2025-06-09 10:00:00", 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := makeTxn("TXN_000001", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, tt.method)
			expected := engine.feeModel.ExpectedSettlement(txn.Amount, tt.method)
			settlement := makeSettlement("SET_000001", "TXN_000001", tt.settled, expected.Round(2).String())

			result, err := engine.Reconcile(context.Background(), []payment.Transaction{txn}, []payment.Settlement{settlement})
			require.NoError(t, err)
			rec := result.Records[0]

			require.NotNil(t, rec.DaysToSettle)
			assert.Equal(t, tt.wantDays, *rec.DaysToSettle)
			assert.Equal(t, tt.wantFlag, rec.TimingAnomaly)
		})
	}
}

func TestEngine_ExpectedSettlementDate(t *testing.T) {
	engine := testEngine(nil)

	tests := []struct {
		name   string
		method payment.Method
		want   string
	}{
		{"card midpoint lands on a half day", payment.MethodCreditCard, "2025-06-03 22:00:00"},
		{"bank midpoint is six days", payment.MethodBankTransfer, "2025-06-07 10:00:00"},
		{"voucher midpoint is four days", payment.MethodCashVoucher, "2025-06-05 10:00:00"},
		{"unknown method midpoint is three and a half days", payment.Method("pix"), "2025-06-04 22:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := makeTxn("TXN_000001", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, tt.method)

			result, err := engine.Reconcile(context.Background(), []payment.Transaction{txn}, nil)
			require.NoError(t, err)

			assert.Equal(t, mustTime(tt.want), result.Records[0].ExpectedSettlementDate)
		})
	}
}

func TestEngine_DuplicateSettlementsLastWins(t *testing.T) {
	engine := testEngine(nil)

	txn := makeTxn("TXN_000001", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard)
	// Input order is reversed on purpose: resolution is by settlement id,
	// not input position
	settlements := []payment.Settlement{
		makeSettlement("SET_000009", "TXN_000001", "2025-06-04 10:00:00", "96.80"),
		makeSettlement("SET_000001", "TXN_000001", "2025-06-03 10:00:00", "90.00"),
	}

	result, err := engine.Reconcile(context.Background(), []payment.Transaction{txn}, settlements)
	require.NoError(t, err)

	rec := result.Records[0]
	assert.Equal(t, "SET_000009", rec.SettlementID)
	assert.Equal(t, recon.SettlementStatusMatched, rec.SettlementStatus)

	// The losing duplicate references a known transaction, so it is not a
	// ghost either
	assert.Empty(t, result.Ghosts)
}

func TestEngine_GhostSettlements(t *testing.T) {
	engine := testEngine(nil)

	txns := []payment.Transaction{
		makeTxn("TXN_000001", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard),
	}
	settlements := []payment.Settlement{
		makeSettlement("SET_000001", "TXN_000001", "2025-06-03 10:00:00", "96.80"),
		makeSettlement("SET_000002", "TXN_999001", "2025-06-04 10:00:00", "75.00"),
		makeSettlement("SET_000003", "TXN_999002", "2025-06-05 10:00:00", "42.00"),
	}

	result, err := engine.Reconcile(context.Background(), txns, settlements)
	require.NoError(t, err)

	require.Len(t, result.Ghosts, 2)
	assert.Equal(t, "SET_000002", result.Ghosts[0].ID)
	assert.Equal(t, "SET_000003", result.Ghosts[1].ID)
	for _, g := range result.Ghosts {
		assert.Equal(t, recon.GhostAnomalyType, g.AnomalyType)
	}
}

func TestEngine_GhostAppearsExactlyOnce(t *testing.T) {
	engine := testEngine(nil)

	settlements := []payment.Settlement{
		makeSettlement("SET_000001", "TXN_999001", "2025-06-03 10:00:00", "75.00"),
		makeSettlement("SET_000001", "TXN_999001", "2025-06-03 10:00:00", "75.00"),
	}

	result, err := engine.Reconcile(context.Background(), nil, settlements)
	require.NoError(t, err)
	assert.Len(t, result.Ghosts, 1)
}

func TestEngine_EmptyInputs(t *testing.T) {
	engine := testEngine(nil)

	t.Run("both empty", func(t *testing.T) {
		result, err := engine.Reconcile(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Empty(t, result.Records)
		assert.Empty(t, result.Ghosts)
	})

	t.Run("no settlements", func(t *testing.T) {
		txns := []payment.Transaction{
			makeTxn("TXN_000001", "2025-06-01 10:00:00", "100.00", payment.StatusCaptured, payment.MethodCreditCard),
		}
		result, err := engine.Reconcile(context.Background(), txns, nil)
		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, recon.SettlementStatusMissing, result.Records[0].SettlementStatus)
		assert.Empty(t, result.Ghosts)
	})

	t.Run("no transactions", func(t *testing.T) {
		settlements := []payment.Settlement{
			makeSettlement("SET_000001", "TXN_000001", "2025-06-03 10:00:00", "96.80"),
		}
		result, err := engine.Reconcile(context.Background(), nil, settlements)
		require.NoError(t, err)
		assert.Empty(t, result.Records)
		assert.Len(t, result.Ghosts, 1)
	})
}

// buildLargeDataset constructs a deterministic dataset big enough to cross
// the parallel cutover, with every status and method represented.
func buildLargeDataset(n int) ([]payment.Transaction, []payment.Settlement) {
	statuses := []payment.TransactionStatus{
		payment.StatusCaptured, payment.StatusCaptured, payment.StatusCaptured,
		payment.StatusApproved, payment.StatusDeclined,
		payment.StatusRefunded, payment.StatusChargedback,
	}
	methods := []payment.Method{
		payment.MethodCreditCard, payment.MethodDebitCard,
		payment.MethodBankTransfer, payment.MethodCashVoucher,
	}

	base := mustTime("2025-06-01 00:00:00")
	txns := make([]payment.Transaction, 0, n)
	var settlements []payment.Settlement

	for i := 0; i < n; i++ {
		txn := payment.Transaction{
			ID:         fmt.Sprintf("TXN_%06d", i+1),
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			Amount:     decimal.NewFromInt(int64(50 + i%400)),
			Currency:   "BRL",
			Status:     statuses[i%len(statuses)],
			Provider:   "PayBridge",
			Method:     methods[i%len(methods)],
			Country:    "Brazil",
			CustomerID: fmt.Sprintf("CUST_%04d", 1000+i%500),
		}
		txns = append(txns, txn)

		// Settle roughly half, with a spread of delays and amounts
		if i%2 == 0 {
			amount := txn.Amount.Sub(decimal.NewFromInt(int64(i % 7)))
			settlements = append(settlements, payment.Settlement{
				ID:            fmt.Sprintf("SET_%06d", i+1),
				TransactionID: txn.ID,
				Timestamp:     txn.Timestamp.Add(time.Duration(2+i%10) * 24 * time.Hour),
				Amount:        amount,
				Currency:      "BRL",
				Provider:      "PayBridge",
			})
		}
	}

	// A few ghosts at the end
	for i := 0; i < 3; i++ {
		settlements = append(settlements, payment.Settlement{
			ID:            fmt.Sprintf("SET_9%05d", i+1),
			TransactionID: fmt.Sprintf("TXN_999%03d", i+1),
			Timestamp:     base.Add(240 * time.Hour),
			Amount:        decimal.NewFromInt(75),
			Currency:      "BRL",
			Provider:      "FastPay",
		})
	}

	return txns, settlements
}

func TestEngine_ParallelMatchesSequential(t *testing.T) {
	txns, settlements := buildLargeDataset(600)

	sequential := testEngine(nil)
	seqResult, err := sequential.Reconcile(context.Background(), txns, settlements)
	require.NoError(t, err)

	pool, err := workerpool.New(4, slog.Default())
	require.NoError(t, err)
	defer pool.Release()

	parallel := testEngine(pool)
	parResult, err := parallel.Reconcile(context.Background(), txns, settlements)
	require.NoError(t, err)

	require.Len(t, parResult.Records, len(seqResult.Records))
	assert.Equal(t, seqResult.Records, parResult.Records)
	assert.Equal(t, seqResult.Ghosts, parResult.Ghosts)
}

func TestEngine_ReconcileIsIdempotent(t *testing.T) {
	engine := testEngine(nil)
	txns, settlements := buildLargeDataset(100)

	first, err := engine.Reconcile(context.Background(), txns, settlements)
	require.NoError(t, err)
	second, err := engine.Reconcile(context.Background(), txns, settlements)
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Ghosts, second.Ghosts)
}

func ptr[T any](v T) *T {
	return &v
}
