package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTransaction() Transaction {
	return Transaction{
		ID:         "TXN_000001",
		Timestamp:  time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		Amount:     decimal.RequireFromString("125.40"),
		Currency:   "BRL",
		Status:     StatusCaptured,
		Provider:   "PayBridge",
		Method:     MethodCreditCard,
		Country:    "Brazil",
		CustomerID: "CUST_1001",
	}
}

func TestTransactionStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{"Approved", StatusApproved, true},
		{"Captured", StatusCaptured, true},
		{"Declined", StatusDeclined, true},
		{"Pending", StatusPending, true},
		{"Refunded", StatusRefunded, true},
		{"Chargedback", StatusChargedback, true},
		{"Unknown", TransactionStatus("disputed"), false},
		{"Empty", TransactionStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestMethod_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		want   bool
	}{
		{"CreditCard", MethodCreditCard, true},
		{"DebitCard", MethodDebitCard, true},
		{"BankTransfer", MethodBankTransfer, true},
		{"CashVoucher", MethodCashVoucher, true},
		{"Unknown", Method("pix"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.method.IsValid())
		})
	}
}

func TestMethod_IsCard(t *testing.T) {
	assert.True(t, MethodCreditCard.IsCard())
	assert.True(t, MethodDebitCard.IsCard())
	assert.False(t, MethodBankTransfer.IsCard())
	assert.False(t, MethodCashVoucher.IsCard())
	assert.False(t, Method("pix").IsCard())
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"Valid", func(tx *Transaction) {}, nil},
		{"EmptyID", func(tx *Transaction) { tx.ID = "" }, ErrEmptyTransactionID},
		{"ZeroTimestamp", func(tx *Transaction) { tx.Timestamp = time.Time{} }, ErrZeroTimestamp},
		{"ZeroAmount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrNonPositiveAmount},
		{"NegativeAmount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-5) }, ErrNonPositiveAmount},
		{"EmptyCurrency", func(tx *Transaction) { tx.Currency = "" }, ErrEmptyCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)

			err := tx.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTransaction_Validate_ToleratesUnknownEnums(t *testing.T) {
	tx := validTransaction()
	tx.Status = TransactionStatus("disputed")
	tx.Method = Method("pix")
	tx.Currency = "EUR"

	require.NoError(t, tx.Validate())
}

func TestTransaction_Date(t *testing.T) {
	tx := validTransaction()
	assert.Equal(t, "2025-06-01", tx.Date())
}

func TestSettlement_Validate(t *testing.T) {
	valid := Settlement{
		ID:            "SET_000001",
		TransactionID: "TXN_000001",
		Timestamp:     time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
		Amount:        decimal.RequireFromString("121.16"),
		Currency:      "BRL",
		Provider:      "PayBridge",
	}

	tests := []struct {
		name    string
		mutate  func(*Settlement)
		wantErr error
	}{
		{"Valid", func(s *Settlement) {}, nil},
		{"EmptyID", func(s *Settlement) { s.ID = "" }, ErrEmptySettlementID},
		{"EmptyReference", func(s *Settlement) { s.TransactionID = "" }, ErrEmptyReference},
		{"ZeroTimestamp", func(s *Settlement) { s.Timestamp = time.Time{} }, ErrZeroTimestamp},
		{"NonPositiveAmount", func(s *Settlement) { s.Amount = decimal.Zero }, ErrNonPositiveAmount},
		{"EmptyCurrency", func(s *Settlement) { s.Currency = "" }, ErrEmptyCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
