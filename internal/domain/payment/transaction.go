package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyTransactionID = errors.New("transaction id cannot be empty")
	ErrEmptyCurrency      = errors.New("currency cannot be empty")
	ErrZeroTimestamp      = errors.New("timestamp cannot be zero")
	ErrNonPositiveAmount  = errors.New("amount must be positive")
)

// Transaction represents a single payment captured in the merchant ledger.
// Transactions are produced upstream and consumed read-only.
type Transaction struct {
	ID         string            `json:"transaction_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	Status     TransactionStatus `json:"status"`
	Provider   string            `json:"provider"`
	Method     Method            `json:"payment_method"`
	Country    string            `json:"country"`
	CustomerID string            `json:"customer_id"`
}

// Validate checks the structural requirements every transaction row must meet.
// Unknown status, method, or currency values are tolerated here; the engines
// resolve them with documented defaults.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return ErrEmptyTransactionID
	}
	if t.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if !t.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if t.Currency == "" {
		return ErrEmptyCurrency
	}
	return nil
}

// Date returns the transaction's calendar date in its own timestamp's location
func (t *Transaction) Date() string {
	return t.Timestamp.Format(DateLayout)
}
