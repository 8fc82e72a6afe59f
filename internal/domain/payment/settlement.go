package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptySettlementID = errors.New("settlement id cannot be empty")
	ErrEmptyReference    = errors.New("settlement must reference a transaction id")
)

// Settlement represents funds reported by a payment provider for a
// transaction. The referenced transaction id may not exist in the ledger;
// such settlements are ghosts.
type Settlement struct {
	ID            string          `json:"settlement_id"`
	TransactionID string          `json:"transaction_id"`
	Timestamp     time.Time       `json:"settlement_date"`
	Amount        decimal.Decimal `json:"settled_amount"`
	Currency      string          `json:"currency"`
	Provider      string          `json:"provider"`
}

// Validate checks the structural requirements every settlement row must meet
func (s *Settlement) Validate() error {
	if s.ID == "" {
		return ErrEmptySettlementID
	}
	if s.TransactionID == "" {
		return ErrEmptyReference
	}
	if s.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if !s.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if s.Currency == "" {
		return ErrEmptyCurrency
	}
	return nil
}
