// Package fees computes provider processing fees and expected settlement
// amounts per payment method.
//
// Fee structure:
//   - Credit/debit cards: 2.9% + $0.30 per transaction
//   - Bank transfers: 1.5% of transaction amount
//   - Cash vouchers: 3.5% of transaction amount
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/config"
	"github.com/payment-recon/internal/domain/payment"
)

var hundred = decimal.NewFromInt(100)

// Model holds the fee table as decimal rates. It is immutable after
// construction and safe for concurrent use.
type Model struct {
	cardRate    decimal.Decimal
	cardFixed   decimal.Decimal
	bankRate    decimal.Decimal
	voucherRate decimal.Decimal
}

// NewModel builds a fee model from configuration. Percent values are
// converted to rates once here (2.9 becomes 0.029).
func NewModel(cfg *config.FeesConfig) *Model {
	return &Model{
		cardRate:    decimal.NewFromFloat(cfg.CardPercent).Div(hundred),
		cardFixed:   decimal.NewFromFloat(cfg.CardFixed),
		bankRate:    decimal.NewFromFloat(cfg.BankPercent).Div(hundred),
		voucherRate: decimal.NewFromFloat(cfg.VoucherPercent).Div(hundred),
	}
}

// Fee returns the processing fee for a transaction amount in its original
// currency. Unrecognized methods fall back to the card fee, matching how
// providers bill unclassified traffic. The result is not rounded.
func (m *Model) Fee(amount decimal.Decimal, method payment.Method) decimal.Decimal {
	switch method {
	case payment.MethodCreditCard, payment.MethodDebitCard:
		return m.cardFee(amount)
	case payment.MethodBankTransfer:
		return amount.Mul(m.bankRate)
	case payment.MethodCashVoucher:
		return amount.Mul(m.voucherRate)
	default:
		return m.cardFee(amount)
	}
}

// ExpectedSettlement returns the amount the provider should pay out after
// deducting its fee. For very small card amounts the fixed fee component
// can push this below zero; the negative value is returned as is.
func (m *Model) ExpectedSettlement(amount decimal.Decimal, method payment.Method) decimal.Decimal {
	return amount.Sub(m.Fee(amount, method))
}

func (m *Model) cardFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(m.cardRate).Add(m.cardFixed)
}
