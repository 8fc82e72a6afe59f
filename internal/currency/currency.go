// Package currency normalizes local currency amounts to USD so impacts
// from different markets can be compared and ranked.
package currency

import (
	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/config"
)

var one = decimal.NewFromInt(1)

// Converter holds the exchange-rate table. It is immutable after
// construction and safe for concurrent use.
type Converter struct {
	rates map[string]decimal.Decimal
}

// NewConverter builds a converter from the configured currency-to-USD rates.
func NewConverter(cfg *config.RatesConfig) *Converter {
	return &Converter{
		rates: map[string]decimal.Decimal{
			"BRL": decimal.NewFromFloat(cfg.BRLToUSD),
			"MXN": decimal.NewFromFloat(cfg.MXNToUSD),
			"COP": decimal.NewFromFloat(cfg.COPToUSD),
			"CLP": decimal.NewFromFloat(cfg.CLPToUSD),
			"USD": one,
		},
	}
}

// Rate returns the USD exchange rate for a currency code. Unknown codes get
// rate 1.0 so their amounts pass through unchanged rather than failing the
// run.
func (c *Converter) Rate(code string) decimal.Decimal {
	if rate, ok := c.rates[code]; ok {
		return rate
	}
	return one
}

// ToUSD converts an amount in the given currency to USD. The result is not
// rounded; presentation layers round to 2 places.
func (c *Converter) ToUSD(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Mul(c.Rate(code))
}
