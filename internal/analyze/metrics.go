package analyze

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
)

// observation is one record's contribution to every aggregation dimension.
type observation struct {
	usd     decimal.Decimal
	settled decimal.Decimal
	missing bool
	feeDisc decimal.Decimal
}

type dimAccum struct {
	key        string
	count      int
	volume     decimal.Decimal
	settled    decimal.Decimal
	missing    int
	missingUSD decimal.Decimal
	feeDiscUSD decimal.Decimal
}

func (d *dimAccum) observe(obs observation) {
	d.count++
	d.volume = d.volume.Add(obs.usd)
	d.settled = d.settled.Add(obs.settled)
	if obs.missing {
		d.missing++
		d.missingUSD = d.missingUSD.Add(obs.usd)
	}
	d.feeDiscUSD = d.feeDiscUSD.Add(obs.feeDisc)
}

func (d *dimAccum) totalDiscrepancy() decimal.Decimal {
	return d.missingUSD.Add(d.feeDiscUSD)
}

// dimAccums groups observations by key, remembering insertion order so that
// ties sort deterministically.
type dimAccums struct {
	order []string
	byKey map[string]*dimAccum
}

func newDimAccums() *dimAccums {
	return &dimAccums{byKey: make(map[string]*dimAccum)}
}

func (d *dimAccums) observe(key string, obs observation) {
	acc, ok := d.byKey[key]
	if !ok {
		acc = &dimAccum{key: key}
		d.byKey[key] = acc
		d.order = append(d.order, key)
	}
	acc.observe(obs)
}

// sorted returns the accumulators ordered by total discrepancy descending,
// with key ascending breaking ties.
func (d *dimAccums) sorted() []*dimAccum {
	accums := make([]*dimAccum, 0, len(d.order))
	for _, key := range d.order {
		accums = append(accums, d.byKey[key])
	}
	sort.SliceStable(accums, func(i, j int) bool {
		left, right := accums[i].totalDiscrepancy(), accums[j].totalDiscrepancy()
		if !left.Equal(right) {
			return left.GreaterThan(right)
		}
		return accums[i].key < accums[j].key
	})
	return accums
}

// aggregateMetrics computes the overall, per-dimension, and daily metric
// blocks from reconciled records.
func (a *Analyzer) aggregateMetrics(records []recon.ReconciledRecord) insight.AggregateMetrics {
	var totalUSD, settledUSD, missingUSD, feeDiscUSD decimal.Decimal

	providers := newDimAccums()
	methods := newDimAccums()
	countries := newDimAccums()
	days := newDimAccums()

	for i := range records {
		rec := &records[i]

		obs := observation{usd: a.converter.ToUSD(rec.Amount, rec.Currency)}
		totalUSD = totalUSD.Add(obs.usd)

		switch rec.SettlementStatus {
		case recon.SettlementStatusMatched:
			if rec.ActualSettledAmount != nil {
				obs.settled = a.converter.ToUSD(*rec.ActualSettledAmount, rec.Currency)
				settledUSD = settledUSD.Add(obs.settled)
			}
		case recon.SettlementStatusMissing:
			obs.missing = true
			missingUSD = missingUSD.Add(obs.usd)
		case recon.SettlementStatusDiscrepancy:
			if rec.DiscrepancyAmount != nil {
				obs.feeDisc = a.converter.ToUSD(rec.DiscrepancyAmount.Abs(), rec.Currency)
				feeDiscUSD = feeDiscUSD.Add(obs.feeDisc)
			}
		}

		providers.observe(rec.Provider, obs)
		methods.observe(string(rec.Method), obs)
		countries.observe(rec.Country, obs)
		days.observe(rec.Date(), obs)
	}

	return insight.AggregateMetrics{
		Overall: insight.OverallMetrics{
			TotalTransactions:    len(records),
			TotalAmountUSD:       round2(totalUSD),
			TotalSettledUSD:      round2(settledUSD),
			MissingRevenueUSD:    round2(missingUSD),
			DiscrepancyAmountUSD: round2(feeDiscUSD),
			TotalDiscrepancyUSD:  round2(missingUSD.Add(feeDiscUSD)),
		},
		ByProvider: dimensionMetrics(providers, func(m *insight.DimensionMetrics, key string) { m.Provider = key }),
		ByMethod:   dimensionMetrics(methods, func(m *insight.DimensionMetrics, key string) { m.Method = payment.Method(key) }),
		ByCountry:  dimensionMetrics(countries, func(m *insight.DimensionMetrics, key string) { m.Country = key }),
		TimeSeries: timeSeries(days),
	}
}

func dimensionMetrics(accums *dimAccums, setKey func(*insight.DimensionMetrics, string)) []insight.DimensionMetrics {
	sorted := accums.sorted()
	out := make([]insight.DimensionMetrics, 0, len(sorted))
	for _, acc := range sorted {
		m := insight.DimensionMetrics{
			TotalTransactions:      acc.count,
			TotalVolumeUSD:         round2(acc.volume),
			TotalSettledUSD:        round2(acc.settled),
			MissingSettlements:     acc.missing,
			MissingRevenueUSD:      round2(acc.missingUSD),
			TotalDiscrepancyUSD:    round2(acc.totalDiscrepancy()),
			DiscrepancyRatePercent: ratePercent(acc.totalDiscrepancy(), acc.volume),
		}
		setKey(&m, acc.key)
		out = append(out, m)
	}
	return out
}

// timeSeries emits one point per transaction date, ordered chronologically.
func timeSeries(days *dimAccums) []insight.TimeSeriesPoint {
	dates := make([]string, len(days.order))
	copy(dates, days.order)
	sort.Strings(dates)

	out := make([]insight.TimeSeriesPoint, 0, len(dates))
	for _, date := range dates {
		acc := days.byKey[date]
		out = append(out, insight.TimeSeriesPoint{
			Date:                   date,
			TotalTransactions:      acc.count,
			TotalVolumeUSD:         round2(acc.volume),
			TotalSettledUSD:        round2(acc.settled),
			MissingRevenueUSD:      round2(acc.missingUSD),
			TotalDiscrepancyUSD:    round2(acc.totalDiscrepancy()),
			DiscrepancyRatePercent: ratePercent(acc.totalDiscrepancy(), acc.volume),
		})
	}
	return out
}

// ratePercent reports part/whole as a percentage rounded to two places,
// returning 0 when the denominator is zero.
func ratePercent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).Round(2).InexactFloat64()
}
