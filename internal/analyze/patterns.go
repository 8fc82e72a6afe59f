package analyze

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/recon"
)

// missingRate is the worst performer along one grouping dimension.
type missingRate struct {
	key        string
	rate       float64
	missingUSD float64
}

// identifyPatterns produces the human-readable pattern lines for the
// insights summary. Rates compare missing revenue to total volume per
// group; ties resolve to the alphabetically first key.
func (a *Analyzer) identifyPatterns(
	records []recon.ReconciledRecord,
	categories map[insight.Category]insight.CategoryStat,
) []string {
	patterns := make([]string, 0, 5)

	if len(records) > 0 {
		provider := a.worstMissingRate(records, func(r *recon.ReconciledRecord) string { return r.Provider })
		patterns = append(patterns, fmt.Sprintf(
			"Provider '%s' has the highest missing settlement rate at %.1f%% ($%s USD)",
			provider.key, provider.rate, formatUSD(provider.missingUSD)))

		method := a.worstMissingRate(records, func(r *recon.ReconciledRecord) string { return string(r.Method) })
		patterns = append(patterns, fmt.Sprintf(
			"Payment method '%s' has the highest discrepancy rate at %.1f%% ($%s USD)",
			method.key, method.rate, formatUSD(method.missingUSD)))

		country := a.worstMissingRate(records, func(r *recon.ReconciledRecord) string { return r.Country })
		patterns = append(patterns, fmt.Sprintf(
			"Country '%s' has the highest discrepancy rate at %.1f%% ($%s USD)",
			country.key, country.rate, formatUSD(country.missingUSD)))

		if method, count, ok := mostDelayedMethod(records); ok {
			patterns = append(patterns, fmt.Sprintf(
				"Payment method '%s' has the most timing delays with %d delayed settlements",
				method, count))
		}
	}

	for _, c := range insight.AllCategories {
		stat := categories[c]
		if stat.Severity == insight.SeverityCritical && stat.AmountUSD > 0 {
			patterns = append(patterns, fmt.Sprintf(
				"Critical issue: %s accounts for $%s USD in missing revenue",
				categoryTitle(c), formatUSD(stat.AmountUSD)))
		}
	}

	return patterns
}

// worstMissingRate finds the group with the highest share of missing
// revenue relative to its total volume. Records must be non-empty.
func (a *Analyzer) worstMissingRate(
	records []recon.ReconciledRecord,
	key func(*recon.ReconciledRecord) string,
) missingRate {
	keys := make([]string, 0)
	totals := make(map[string]decimal.Decimal)
	missing := make(map[string]decimal.Decimal)

	for i := range records {
		rec := &records[i]
		k := key(rec)
		if _, ok := totals[k]; !ok {
			keys = append(keys, k)
		}
		usd := a.converter.ToUSD(rec.Amount, rec.Currency)
		totals[k] = totals[k].Add(usd)
		if rec.SettlementStatus == recon.SettlementStatusMissing {
			missing[k] = missing[k].Add(usd)
		}
	}
	sort.Strings(keys)

	worst := missingRate{key: keys[0]}
	bestRate := decimal.NewFromInt(-1)
	for _, k := range keys {
		rate := decimal.Decimal{}
		if totals[k].IsPositive() {
			rate = missing[k].Div(totals[k]).Mul(hundred)
		}
		if rate.GreaterThan(bestRate) {
			bestRate = rate
			worst = missingRate{
				key:        k,
				rate:       rate.InexactFloat64(),
				missingUSD: missing[k].InexactFloat64(),
			}
		}
	}
	return worst
}

// mostDelayedMethod counts timing anomalies per payment method and returns
// the method with the most, or ok=false when nothing was delayed.
func mostDelayedMethod(records []recon.ReconciledRecord) (string, int, bool) {
	methods := make([]string, 0)
	counts := make(map[string]int)
	for i := range records {
		rec := &records[i]
		if !rec.TimingAnomaly {
			continue
		}
		m := string(rec.Method)
		if _, ok := counts[m]; !ok {
			methods = append(methods, m)
		}
		counts[m]++
	}
	if len(methods) == 0 {
		return "", 0, false
	}
	sort.Strings(methods)

	best := methods[0]
	for _, m := range methods {
		if counts[m] > counts[best] {
			best = m
		}
	}
	return best, counts[best], true
}

// categoryTitle renders a category constant as a headline, for example
// "missing_settlements" becomes "Missing Settlements".
func categoryTitle(c insight.Category) string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatUSD renders an amount with two decimals and comma-grouped
// thousands, for example 1234567.5 becomes "1,234,567.50".
func formatUSD(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}
	out := b.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
