package analyze

import (
	"fmt"
	"sort"

	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
)

// collectAnomalies builds one anomaly per missing settlement, fee
// discrepancy, timing delay, and ghost settlement, in that collection
// order. IDs are assigned before ranking and never reassigned, so an
// anomaly keeps its id wherever it lands in the final list.
func (a *Analyzer) collectAnomalies(
	records []recon.ReconciledRecord,
	ghosts []recon.GhostSettlement,
) []insight.Anomaly {
	anomalies := make([]insight.Anomaly, 0, len(ghosts))
	nextID := func() string { return fmt.Sprintf("ANO_%04d", len(anomalies)+1) }

	for i := range records {
		rec := &records[i]
		if rec.SettlementStatus != recon.SettlementStatusMissing {
			continue
		}
		usd := a.converter.ToUSD(rec.Amount, rec.Currency)
		anomalies = append(anomalies, insight.Anomaly{
			ID:              nextID(),
			TransactionID:   rec.ID,
			Date:            rec.Date(),
			Provider:        rec.Provider,
			Method:          rec.Method,
			Country:         rec.Country,
			Type:            insight.AnomalyMissingSettlement,
			Category:        insight.CategoryMissingSettlements,
			Amount:          round2(rec.Amount),
			Currency:        rec.Currency,
			AmountUSD:       round2(usd),
			Severity:        insight.SeverityCritical,
			SuggestedAction: fmt.Sprintf("Contact %s to investigate missing settlement for transaction %s", rec.Provider, rec.ID),
		})
	}

	for i := range records {
		rec := &records[i]
		if rec.SettlementStatus != recon.SettlementStatusDiscrepancy || rec.DiscrepancyAmount == nil {
			continue
		}
		expected := round2(rec.ExpectedSettledAmount)
		actual := 0.0
		if rec.ActualSettledAmount != nil {
			actual = round2(*rec.ActualSettledAmount)
		}
		disc := round2(*rec.DiscrepancyAmount)
		usd := a.converter.ToUSD(rec.DiscrepancyAmount.Abs(), rec.Currency)
		anomalies = append(anomalies, insight.Anomaly{
			ID:              nextID(),
			TransactionID:   rec.ID,
			SettlementID:    rec.SettlementID,
			Date:            rec.Date(),
			Provider:        rec.Provider,
			Method:          rec.Method,
			Country:         rec.Country,
			Type:            insight.AnomalyFeeDiscrepancy,
			Category:        insight.CategoryUnexpectedFees,
			Amount:          round2(rec.Amount),
			ExpectedAmount:  &expected,
			ActualAmount:    &actual,
			Discrepancy:     &disc,
			Currency:        rec.Currency,
			AmountUSD:       round2(usd),
			Severity:        insight.SeverityHigh,
			SuggestedAction: fmt.Sprintf("Review fee agreement with %s for unexpected charges", rec.Provider),
		})
	}

	for i := range records {
		rec := &records[i]
		if !rec.TimingAnomaly {
			continue
		}
		days := 0
		if rec.DaysToSettle != nil {
			days = *rec.DaysToSettle
		}
		usd := a.converter.ToUSD(rec.Amount, rec.Currency)
		anomalies = append(anomalies, insight.Anomaly{
			ID:              nextID(),
			TransactionID:   rec.ID,
			SettlementID:    rec.SettlementID,
			Date:            rec.Date(),
			Provider:        rec.Provider,
			Method:          rec.Method,
			Country:         rec.Country,
			Type:            insight.AnomalyTimingDelay,
			Category:        insight.CategoryTimingDelays,
			Amount:          round2(rec.Amount),
			Currency:        rec.Currency,
			AmountUSD:       round2(usd),
			DaysDelayed:     &days,
			Severity:        insight.SeverityMedium,
			SuggestedAction: fmt.Sprintf("Escalate delayed settlement with %s (transaction >10 days old)", rec.Provider),
		})
	}

	for i := range ghosts {
		ghost := &ghosts[i]
		usd := a.converter.ToUSD(ghost.Amount, ghost.Currency)
		anomalies = append(anomalies, insight.Anomaly{
			ID:              nextID(),
			TransactionID:   ghost.TransactionID,
			SettlementID:    ghost.ID,
			Date:            ghost.Timestamp.Format(payment.DateLayout),
			Provider:        ghost.Provider,
			Type:            insight.AnomalyGhostSettlement,
			Category:        insight.CategoryGhostSettlements,
			Amount:          round2(ghost.Amount),
			Currency:        ghost.Currency,
			AmountUSD:       round2(usd),
			Severity:        insight.SeverityHigh,
			SuggestedAction: fmt.Sprintf("Verify settlement %s with %s - no matching transaction found", ghost.ID, ghost.Provider),
		})
	}

	return anomalies
}

// prioritize orders anomalies by USD impact descending and keeps the top N.
// Date ascending then id ascending break ties so the ranking is total.
func (a *Analyzer) prioritize(anomalies []insight.Anomaly) []insight.Anomaly {
	sort.SliceStable(anomalies, func(i, j int) bool {
		if anomalies[i].AmountUSD != anomalies[j].AmountUSD {
			return anomalies[i].AmountUSD > anomalies[j].AmountUSD
		}
		if anomalies[i].Date != anomalies[j].Date {
			return anomalies[i].Date < anomalies[j].Date
		}
		return anomalies[i].ID < anomalies[j].ID
	})
	if a.topN > 0 && len(anomalies) > a.topN {
		anomalies = anomalies[:a.topN]
	}
	return anomalies
}
