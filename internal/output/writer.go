// Package output renders the pipeline's processed artifacts: the
// reconciled dataset and ghost list as CSV, the analysis products as
// indented JSON. All files land in the storage root and replace the
// previous run's artifacts.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
	"github.com/payment-recon/internal/platform/storage"
)

// Artifact file names inside the output directory.
const (
	ReconciledFile = "reconciled_data.csv"
	GhostsFile     = "ghost_settlements.csv"
	InsightsFile   = "insights.json"
	AnomaliesFile  = "anomalies.json"
	RunFile        = "run.json"
)

// ReconciledHeader is the column order of reconciled_data.csv. The run
// store parses rows back by these positions.
var ReconciledHeader = []string{
	"transaction_id", "timestamp", "amount", "currency", "status",
	"provider", "payment_method", "country", "customer_id",
	"expected_settled_amount", "settlement_id", "settlement_date",
	"actual_settled_amount", "discrepancy_amount", "discrepancy_percent",
	"settlement_status", "timing_anomaly", "days_to_settle",
	"expected_settlement_date",
}

// GhostHeader is the column order of ghost_settlements.csv.
var GhostHeader = []string{
	"settlement_id", "transaction_id", "settlement_date", "settled_amount",
	"currency", "provider", "anomaly_type",
}

// Writer persists run artifacts through the storage layer.
type Writer struct {
	store  *storage.Store
	logger *slog.Logger
}

func NewWriter(store *storage.Store, logger *slog.Logger) *Writer {
	return &Writer{store: store, logger: logger}
}

// WriteReconciled writes the full reconciled dataset. Amounts are
// presented rounded to two decimals; unset optional fields stay empty.
func (w *Writer) WriteReconciled(records []recon.ReconciledRecord) error {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, reconciledRow(&records[i]))
	}
	if err := w.writeCSV(ReconciledFile, ReconciledHeader, rows); err != nil {
		return fmt.Errorf("failed to write reconciled data: %w", err)
	}
	return nil
}

// WriteGhosts writes the ghost settlement list.
func (w *Writer) WriteGhosts(ghosts []recon.GhostSettlement) error {
	rows := make([][]string, 0, len(ghosts))
	for i := range ghosts {
		g := &ghosts[i]
		rows = append(rows, []string{
			g.ID,
			g.TransactionID,
			g.Timestamp.Format(payment.TimestampLayout),
			g.Amount.StringFixed(2),
			g.Currency,
			g.Provider,
			g.AnomalyType,
		})
	}
	if err := w.writeCSV(GhostsFile, GhostHeader, rows); err != nil {
		return fmt.Errorf("failed to write ghost settlements: %w", err)
	}
	return nil
}

// WriteInsights writes the executive summary JSON.
func (w *Writer) WriteInsights(insights insight.Insights) error {
	if err := w.writeJSON(InsightsFile, insights); err != nil {
		return fmt.Errorf("failed to write insights: %w", err)
	}
	return nil
}

// WriteAnomalies writes the prioritized anomaly list JSON.
func (w *Writer) WriteAnomalies(anomalies []insight.Anomaly) error {
	if anomalies == nil {
		anomalies = []insight.Anomaly{}
	}
	if err := w.writeJSON(AnomaliesFile, anomalies); err != nil {
		return fmt.Errorf("failed to write anomalies: %w", err)
	}
	return nil
}

// WriteJSON writes an arbitrary payload as an indented JSON artifact.
func (w *Writer) WriteJSON(name string, payload any) error {
	if err := w.writeJSON(name, payload); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if err := w.store.WriteFile(name, buf.Bytes()); err != nil {
		return err
	}
	w.logger.Info("artifact written", "file", name, "rows", len(rows))
	return nil
}

func (w *Writer) writeJSON(name string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := w.store.WriteFile(name, data); err != nil {
		return err
	}
	w.logger.Info("artifact written", "file", name, "bytes", len(data))
	return nil
}

func reconciledRow(rec *recon.ReconciledRecord) []string {
	settlementDate := ""
	if rec.SettlementDate != nil {
		settlementDate = rec.SettlementDate.Format(payment.TimestampLayout)
	}
	actual := ""
	if rec.ActualSettledAmount != nil {
		actual = rec.ActualSettledAmount.StringFixed(2)
	}
	discrepancy := ""
	if rec.DiscrepancyAmount != nil {
		discrepancy = rec.DiscrepancyAmount.StringFixed(2)
	}
	discrepancyPct := ""
	if rec.DiscrepancyPercent != nil {
		discrepancyPct = rec.DiscrepancyPercent.StringFixed(2)
	}
	daysToSettle := ""
	if rec.DaysToSettle != nil {
		daysToSettle = strconv.Itoa(*rec.DaysToSettle)
	}

	return []string{
		rec.ID,
		rec.Timestamp.Format(payment.TimestampLayout),
		rec.Amount.StringFixed(2),
		rec.Currency,
		string(rec.Status),
		rec.Provider,
		string(rec.Method),
		rec.Country,
		rec.CustomerID,
		rec.ExpectedSettledAmount.StringFixed(2),
		rec.SettlementID,
		settlementDate,
		actual,
		discrepancy,
		discrepancyPct,
		string(rec.SettlementStatus),
		strconv.FormatBool(rec.TimingAnomaly),
		daysToSettle,
		rec.ExpectedSettlementDate.Format(payment.TimestampLayout),
	}
}
