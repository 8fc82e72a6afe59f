package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payment-recon/internal/data/runstore"
	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/recon"
)

// RunSource provides the latest pipeline run's parsed artifacts. Satisfied
// by runstore.Store.
type RunSource interface {
	Latest() (*runstore.Snapshot, error)
}

// ReportHandler serves the latest pipeline run's artifacts over HTTP. All
// endpoints are read-only; the pipeline remains the only writer.
type ReportHandler struct {
	runs   RunSource
	logger *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(logger *slog.Logger, runs RunSource) *ReportHandler {
	return &ReportHandler{
		runs:   runs,
		logger: logger,
	}
}

// LatestRun returns the metadata of the most recent pipeline run
func (h *ReportHandler) LatestRun(c *gin.Context) {
	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}
	RespondOK(c, snapshot.Run)
}

// Insights returns the executive summary of the most recent run
func (h *ReportHandler) Insights(c *gin.Context) {
	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}
	RespondOK(c, snapshot.Insights)
}

// Anomalies returns the prioritized anomaly list, optionally filtered by
// severity and capped by limit. The artifact's priority order is preserved.
func (h *ReportHandler) Anomalies(c *gin.Context) {
	var query AnomalyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("invalid anomaly query", "error", err)
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	anomalies := snapshot.Anomalies
	if query.Severity != "" {
		filtered := make([]insight.Anomaly, 0, len(anomalies))
		for _, anomaly := range anomalies {
			if anomaly.Severity == insight.Severity(query.Severity) {
				filtered = append(filtered, anomaly)
			}
		}
		anomalies = filtered
	}
	if query.Limit > 0 && len(anomalies) > query.Limit {
		anomalies = anomalies[:query.Limit]
	}
	if anomalies == nil {
		anomalies = []insight.Anomaly{}
	}

	RespondOK(c, anomalies)
}

// Ghosts returns every settlement that referenced no known transaction
func (h *ReportHandler) Ghosts(c *gin.Context) {
	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	ghosts := snapshot.Ghosts
	if ghosts == nil {
		ghosts = []recon.GhostSettlement{}
	}
	RespondOK(c, ghosts)
}

// Reconciled returns one page of reconciled records, optionally filtered
// by settlement status
func (h *ReportHandler) Reconciled(c *gin.Context) {
	var query ReconciledQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("invalid reconciled query", "error", err)
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	records := snapshot.Reconciled
	if query.Status != "" {
		filtered := make([]recon.ReconciledRecord, 0, len(records))
		for _, record := range records {
			if record.SettlementStatus == recon.SettlementStatus(query.Status) {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	total := len(records)
	start := (query.Page - 1) * query.PerPage
	if start > total {
		start = total
	}
	end := start + query.PerPage
	if end > total {
		end = total
	}

	page := records[start:end]
	if page == nil {
		page = []recon.ReconciledRecord{}
	}
	RespondWithPaginatedData(c, http.StatusOK, page, query.Page, query.PerPage, total)
}

// snapshot loads the latest run, translating a missing run into a 404 and
// any artifact problem into a 500. Returns false after responding.
func (h *ReportHandler) snapshot(c *gin.Context) (*runstore.Snapshot, bool) {
	snapshot, err := h.runs.Latest()
	if err != nil {
		if errors.Is(err, runstore.ErrNoRun) {
			RespondNotFound(c, "No reconciliation run available yet")
			return nil, false
		}
		h.logger.Error("failed to load run artifacts", "error", err)
		RespondInternalError(c)
		return nil, false
	}
	return snapshot, true
}
