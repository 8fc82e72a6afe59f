package report_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payment-recon/internal/config"
	"github.com/payment-recon/internal/data/runstore"
	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
	"github.com/payment-recon/internal/output"
	"github.com/payment-recon/internal/pipeline"
	"github.com/payment-recon/internal/platform/storage"
)

func serverConfig() *config.Config {
	return &config.Config{
		Application: config.ApplicationConfig{Env: "test", Name: "payment-recon"},
		Server: config.ServerConfig{
			Port:            8081,
			ShutdownTimeout: time.Second,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			IdleTimeout:     time.Second,
		},
	}
}

// newTestServer builds a full server over a temp output directory. When
// withArtifacts is false the directory stays empty, so every data endpoint
// sees a store without a run.
func newTestServer(t *testing.T, withArtifacts bool) *Server {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	files, err := storage.NewStore(logger, t.TempDir())
	require.NoError(t, err)

	if withArtifacts {
		writeRunArtifacts(t, output.NewWriter(files, logger))
	}

	return NewServer(logger, serverConfig(), runstore.NewStore(files, logger))
}

func writeRunArtifacts(t *testing.T, w *output.Writer) {
	t.Helper()

	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []recon.ReconciledRecord{
		{
			Transaction: payment.Transaction{
				ID: "TXN_001", Timestamp: ts, Amount: decimal.RequireFromString("100.00"),
				Currency: "BRL", Status: payment.StatusCaptured, Provider: "PayBridge",
				Method: payment.MethodCreditCard, Country: "Brazil", CustomerID: "CUST_1001",
			},
			ExpectedSettledAmount:  decimal.RequireFromString("96.80"),
			SettlementStatus:       recon.SettlementStatusMissing,
			ExpectedSettlementDate: ts.AddDate(0, 0, 2),
		},
		{
			Transaction: payment.Transaction{
				ID: "TXN_002", Timestamp: ts, Amount: decimal.RequireFromString("200.00"),
				Currency: "MXN", Status: payment.StatusCaptured, Provider: "MexPago",
				Method: payment.MethodDebitCard, Country: "Mexico", CustomerID: "CUST_1002",
			},
			ExpectedSettledAmount:  decimal.RequireFromString("193.40"),
			SettlementStatus:       recon.SettlementStatusMissing,
			ExpectedSettlementDate: ts.AddDate(0, 0, 2),
		},
	}
	require.NoError(t, w.WriteReconciled(records))

	require.NoError(t, w.WriteGhosts([]recon.GhostSettlement{
		recon.NewGhost(payment.Settlement{
			ID: "SET_901", TransactionID: "TXN_991", Timestamp: ts,
			Amount: decimal.RequireFromString("75.00"), Currency: "BRL", Provider: "FastPay",
		}),
	}))

	require.NoError(t, w.WriteInsights(insight.Insights{
		GeneratedAt: "2025-07-01 12:00:00",
		Summary:     insight.Summary{TotalMissingRevenueUSD: 30.64, TotalTransactionsAnalyzed: 2},
	}))

	require.NoError(t, w.WriteAnomalies([]insight.Anomaly{
		{ID: "ANO_0001", TransactionID: "TXN_001", Type: insight.AnomalyMissingSettlement, Severity: insight.SeverityCritical, AmountUSD: 20},
		{ID: "ANO_0002", TransactionID: "TXN_002", Type: insight.AnomalyMissingSettlement, Severity: insight.SeverityCritical, AmountUSD: 10.64},
		{ID: "ANO_0003", TransactionID: "TXN_991", SettlementID: "SET_901", Type: insight.AnomalyGhostSettlement, Severity: insight.SeverityHigh, AmountUSD: 15},
	}))

	require.NoError(t, w.WriteJSON(output.RunFile, pipeline.Run{
		RunID:        "run-integration",
		GeneratedAt:  "2025-07-01 12:00:00",
		DurationMS:   57,
		Transactions: 2,
		Settlements:  0,
		Ghosts:       1,
		Anomalies:    3,
		StatusCounts: map[string]int{"missing": 2},
	}))
}

func serve(s *Server, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.httpRouter.ServeHTTP(rr, req)
	return rr
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, false)

	rr := serve(s, "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

func TestServer_LatestRunEndToEnd(t *testing.T) {
	s := newTestServer(t, true)

	rr := serve(s, "/api/v1/runs/latest")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	var response struct {
		Data          pipeline.Run `json:"data"`
		CorrelationID string       `json:"correlation_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "run-integration", response.Data.RunID)
	assert.Equal(t, rr.Header().Get("X-Correlation-ID"), response.CorrelationID)
}

func TestServer_AnomalySeverityFilter(t *testing.T) {
	s := newTestServer(t, true)

	rr := serve(s, "/api/v1/anomalies?severity=high")

	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Data []insight.Anomaly `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "ANO_0003", response.Data[0].ID)
}

func TestServer_ReconciledPagination(t *testing.T) {
	s := newTestServer(t, true)

	rr := serve(s, "/api/v1/reconciled?page=2&per_page=1")

	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Data []recon.ReconciledRecord `json:"data"`
		Meta struct {
			Page       int `json:"page"`
			PerPage    int `json:"per_page"`
			TotalPages int `json:"total_pages"`
			TotalItems int `json:"total_items"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "TXN_002", response.Data[0].ID)
	assert.Equal(t, 2, response.Meta.Page)
	assert.Equal(t, 2, response.Meta.TotalPages)
	assert.Equal(t, 2, response.Meta.TotalItems)
}

func TestServer_UnknownRouteReturnsEnvelope(t *testing.T) {
	s := newTestServer(t, true)

	rr := serve(s, "/api/v1/settlements")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"NOT_FOUND"`)
	assert.Contains(t, rr.Body.String(), `"correlation_id"`)
}

func TestServer_NoRunYields404(t *testing.T) {
	s := newTestServer(t, false)

	for _, path := range []string{
		"/api/v1/runs/latest",
		"/api/v1/insights",
		"/api/v1/anomalies",
		"/api/v1/ghosts",
		"/api/v1/reconciled",
	} {
		rr := serve(s, path)
		assert.Equal(t, http.StatusNotFound, rr.Code, "path %s", path)
		assert.Contains(t, rr.Body.String(), "No reconciliation run available yet", "path %s", path)
	}
}

func TestServer_StopWithoutStart(t *testing.T) {
	s := newTestServer(t, false)

	assert.NoError(t, s.Stop(context.Background()))
}
