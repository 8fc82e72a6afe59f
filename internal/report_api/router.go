package report_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/payment-recon/internal/report_api/handler"
	"github.com/payment-recon/internal/report_api/middleware"
)

// setupRouter configures API routes and middleware for the report server
func setupRouter(logger *slog.Logger, r *gin.Engine, reports *handler.ReportHandler) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// Read-only reporting endpoints over the latest run's artifacts
	v1 := r.Group("/api/v1")
	{
		runs := v1.Group("/runs")
		{
			runs.GET("/latest", reports.LatestRun)
		}

		v1.GET("/insights", reports.Insights)
		v1.GET("/anomalies", reports.Anomalies)
		v1.GET("/ghosts", reports.Ghosts)
		v1.GET("/reconciled", reports.Reconciled)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	r.NoRoute(func(c *gin.Context) {
		handler.RespondNotFound(c, "Route not found")
	})
}
