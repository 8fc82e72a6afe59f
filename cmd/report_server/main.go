package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/payment-recon/internal/config"
	"github.com/payment-recon/internal/data/runstore"
	"github.com/payment-recon/internal/logger"
	"github.com/payment-recon/internal/platform/storage"
	"github.com/payment-recon/internal/report_api"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig("report_server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Open the pipeline's output directory; an empty directory is fine,
	// the API answers 404 until the first run lands.
	files, err := storage.NewStore(log, cfg.Data.OutputPath)
	if err != nil {
		log.Error("Failed to open output directory", "error", err, "path", cfg.Data.OutputPath)
		os.Exit(1)
	}

	runs := runstore.NewStore(files, log)

	// Initialize REST server
	server := report_api.NewServer(log, cfg, runs)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		os.Exit(1)
	}

	if serverErr != nil {
		os.Exit(1)
	}

	log.Info("Server shutdown completed successfully")
}
