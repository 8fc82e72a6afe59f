package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/payment-recon/internal/config"
	"github.com/payment-recon/internal/logger"
	"github.com/payment-recon/internal/pipeline"
)

func main() {
	var (
		configName   = flag.String("config", "recon_pipeline", "config file base name, resolved as configs/<name>.env")
		transactions = flag.String("transactions", "", "transactions CSV path (overrides config)")
		settlements  = flag.String("settlements", "", "settlements CSV path (overrides config)")
		outputDir    = flag.String("output", "", "output directory (overrides config)")
		skipGenerate = flag.Bool("skip-generate", false, "reconcile the existing CSV files instead of generating a dataset")
		seed         = flag.Int64("seed", 0, "generator seed (overrides config)")
		count        = flag.Int("transactions-count", 0, "generated transaction count (overrides config)")
	)
	flag.Parse()

	// Initialize configuration
	cfg, err := config.LoadConfig(*configName)
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Explicitly set flags override config-file and environment values
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transactions":
			cfg.Data.TransactionsPath = *transactions
		case "settlements":
			cfg.Data.SettlementsPath = *settlements
		case "output":
			cfg.Data.OutputPath = *outputDir
		case "seed":
			cfg.Generator.Seed = *seed
		case "transactions-count":
			cfg.Generator.TransactionCount = *count
		}
	})

	log := logger.NewLogger(cfg)

	p, err := pipeline.New(cfg, log)
	if err != nil {
		log.Error("Failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := p.Run(ctx, pipeline.RunOptions{SkipGenerate: *skipGenerate})
	p.Close()
	if err != nil {
		log.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}

	log.Info("Reconciliation artifacts ready",
		"run_id", run.RunID,
		"output", cfg.Data.OutputPath,
		"transactions", run.Transactions,
		"settlements", run.Settlements,
		"anomalies", run.Anomalies,
	)
}
