// Package pipeline orchestrates a full reconciliation run: optional data
// generation, ingestion, reconciliation, analysis, and artifact writing.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/payment-recon/internal/analyze"
	"github.com/payment-recon/internal/config"
	"github.com/payment-recon/internal/currency"
	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/payment"
	"github.com/payment-recon/internal/domain/recon"
	"github.com/payment-recon/internal/fees"
	"github.com/payment-recon/internal/generator"
	"github.com/payment-recon/internal/ingestion"
	"github.com/payment-recon/internal/output"
	"github.com/payment-recon/internal/platform/storage"
	"github.com/payment-recon/internal/platform/workerpool"
	"github.com/payment-recon/internal/reconcile"
)

// Run is the metadata record of one pipeline execution, written to
// run.json next to the data artifacts. Unlike the data artifacts it is not
// reproducible across runs: the id and duration change every time.
type Run struct {
	RunID        string                   `json:"run_id"`
	GeneratedAt  string                   `json:"generated_at"`
	DurationMS   int64                    `json:"duration_ms"`
	Transactions int                      `json:"transactions"`
	Settlements  int                      `json:"settlements"`
	Ghosts       int                      `json:"ghost_settlements"`
	Anomalies    int                      `json:"anomalies"`
	StatusCounts map[string]int           `json:"status_counts"`
	Metrics      insight.AggregateMetrics `json:"metrics"`
}

// RunOptions control a single execution.
type RunOptions struct {
	// SkipGenerate reuses the existing raw CSV files instead of
	// generating a fresh dataset.
	SkipGenerate bool
	// Now anchors the generation window and the report timestamp.
	// Zero means the current wall clock time.
	Now time.Time
}

// Pipeline owns every stage of a reconciliation run. Close releases the
// worker pool when the pipeline is no longer needed.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	generator *generator.Generator
	loader    *ingestion.Loader
	engine    *reconcile.Engine
	analyzer  *analyze.Analyzer
	writer    *output.Writer
	pool      *workerpool.Pool
}

// New wires a pipeline from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	pool, err := workerpool.New(cfg.WorkerPool.Size, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	store, err := storage.NewStore(logger, cfg.Data.OutputPath)
	if err != nil {
		pool.Release()
		return nil, fmt.Errorf("failed to create output store: %w", err)
	}

	feeModel := fees.NewModel(&cfg.Fees)
	converter := currency.NewConverter(&cfg.Rates)

	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		generator: generator.NewGenerator(cfg.Generator, cfg.Timing, feeModel, &cfg.Rates, logger),
		loader:    ingestion.NewLoader(logger),
		engine:    reconcile.NewEngine(feeModel, cfg.Timing, cfg.Discrepancy, pool, logger),
		analyzer:  analyze.NewAnalyzer(converter, &cfg.Analysis, logger),
		writer:    output.NewWriter(store, logger),
		pool:      pool,
	}, nil
}

// Run executes the pipeline end to end and returns the run record.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Run, error) {
	started := time.Now()
	now := opts.Now
	if now.IsZero() {
		now = started
	}
	runID := uuid.NewString()
	p.logger.Info("pipeline run starting", "run_id", runID, "skip_generate", opts.SkipGenerate)

	if !opts.SkipGenerate {
		stage := time.Now()
		dataset := p.generator.Generate(now)
		if err := dataset.SaveCSV(p.cfg.Data.TransactionsPath, p.cfg.Data.SettlementsPath); err != nil {
			return nil, fmt.Errorf("generate stage failed: %w", err)
		}
		p.logger.Info("stage complete", "stage", "generate", "duration_ms", time.Since(stage).Milliseconds())
	}

	stage := time.Now()
	transactions, err := p.loader.LoadTransactions(p.cfg.Data.TransactionsPath)
	if err != nil {
		return nil, fmt.Errorf("ingest stage failed: %w", err)
	}
	settlements, err := p.loader.LoadSettlements(p.cfg.Data.SettlementsPath)
	if err != nil {
		return nil, fmt.Errorf("ingest stage failed: %w", err)
	}
	p.logger.Info("stage complete", "stage", "ingest", "duration_ms", time.Since(stage).Milliseconds())

	stage = time.Now()
	p.loader.ValidateDataset(transactions, settlements)
	p.logger.Info("stage complete", "stage", "validate", "duration_ms", time.Since(stage).Milliseconds())

	stage = time.Now()
	result, err := p.engine.Reconcile(ctx, transactions, settlements)
	if err != nil {
		return nil, fmt.Errorf("reconcile stage failed: %w", err)
	}
	p.logger.Info("stage complete", "stage", "reconcile", "duration_ms", time.Since(stage).Milliseconds())

	stage = time.Now()
	report := p.analyzer.Analyze(result, now)
	p.logger.Info("stage complete", "stage", "analyze", "duration_ms", time.Since(stage).Milliseconds())

	run := &Run{
		RunID:        runID,
		GeneratedAt:  now.Format(payment.TimestampLayout),
		Transactions: len(transactions),
		Settlements:  len(settlements),
		Ghosts:       len(result.Ghosts),
		Anomalies:    len(report.Anomalies),
		StatusCounts: statusCounts(result.Records),
		Metrics:      report.Metrics,
	}

	stage = time.Now()
	if err := p.writeArtifacts(result, report, run, started); err != nil {
		return nil, fmt.Errorf("output stage failed: %w", err)
	}
	p.logger.Info("stage complete", "stage", "output", "duration_ms", time.Since(stage).Milliseconds())

	p.logger.Info("pipeline run finished",
		"run_id", runID,
		"transactions", run.Transactions,
		"settlements", run.Settlements,
		"ghosts", run.Ghosts,
		"anomalies", run.Anomalies,
		"duration_ms", run.DurationMS,
	)
	return run, nil
}

// Close releases the pipeline's worker pool.
func (p *Pipeline) Close() {
	p.pool.Release()
}

func (p *Pipeline) writeArtifacts(result *reconcile.Result, report *analyze.Report, run *Run, started time.Time) error {
	if err := p.writer.WriteReconciled(result.Records); err != nil {
		return err
	}
	if err := p.writer.WriteGhosts(result.Ghosts); err != nil {
		return err
	}
	if err := p.writer.WriteInsights(report.Insights); err != nil {
		return err
	}
	if err := p.writer.WriteAnomalies(report.Anomalies); err != nil {
		return err
	}
	run.DurationMS = time.Since(started).Milliseconds()
	return p.writer.WriteJSON(output.RunFile, run)
}

func statusCounts(records []recon.ReconciledRecord) map[string]int {
	counts := make(map[string]int, 5)
	for i := range records {
		counts[string(records[i].SettlementStatus)]++
	}
	return counts
}
