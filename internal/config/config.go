// Package config provides configuration structures and validation for the
// reconciliation pipeline and the results API. It handles environment-based
// configuration for data paths, fee and exchange-rate tables, detection
// thresholds, generator settings, and server parameters.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field covers one
// subsystem and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Data        DataConfig
	Fees        FeesConfig
	Rates       RatesConfig
	Timing      TimingConfig
	Discrepancy DiscrepancyConfig
	Analysis    AnalysisConfig
	WorkerPool  WorkerPoolConfig
	Generator   GeneratorConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration for the results API
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// DataConfig contains input and output file locations
type DataConfig struct {
	TransactionsPath string // Transactions CSV
	SettlementsPath  string // Settlements CSV
	OutputPath       string // Directory for pipeline outputs
}

// FeesConfig contains the processing-fee table. Percentages are expressed
// as percent values (2.9 means 2.9%).
type FeesConfig struct {
	CardPercent    float64
	CardFixed      float64
	BankPercent    float64
	VoucherPercent float64
}

// RatesConfig contains currency-to-USD exchange rates
type RatesConfig struct {
	BRLToUSD float64
	MXNToUSD float64
	COPToUSD float64
	CLPToUSD float64
}

// MethodTiming describes the settlement timing norms of one payment method,
// all in days. Threshold is the point beyond which a settlement counts as
// delayed.
type MethodTiming struct {
	MinDays       int
	MaxDays       int
	ThresholdDays int
}

// TimingConfig contains settlement timing norms per payment method plus the
// fallback applied to unrecognized methods
type TimingConfig struct {
	Card    MethodTiming
	Bank    MethodTiming
	Voucher MethodTiming
	Default MethodTiming
}

// DiscrepancyConfig contains the dual threshold for flagging settlement
// amount discrepancies. A difference is flagged only when it exceeds both
// limits.
type DiscrepancyConfig struct {
	ThresholdPercent float64 // Percent of the expected amount
	ThresholdAmount  float64 // Fixed dollar floor
}

// AnalysisConfig contains analysis output limits
type AnalysisConfig struct {
	TopAnomalies int // Cap on the prioritized anomaly list
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// GeneratorConfig contains synthetic dataset parameters
type GeneratorConfig struct {
	Seed             int64
	TransactionCount int
	SettlementRate   float64 // Share of captured transactions that settle
	DelayedRate      float64 // Share of settlements delayed beyond threshold
	FeeVarianceRate  float64 // Share of settlements with a fee shortfall
	GhostCount       int
	WindowDays       int // Transaction timestamps spread over this window
}

// validate checks all configuration values against their minimum
// requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate data paths
	if c.Data.TransactionsPath == "" {
		validationErrors = append(validationErrors, "TRANSACTIONS_DATA_PATH is required")
	}
	if c.Data.SettlementsPath == "" {
		validationErrors = append(validationErrors, "SETTLEMENTS_DATA_PATH is required")
	}
	if c.Data.OutputPath == "" {
		validationErrors = append(validationErrors, "OUTPUT_PATH is required")
	}

	// Validate fee table
	if c.Fees.CardPercent < 0 {
		validationErrors = append(validationErrors, "CARD_FEE_PERCENT must not be negative")
	}
	if c.Fees.CardFixed < 0 {
		validationErrors = append(validationErrors, "CARD_FEE_FIXED must not be negative")
	}
	if c.Fees.BankPercent < 0 {
		validationErrors = append(validationErrors, "BANK_FEE_PERCENT must not be negative")
	}
	if c.Fees.VoucherPercent < 0 {
		validationErrors = append(validationErrors, "VOUCHER_FEE_PERCENT must not be negative")
	}

	// Validate exchange rates
	if c.Rates.BRLToUSD <= 0 {
		validationErrors = append(validationErrors, "BRL_TO_USD must be greater than 0")
	}
	if c.Rates.MXNToUSD <= 0 {
		validationErrors = append(validationErrors, "MXN_TO_USD must be greater than 0")
	}
	if c.Rates.COPToUSD <= 0 {
		validationErrors = append(validationErrors, "COP_TO_USD must be greater than 0")
	}
	if c.Rates.CLPToUSD <= 0 {
		validationErrors = append(validationErrors, "CLP_TO_USD must be greater than 0")
	}

	// Validate settlement timing norms
	for _, timing := range []struct {
		name string
		t    MethodTiming
	}{
		{"CARD", c.Timing.Card},
		{"BANK", c.Timing.Bank},
		{"VOUCHER", c.Timing.Voucher},
		{"DEFAULT", c.Timing.Default},
	} {
		if timing.t.MinDays <= 0 {
			validationErrors = append(validationErrors, timing.name+"_SETTLEMENT_MIN must be greater than 0")
		}
		if timing.t.MaxDays < timing.t.MinDays {
			validationErrors = append(validationErrors, timing.name+"_SETTLEMENT_MAX must not be less than the minimum")
		}
		if timing.t.ThresholdDays < timing.t.MaxDays {
			validationErrors = append(validationErrors, timing.name+"_SETTLEMENT_THRESHOLD must not be less than the maximum")
		}
	}

	// Validate discrepancy thresholds
	if c.Discrepancy.ThresholdPercent <= 0 {
		validationErrors = append(validationErrors, "DISCREPANCY_THRESHOLD_PERCENT must be greater than 0")
	}
	if c.Discrepancy.ThresholdAmount <= 0 {
		validationErrors = append(validationErrors, "DISCREPANCY_THRESHOLD_AMOUNT must be greater than 0")
	}

	// Validate analysis config
	if c.Analysis.TopAnomalies <= 0 {
		validationErrors = append(validationErrors, "ANALYSIS_TOP_ANOMALIES must be greater than 0")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Validate generator config
	if c.Generator.TransactionCount <= 0 {
		validationErrors = append(validationErrors, "GENERATOR_TRANSACTION_COUNT must be greater than 0")
	}
	if c.Generator.SettlementRate <= 0 || c.Generator.SettlementRate > 1 {
		validationErrors = append(validationErrors, "GENERATOR_SETTLEMENT_RATE must be in (0, 1]")
	}
	if c.Generator.DelayedRate < 0 || c.Generator.DelayedRate > 1 {
		validationErrors = append(validationErrors, "GENERATOR_DELAYED_RATE must be in [0, 1]")
	}
	if c.Generator.FeeVarianceRate < 0 || c.Generator.FeeVarianceRate > 1 {
		validationErrors = append(validationErrors, "GENERATOR_FEE_VARIANCE_RATE must be in [0, 1]")
	}
	if c.Generator.GhostCount < 0 {
		validationErrors = append(validationErrors, "GENERATOR_GHOST_COUNT must not be negative")
	}
	if c.Generator.WindowDays <= 0 {
		validationErrors = append(validationErrors, "GENERATOR_WINDOW_DAYS must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
