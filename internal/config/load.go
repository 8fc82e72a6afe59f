package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigWithName loads configuration using the specified name, auto-detecting the file type.
// This is useful when the configuration file extension is unknown or variable.
func LoadConfigWithName(configName string) (*Config, error) {
	return loadConfig(configName, "")
}

// LoadConfigWithNameAndType loads configuration with explicit name and type specification.
// Use this when you need to force a specific configuration format (e.g., "yaml", "json").
func LoadConfigWithNameAndType(configName, configType string) (*Config, error) {
	return loadConfig(configName, configType)
}

// LoadConfig loads configuration from a .env file using the provided base name.
// This is the preferred method for loading environment-specific configurations.
func LoadConfig(configName string) (*Config, error) {
	configFileName := fmt.Sprintf("%s.env", configName)
	return loadConfig(configFileName, "env")
}

// loadConfig handles configuration loading from files and environment variables.
// It implements a layered approach to configuration:
// 1. Load defaults
// 2. Override with config file values (if found)
// 3. Override with environment variables
// 4. Validate the final configuration
func loadConfig(configName, configType string) (*Config, error) {
	// Initialize viper with default values
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	if configType != "" {
		v.SetConfigType(configType)
	}

	// Add config paths in order of priority
	v.AddConfigPath("./configs") // First check in configs directory
	v.AddConfigPath(".")         // Then check in root directory

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Printf("INFO: No config file '%s' found, relying on environment variables and defaults.\n", configName)
		} else {
			fmt.Printf("WARNING: Error reading config file (%s): %v\n", v.ConfigFileUsed(), err)
		}
	} else {
		fmt.Printf("INFO: Config loaded from file: %s\n", v.ConfigFileUsed())
	}

	v.AutomaticEnv() // Automatically read matching environment variables

	// Build the config struct
	config := &Config{
		Application: ApplicationConfig{
			Env:  v.GetString("APP_ENV"),
			Name: v.GetString("APP_NAME"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		Data: DataConfig{
			TransactionsPath: v.GetString("TRANSACTIONS_DATA_PATH"),
			SettlementsPath:  v.GetString("SETTLEMENTS_DATA_PATH"),
			OutputPath:       v.GetString("OUTPUT_PATH"),
		},
		Fees: FeesConfig{
			CardPercent:    v.GetFloat64("CARD_FEE_PERCENT"),
			CardFixed:      v.GetFloat64("CARD_FEE_FIXED"),
			BankPercent:    v.GetFloat64("BANK_FEE_PERCENT"),
			VoucherPercent: v.GetFloat64("VOUCHER_FEE_PERCENT"),
		},
		Rates: RatesConfig{
			BRLToUSD: v.GetFloat64("BRL_TO_USD"),
			MXNToUSD: v.GetFloat64("MXN_TO_USD"),
			COPToUSD: v.GetFloat64("COP_TO_USD"),
			CLPToUSD: v.GetFloat64("CLP_TO_USD"),
		},
		Timing: TimingConfig{
			Card: MethodTiming{
				MinDays:       v.GetInt("CARD_SETTLEMENT_MIN"),
				MaxDays:       v.GetInt("CARD_SETTLEMENT_MAX"),
				ThresholdDays: v.GetInt("CARD_SETTLEMENT_THRESHOLD"),
			},
			Bank: MethodTiming{
				MinDays:       v.GetInt("BANK_SETTLEMENT_MIN"),
				MaxDays:       v.GetInt("BANK_SETTLEMENT_MAX"),
				ThresholdDays: v.GetInt("BANK_SETTLEMENT_THRESHOLD"),
			},
			Voucher: MethodTiming{
				MinDays:       v.GetInt("VOUCHER_SETTLEMENT_MIN"),
				MaxDays:       v.GetInt("VOUCHER_SETTLEMENT_MAX"),
				ThresholdDays: v.GetInt("VOUCHER_SETTLEMENT_THRESHOLD"),
			},
			Default: MethodTiming{
				MinDays:       v.GetInt("DEFAULT_SETTLEMENT_MIN"),
				MaxDays:       v.GetInt("DEFAULT_SETTLEMENT_MAX"),
				ThresholdDays: v.GetInt("DEFAULT_SETTLEMENT_THRESHOLD"),
			},
		},
		Discrepancy: DiscrepancyConfig{
			ThresholdPercent: v.GetFloat64("DISCREPANCY_THRESHOLD_PERCENT"),
			ThresholdAmount:  v.GetFloat64("DISCREPANCY_THRESHOLD_AMOUNT"),
		},
		Analysis: AnalysisConfig{
			TopAnomalies: v.GetInt("ANALYSIS_TOP_ANOMALIES"),
		},
		WorkerPool: WorkerPoolConfig{
			Size: v.GetInt("WORKER_POOL_SIZE"),
		},
		Generator: GeneratorConfig{
			Seed:             v.GetInt64("GENERATOR_SEED"),
			TransactionCount: v.GetInt("GENERATOR_TRANSACTION_COUNT"),
			SettlementRate:   v.GetFloat64("GENERATOR_SETTLEMENT_RATE"),
			DelayedRate:      v.GetFloat64("GENERATOR_DELAYED_RATE"),
			FeeVarianceRate:  v.GetFloat64("GENERATOR_FEE_VARIANCE_RATE"),
			GhostCount:       v.GetInt("GENERATOR_GHOST_COUNT"),
			WindowDays:       v.GetInt("GENERATOR_WINDOW_DAYS"),
		},
	}

	// Validate the configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults initializes configuration with sensible default values.
// These values are used when no configuration file or environment variables are present.
func setDefaults(v *viper.Viper) {
	// HTTP Server defaults for the results API
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 120*time.Second)

	// Data file defaults
	v.SetDefault("TRANSACTIONS_DATA_PATH", "./data/raw/transactions.csv")
	v.SetDefault("SETTLEMENTS_DATA_PATH", "./data/raw/settlements.csv")
	v.SetDefault("OUTPUT_PATH", "./data/processed")

	// Fee table defaults: 2.9% + $0.30 for cards, 1.5% for bank transfers,
	// 3.5% for cash vouchers
	v.SetDefault("CARD_FEE_PERCENT", 2.9)
	v.SetDefault("CARD_FEE_FIXED", 0.30)
	v.SetDefault("BANK_FEE_PERCENT", 1.5)
	v.SetDefault("VOUCHER_FEE_PERCENT", 3.5)

	// Exchange rate defaults
	v.SetDefault("BRL_TO_USD", 0.20)
	v.SetDefault("MXN_TO_USD", 0.055)
	v.SetDefault("COP_TO_USD", 0.00025)
	v.SetDefault("CLP_TO_USD", 0.0011)

	// Settlement timing norms in days per payment method
	v.SetDefault("CARD_SETTLEMENT_MIN", 2)
	v.SetDefault("CARD_SETTLEMENT_MAX", 3)
	v.SetDefault("CARD_SETTLEMENT_THRESHOLD", 5)
	v.SetDefault("BANK_SETTLEMENT_MIN", 5)
	v.SetDefault("BANK_SETTLEMENT_MAX", 7)
	v.SetDefault("BANK_SETTLEMENT_THRESHOLD", 10)
	v.SetDefault("VOUCHER_SETTLEMENT_MIN", 3)
	v.SetDefault("VOUCHER_SETTLEMENT_MAX", 5)
	v.SetDefault("VOUCHER_SETTLEMENT_THRESHOLD", 8)
	v.SetDefault("DEFAULT_SETTLEMENT_MIN", 2)
	v.SetDefault("DEFAULT_SETTLEMENT_MAX", 5)
	v.SetDefault("DEFAULT_SETTLEMENT_THRESHOLD", 7)

	// Discrepancy detection: flag only when the difference exceeds both
	// the percentage and the fixed-dollar limit
	v.SetDefault("DISCREPANCY_THRESHOLD_PERCENT", 1.0)
	v.SetDefault("DISCREPANCY_THRESHOLD_AMOUNT", 1.0)

	// Analysis defaults
	v.SetDefault("ANALYSIS_TOP_ANOMALIES", 50)

	// Logging defaults - 'info' provides good balance of information vs noise
	v.SetDefault("LOG_LEVEL", "info")

	// Application defaults
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "payment-recon")

	// Worker Pool defaults - suitable for most applications
	v.SetDefault("WORKER_POOL_SIZE", 4)

	// Generator defaults match the documented synthetic dataset profile
	v.SetDefault("GENERATOR_SEED", 42)
	v.SetDefault("GENERATOR_TRANSACTION_COUNT", 1000)
	v.SetDefault("GENERATOR_SETTLEMENT_RATE", 0.75)
	v.SetDefault("GENERATOR_DELAYED_RATE", 0.10)
	v.SetDefault("GENERATOR_FEE_VARIANCE_RATE", 0.05)
	v.SetDefault("GENERATOR_GHOST_COUNT", 3)
	v.SetDefault("GENERATOR_WINDOW_DAYS", 30)
}
