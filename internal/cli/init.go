// Package cli provides common initialization shared by cmd/rentledger and
// cmd/rentledger-worker.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"rentledger/internal/backend"
	"rentledger/internal/cache"
	"rentledger/internal/config"
	"rentledger/internal/core"
	"rentledger/internal/ledger"
	"rentledger/internal/log"
	"rentledger/internal/partners"
	"rentledger/internal/ports"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the configured level and sets it
// as the default. An unparseable level falls back to info.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	conf := log.DefaultConfig()
	conf.Component = component
	if level, err := config.ParseLogLevel(cfg.LogLevel); err == nil {
		conf.Level = level
	}
	logger := log.New(conf)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig validates cfg and exits the process on failure.
func LoadAndValidateConfig(logger *log.Logger, cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
}

// Ledger bundles what both processes need to compute ledger views.
type Ledger struct {
	Partners  partners.Config
	Engine    *ledger.Engine
	Gateway   ports.Gateway
	Summaries *cache.LRU[core.MonthKey, ledger.MonthSummary]
}

// InitLedger parses the partner table, opens the configured backend and
// sizes the summary cache. Exits the process on failure.
func InitLedger(ctx context.Context, logger *log.Logger, cfg *config.Config) *Ledger {
	partnerCfg, err := cfg.PartnerConfig()
	if err != nil {
		logger.Error("Invalid partner table", log.FieldError, err)
		os.Exit(1)
	}
	engine, err := ledger.NewEngine(partnerCfg)
	if err != nil {
		logger.Error("Failed to build ledger engine", log.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	return &Ledger{
		Partners:  partnerCfg,
		Engine:    engine,
		Gateway:   res.Gateway,
		Summaries: cache.NewLRU[core.MonthKey, ledger.MonthSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
	}
}
