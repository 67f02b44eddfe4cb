package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentledger/internal/amqp"
	"rentledger/internal/backend"
	"rentledger/internal/cli"
	"rentledger/internal/config"
	"rentledger/internal/log"
	"rentledger/internal/services"
	"rentledger/internal/sheets"
	gsheet "rentledger/internal/sheets/google"
	memsheet "rentledger/internal/sheets/memory"
	"rentledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting rentledger-worker")

	cli.LoadAndValidateConfig(logger, cfg)
	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Worker reads an empty in-process store with the memory backend; use sqlite or postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := cli.InitLedger(ctx, logger, cfg)
	ledgerService := services.NewLedgerService(l.Gateway, l.Engine, services.WithSummaryCache(l.Summaries))
	defer ledgerService.Close()

	// Google Sheets is optional; without it summaries are mirrored in memory only.
	var writer sheets.SummaryWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSummarySheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memsheet.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	mirror := worker.NewMirrorWorker(ledgerService, writer, worker.MirrorConfig{ResyncInterval: cfg.SyncInterval})
	if err := mirror.Start(ctx); err != nil {
		logger.Error("Failed to start mirror worker", log.FieldError, err)
		os.Exit(1)
	}

	if cfg.AMQPURL != "" {
		consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer consumer.Close()

		go func() {
			if err := consumer.ConsumeLedgerEvents(ctx, mirror.HandleLedgerEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption failed", log.FieldError, err)
				cancel()
			}
		}()
	} else {
		logger.Info("Skipping AMQP consumption - relying on periodic resync", "interval", cfg.SyncInterval)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()
	if err := mirror.Stop(shutdownCtx); err != nil {
		logger.Warn("Mirror worker did not stop cleanly", log.FieldError, err)
	}
	logger.Info("Worker shutdown complete")
}
