package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentledger/internal/amqp"
	"rentledger/internal/cache"
	"rentledger/internal/cli"
	"rentledger/internal/config"
	apphttp "rentledger/internal/http"
	"rentledger/internal/log"
	"rentledger/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.LoadAndValidateConfig(logger, cfg)

	tokens, err := cfg.Tokens()
	if err != nil {
		logger.Error("Invalid API tokens", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := cli.InitLedger(ctx, logger, cfg)

	janitor := cache.NewJanitor()
	janitor.Register(l.Summaries)
	janitor.Start(ctx, time.Minute)
	defer janitor.Stop()

	opts := []services.Option{services.WithSummaryCache(l.Summaries)}
	if cfg.AMQPURL != "" {
		publisher, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Writes still succeed; the worker catches up on its resync.
			logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			opts = append(opts, services.WithPublisher(publisher))
		}
	}
	ledgerService := services.NewLedgerService(l.Gateway, l.Engine, opts...)
	defer func() {
		if err := ledgerService.Close(); err != nil {
			logger.Error("Failed to close ledger service", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, ledgerService, apphttp.Options{
		Tokens: tokens,
		Logger: logger.WithComponent(log.ComponentHTTP),
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting rentledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"partners", l.Partners.String(),
		"actors", len(tokens))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
