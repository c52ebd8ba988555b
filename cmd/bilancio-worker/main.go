package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/config"
	"bilancio/internal/export/sheets"
	"bilancio/internal/log"
	"bilancio/internal/reports"
	"bilancio/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting bilancio-worker", log.FieldOperation, log.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Data backend
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend",
			log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	svc := reports.NewService(result.Store, logger, cfg.IndexDegree)
	if err := svc.Rebuild(ctx); err != nil {
		logger.Error("Initial index build failed", log.FieldError, err)
		os.Exit(1)
	}

	// The worker exists to drain change notifications, so a missing
	// broker is fatal here.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Google Sheets export (optional)
	var opts []worker.Option
	if cfg.GoogleSpreadsheetID != "" {
		exporter, err := sheets.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		opts = append(opts, worker.WithExporter(exporter))
		logger.Info("Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewRebuildWorker(svc, logger, cfg.RebuildInterval, opts...)

	logger.Info("Worker running",
		"interval", cfg.RebuildInterval.String(), log.FieldBackend, cfg.DataBackend)
	if err := w.Run(ctx, amqpClient); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
