package main

import (
	"context"
	"errors"
	"os"

	"salao/internal/amqp"
	"salao/internal/cli"
	"salao/internal/log"
	"salao/internal/report"
	gsheet "salao/internal/sheets/google"
	"salao/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting salao-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger, true)
	backend := cli.InitBackend(logger, cfg)
	reports, caches := cli.InitReportService(logger, cfg, backend.Store)

	// The Sheets mirror is optional.
	var mirror worker.LedgerMirror
	if cfg.SheetsMirrorEnabled() {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(reports, report.NewExporter(cfg.ExportDir, logger), mirror, logger)

	var scheduler *worker.ClosingScheduler
	if cfg.ScheduledExportEnabled() {
		scheduler = worker.NewClosingScheduler(exportWorker, cfg.ExportSchedule, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error("Failed to schedule closing export", log.FieldError, err, "schedule", cfg.ExportSchedule)
			os.Exit(1)
		}
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if scheduler != nil {
			select {
			case <-scheduler.Stop().Done():
			case <-ctx.Done():
			}
		}
		caches.Stop()
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
		if err := backend.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Consuming export requests", "queue", cfg.AMQPQueue, "export_dir", cfg.ExportDir)
	if err := amqpClient.ConsumeExportRequests(ctx, exportWorker.HandleExportRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
