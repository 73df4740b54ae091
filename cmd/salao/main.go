package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"salao/internal/amqp"
	"salao/internal/cli"
	apphttp "salao/internal/http"
	"salao/internal/log"
	"salao/internal/report"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger, false)
	store := cli.InitBackend(logger, cfg)
	reports, caches := cli.InitReportService(logger, cfg, store.Store)

	deps := apphttp.Deps{
		Reports:      reports,
		Selection:    report.NewSelection(reports, logger),
		Exporter:     report.NewExporter(cfg.ExportDir, logger),
		Appointments: store.Store,
		Ready:        store,
		Logger:       logger,
	}

	// Without a broker, exports are written in-process.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		deps.Publisher = amqpClient
		logger.Info("AMQP export queue enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, exports are written synchronously", "export_dir", cfg.ExportDir)
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := store.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting salao server", "port", cfg.Port, "backend", cfg.DataBackend, log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
