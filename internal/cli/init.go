// Package cli holds the bootstrap shared by cmd/salao and cmd/salao-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"salao/internal/backend"
	"salao/internal/cache"
	"salao/internal/config"
	"salao/internal/core"
	"salao/internal/log"
	"salao/internal/report"
	"salao/internal/store"
)

// SetupLogger builds the application logger from LOG_LEVEL and installs it as
// the slog default.
func SetupLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits on validation failure.
// With worker set, the worker-only requirements are checked too.
func LoadAndValidateConfig(logger *log.Logger, worker bool) *config.Config {
	cfg := config.Load()
	validate := cfg.Validate
	if worker {
		validate = cfg.ValidateWorker
	}
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend builds the configured store or exits.
func InitBackend(logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "type", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// InitReportService wires the report service with its cache. The returned
// manager runs periodic cache cleanup and must be stopped on shutdown.
func InitReportService(logger *log.Logger, cfg *config.Config, q store.AppointmentQuerier) (*report.Service, *cache.Manager) {
	reports := cache.NewLRUCache[core.Report](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	mgr := cache.NewManager(logger)
	mgr.Register(reports)
	mgr.StartCleanup(cfg.ReportCacheTTL)
	return report.NewService(q, reports, cfg.QueryTimeout, logger), mgr
}

// GracefulShutdown returns a context cancelled on SIGINT/SIGTERM. cleanup runs
// once after the signal, bounded by timeout; done closes when it finished.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the shutdown sequence finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
