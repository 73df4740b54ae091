// Package backend selects and builds the appointment store.
package backend

import (
	"context"
	"fmt"

	"salao/internal/config"
	"salao/internal/log"
	"salao/internal/store"
	"salao/internal/store/memory"
	"salao/internal/storage"
)

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	}
	return false
}

type CleanupFunc func() error

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult is the built store plus its teardown.
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Ping checks the store when it supports readiness probes.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Config struct {
	Type         BackendType
	SQLiteDBPath string
	SeedFile     string
}

// FromAppConfig extracts the backend settings of the application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", cfg.DataBackend)
	}
	return Config{Type: bt, SQLiteDBPath: cfg.SQLiteDBPath, SeedFile: cfg.SeedFile}, nil
}

// Factory builds stores from config.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *Factory) Create(cfg Config) (*BackendResult, error) {
	switch cfg.Type {
	case SQLiteBackend:
		if cfg.SQLiteDBPath == "" {
			return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &BackendResult{Store: repo, Cleanup: repo.Close}, nil

	case MemoryBackend:
		s := memory.NewFromFile(cfg.SeedFile)
		f.logger.Info("Initialized memory backend", "seed_file", cfg.SeedFile)
		return &BackendResult{Store: s}, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
}
