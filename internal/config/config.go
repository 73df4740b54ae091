package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	LogLevel        string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	SeedFile     string

	// AMQP, optional for the server, required by the worker
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Reports
	ExportDir       string
	QueryTimeout    time.Duration
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	// ExportSchedule is a five-field cron expression for the worker's
	// automatic closing export, or "off".
	ExportSchedule string

	// Google Sheets ledger mirror, optional
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

var ErrAMQPRequired = errors.New("AMQP_URL is required")

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/salao.db"),
		SeedFile:     getEnv("SEED_FILE", "./data/seed_agendamentos.txt"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salao"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_requests"),

		ExportDir:       getEnv("EXPORT_DIR", "./exports"),
		QueryTimeout:    getEnvDuration("QUERY_TIMEOUT", 7*time.Second),
		ReportCacheSize: getEnvInt("REPORT_CACHE_SIZE", 24),
		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", 5*time.Minute),
		ExportSchedule:  getEnv("EXPORT_SCHEDULE", "0 6 1,16 * *"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Fechamentos"),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	valid := false
	for _, b := range validBackends {
		if c.DataBackend == b {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if strings.TrimSpace(c.ExportDir) == "" {
		errs = append(errs, "export directory cannot be empty")
	}

	if c.QueryTimeout < 100*time.Millisecond {
		errs = append(errs, fmt.Sprintf("invalid query timeout %v: must be at least 100ms", c.QueryTimeout))
	} else if c.QueryTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid query timeout %v: must be at most 1 minute", c.QueryTimeout))
	}

	if c.ReportCacheSize < 1 || c.ReportCacheSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid report cache size %d: must be between 1 and 1000", c.ReportCacheSize))
	}
	if c.ReportCacheTTL < time.Second || c.ReportCacheTTL > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid report cache TTL %v: must be between 1 second and 24 hours", c.ReportCacheTTL))
	}

	if c.ScheduledExportEnabled() {
		if _, err := cron.ParseStandard(c.ExportSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("invalid export schedule '%s': %v", c.ExportSchedule, err))
		}
	}

	if c.GoogleSpreadsheetID != "" && strings.TrimSpace(c.GoogleSheetName) == "" {
		errs = append(errs, "Google Sheet name is required when a spreadsheet ID is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateWorker runs Validate plus the checks only the export worker needs.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AMQPURL == "" {
		return ErrAMQPRequired
	}
	return nil
}

// SheetsMirrorEnabled reports whether exports should be copied to Google Sheets.
func (c *Config) SheetsMirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// ScheduledExportEnabled reports whether the worker exports closed fortnights
// on its own.
func (c *Config) ScheduledExportEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(c.ExportSchedule))
	return v != "" && v != "off"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
