package report

import (
	"fmt"
	"os"
	"path/filepath"

	"salao/internal/core"
	"salao/internal/log"
)

// Exporter writes ledger files into a directory.
type Exporter struct {
	dir    string
	logger *log.Logger
}

func NewExporter(dir string, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Exporter{dir: dir, logger: logger.WithComponent(log.ComponentExport)}
}

// Write renders r and stores it as fechamento_{year}_{month}_quinzena_{half}.txt,
// replacing any previous export of the same period. Readers never see a
// partially written file.
func (e *Exporter) Write(r core.Report) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := core.ExportFileName(r.Period)
	final := filepath.Join(e.dir, name)

	tmp, err := os.CreateTemp(e.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(core.RenderLedgerText(r)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close ledger: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("rename ledger: %w", err)
	}

	e.logger.Info("Ledger exported",
		log.NewFields().WithPeriod(r.Period.Half, r.Period.Year, r.Period.Month).
			WithReport(len(r.Buckets), r.GrandTotal.Cents).
			WithOperation(log.OpExport).ToSlice()...)
	return final, nil
}

func (e *Exporter) Dir() string {
	return e.dir
}
