package report

import (
	"os"
	"path/filepath"
	"testing"

	"salao/internal/core"
	"salao/internal/log"
)

func TestExporterWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	e := NewExporter(dir, log.Discard())

	p, _ := core.ResolvePeriod(2, 2025, 3)
	r := core.BuildReport(p, []core.Appointment{rec("2025-03-17", 4500, "Escova")})

	path, err := e.Write(r)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "fechamento_2025_3_quinzena_2.txt" {
		t.Fatalf("path = %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != core.RenderLedgerText(r) {
		t.Fatalf("file content = %q", got)
	}

	// Overwrite with an empty report of the same period.
	if _, err := e.Write(core.Report{Period: p}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "Fechamento 16/03/2025 a 30/03/2025\n\n\nTOTAL 0,00\n" {
		t.Fatalf("rewritten content = %q", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}
