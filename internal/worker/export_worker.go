package worker

import (
	"context"
	"fmt"

	"salao/internal/amqp"
	"salao/internal/core"
	"salao/internal/log"
	"salao/internal/report"
)

// LedgerWriter persists a rendered ledger and returns where it went.
type LedgerWriter interface {
	Write(r core.Report) (string, error)
}

// LedgerMirror copies a ledger to a secondary destination such as a
// spreadsheet. Mirroring the same period twice leaves a single copy.
type LedgerMirror interface {
	UpsertLedger(ctx context.Context, r core.Report) (string, error)
}

// ExportWorker turns export requests into ledger files.
type ExportWorker struct {
	builder report.Builder
	writer  LedgerWriter
	mirror  LedgerMirror
	logger  *log.Logger
}

// NewExportWorker wires the worker. mirror may be nil.
func NewExportWorker(b report.Builder, w LedgerWriter, mirror LedgerMirror, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		builder: b,
		writer:  w,
		mirror:  mirror,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExportRequest builds the requested fortnight, writes the ledger file
// and mirrors it when a mirror is configured. Any error leaves the request
// eligible for redelivery; rewriting the file and the mirror is idempotent.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	fields := log.NewFields().WithPeriod(msg.Half, msg.Year, msg.Month).WithOperation(log.OpExport)
	w.logger.InfoContext(ctx, "Processing export request", fields.ToSlice()...)

	r, err := w.builder.Rebuild(ctx, msg.Half, msg.Year, msg.Month)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	path, err := w.writer.Write(r)
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	if w.mirror != nil {
		rng, err := w.mirror.UpsertLedger(ctx, r)
		if err != nil {
			return fmt.Errorf("mirror ledger: %w", err)
		}
		fields[log.FieldSheetsRange] = rng
	}

	fields[log.FieldFile] = path
	w.logger.InfoContext(ctx, "Export completed",
		fields.WithReport(len(r.Buckets), r.GrandTotal.Cents).ToSlice()...)
	return nil
}
