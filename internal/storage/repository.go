package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"salao/internal/core"
	"salao/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateAppointment implements store.AppointmentWriter. Client and service
// rows are created by name on first use.
func (r *SQLiteRepository) CreateAppointment(ctx context.Context, a core.NewAppointment) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	clienteID, err := q.UpsertCliente(ctx, uuid.NewString(), strings.TrimSpace(a.ClientName))
	if err != nil {
		return "", fmt.Errorf("upsert cliente: %w", err)
	}
	servicoID, err := q.UpsertServico(ctx, uuid.NewString(), strings.TrimSpace(a.ServiceName))
	if err != nil {
		return "", fmt.Errorf("upsert servico: %w", err)
	}

	id := uuid.NewString()
	err = q.CreateAppointment(ctx, CreateAppointmentParams{
		ID:        id,
		Data:      a.Date.String(),
		Valor:     a.Amount.Decimal().StringFixed(2),
		Tipo:      string(a.Category),
		Status:    string(a.Status),
		ClienteID: clienteID,
		ServicoID: servicoID,
	})
	if err != nil {
		return "", fmt.Errorf("create agendamento: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Appointment saved to SQLite",
		"id", id,
		"date", a.Date.String(),
		"amount_cents", a.Amount.Cents,
		"status", a.Status)
	return id, nil
}

// QueryRealizedAppointments implements store.AppointmentQuerier. Rows whose
// amount cannot be parsed are skipped and logged.
func (r *SQLiteRepository) QueryRealizedAppointments(ctx context.Context, start, end core.CalendarDate) ([]core.Appointment, error) {
	rows, err := r.queries.GetRealizedAppointments(ctx, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("get realized appointments: %w", err)
	}

	out := make([]core.Appointment, 0, len(rows))
	for _, row := range rows {
		amount, err := core.ParseAmount(row.Valor)
		if err != nil {
			slog.WarnContext(ctx, "Skipping appointment with invalid amount",
				"id", row.ID,
				"valor", row.Valor)
			continue
		}
		out = append(out, core.Appointment{
			ID:          row.ID,
			Date:        row.Data,
			Amount:      amount,
			Category:    core.Category(row.Tipo),
			ServiceName: row.ServicoNome,
			ClientName:  row.ClienteNome,
		})
	}
	return out, nil
}

// UpdateStatus implements store.StatusUpdater.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status core.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateAppointmentStatus(ctx, string(status), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	slog.InfoContext(ctx, "Appointment status updated", "id", id, "status", status)
	return nil
}

// SummarizeStatuses implements store.StatusSummarizer.
func (r *SQLiteRepository) SummarizeStatuses(ctx context.Context, start, end core.CalendarDate) (core.StatusSummary, error) {
	rows, err := r.queries.GetStatusValues(ctx, start.String(), end.String())
	if err != nil {
		return core.StatusSummary{}, fmt.Errorf("get status values: %w", err)
	}
	recs := make([]core.StatusRecord, 0, len(rows))
	for _, row := range rows {
		amount, err := core.ParseAmount(row.Valor)
		if err != nil {
			slog.WarnContext(ctx, "Invalid amount in status summary", "valor", row.Valor)
		}
		recs = append(recs, core.StatusRecord{Status: core.Status(row.Status), Amount: amount})
	}
	return core.SummarizeStatuses(start, end, recs), nil
}
