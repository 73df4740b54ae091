package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"salao/internal/core"
	"salao/internal/store"
)

var _ store.Store = (*Store)(nil)

func newAppt(y, m, d int, cents int64, status core.Status, service string) core.NewAppointment {
	return core.NewAppointment{
		Date:        core.NewCalendarDate(y, m, d),
		Amount:      core.Money{Cents: cents},
		Category:    core.CategorySalon,
		Status:      status,
		ServiceName: service,
		ClientName:  "Ana",
	}
}

func TestMemoryStoreCreateAndQuery(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, a := range []core.NewAppointment{
		newAppt(2025, 3, 10, 4500, core.StatusRealized, "Escova"),
		newAppt(2025, 3, 2, 9000, core.StatusRealized, "Penteado"),
		newAppt(2025, 3, 5, 3000, core.StatusScheduled, "Corte"),
		newAppt(2025, 3, 16, 2000, core.StatusRealized, "Escova"),
	} {
		if _, err := s.CreateAppointment(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.QueryRealizedAppointments(ctx, core.NewCalendarDate(2025, 3, 1), core.NewCalendarDate(2025, 3, 15))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[0].Date != "2025-03-02" || got[1].Date != "2025-03-10" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[0].ID == "" || got[0].ClientName != "Ana" {
		t.Fatalf("missing fields: %+v", got[0])
	}
}

func TestMemoryStoreCreateValidates(t *testing.T) {
	s := New()
	bad := newAppt(2025, 2, 30, 100, core.StatusRealized, "Escova")
	if _, err := s.CreateAppointment(context.Background(), bad); !errors.Is(err, core.ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
}

func TestMemoryStoreUpdateStatusAndSummary(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.CreateAppointment(ctx, newAppt(2025, 3, 4, 5000, core.StatusScheduled, "Escova"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateAppointment(ctx, newAppt(2025, 3, 4, 7000, core.StatusScheduled, "Corte")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.UpdateStatus(ctx, id, core.StatusRealized); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.UpdateStatus(ctx, "missing", core.StatusRealized); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateStatus(ctx, id, core.Status("x")); !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	start, end, _ := core.MonthRange(2025, 3)
	sum, err := s.SummarizeStatuses(ctx, start, end)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total != 2 || sum.Realized.Count != 1 || sum.Realized.Amount.Cents != 5000 || sum.Scheduled.Count != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed_agendamentos.txt")
	content := "# data;valor;tipo;cliente;servico;status\n" +
		"2025-03-03;90.00;salao;Ana;Penteado;realizado\n" +
		"2025-03-03;45,5;indicacao;Bia;Escova (promo);realizado\n" +
		"not-a-date;10;salao;Caio;Corte;realizado\n" +
		"2025-03-04;abc;salao;Caio;Corte;realizado\n" +
		"2025-03-05;10;salao;Caio\n" +
		"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s := NewFromFile(path)
	got, err := s.QueryRealizedAppointments(context.Background(), core.NewCalendarDate(2025, 3, 1), core.NewCalendarDate(2025, 3, 15))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 seeded rows in range, got %+v", got)
	}
	if got[1].Amount.Cents != 4550 || got[1].Category != core.CategoryReferral {
		t.Fatalf("unexpected second row: %+v", got[1])
	}

	if empty := NewFromFile(filepath.Join(dir, "missing.txt")); len(empty.items) != 0 {
		t.Fatalf("missing file should give an empty store")
	}
}
