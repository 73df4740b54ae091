package memory

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"salao/internal/core"
	"salao/internal/store"
)

type record struct {
	id       string
	date     string
	amount   core.Money
	category core.Category
	status   core.Status
	service  string
	client   string
}

// Store keeps appointments in memory. Dates are held as raw text, the same
// way the relational store returns them.
type Store struct {
	mu    sync.Mutex
	items []record
}

func New() *Store {
	return &Store{}
}

// NewFromFile seeds the store from a semicolon separated file:
//
//	data;valor;tipo;cliente;servico;status
//
// Blank lines and lines starting with # are ignored. Lines that do not have
// six fields or carry an unparseable amount are skipped with a warning; a
// malformed date is kept verbatim.
func NewFromFile(path string) *Store {
	s := New()
	for _, line := range readLines(path) {
		r, ok := parseSeedLine(line)
		if !ok {
			slog.Warn("Skipping malformed seed line", "path", path, "line", line)
			continue
		}
		s.items = append(s.items, r)
	}
	return s
}

// CreateAppointment stores the appointment and returns its generated ID.
func (s *Store) CreateAppointment(_ context.Context, a core.NewAppointment) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	r := record{
		id:       uuid.NewString(),
		date:     a.Date.String(),
		amount:   a.Amount,
		category: a.Category,
		status:   a.Status,
		service:  strings.TrimSpace(a.ServiceName),
		client:   strings.TrimSpace(a.ClientName),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	return r.id, nil
}

// QueryRealizedAppointments implements store.AppointmentQuerier.
func (s *Store) QueryRealizedAppointments(ctx context.Context, start, end core.CalendarDate) ([]core.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Appointment
	for _, r := range s.items {
		if r.status != core.StatusRealized || !inRange(r.date, start, end) {
			continue
		}
		out = append(out, core.Appointment{
			ID:          r.id,
			Date:        r.date,
			Amount:      r.amount,
			Category:    r.category,
			ServiceName: r.service,
			ClientName:  r.client,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// UpdateStatus implements store.StatusUpdater.
func (s *Store) UpdateStatus(_ context.Context, id string, status core.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].id == id {
			s.items[i].status = status
			return nil
		}
	}
	return store.ErrNotFound
}

// SummarizeStatuses implements store.StatusSummarizer.
func (s *Store) SummarizeStatuses(ctx context.Context, start, end core.CalendarDate) (core.StatusSummary, error) {
	if err := ctx.Err(); err != nil {
		return core.StatusSummary{}, err
	}
	s.mu.Lock()
	var recs []core.StatusRecord
	for _, r := range s.items {
		if inRange(r.date, start, end) {
			recs = append(recs, core.StatusRecord{Status: r.status, Amount: r.amount})
		}
	}
	s.mu.Unlock()
	return core.SummarizeStatuses(start, end, recs), nil
}

// inRange compares dates as ISO text, matching how the relational store
// filters its TEXT column.
func inRange(date string, start, end core.CalendarDate) bool {
	return date >= start.String() && date <= end.String()
}

func parseSeedLine(line string) (record, bool) {
	parts := strings.Split(line, ";")
	if len(parts) != 6 {
		return record{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	amount, err := core.ParseAmount(parts[1])
	if err != nil {
		return record{}, false
	}
	status := core.Status(parts[5])
	if status.Validate() != nil {
		return record{}, false
	}
	return record{
		id:       uuid.NewString(),
		date:     parts[0],
		amount:   amount,
		category: core.Category(parts[2]),
		client:   parts[3],
		service:  parts[4],
		status:   status,
	}, true
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
