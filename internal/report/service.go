// Package report builds fortnight closing reports from the appointment store.
package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"salao/internal/cache"
	"salao/internal/core"
	"salao/internal/log"
	"salao/internal/store"
)

// ErrQueryFailed wraps any store failure or timeout. No partial report is
// produced when it is returned.
var ErrQueryFailed = errors.New("appointment query failed")

const DefaultQueryTimeout = 7 * time.Second

// Builder produces the report of one fortnight straight from the store.
type Builder interface {
	Rebuild(ctx context.Context, half, year, month int) (core.Report, error)
}

type Service struct {
	querier store.AppointmentQuerier
	cache   cache.Cache[core.Report]
	timeout time.Duration
	group   singleflight.Group
	logger  *log.Logger

	// generation is bumped by every invalidation. A load started under an
	// older generation never fills the cache. mu orders cache writes
	// against invalidations.
	mu         sync.Mutex
	generation atomic.Uint64
}

// NewService wires the report service. A nil cache disables caching and a
// non-positive timeout falls back to DefaultQueryTimeout.
func NewService(q store.AppointmentQuerier, c cache.Cache[core.Report], timeout time.Duration, logger *log.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{
		querier: q,
		cache:   c,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentReport),
	}
}

// Fortnight returns the report for (half, year, month). Selector errors come
// back unwrapped (core.ErrInvalidHalf and friends); store failures are
// wrapped in ErrQueryFailed.
//
// Concurrent calls for the same period share one load. A caller whose context
// ends early gets ctx.Err() while the shared load runs on under its own
// timeout and still fills the cache, unless an invalidation happened
// meanwhile.
func (s *Service) Fortnight(ctx context.Context, half, year, month int) (core.Report, error) {
	p, err := core.ResolvePeriod(half, year, month)
	if err != nil {
		return core.Report{}, err
	}
	key := p.Key()
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			return r, nil
		}
	}

	gen := s.generation.Load()
	ch := s.group.DoChan(flightKey(key, gen), func() (any, error) {
		return s.load(context.WithoutCancel(ctx), p, gen)
	})
	select {
	case <-ctx.Done():
		return core.Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.Report{}, res.Err
		}
		return res.Val.(core.Report), nil
	}
}

// Rebuild builds the report straight from the store, ignoring cached and
// in-flight results. Exports use it so a file always reflects the store at
// the time of writing, even in a process that never sees invalidations.
func (s *Service) Rebuild(ctx context.Context, half, year, month int) (core.Report, error) {
	p, err := core.ResolvePeriod(half, year, month)
	if err != nil {
		return core.Report{}, err
	}
	return s.load(ctx, p, s.generation.Load())
}

// Ledger returns the rendered ledger text and its export file name.
func (s *Service) Ledger(ctx context.Context, half, year, month int) (string, string, error) {
	r, err := s.Fortnight(ctx, half, year, month)
	if err != nil {
		return "", "", err
	}
	return core.RenderLedgerText(r), core.ExportFileName(r.Period), nil
}

// Invalidate drops the cached halves of a month together with the first half
// of the following month, whose carry-in day may belong to it.
func (s *Service) Invalidate(year, month int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation.Add(1)
	if s.cache == nil {
		return
	}
	s.cache.Delete(core.PeriodKey(core.FirstHalf, year, month))
	s.cache.Delete(core.PeriodKey(core.SecondHalf, year, month))
	ny, nm := year, month+1
	if nm > 12 {
		ny, nm = year+1, 1
	}
	s.cache.Delete(core.PeriodKey(core.FirstHalf, ny, nm))
}

// InvalidateAll drops every cached report.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Clear()
	}
}

// flightKey scopes singleflight sharing to one generation, so a call made
// after an invalidation never joins a load that read the store before it.
func flightKey(key string, gen uint64) string {
	return key + "#" + strconv.FormatUint(gen, 10)
}

func (s *Service) load(ctx context.Context, p core.FortnightPeriod, gen uint64) (core.Report, error) {
	started := time.Now()
	fields := log.NewFields().WithPeriod(p.Half, p.Year, p.Month)

	records, err := s.query(ctx, p.Start, p.End)
	if err != nil {
		s.logger.ErrorContext(ctx, "Primary range query failed", fields.WithOperation(log.OpQuery).WithError(err).ToSlice()...)
		return core.Report{}, fmt.Errorf("%w: %s..%s: %w", ErrQueryFailed, p.Start, p.End, err)
	}

	if p.CarryIn != nil {
		carried, err := s.query(ctx, *p.CarryIn, *p.CarryIn)
		if err != nil {
			s.logger.ErrorContext(ctx, "Carry-in query failed", fields.WithOperation(log.OpQuery).WithError(err).ToSlice()...)
			return core.Report{}, fmt.Errorf("%w: carry-in %s: %w", ErrQueryFailed, *p.CarryIn, err)
		}
		records = append(carried, records...)
	}

	r := core.BuildReport(p, records)
	s.storeIfCurrent(p.Key(), r, gen)

	s.logger.InfoContext(ctx, "Fortnight report built",
		append(fields.WithOperation(log.OpAggregate).WithReport(len(r.Buckets), r.GrandTotal.Cents).ToSlice(),
			log.FieldCarryIn, p.CarryIn != nil,
			log.FieldDuration, time.Since(started).Milliseconds())...)
	return r, nil
}

func (s *Service) storeIfCurrent(key string, r core.Report, gen uint64) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation.Load() == gen {
		s.cache.Set(key, r)
	}
}

type queryResult struct {
	records []core.Appointment
	err     error
}

// query runs one range query bounded by the service timeout, even when the
// store does not honor context cancellation.
func (s *Service) query(ctx context.Context, start, end core.CalendarDate) ([]core.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ch := make(chan queryResult, 1)
	go func() {
		recs, err := s.querier.QueryRealizedAppointments(ctx, start, end)
		ch <- queryResult{records: recs, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.records, res.err
	}
}
