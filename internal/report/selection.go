package report

import (
	"context"
	"errors"
	"sync"

	"salao/internal/core"
	"salao/internal/log"
)

// ErrStale is returned to a selection superseded by a newer one.
var ErrStale = errors.New("selection superseded")

// Selection tracks the period currently on display. The newest request always
// wins: starting a selection cancels the one in flight, and a result is only
// published if no newer selection started meanwhile.
type Selection struct {
	builder Builder
	logger  *log.Logger

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current *core.Report
}

func NewSelection(b Builder, logger *log.Logger) *Selection {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Selection{builder: b, logger: logger.WithComponent(log.ComponentSelection)}
}

// Select builds the report for the new selector. On failure the previously
// published report stays current.
func (s *Selection) Select(ctx context.Context, half, year, month int) (core.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	id := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	r, err := s.builder.Fortnight(ctx, half, year, month)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.seq {
		s.logger.DebugContext(ctx, "Discarding superseded selection",
			log.NewFields().WithPeriod(half, year, month).WithOperation(log.OpSelect).ToSlice()...)
		return core.Report{}, ErrStale
	}
	s.cancel = nil
	if err != nil {
		return core.Report{}, err
	}
	s.current = &r
	return r, nil
}

// Current returns the last published report.
func (s *Selection) Current() (core.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return core.Report{}, false
	}
	return *s.current, true
}
