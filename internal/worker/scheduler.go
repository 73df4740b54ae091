package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"salao/internal/amqp"
	"salao/internal/core"
	"salao/internal/log"
)

// scheduledExportTimeout bounds one automatic export, mirror included.
const scheduledExportTimeout = 2 * time.Minute

// ClosingScheduler exports each fortnight once it has closed, so the ledger
// file exists even if nobody asks for it.
type ClosingScheduler struct {
	cron   *cron.Cron
	worker *ExportWorker
	spec   string
	logger *log.Logger
	now    func() time.Time
}

// NewClosingScheduler builds a scheduler running spec, a standard five-field
// cron expression. Panics inside a run are recovered and logged.
func NewClosingScheduler(w *ExportWorker, spec string, logger *log.Logger) *ClosingScheduler {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentWorker)
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	return &ClosingScheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger))),
		worker: w,
		spec:   spec,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the closing job and starts the scheduler.
func (s *ClosingScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Scheduled closing export", "schedule", s.spec)
	return nil
}

// Stop halts the scheduler. The returned context is done once a running
// export finished.
func (s *ClosingScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *ClosingScheduler) runOnce() {
	half, year, month := ClosedFortnight(s.now())
	ctx, cancel := context.WithTimeout(context.Background(), scheduledExportTimeout)
	defer cancel()

	if err := s.worker.HandleExportRequest(ctx, amqp.NewExportRequestMessage(half, year, month)); err != nil {
		s.logger.Error("Scheduled export failed",
			log.NewFields().WithPeriod(half, year, month).WithError(err).ToSlice()...)
	}
}

// ClosedFortnight returns the most recent fortnight that ended before now:
// from the 16th on that is the first half of the month, before it the second
// half of the previous month.
func ClosedFortnight(now time.Time) (half, year, month int) {
	if now.Day() > 15 {
		return core.FirstHalf, now.Year(), int(now.Month())
	}
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	return core.SecondHalf, prev.Year(), int(prev.Month())
}
