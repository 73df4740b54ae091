package store

import (
	"context"
	"errors"

	"salao/internal/core"
)

var ErrNotFound = errors.New("appointment not found")

// Ports for the appointment store.
type (
	// AppointmentQuerier returns realized appointments whose date falls in
	// [start, end], ordered by date ascending.
	AppointmentQuerier interface {
		QueryRealizedAppointments(ctx context.Context, start, end core.CalendarDate) ([]core.Appointment, error)
	}

	// StatusUpdater moves an appointment between scheduled, realized and no-show.
	StatusUpdater interface {
		UpdateStatus(ctx context.Context, id string, status core.Status) error
	}

	// StatusSummarizer powers the daily checklist overview.
	StatusSummarizer interface {
		SummarizeStatuses(ctx context.Context, start, end core.CalendarDate) (core.StatusSummary, error)
	}

	AppointmentWriter interface {
		CreateAppointment(ctx context.Context, a core.NewAppointment) (id string, err error)
	}

	// Store is everything a backend provides.
	Store interface {
		AppointmentQuerier
		StatusUpdater
		StatusSummarizer
		AppointmentWriter
	}
)
