package http

import (
	"net/http"

	"salao/internal/core"
	"salao/internal/log"
)

// handleSummary serves the per-status checklist overview of a month.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	start, end, _ := core.MonthRange(params.Year, params.Month)

	summary, err := s.appointments.SummarizeStatuses(r.Context(), start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(NewSummaryResponse(summary)).Write(w)
}

// handleCreateAppointment registers an appointment and drops the cached
// reports that could contain it.
func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		BadRequestError("Formato da requisição inválido").Write(w)
		return
	}
	a, err := ParseNewAppointment(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.appointments.CreateAppointment(r.Context(), a)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.reports.Invalidate(a.Date.Year, a.Date.Month)

	log.FromContext(r.Context()).Info("Appointment created",
		"id", id, "date", a.Date.String(), "status", string(a.Status))
	NewResponse().Status(http.StatusCreated).JSON(map[string]string{"id": id}).Write(w)
}

// handleUpdateStatus moves an appointment between agendado, realizado and
// falta. The store does not say which date the appointment has, so every
// cached report is dropped.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		BadRequestError("Identificador ausente").Write(w)
		return
	}

	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		BadRequestError("Formato da requisição inválido").Write(w)
		return
	}
	status := core.Status(body.Get("status"))
	if err := status.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.appointments.UpdateStatus(r.Context(), id, status); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.reports.InvalidateAll()

	log.FromContext(r.Context()).Info("Appointment status updated",
		"id", id, "status", string(status), log.FieldOperation, log.OpUpdate)
	w.WriteHeader(http.StatusNoContent)
}
