package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"salao/internal/core"
	"salao/internal/log"
	"salao/internal/report"
	"salao/internal/store"
)

const msgQueryFailed = "Não foi possível carregar os agendamentos. Tente novamente."

// writeError maps domain errors to responses. Store failures are reported as
// retryable without leaking the underlying error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromContext(r.Context())
	switch {
	case isValidationError(err):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, store.ErrNotFound):
		NotFoundError("Agendamento não encontrado").Write(w)
	case errors.Is(err, report.ErrStale):
		ErrorResponse(http.StatusConflict, "Seleção substituída por uma mais recente").Write(w)
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the body.
		w.WriteHeader(499)
	case errors.Is(err, report.ErrQueryFailed), errors.Is(err, context.DeadlineExceeded):
		logger.Error("Appointment query failed", log.FieldError, err)
		RetryableError(http.StatusBadGateway, msgQueryFailed).Write(w)
	default:
		logger.Error("Request failed", log.FieldError, err)
		RetryableError(http.StatusBadGateway, msgQueryFailed).Write(w)
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		errBadParam,
		core.ErrInvalidDay, core.ErrInvalidMonth, core.ErrInvalidYear, core.ErrInvalidHalf,
		core.ErrInvalidAmount, core.ErrInvalidStatus, core.ErrInvalidCategory,
		core.ErrEmptyService, core.ErrEmptyClient,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleFortnight serves the report of the requested (or current) fortnight.
func (s *Server) handleFortnight(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePeriodParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rep, err := s.reports.Fortnight(r.Context(), params.Half, params.Year, params.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(NewReportResponse(rep)).Write(w)
}

// handleLedger serves the plain-text ledger, as an attachment when download is set.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePeriodParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	text, filename, err := s.reports.Ledger(r.Context(), params.Half, params.Year, params.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := NewResponse().Text(text)
	if isTruthy(r.URL.Query().Get("download")) {
		resp.Header("Content-Disposition", attachmentDisposition(filename))
	}
	resp.Write(w)
}

// handleLedgerXLSX serves the ledger as a workbook download.
func (s *Server) handleLedgerXLSX(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePeriodParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rep, err := s.reports.Fortnight(r.Context(), params.Half, params.Year, params.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteLedgerXLSX(&buf, rep); err != nil {
		log.FromContext(r.Context()).Error("Workbook render failed", log.FieldError, err)
		ErrorResponse(http.StatusInternalServerError, "Não foi possível gerar a planilha").Write(w)
		return
	}
	w.Header().Set("Content-Type", report.XLSXContentType)
	w.Header().Set("Content-Disposition", attachmentDisposition(report.XLSXFileName(rep.Period)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleExport enqueues an export when a publisher is wired and otherwise
// writes the file right away. A failed publish also falls back to the
// synchronous write.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		BadRequestError("Formato da requisição inválido").Write(w)
		return
	}
	params, err := ParsePeriodParams(body.Values("half", "year", "month"), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	period, _ := core.ResolvePeriod(params.Half, params.Year, params.Month)
	filename := core.ExportFileName(period)
	logger := log.FromContext(r.Context())

	if s.publisher != nil {
		err := s.publisher.PublishExportRequest(r.Context(), params.Half, params.Year, params.Month)
		if err == nil {
			NewResponse().Status(http.StatusAccepted).
				JSON(ExportResponse{Status: "queued", FileName: filename}).Write(w)
			return
		}
		logger.Warn("Export publish failed, writing synchronously",
			log.NewFields().WithError(err).WithPeriod(params.Half, params.Year, params.Month).ToSlice()...)
	}

	rep, err := s.reports.Rebuild(r.Context(), params.Half, params.Year, params.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.exporter.Write(rep); err != nil {
		logger.Error("Ledger export failed", log.FieldError, err)
		ErrorResponse(http.StatusInternalServerError, "Não foi possível gravar o arquivo de fechamento").Write(w)
		return
	}
	NewResponse().Status(http.StatusAccepted).
		JSON(ExportResponse{Status: "written", FileName: filename}).Write(w)
}

// handleCurrentSelection returns the report currently on display.
func (s *Server) handleCurrentSelection(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.selection.Current()
	if !ok {
		NotFoundError("Nenhuma quinzena selecionada").Write(w)
		return
	}
	NewResponse().JSON(NewReportResponse(rep)).Write(w)
}

// handleSelect switches the displayed fortnight. A request superseded by a
// newer one gets 409.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		BadRequestError("Formato da requisição inválido").Write(w)
		return
	}
	params, err := ParsePeriodParams(body.Values("half", "year", "month"), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rep, err := s.selection.Select(r.Context(), params.Half, params.Year, params.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(NewReportResponse(rep)).Write(w)
}
