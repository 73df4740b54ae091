// Package http provides the HTTP server and handlers of the closing API.
//
// This file implements a small builder for JSON and text responses and the
// JSON shapes of reports and summaries. Amounts are sent both as integer
// cents and as the ledger string ("45,50") so clients never format money.

package http

import (
	"encoding/json"
	"net/http"

	"salao/internal/core"
)

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
}

// NewResponse creates a builder with a default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON marshals v as the body. A marshal failure turns the response into a 500.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		data = []byte(`{"error":"erro interno"}`)
	}
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.body = append(data, '\n')
	return b
}

// Text sets a UTF-8 plain text body.
func (b *ResponseBuilder) Text(s string) *ResponseBuilder {
	b.headers["Content-Type"] = "text/plain; charset=utf-8"
	b.body = []byte(s)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// RetryableError creates an error the client may retry as is, e.g. after a
// store timeout.
func RetryableError(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message, Retryable: true})
}

// MoneyResponse carries an amount in both representations.
type MoneyResponse struct {
	Cents int64  `json:"cents"`
	Text  string `json:"text"`
}

func newMoney(m core.Money) MoneyResponse {
	return MoneyResponse{Cents: m.Cents, Text: core.FormatAmount(m)}
}

// PeriodResponse describes the resolved fortnight.
type PeriodResponse struct {
	Half    int    `json:"half"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Start   string `json:"start"`
	End     string `json:"end"`
	CarryIn string `json:"carry_in,omitempty"`
	Label   string `json:"label"`
}

type ItemResponse struct {
	ID       string        `json:"id"`
	Service  string        `json:"service"`
	Client   string        `json:"client"`
	Category string        `json:"category"`
	Amount   MoneyResponse `json:"amount"`
}

type GroupResponse struct {
	Name     string        `json:"name"`
	Quantity int           `json:"quantity"`
	Subtotal MoneyResponse `json:"subtotal"`
}

type BucketResponse struct {
	Date   string          `json:"date"`
	Label  string          `json:"label"`
	Items  []ItemResponse  `json:"items"`
	Groups []GroupResponse `json:"groups"`
	Total  MoneyResponse   `json:"total"`
}

// ReportResponse is the JSON shape of a fortnight report, including the
// summary cards.
type ReportResponse struct {
	Period            PeriodResponse   `json:"period"`
	Buckets           []BucketResponse `json:"buckets"`
	GrandTotal        MoneyResponse    `json:"grand_total"`
	DaysWorked        int              `json:"days_worked"`
	ServicesPerformed int              `json:"services_performed"`
	Empty             bool             `json:"empty"`
	FileName          string           `json:"file_name"`
}

// NewReportResponse converts a report. Buckets is never null so clients can
// iterate an empty period directly.
func NewReportResponse(r core.Report) ReportResponse {
	p := r.Period
	resp := ReportResponse{
		Period: PeriodResponse{
			Half:  p.Half,
			Year:  p.Year,
			Month: p.Month,
			Start: p.Start.String(),
			End:   p.End.String(),
			Label: p.Label(),
		},
		Buckets:           make([]BucketResponse, 0, len(r.Buckets)),
		GrandTotal:        newMoney(r.GrandTotal),
		DaysWorked:        r.DaysWorked(),
		ServicesPerformed: r.ServicesPerformed(),
		Empty:             r.IsEmpty(),
		FileName:          core.ExportFileName(p),
	}
	if p.CarryIn != nil {
		resp.Period.CarryIn = p.CarryIn.String()
	}

	for _, b := range r.Buckets {
		br := BucketResponse{
			Date:   b.Date,
			Label:  b.DayLabel(),
			Items:  make([]ItemResponse, 0, len(b.Items)),
			Groups: make([]GroupResponse, 0, len(b.Groups)),
			Total:  newMoney(b.Total),
		}
		for _, it := range b.Items {
			br.Items = append(br.Items, ItemResponse{
				ID:       it.ID,
				Service:  it.ServiceName,
				Client:   it.ClientName,
				Category: string(it.Category),
				Amount:   newMoney(it.Amount),
			})
		}
		for _, g := range b.ServiceGroups() {
			br.Groups = append(br.Groups, GroupResponse{
				Name:     g.DisplayName(),
				Quantity: g.Quantity,
				Subtotal: newMoney(g.Subtotal),
			})
		}
		resp.Buckets = append(resp.Buckets, br)
	}
	return resp
}

type StatusAmountResponse struct {
	Count  int           `json:"count"`
	Amount MoneyResponse `json:"amount"`
}

// SummaryResponse is the daily-checklist overview.
type SummaryResponse struct {
	Start     string               `json:"start"`
	End       string               `json:"end"`
	Total     int                  `json:"total"`
	Scheduled StatusAmountResponse `json:"agendado"`
	Realized  StatusAmountResponse `json:"realizado"`
	NoShow    StatusAmountResponse `json:"falta"`
}

func NewSummaryResponse(s core.StatusSummary) SummaryResponse {
	conv := func(a core.StatusAmount) StatusAmountResponse {
		return StatusAmountResponse{Count: a.Count, Amount: newMoney(a.Amount)}
	}
	return SummaryResponse{
		Start:     s.Start.String(),
		End:       s.End.String(),
		Total:     s.Total,
		Scheduled: conv(s.Scheduled),
		Realized:  conv(s.Realized),
		NoShow:    conv(s.NoShow),
	}
}

// ExportResponse acknowledges an export request.
type ExportResponse struct {
	Status   string `json:"status"`
	FileName string `json:"file_name"`
}
