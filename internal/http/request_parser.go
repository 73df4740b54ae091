// Package http provides the HTTP server and handlers of the closing API.
//
// This file holds the parsing of selector parameters and request bodies. A
// missing parameter falls back to the current fortnight; a present but
// malformed one is an error so the caller gets a 400 instead of a silently
// different period.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salao/internal/core"
)

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 64 << 10

var errBadParam = errors.New("invalid parameter")

// PeriodParams is a fortnight selector.
type PeriodParams struct {
	Half  int
	Year  int
	Month int
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParsePeriodParams reads half/year/month, defaulting each missing value from
// the fortnight that includes now. The result is checked with core.ResolvePeriod.
func ParsePeriodParams(values url.Values, now time.Time) (PeriodParams, error) {
	var params PeriodParams
	params.Half, params.Year, params.Month = core.CurrentPeriod(now)

	var err error
	if params.Half, err = intParam(values, "half", params.Half); err != nil {
		return PeriodParams{}, err
	}
	if params.Year, err = intParam(values, "year", params.Year); err != nil {
		return PeriodParams{}, err
	}
	if params.Month, err = intParam(values, "month", params.Month); err != nil {
		return PeriodParams{}, err
	}

	if _, err := core.ResolvePeriod(params.Half, params.Year, params.Month); err != nil {
		return PeriodParams{}, err
	}
	return params, nil
}

// ParseMonthParams reads year/month, defaulting to the month of now.
func ParseMonthParams(values url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	var err error
	if params.Year, err = intParam(values, "year", params.Year); err != nil {
		return MonthParams{}, err
	}
	if params.Month, err = intParam(values, "month", params.Month); err != nil {
		return MonthParams{}, err
	}
	if _, _, err := core.MonthRange(params.Year, params.Month); err != nil {
		return MonthParams{}, err
	}
	return params, nil
}

func intParam(values url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, key, v)
	}
	return n, nil
}

// isTruthy accepts the usual spellings of a boolean query flag.
func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "sim":
		return true
	}
	return false
}

// RequestBodyParser reads a request body once and exposes its fields whether
// it was sent as JSON or form-encoded. URL query values are used as a
// fallback, so selectors may travel either way.
type RequestBodyParser struct {
	query    url.Values
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads up to maxBodyBytes of the body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{query: r.URL.Query()}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse decodes the body as JSON when it looks like a JSON object, otherwise
// as form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a sanitized value from the body, falling back to the query.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil && p.formData.Has(key) {
		return sanitizeInput(p.formData.Get(key))
	}
	return sanitizeInput(p.query.Get(key))
}

// Values flattens the parsed body and query into url.Values, body first.
func (p *RequestBodyParser) Values(keys ...string) url.Values {
	out := url.Values{}
	for _, k := range keys {
		if v := p.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseNewAppointment builds and validates an appointment from a request
// body. date is YYYY-MM-DD and valor a decimal amount ("45,50" or "45.50").
func ParseNewAppointment(p *RequestBodyParser) (core.NewAppointment, error) {
	date, ok := core.ParseCalendarDate(p.Get("date"))
	if !ok {
		return core.NewAppointment{}, fmt.Errorf("%w: date=%q", errBadParam, p.Get("date"))
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.NewAppointment{}, err
	}

	a := core.NewAppointment{
		Date:        date,
		Amount:      amount,
		Category:    core.Category(p.Get("category")),
		Status:      core.Status(p.Get("status")),
		ServiceName: p.Get("service"),
		ClientName:  p.Get("client"),
	}
	if a.Category == "" {
		a.Category = core.CategorySalon
	}
	if a.Status == "" {
		a.Status = core.StatusScheduled
	}
	if err := a.Validate(); err != nil {
		return core.NewAppointment{}, err
	}
	return a, nil
}
