package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	StatusScheduled Status = "agendado"
	StatusRealized  Status = "realizado"
	StatusNoShow    Status = "falta"
)

const (
	CategorySalon    Category = "salao"
	CategoryReferral Category = "indicacao"
)

type (
	// Status is the lifecycle state of an appointment.
	Status string

	// Category tags where an appointment came from. It only matters for display.
	Category string

	// CalendarDate is a pure year/month/day triple. It never carries a time
	// zone, so comparisons and labels do not depend on the host's location.
	CalendarDate struct {
		Year  int
		Month int
		Day   int
	}

	Money struct {
		Cents int64
	}

	// Appointment is a realized appointment as returned by the store.
	// Date is kept as the raw text the store produced; grouping keys on it.
	Appointment struct {
		ID          string
		Date        string
		Amount      Money
		Category    Category
		ServiceName string
		ClientName  string
	}

	// NewAppointment carries the fields needed to register an appointment.
	NewAppointment struct {
		Date        CalendarDate
		Amount      Money
		Category    Category
		Status      Status
		ServiceName string
		ClientName  string
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidHalf     = errors.New("invalid fortnight half")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyService    = errors.New("empty service name")
	ErrEmptyClient     = errors.New("empty client name")
)

// NewCalendarDate creates a CalendarDate from year, month, day without validation.
func NewCalendarDate(year, month, day int) CalendarDate {
	return CalendarDate{Year: year, Month: month, Day: day}
}

// ParseCalendarDate parses a strict YYYY-MM-DD string. It reports false for
// anything else instead of failing, so callers can fall back to the raw text.
func ParseCalendarDate(s string) (CalendarDate, bool) {
	parts := strings.Split(s, "-")
	if len(s) != 10 || len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return CalendarDate{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if !allDigits(p) {
			return CalendarDate{}, false
		}
		nums[i], _ = strconv.Atoi(p)
	}
	d := CalendarDate{Year: nums[0], Month: nums[1], Day: nums[2]}
	if d.Validate() != nil {
		return CalendarDate{}, false
	}
	return d, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// DaysInMonth returns the number of days of the given month.
func DaysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one; UTC keeps it zone free.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d CalendarDate) Validate() error {
	if d.Year < 1 {
		return ErrInvalidYear
	}
	if d.Month < 1 || d.Month > 12 {
		return ErrInvalidMonth
	}
	if d.Day < 1 || d.Day > DaysInMonth(d.Year, d.Month) {
		return ErrInvalidDay
	}
	return nil
}

// String returns the ISO form YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ShortLabel returns DD/MM.
func (d CalendarDate) ShortLabel() string {
	return fmt.Sprintf("%02d/%02d", d.Day, d.Month)
}

// LongLabel returns DD/MM/YYYY.
func (d CalendarDate) LongLabel() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// Compare returns -1, 0 or +1 comparing year, then month, then day.
func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	default:
		return sign(d.Day - o.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (s Status) Validate() error {
	switch s {
	case StatusScheduled, StatusRealized, StatusNoShow:
		return nil
	}
	return ErrInvalidStatus
}

func (c Category) Validate() error {
	switch c {
	case CategorySalon, CategoryReferral:
		return nil
	}
	return ErrInvalidCategory
}

func (a NewAppointment) Validate() error {
	if err := a.Date.Validate(); err != nil {
		return err
	}
	if err := a.Amount.Validate(); err != nil {
		return err
	}
	if err := a.Category.Validate(); err != nil {
		return err
	}
	if err := a.Status.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(a.ServiceName) == "" {
		return ErrEmptyService
	}
	if strings.TrimSpace(a.ClientName) == "" {
		return ErrEmptyClient
	}
	return nil
}
