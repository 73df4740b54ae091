package core

import (
	"fmt"
	"time"
)

// Fortnight halves.
const (
	FirstHalf  = 1
	SecondHalf = 2
)

// secondHalfLastDay caps the second fortnight. Day 31 is reported with the
// following month's first fortnight instead.
const secondHalfLastDay = 30

// FortnightPeriod is the resolved calendar range of a half-month report.
// CarryIn, when set, is an extra single day (the 31st of the previous month)
// queried together with a first-half period.
type FortnightPeriod struct {
	Year    int
	Month   int
	Half    int
	Start   CalendarDate
	End     CalendarDate
	CarryIn *CalendarDate
}

// ResolvePeriod computes the query bounds for a fortnight.
//
//	half 1: day 01..15, plus day 31 of the previous month when it exists
//	half 2: day 16..min(last day of month, 30)
func ResolvePeriod(half, year, month int) (FortnightPeriod, error) {
	if year < 1 {
		return FortnightPeriod{}, ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return FortnightPeriod{}, ErrInvalidMonth
	}

	p := FortnightPeriod{Year: year, Month: month, Half: half}
	switch half {
	case FirstHalf:
		p.Start = NewCalendarDate(year, month, 1)
		p.End = NewCalendarDate(year, month, 15)
		prevYear, prevMonth := year, month-1
		if prevMonth == 0 {
			prevYear, prevMonth = year-1, 12
		}
		if prevYear >= 1 && DaysInMonth(prevYear, prevMonth) == 31 {
			carry := NewCalendarDate(prevYear, prevMonth, 31)
			p.CarryIn = &carry
		}
	case SecondHalf:
		last := min(DaysInMonth(year, month), secondHalfLastDay)
		p.Start = NewCalendarDate(year, month, 16)
		p.End = NewCalendarDate(year, month, last)
	default:
		return FortnightPeriod{}, ErrInvalidHalf
	}
	return p, nil
}

// Key identifies the period selector tuple, e.g. "2025-03-1".
func (p FortnightPeriod) Key() string {
	return PeriodKey(p.Half, p.Year, p.Month)
}

// PeriodKey builds the cache/selection key of a (half, year, month) tuple.
func PeriodKey(half, year, month int) string {
	return fmt.Sprintf("%04d-%02d-%d", year, month, half)
}

// Label returns "DD/MM/YYYY a DD/MM/YYYY" for the primary range.
func (p FortnightPeriod) Label() string {
	return p.Start.LongLabel() + " a " + p.End.LongLabel()
}

// Contains reports whether d falls in the primary range or is the carry-in day.
func (p FortnightPeriod) Contains(d CalendarDate) bool {
	if p.CarryIn != nil && d.Compare(*p.CarryIn) == 0 {
		return true
	}
	return d.Compare(p.Start) >= 0 && d.Compare(p.End) <= 0
}

// ExportFileName returns fechamento_{year}_{month}_quinzena_{half}.txt.
func ExportFileName(p FortnightPeriod) string {
	return fmt.Sprintf("fechamento_%d_%d_quinzena_%d.txt", p.Year, p.Month, p.Half)
}

// CurrentPeriod returns the fortnight whose report includes the date of now.
// Day 31 belongs to the next month's first half as its carry-in day.
func CurrentPeriod(now time.Time) (half, year, month int) {
	y, m, d := now.Date()
	switch {
	case d <= 15:
		return FirstHalf, y, int(m)
	case d <= secondHalfLastDay:
		return SecondHalf, y, int(m)
	}
	next := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
	return FirstHalf, next.Year(), int(next.Month())
}
