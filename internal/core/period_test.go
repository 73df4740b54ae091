package core

import (
	"errors"
	"testing"
	"time"
)

func TestResolvePeriod(t *testing.T) {
	cases := []struct {
		name       string
		half, y, m int
		start, end CalendarDate
		carryIn    *CalendarDate
	}{
		{"first half march without carry-in", 1, 2025, 3, NewCalendarDate(2025, 3, 1), NewCalendarDate(2025, 3, 15), nil},
		{"second half february", 2, 2025, 2, NewCalendarDate(2025, 2, 16), NewCalendarDate(2025, 2, 28), nil},
		{"second half leap february", 2, 2024, 2, NewCalendarDate(2024, 2, 16), NewCalendarDate(2024, 2, 29), nil},
		{"second half january excludes 31", 2, 2025, 1, NewCalendarDate(2025, 1, 16), NewCalendarDate(2025, 1, 30), nil},
		{"second half april", 2, 2025, 4, NewCalendarDate(2025, 4, 16), NewCalendarDate(2025, 4, 30), nil},
		{"first half february carries jan 31", 1, 2025, 2, NewCalendarDate(2025, 2, 1), NewCalendarDate(2025, 2, 15), ptr(NewCalendarDate(2025, 1, 31))},
		{"first half january carries dec 31", 1, 2025, 1, NewCalendarDate(2025, 1, 1), NewCalendarDate(2025, 1, 15), ptr(NewCalendarDate(2024, 12, 31))},
		{"first half may carries nothing from april", 1, 2025, 5, NewCalendarDate(2025, 5, 1), NewCalendarDate(2025, 5, 15), nil},
		{"first half august carries jul 31", 1, 2025, 8, NewCalendarDate(2025, 8, 1), NewCalendarDate(2025, 8, 15), ptr(NewCalendarDate(2025, 7, 31))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ResolvePeriod(tc.half, tc.y, tc.m)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Start != tc.start || p.End != tc.end {
				t.Fatalf("range = %v..%v, want %v..%v", p.Start, p.End, tc.start, tc.end)
			}
			switch {
			case tc.carryIn == nil && p.CarryIn != nil:
				t.Fatalf("unexpected carry-in %v", *p.CarryIn)
			case tc.carryIn != nil && (p.CarryIn == nil || *p.CarryIn != *tc.carryIn):
				t.Fatalf("carry-in = %v, want %v", p.CarryIn, *tc.carryIn)
			}
			if p.Start.Compare(p.End) > 0 {
				t.Fatalf("start after end")
			}
		})
	}
}

func TestResolvePeriodErrors(t *testing.T) {
	cases := []struct {
		half, y, m int
		want       error
	}{
		{0, 2025, 1, ErrInvalidHalf},
		{3, 2025, 1, ErrInvalidHalf},
		{1, 2025, 0, ErrInvalidMonth},
		{1, 2025, 13, ErrInvalidMonth},
		{1, 0, 5, ErrInvalidYear},
	}
	for _, tc := range cases {
		if _, err := ResolvePeriod(tc.half, tc.y, tc.m); !errors.Is(err, tc.want) {
			t.Fatalf("ResolvePeriod(%d,%d,%d) err=%v want %v", tc.half, tc.y, tc.m, err, tc.want)
		}
	}
}

func TestPeriodContains(t *testing.T) {
	p, _ := ResolvePeriod(1, 2025, 2)
	if !p.Contains(NewCalendarDate(2025, 1, 31)) {
		t.Fatalf("carry-in day should be contained")
	}
	if p.Contains(NewCalendarDate(2025, 1, 30)) || p.Contains(NewCalendarDate(2025, 2, 16)) {
		t.Fatalf("out of range day contained")
	}
}

func TestExportFileNameAndLabel(t *testing.T) {
	p, _ := ResolvePeriod(2, 2025, 3)
	if got := ExportFileName(p); got != "fechamento_2025_3_quinzena_2.txt" {
		t.Fatalf("file name: %q", got)
	}
	if got := p.Label(); got != "16/03/2025 a 30/03/2025" {
		t.Fatalf("label: %q", got)
	}
}

func TestCurrentPeriod(t *testing.T) {
	cases := []struct {
		now               time.Time
		half, year, month int
	}{
		{time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 1, 2025, 3},
		{time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC), 1, 2025, 3},
		{time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), 2, 2025, 3},
		{time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC), 2, 2025, 3},
		{time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC), 1, 2025, 4},
		{time.Date(2025, 12, 31, 9, 0, 0, 0, time.UTC), 1, 2026, 1},
	}
	for _, tc := range cases {
		half, year, month := CurrentPeriod(tc.now)
		if half != tc.half || year != tc.year || month != tc.month {
			t.Errorf("%s: got (%d,%d,%d), want (%d,%d,%d)", tc.now.Format("2006-01-02"), half, year, month, tc.half, tc.year, tc.month)
		}
		p, err := ResolvePeriod(half, year, month)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		today, _ := ParseCalendarDate(tc.now.Format("2006-01-02"))
		if !p.Contains(today) {
			t.Errorf("%s: current period %s does not include today", tc.now.Format("2006-01-02"), p.Label())
		}
	}
}

func ptr(d CalendarDate) *CalendarDate { return &d }
