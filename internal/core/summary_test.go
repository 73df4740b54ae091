package core

import "testing"

func TestSummarizeStatuses(t *testing.T) {
	start, end, err := MonthRange(2025, 2)
	if err != nil {
		t.Fatalf("month range: %v", err)
	}
	if end.Day != 28 {
		t.Fatalf("february 2025 should end on 28, got %d", end.Day)
	}

	s := SummarizeStatuses(start, end, []StatusRecord{
		{Status: StatusRealized, Amount: Money{Cents: 9000}},
		{Status: StatusRealized, Amount: Money{Cents: 4500}},
		{Status: StatusScheduled, Amount: Money{Cents: 3000}},
		{Status: StatusNoShow, Amount: Money{Cents: 2000}},
		{Status: Status("cancelado"), Amount: Money{Cents: 100}},
	})
	if s.Total != 5 {
		t.Fatalf("total = %d", s.Total)
	}
	if s.Realized.Count != 2 || s.Realized.Amount.Cents != 13500 {
		t.Fatalf("realized = %+v", s.Realized)
	}
	if s.Scheduled.Count != 1 || s.Scheduled.Amount.Cents != 3000 {
		t.Fatalf("scheduled = %+v", s.Scheduled)
	}
	if s.NoShow.Count != 1 || s.NoShow.Amount.Cents != 2000 {
		t.Fatalf("no-show = %+v", s.NoShow)
	}
}

func TestMonthRangeInvalid(t *testing.T) {
	if _, _, err := MonthRange(2025, 13); err == nil {
		t.Fatalf("expected error for month 13")
	}
}
