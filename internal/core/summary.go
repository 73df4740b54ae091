package core

// StatusRecord is the minimal view of an appointment needed for the checklist summary.
type StatusRecord struct {
	Status Status
	Amount Money
}

// StatusAmount is the count and value of appointments in one status.
type StatusAmount struct {
	Count  int
	Amount Money
}

// StatusSummary is the daily-checklist overview for a date range.
type StatusSummary struct {
	Start     CalendarDate
	End       CalendarDate
	Total     int
	Scheduled StatusAmount
	Realized  StatusAmount
	NoShow    StatusAmount
}

// SummarizeStatuses counts appointments and sums their value per status.
// Records with an unknown status only count toward Total.
func SummarizeStatuses(start, end CalendarDate, records []StatusRecord) StatusSummary {
	s := StatusSummary{Start: start, End: end, Total: len(records)}
	for _, r := range records {
		var bucket *StatusAmount
		switch r.Status {
		case StatusScheduled:
			bucket = &s.Scheduled
		case StatusRealized:
			bucket = &s.Realized
		case StatusNoShow:
			bucket = &s.NoShow
		default:
			continue
		}
		bucket.Count++
		bucket.Amount = bucket.Amount.Add(r.Amount)
	}
	return s
}

// MonthRange returns the first and last day of a month.
func MonthRange(year, month int) (CalendarDate, CalendarDate, error) {
	first := NewCalendarDate(year, month, 1)
	if err := first.Validate(); err != nil {
		return CalendarDate{}, CalendarDate{}, err
	}
	return first, NewCalendarDate(year, month, DaysInMonth(year, month)), nil
}
