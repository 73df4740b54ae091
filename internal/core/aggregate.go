package core

import "sort"

// DayBucket holds every realized appointment of one date, in input order.
type DayBucket struct {
	// Date is the raw date text shared by all Items.
	Date   string
	Items  []Appointment
	Total  Money
	Groups []ServiceGroup
}

// Report is the aggregated result of one fortnight.
type Report struct {
	Period     FortnightPeriod
	Buckets    []DayBucket
	GrandTotal Money
}

// Aggregate groups records by their exact date string and sorts the buckets
// by calendar date. Records that share a date keep their relative order.
//
// Dates that do not parse are not dropped: they get their own bucket keyed by
// the raw text and sort after every valid date.
func Aggregate(records []Appointment) ([]DayBucket, Money) {
	if len(records) == 0 {
		return nil, Money{}
	}

	index := make(map[string]int, len(records))
	var buckets []DayBucket
	var grand Money
	for _, r := range records {
		i, ok := index[r.Date]
		if !ok {
			i = len(buckets)
			index[r.Date] = i
			buckets = append(buckets, DayBucket{Date: r.Date})
		}
		buckets[i].Items = append(buckets[i].Items, r)
		buckets[i].Total = buckets[i].Total.Add(r.Amount)
		grand = grand.Add(r.Amount)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return bucketLess(buckets[i].Date, buckets[j].Date)
	})
	return buckets, grand
}

func bucketLess(a, b string) bool {
	da, okA := ParseCalendarDate(a)
	db, okB := ParseCalendarDate(b)
	switch {
	case okA && okB:
		return da.Compare(db) < 0
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

// BuildReport aggregates records and computes the service groups of every bucket.
func BuildReport(p FortnightPeriod, records []Appointment) Report {
	buckets, total := Aggregate(records)
	for i := range buckets {
		buckets[i].Groups = GroupServices(buckets[i])
	}
	return Report{Period: p, Buckets: buckets, GrandTotal: total}
}

// ServiceGroups returns the bucket's groups, computing them from its items
// when the bucket was built without them.
func (b DayBucket) ServiceGroups() []ServiceGroup {
	if b.Groups != nil {
		return b.Groups
	}
	return GroupServices(b)
}

// DayLabel returns DD/MM for the bucket, or the raw date text when it does not parse.
func (b DayBucket) DayLabel() string {
	if d, ok := ParseCalendarDate(b.Date); ok {
		return d.ShortLabel()
	}
	return b.Date
}

// DaysWorked is the number of distinct days with at least one realized appointment.
func (r Report) DaysWorked() int {
	return len(r.Buckets)
}

// ServicesPerformed is the number of realized appointments in the report.
func (r Report) ServicesPerformed() int {
	n := 0
	for _, b := range r.Buckets {
		n += len(b.Items)
	}
	return n
}

// IsEmpty reports the "no appointments this period" state.
func (r Report) IsEmpty() bool {
	return len(r.Buckets) == 0
}
