package generic

// =============================================================================
// DATE RANGE - Inclusive window that schedules are drawn from
// =============================================================================

// DateRange is the inclusive interval [Start, End].
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Valid reports whether End is not before Start.
func (r DateRange) Valid() bool { return r.Start.BeforeOrEqual(r.End) }

// Contains returns true if the date is within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// SpanDays is End - Start in days. A single-day range spans 0 days.
func (r DateRange) SpanDays() int { return DaysBetween(r.Start, r.End) }

// Days returns every date in the range in ascending order.
func (r DateRange) Days() []Date {
	var days []Date
	for current := r.Start; current.BeforeOrEqual(r.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
