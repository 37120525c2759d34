package generic

// =============================================================================
// PERIOD - Inclusive date range used for revenue windows and filters
// =============================================================================

// Period is an inclusive [Start, End] range of dates. An empty bound is open.
//
// Examples:
//   - Revenue week: Monday - Sunday
//   - Admin booking filter: from - to on the booking creation date
type Period struct {
	Start Date
	End   Date
}

// WeekOf returns the Monday-start week containing d.
func WeekOf(d Date) (Period, error) {
	monday, sunday, err := WeekRange(d)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: monday, End: sunday}, nil
}

// Contains returns true if d is within [Start, End]. Empty bounds do not restrict.
func (p Period) Contains(d Date) bool {
	if p.Start != "" && d.Before(p.Start) {
		return false
	}
	if p.End != "" && d.After(p.End) {
		return false
	}
	return true
}

// Days returns every date in the period. Both bounds must be set.
func (p Period) Days() []Date {
	var days []Date
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		next, err := current.AddDays(1)
		if err != nil {
			break
		}
		current = next
	}
	return days
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// Overlaps reports whether the half-open stays [aIn, aOut) and [bIn, bOut)
// share at least one night.
func Overlaps(aIn, aOut, bIn, bOut Date) bool {
	return !(aOut.BeforeOrEqual(bIn) || aIn.AfterOrEqual(bOut))
}
