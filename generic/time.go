package generic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATE - Canonical calendar date (YYYY-MM-DD)
// =============================================================================

// Date is a calendar date in canonical, zero-padded YYYY-MM-DD form.
// Because the form is fixed-width, lexicographic order equals chronological
// order, and every table comparison in this system relies on that.
type Date string

// InvalidDate is returned by ParseDate when no accepted pattern matches.
const InvalidDate Date = "invalid"

// Layouts used for records on disk.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

var (
	isoPattern       = regexp.MustCompile(`^(\d{1,4})-(\d{1,2})-(\d{1,2})$`)
	slashPattern     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{1,4})$`)
	canonicalPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date(fmt.Sprintf("%04d-%02d-%02d", year, int(month), day))
}

func DateOf(t time.Time) Date { return Date(t.Format(DateLayout)) }

func Today() Date { return DateOf(time.Now()) }

// TodayAt returns the local calendar date of now.
func TodayAt(now time.Time) Date { return DateOf(now.Local()) }

// ValidateDate accepts YYYY-MM-DD with year >= 2024, month in [1,12] and
// day in [1,31]. Month lengths are not checked: 2024-02-31 is valid.
func ValidateDate(s string) bool {
	y, m, d, ok := splitISO(strings.TrimSpace(s))
	if !ok {
		return false
	}
	return y >= 2024 && m >= 1 && m <= 12 && d >= 1 && d <= 31
}

// ParseDate normalizes YYYY-MM-DD or DD/MM/YYYY into canonical form.
// The result is not range-checked; use ValidateDate for that.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if y, m, d, ok := splitISO(s); ok {
		return Date(fmt.Sprintf("%04d-%02d-%02d", y, m, d))
	}
	if match := slashPattern.FindStringSubmatch(s); match != nil {
		d, _ := strconv.Atoi(match[1])
		m, _ := strconv.Atoi(match[2])
		y, _ := strconv.Atoi(match[3])
		return Date(fmt.Sprintf("%04d-%02d-%02d", y, m, d))
	}
	return InvalidDate
}

func splitISO(s string) (y, m, d int, ok bool) {
	match := isoPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, 0, 0, false
	}
	y, _ = strconv.Atoi(match[1])
	m, _ = strconv.Atoi(match[2])
	d, _ = strconv.Atoi(match[3])
	return y, m, d, true
}

// Properties
func (d Date) IsValid() bool { return canonicalPattern.MatchString(string(d)) }
func (d Date) String() string { return string(d) }
func (d Date) IsZero() bool { return d == "" }

// Comparison (lexicographic on canonical form)
func (d Date) Before(other Date) bool { return d < other }
func (d Date) After(other Date) bool { return d > other }
func (d Date) BeforeOrEqual(other Date) bool { return d <= other }
func (d Date) AfterOrEqual(other Date) bool { return d >= other }

// Time converts the date to midnight UTC. Out-of-range components normalize
// the way time.Date does (2024-02-31 becomes 2024-03-02).
func (d Date) Time() (time.Time, error) {
	y, m, day, ok := splitISO(string(d))
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC), nil
}

// AddDays returns the canonical date n days later.
func (d Date) AddDays(n int) (Date, error) {
	t, err := d.Time()
	if err != nil {
		return InvalidDate, err
	}
	return DateOf(t.AddDate(0, 0, n)), nil
}

// =============================================================================
// DATE ARITHMETIC
// =============================================================================

// NightCount is the number of calendar days from checkIn to checkOut.
// Negative when checkOut precedes checkIn; unparsable input counts as zero.
func NightCount(checkIn, checkOut Date) int {
	in, err := checkIn.Time()
	if err != nil {
		return 0
	}
	out, err := checkOut.Time()
	if err != nil {
		return 0
	}
	return int((out.Unix() - in.Unix()) / 86400)
}

// IsTodayOrFuture reports whether d is on or after the local date of now.
func IsTodayOrFuture(d Date, now time.Time) bool {
	return d >= TodayAt(now)
}

// WeekRange returns the Monday and Sunday of the week containing d.
func WeekRange(d Date) (monday, sunday Date, err error) {
	t, err := d.Time()
	if err != nil {
		return "", "", err
	}
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6 // Sunday
	}
	start := t.AddDate(0, 0, -offset)
	return DateOf(start), DateOf(start.AddDate(0, 0, 6)), nil
}
