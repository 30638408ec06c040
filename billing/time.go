package billing

import (
	"time"
)

// =============================================================================
// DAY - Calendar-day abstraction (all billing math is whole-day based)
// =============================================================================

// Day is a single calendar day, normalized to UTC midnight.
// Billing periods and bonds are bounded by days, never instants.
type Day struct {
	Time time.Time
}

// Constructors
func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses an ISO date (YYYY-MM-DD).
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// Comparison
func (d Day) Before(other Day) bool        { return d.normalize().Before(other.normalize()) }
func (d Day) Equal(other Day) bool         { return d.normalize().Equal(other.normalize()) }
func (d Day) After(other Day) bool         { return d.normalize().After(other.normalize()) }
func (d Day) BeforeOrEqual(other Day) bool { return d.Before(other) || d.Equal(other) }
func (d Day) AfterOrEqual(other Day) bool  { return d.After(other) || d.Equal(other) }

func (d Day) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Day) AddDays(n int) Day   { return Day{Time: d.Time.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{Time: d.Time.AddDate(0, n, 0)} }

// Properties
func (d Day) Year() int         { return d.Time.Year() }
func (d Day) Month() time.Month { return d.Time.Month() }
func (d Day) IsZero() bool      { return d.Time.IsZero() }

func (d Day) String() string {
	return d.Time.Format("2006-01-02")
}

// =============================================================================
// DAY UTILITIES
// =============================================================================

// DaysBetween returns the number of days from one day to another (exclusive).
func DaysBetween(from, to Day) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// InclusiveDays returns the day count of the inclusive interval [from, to].
// A single-day interval counts as 1.
func InclusiveDays(from, to Day) int {
	return DaysBetween(from, to) + 1
}
