package weekends

import (
	"time"

	"github.com/teambition/rrule-go"
)

var workWeek = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// Range is the closed interval [Start, End] of calendar days.
// It can be iterated any number of times.
type Range struct {
	Start time.Time
	End   time.Time
}

// WeekdayRange builds a Range normalized to midnight UTC.
func WeekdayRange(start, end time.Time) Range {
	return Range{Start: Truncate(start), End: Truncate(end)}
}

// Iterator returns a lazy iterator over the weekdays of the range.
// Every call starts from the beginning.
func (r Range) Iterator() func() (time.Time, bool) {
	if r.Start.After(r.End) {
		return func() (time.Time, bool) { return time.Time{}, false }
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   r.Start,
		Until:     r.End,
		Byweekday: workWeek,
	})
	if err != nil {
		return func() (time.Time, bool) { return time.Time{}, false }
	}

	next := rule.Iterator()
	return func() (time.Time, bool) {
		d, ok := next()
		if !ok {
			return time.Time{}, false
		}
		return Truncate(d), true
	}
}

// Dates materializes the weekdays of the range in ascending order.
func (r Range) Dates() []time.Time {
	var dates []time.Time
	next := r.Iterator()
	for d, ok := next(); ok; d, ok = next() {
		dates = append(dates, d)
	}
	return dates
}

// WeekdayDates returns every Monday-Friday date in [start, end].
func WeekdayDates(start, end time.Time) []time.Time {
	return WeekdayRange(start, end).Dates()
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Truncate drops the clock part of t and keeps the calendar date in UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInclusive counts calendar days in [start, end]; 1 when start == end.
func DaysInclusive(start, end time.Time) int {
	return int(Truncate(end).Sub(Truncate(start)).Hours()/24) + 1
}
