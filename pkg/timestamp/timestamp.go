package timestamp

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Epoch values with more integer digits than this are milliseconds.
const maxSecondsDigits = 10

var numeric = regexp.MustCompile(`^[+-]?(\d+)(\.\d*)?$`)

// DatetimeParseError is returned when a value cannot be read as a date.
type DatetimeParseError struct {
	Value string
}

func (e *DatetimeParseError) Error() string {
	return fmt.Sprintf("unable to parse %q as a datetime", e.Value)
}

// Parse reads a unix epoch in seconds, milliseconds or fractional seconds
// and returns it as a UTC time.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	m := numeric.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, &DatetimeParseError{Value: value}
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, &DatetimeParseError{Value: value}
	}
	if len(m[1]) > maxSecondsDigits {
		f /= 1000
	}

	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
}

// ParseDate is Parse truncated to the calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := Parse(value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// DateInputLayouts are the textual date formats accepted from forms and
// query strings, tried in order.
var DateInputLayouts = []string{
	"2006-01-02",
	"02 January 2006",
	"2 January 2006",
	"Monday, January 02, 2006",
	"01/02/2006",
	"01/02/06",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2 Jan, 2006",
	"January 2 2006",
	"January 2, 2006",
	"2 January, 2006",
	time.RFC3339,
}

// ParseInputDate reads a date typed by a user. Extra layouts are tried
// before the defaults.
func ParseInputDate(value string, layouts ...string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &DatetimeParseError{Value: value}
	}
	for _, layout := range append(layouts, DateInputLayouts...) {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, &DatetimeParseError{Value: value}
}
