package weekends

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekdayDates(t *testing.T) {
	monday := date(2018, 1, 1)
	nextTuesday := date(2018, 1, 9)

	dates := WeekdayDates(monday, nextTuesday)
	require.Len(t, dates, 7)

	expected := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		time.Monday, time.Tuesday,
	}
	for i, d := range dates {
		assert.Equal(t, expected[i], d.Weekday())
	}
	assert.Equal(t, date(2018, 1, 8), dates[5])
}

func TestWeekdayDates_Ascending(t *testing.T) {
	dates := WeekdayDates(date(2011, 7, 1), date(2011, 8, 31))
	require.NotEmpty(t, dates)
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i].After(dates[i-1]))
		gap := dates[i].Sub(dates[i-1]).Hours() / 24
		if dates[i].Weekday() == time.Monday {
			assert.Equal(t, float64(3), gap)
		} else {
			assert.Equal(t, float64(1), gap)
		}
	}
	for _, d := range dates {
		assert.False(t, IsWeekend(d), d.String())
	}
}

func TestWeekdayDates_Edges(t *testing.T) {
	saturday := date(2018, 1, 6)
	sunday := date(2018, 1, 7)

	assert.Empty(t, WeekdayDates(saturday, sunday))
	assert.Empty(t, WeekdayDates(date(2018, 1, 3), date(2018, 1, 1)))
	assert.Equal(t, []time.Time{date(2018, 1, 3)}, WeekdayDates(date(2018, 1, 3), date(2018, 1, 3)))
}

func TestRange_Restartable(t *testing.T) {
	r := WeekdayRange(date(2018, 1, 1), date(2018, 1, 3))

	first := r.Dates()
	second := r.Dates()
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)

	next := r.Iterator()
	d, ok := next()
	require.True(t, ok)
	assert.Equal(t, date(2018, 1, 1), d)
}

func TestWeekdayRange_TruncatesClock(t *testing.T) {
	start := time.Date(2018, 1, 1, 15, 30, 0, 0, time.UTC)
	end := time.Date(2018, 1, 2, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, []time.Time{date(2018, 1, 1), date(2018, 1, 2)}, WeekdayDates(start, end))
}

func TestDaysInclusive(t *testing.T) {
	assert.Equal(t, 1, DaysInclusive(date(2018, 1, 1), date(2018, 1, 1)))
	assert.Equal(t, 3, DaysInclusive(date(2018, 1, 1), date(2018, 1, 3)))
}
