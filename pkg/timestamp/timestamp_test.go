package timestamp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		value string
		year  int
	}{
		{"milliseconds", "1285041600000", 2010},
		{"seconds", "1283140800", 2010},
		{"fractional seconds", "1286744467.0", 2010},
		{"padded", "  1283140800 ", 2010},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.year, got.Year())
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParse_MillisecondsMatchSeconds(t *testing.T) {
	ms, err := Parse("1283140800000")
	require.NoError(t, err)
	s, err := Parse("1283140800")
	require.NoError(t, err)
	assert.True(t, ms.Equal(s))
}

func TestParse_Junk(t *testing.T) {
	for _, value := range []string{"junk", "", "xxxxxxxxxxxx", "1e10", "NaN", "12:00"} {
		_, err := Parse(value)
		var parseErr *DatetimeParseError
		assert.True(t, errors.As(err, &parseErr), value)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1309478400")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2011, 7, 1, 0, 0, 0, 0, time.UTC), d)
}

func TestParseInputDate(t *testing.T) {
	want := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, value := range []string{"2018-01-01", "01 January 2018", "Monday, January 01, 2018", "01/01/2018"} {
		got, err := ParseInputDate(value)
		require.NoError(t, err, value)
		assert.Equal(t, want, got)
	}

	_, err := ParseInputDate("invalid junk")
	assert.Error(t, err)
	_, err = ParseInputDate("")
	assert.Error(t, err)
}
