package calc

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	s, err := ParseDate("start_date", start)
	require.NoError(t, err)
	e, err := ParseDate("end_date", end)
	require.NoError(t, err)
	r, err := NewDateRange(s, e)
	require.NoError(t, err)
	return r
}

func countByLoop(r DateRange, h HolidaySet, w WeekendPattern) int {
	n := 0
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		if IsBusinessDay(d, h, w) {
			n++
		}
	}
	return n
}

func TestCountBusinessDays(t *testing.T) {
	christmas := NewHolidaySet(MustDate(2024, time.December, 25))

	tests := []struct {
		name     string
		start    string
		end      string
		holidays HolidaySet
		weekend  WeekendPattern
		want     int
	}{
		{"year end with christmas", "2024-12-20", "2024-12-31", christmas, SaturdaySunday, 7},
		{"year end, friday-saturday", "2024-12-20", "2024-12-31", christmas, FridaySaturday, 7},
		{"year end, thursday-friday", "2024-12-20", "2024-12-31", christmas, ThursdayFriday, 8},
		{"one week plus, saturday-sunday", "2024-12-20", "2024-12-28", nil, SaturdaySunday, 6},
		{"one week plus, friday-saturday", "2024-12-20", "2024-12-28", nil, FridaySaturday, 5},
		{"single business day", "2024-12-20", "2024-12-20", nil, SaturdaySunday, 1},
		{"single weekend day", "2024-12-21", "2024-12-21", nil, SaturdaySunday, 0},
		{"holiday on a weekend counts once", "2024-12-20", "2024-12-31",
			NewHolidaySet(MustDate(2024, time.December, 25), MustDate(2024, time.December, 21)), SaturdaySunday, 7},
		{"holiday outside the range", "2024-12-20", "2024-12-24", christmas, SaturdaySunday, 3},
		{"leap year", "2024-01-01", "2024-12-31", nil, SaturdaySunday, 262},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := mustRange(t, tc.start, tc.end)
			assert.Equal(t, tc.want, CountBusinessDays(r, tc.holidays, tc.weekend))
		})
	}
}

func TestCountBusinessDaysMatchesEnumeration(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := MustDate(2023, time.January, 1)

	for i := 0; i < 200; i++ {
		start := base.AddDays(rng.Intn(900))
		end := start.AddDays(rng.Intn(120))
		r, err := NewDateRange(start, end)
		require.NoError(t, err)

		h := HolidaySet{}
		for j := rng.Intn(6); j > 0; j-- {
			h[start.AddDays(rng.Intn(150)-10).Date] = struct{}{}
		}
		w := WeekendPattern(rng.Intn(3))

		want := countByLoop(r, h, w)
		assert.Equal(t, want, CountBusinessDays(r, h, w), "%s..%s %s", start, end, w)

		days, err := ListBusinessDays(r, h, w)
		require.NoError(t, err)
		assert.Len(t, days, want)
		for k, d := range days {
			assert.True(t, IsBusinessDay(d, h, w))
			assert.True(t, r.Contains(d))
			if k > 0 {
				assert.True(t, days[k-1].Before(d))
			}
		}
	}
}

func TestListBusinessDays(t *testing.T) {
	r := mustRange(t, "2024-12-20", "2024-12-31")
	days, err := ListBusinessDays(r, NewHolidaySet(MustDate(2024, time.December, 25)), SaturdaySunday)
	require.NoError(t, err)

	var got []string
	for _, d := range days {
		got = append(got, d.String())
	}
	assert.Equal(t, []string{
		"2024-12-20", "2024-12-23", "2024-12-24", "2024-12-26",
		"2024-12-27", "2024-12-30", "2024-12-31",
	}, got)
}

func TestListBusinessDaysLimit(t *testing.T) {
	r := mustRange(t, "2000-01-01", "2020-01-01")
	_, err := ListBusinessDays(r, nil, SaturdaySunday)
	assert.Equal(t, KindInvalidParameter, KindOf(err))
}

func TestParseHolidays(t *testing.T) {
	h, err := ParseHolidays([]string{"2024-12-25", "2024-12-25", "2024-01-01"})
	require.NoError(t, err)
	assert.Len(t, h, 2)
	assert.Equal(t, "2024-01-01", h.Sorted()[0].String())

	_, err = ParseHolidays([]string{"2024-12-25", "christmas"})
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindInvalidDateFormat, e.Kind)
	assert.Equal(t, "holidays[1]", e.Param)
}
