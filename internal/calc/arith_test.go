package calc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUnits(t *testing.T) {
	tests := []struct {
		name   string
		base   CalendarDate
		amount int
		unit   TimeUnit
		want   string
	}{
		{"leap day plus a year", MustDate(2024, time.February, 29), 1, Years, "2025-02-28"},
		{"leap day plus four years", MustDate(2024, time.February, 29), 4, Years, "2028-02-29"},
		{"end of february plus a day", MustDate(2023, time.February, 28), 1, Days, "2023-03-01"},
		{"jan 31 plus a month, common year", MustDate(2023, time.January, 31), 1, Months, "2023-02-28"},
		{"jan 31 plus a month, leap year", MustDate(2024, time.January, 31), 1, Months, "2024-02-29"},
		{"mar 31 minus a month", MustDate(2024, time.March, 31), -1, Months, "2024-02-29"},
		{"month crossing year backwards", MustDate(2024, time.January, 15), -1, Months, "2023-12-15"},
		{"thirteen months", MustDate(2024, time.December, 31), 13, Months, "2026-01-31"},
		{"weeks", MustDate(2024, time.December, 25), 2, Weeks, "2025-01-08"},
		{"zero", MustDate(2024, time.June, 30), 0, Months, "2024-06-30"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AddUnits(tc.base, tc.amount, tc.unit)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestAddUnitsOutOfRange(t *testing.T) {
	cases := []struct {
		base   CalendarDate
		amount int
		unit   TimeUnit
	}{
		{MustDate(9999, time.December, 31), 1, Days},
		{MustDate(1, time.January, 1), -1, Days},
		{MustDate(2024, time.January, 1), 8000, Years},
		{MustDate(2024, time.January, 1), 1 << 40, Days},
		{MustDate(2024, time.January, 1), -(1 << 40), Months},
	}
	for _, c := range cases {
		_, err := AddUnits(c.base, c.amount, c.unit)
		assert.Equal(t, KindInvalidParameter, KindOf(err), "%s %+d %s", c.base, c.amount, c.unit)
	}
}

func TestShiftRoundTripDaysAndWeeks(t *testing.T) {
	bases := []CalendarDate{
		MustDate(2024, time.February, 29),
		MustDate(2023, time.December, 31),
		MustDate(1999, time.March, 1),
		MustDate(2100, time.February, 28),
	}
	for _, base := range bases {
		a := Anchor{}
		a.Wall.Date = base.Date
		for _, unit := range []TimeUnit{Days, Weeks} {
			for _, n := range []int{0, 1, 6, 30, 365, 1000} {
				fwd, err := Shift(a, Add, n, unit)
				require.NoError(t, err)
				back, err := Shift(fwd, Subtract, n, unit)
				require.NoError(t, err)
				assert.Equal(t, base, back.Day(), "%s +/- %d %s", base, n, unit)
			}
		}
	}
}

func TestShiftMonthClampIsNotReversible(t *testing.T) {
	a := Anchor{}
	a.Wall.Date = MustDate(2023, time.January, 31).Date

	fwd, err := Shift(a, Add, 1, Months)
	require.NoError(t, err)
	back, err := Shift(fwd, Subtract, 1, Months)
	require.NoError(t, err)
	assert.Equal(t, "2023-01-28", back.String())
}

func TestShiftKeepsTimeOfDay(t *testing.T) {
	a, err := ParseAnchor("base_date", "2024-01-31T09:15:00+01:00", nil)
	require.NoError(t, err)
	out, err := Shift(a, Add, 1, Months)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29T09:15:00+01:00", out.String())
}

func TestShiftRejectsNegativeAmount(t *testing.T) {
	_, err := Shift(Anchor{}, Add, -1, Days)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindInvalidParameter, e.Kind)
	assert.Equal(t, "amount", e.Param)
}

func TestDeriveRange(t *testing.T) {
	ref, err := ParseAnchor("reference_date", "2024-03-31", nil)
	require.NoError(t, err)

	last, err := DeriveRange(ref, Last, 1, Months)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", last.Start.String())
	assert.Equal(t, "2024-03-31", last.End.String())

	next, err := DeriveRange(ref, Next, 2, Weeks)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", next.Start.String())
	assert.Equal(t, "2024-04-14", next.End.String())

	_, err = DeriveRange(ref, Next, -3, Days)
	assert.Equal(t, KindInvalidParameter, KindOf(err))
}

func TestDeriveRangeIsOrdered(t *testing.T) {
	refs := []string{"2024-01-31", "2024-02-29", "2023-03-31", "2000-12-31", "2024-07-04T18:00:00-04:00"}
	for _, s := range refs {
		ref, err := ParseAnchor("reference_date", s, nil)
		require.NoError(t, err)
		for _, dir := range []RangeDirection{Last, Next} {
			for _, unit := range []TimeUnit{Days, Weeks, Months, Years} {
				for _, n := range []int{0, 1, 2, 11, 12, 13, 48} {
					r, err := DeriveRange(ref, dir, n, unit)
					require.NoError(t, err)
					assert.False(t, r.Start.Day().After(r.End.Day()), "%s %s %d %s", s, dir, n, unit)
				}
			}
		}
	}
}

func TestNewDateRangeRejectsReversed(t *testing.T) {
	_, err := NewDateRange(MustDate(2024, time.May, 2), MustDate(2024, time.May, 1))
	assert.Equal(t, KindInvalidDateRange, KindOf(err))

	r, err := NewDateRange(MustDate(2024, time.May, 1), MustDate(2024, time.May, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Days())
}

func TestParseEnums(t *testing.T) {
	u, err := ParseUnit("Month")
	require.NoError(t, err)
	assert.Equal(t, Months, u)

	_, err = ParseUnit("fortnights")
	assert.Equal(t, KindInvalidParameter, KindOf(err))
	_, err = ParseUnit("")
	assert.Equal(t, KindMissingParameter, KindOf(err))

	_, err = ParseOperation("multiply")
	assert.Equal(t, KindInvalidParameter, KindOf(err))
	_, err = ParseRangeDirection("previous")
	assert.Equal(t, KindInvalidParameter, KindOf(err))

	w, err := ParseWeekendPattern("Friday_Saturday")
	require.NoError(t, err)
	assert.Equal(t, FridaySaturday, w)
	w, err = ParseWeekendPattern("")
	require.NoError(t, err)
	assert.Equal(t, SaturdaySunday, w)
	_, err = ParseWeekendPattern("sunday-monday")
	assert.Equal(t, KindInvalidParameter, KindOf(err))

	f, err := ParseOutputFormat("structured-json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	f, err = ParseOutputFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatISO, f)
	_, err = ParseOutputFormat("xml")
	assert.Equal(t, KindInvalidParameter, KindOf(err))
}
