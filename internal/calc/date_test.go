package calc

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := ParseDate("date", "2024-02-29")
		require.NoError(t, err)
		assert.Equal(t, MustDate(2024, time.February, 29), d)
	})

	for _, in := range []string{"2024-13-40", "2023-02-29", "2024-02-30", "2024-1-5", "20240105", "2024/01/05", "", "0000-01-01"} {
		t.Run("rejects "+in, func(t *testing.T) {
			_, err := ParseDate("date", in)
			require.Error(t, err)
			assert.Equal(t, KindInvalidDateFormat, KindOf(err))
			assert.True(t, errors.Is(err, ErrInvalidDateFormat))
		})
	}
}

func TestMalformedDateIsAlwaysRejected(t *testing.T) {
	for i := 0; i < 5; i++ {
		_, err := ParseAnchor("base_date", "2024-13-40", nil)
		require.Error(t, err)
		assert.Equal(t, KindInvalidDateFormat, KindOf(err))
	}
}

func TestNewDate(t *testing.T) {
	_, err := NewDate(2023, time.February, 29)
	assert.Equal(t, KindInvalidDateFormat, KindOf(err))

	d, err := NewDate(2000, time.February, 29)
	require.NoError(t, err)
	assert.Equal(t, "2000-02-29", d.String())
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(1900, time.February))
	assert.Equal(t, 29, DaysInMonth(2000, time.February))
	assert.Equal(t, 30, DaysInMonth(2024, time.April))
	assert.Equal(t, 31, DaysInMonth(2024, time.December))
}

func TestParseAnchor(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		loc  *time.Location
		want string
	}{
		{"bare date", "2024-05-01", nil, "2024-05-01"},
		{"bare date in zone", "2024-05-01", tokyo, "2024-05-01T00:00:00+09:00"},
		{"naive datetime", "2024-05-01T10:30", nil, "2024-05-01T10:30:00"},
		{"naive datetime in zone", "2024-05-01T10:30:15", tokyo, "2024-05-01T10:30:15+09:00"},
		{"utc datetime", "2024-05-01T10:30:00Z", nil, "2024-05-01T10:30:00+00:00"},
		{"offset datetime", "2024-05-01T10:30:00-05:00", nil, "2024-05-01T10:30:00-05:00"},
		{"offset converted into zone", "2024-05-01T23:00:00Z", tokyo, "2024-05-02T08:00:00+09:00"},
		{"fraction truncated", "2024-05-01T10:30:00.999Z", nil, "2024-05-01T10:30:00+00:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := ParseAnchor("base_date", tc.in, tc.loc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, a.String())
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := ParseAnchor("base_date", "  ", nil)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, KindMissingParameter, e.Kind)
		assert.Equal(t, "base_date", e.Param)
	})

	for _, in := range []string{"2024-05-01 10:30", "2024-05-01T25:00", "2024-05-01T10:30+0500", "tomorrow"} {
		t.Run("rejects "+in, func(t *testing.T) {
			_, err := ParseAnchor("base_date", in, nil)
			assert.Equal(t, KindInvalidDateFormat, KindOf(err))
		})
	}
}

func TestAnchorInstantAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	wall := func(y int, m time.Month, d, h, mi int) civil.DateTime {
		return civil.DateTime{Date: civil.Date{Year: y, Month: m, Day: d}, Time: civil.Time{Hour: h, Minute: mi}}
	}
	tests := []struct {
		name string
		a    Anchor
		want string
	}{
		{"new york gap moves forward", Anchor{Wall: wall(2024, time.March, 10, 2, 30), HasTime: true, Loc: ny}, "2024-03-10T03:30:00-04:00"},
		{"new york overlap takes earlier", Anchor{Wall: wall(2024, time.November, 3, 1, 30), HasTime: true, Loc: ny}, "2024-11-03T01:30:00-04:00"},
		{"paris gap moves forward", Anchor{Wall: wall(2024, time.March, 31, 2, 30), HasTime: true, Loc: paris}, "2024-03-31T03:30:00+02:00"},
		{"paris overlap takes earlier", Anchor{Wall: wall(2024, time.October, 27, 2, 30), HasTime: true, Loc: paris}, "2024-10-27T02:30:00+02:00"},
		{"ordinary time", Anchor{Wall: wall(2024, time.July, 4, 12, 0), HasTime: true, Loc: ny}, "2024-07-04T12:00:00-04:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Instant().Format(time.RFC3339))
		})
	}
}

func TestParseAnchorZeroOffsetIsUTC(t *testing.T) {
	for _, in := range []string{"2024-05-01T10:30:00Z", "2024-05-01T10:30:00+00:00"} {
		a, err := ParseAnchor("date", in, nil)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, a.Loc, in)
	}
}

func TestParseDayKeepsOwnOffset(t *testing.T) {
	d, err := ParseDay("start_date", "2024-05-01T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", d.String())
}

func TestZoneDB(t *testing.T) {
	db := NewZoneDB(t.TempDir())

	t.Run("falls back to built-in list", func(t *testing.T) {
		assert.Contains(t, db.Names(), "UTC")
		assert.Contains(t, db.Names(), "America/New_York")
	})

	t.Run("empty means UTC", func(t *testing.T) {
		loc, err := db.Lookup("")
		require.NoError(t, err)
		assert.Equal(t, "UTC", loc.String())
	})

	t.Run("unlisted but valid zone", func(t *testing.T) {
		loc, err := db.Lookup("America/Argentina/Buenos_Aires")
		require.NoError(t, err)
		assert.Equal(t, "America/Argentina/Buenos_Aires", loc.String())
	})

	for _, name := range []string{"Mars/Olympus_Mons", "Local", "EST5EDT/x"} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := db.Lookup(name)
			assert.True(t, errors.Is(err, ErrUnknownTimezone))
		})
	}
}

func TestZonedInstant(t *testing.T) {
	db := NewZoneDB(t.TempDir())
	ny, err := db.Lookup("America/New_York")
	require.NoError(t, err)

	summer := NewZonedInstant(time.Date(2024, 7, 15, 12, 0, 0, 500, time.UTC), "America/New_York", ny)
	assert.Equal(t, "-04:00", summer.Offset())
	assert.True(t, summer.IsDST())
	assert.Equal(t, 3600, summer.DSTOffsetSeconds())
	assert.Equal(t, 8, summer.Local().Hour())
	assert.Equal(t, 0, summer.UTC().Nanosecond())

	winter := NewZonedInstant(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), "America/New_York", ny)
	assert.Equal(t, "-05:00", winter.Offset())
	assert.False(t, winter.IsDST())
	assert.Equal(t, 0, winter.DSTOffsetSeconds())

	kolkata, err := db.Lookup("Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "+05:30", NewZonedInstant(summer.UTC(), "Asia/Kolkata", kolkata).Offset())
}
