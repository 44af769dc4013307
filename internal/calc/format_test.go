package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAnchor(t *testing.T) {
	tests := []struct {
		in     string
		format string
		want   string
	}{
		{"2024-03-05", "iso", "2024-03-05"},
		{"2024-03-05", "date", "2024-03-05"},
		{"2024-03-05T10:00:00+02:00", "date", "2024-03-05"},
		{"2024-03-05T10:00:00+02:00", "rfc3339", "2024-03-05T10:00:00+02:00"},
		{"2024-03-05T10:00:00Z", "rfc3339", "2024-03-05T10:00:00Z"},
		{"2024-03-05T10:00:00", "readable", "2024-03-05 10:00:00"},
		{"2024-01-01", "unix", "1704067200"},
		{"2024-03-05", "%Y/%m/%d", "2024/03/05"},
		{"2024-03-05", "%A, %B %d, %Y", "Tuesday, March 05, 2024"},
		{"2024-03-05T14:07:09", "%I:%M:%S %p", "02:07:09 PM"},
		{"2024-03-05", "100%% sure on %a", "100% sure on Tue"},
		{"2024-03-05", "%j", "065"},
	}
	for _, tc := range tests {
		t.Run(tc.in+" "+tc.format, func(t *testing.T) {
			a, err := ParseAnchor("date", tc.in, nil)
			require.NoError(t, err)
			got, err := FormatAnchor(a, tc.format)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatAnchorRejectsPatterns(t *testing.T) {
	a, err := ParseAnchor("date", "2024-03-05", nil)
	require.NoError(t, err)

	for _, p := range []string{"%Q", "%Y-%m-%", "%invalid", "%Ey"} {
		t.Run(p, func(t *testing.T) {
			_, err := FormatAnchor(a, p)
			assert.Equal(t, KindInvalidFormatPattern, KindOf(err))
		})
	}

	_, err = FormatAnchor(a, "")
	assert.Equal(t, KindMissingParameter, KindOf(err))
}

func TestFormatIsIdempotent(t *testing.T) {
	inputs := []string{"2024-02-29", "2024-07-04T18:30:00-04:00", "1999-12-31T23:59:59Z", "2024-11-03T01:30:00"}
	formats := []string{"iso", "date", "rfc3339", "%Y-%m-%d", "%Y-%m-%dT%H:%M:%S", "%FT%T"}

	for _, in := range inputs {
		for _, f := range formats {
			a, err := ParseAnchor("date", in, nil)
			require.NoError(t, err)
			first, err := FormatAnchor(a, f)
			require.NoError(t, err)

			again, err := ParseAnchor("date", first, nil)
			require.NoError(t, err, "re-parse %q", first)
			second, err := FormatAnchor(again, f)
			require.NoError(t, err)
			assert.Equal(t, first, second, "%s with %s", in, f)
		}
	}
}
