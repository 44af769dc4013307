package calc

import (
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Supported calendar span. time.Date handles more, but ISO rendering of
// years outside 1..9999 is not four digits and cannot round-trip.
const (
	MinYear = 1
	MaxYear = 9999
)

var (
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})T(\d{2}:\d{2}(?::\d{2}(?:\.\d{1,9})?)?)(Z|[+-]\d{2}:\d{2})?$`)
)

// CalendarDate is a Gregorian calendar day without a time of day.
type CalendarDate struct {
	civil.Date
}

// NewDate builds a CalendarDate, failing instead of normalizing an invalid
// combination such as February 30.
func NewDate(year int, month time.Month, day int) (CalendarDate, error) {
	d := CalendarDate{civil.Date{Year: year, Month: month, Day: day}}
	if !d.IsValid() || year < MinYear || year > MaxYear {
		return CalendarDate{}, newError(KindInvalidDateFormat, "", "%04d-%02d-%02d is not a valid calendar date", year, int(month), day)
	}
	return d, nil
}

// MustDate is NewDate for literals known to be valid.
func MustDate(year int, month time.Month, day int) CalendarDate {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate{civil.DateOf(t)}
}

// ParseDate accepts exactly YYYY-MM-DD.
func ParseDate(param, s string) (CalendarDate, error) {
	s = strings.TrimSpace(s)
	if !dateRe.MatchString(s) {
		return CalendarDate{}, newError(KindInvalidDateFormat, param, "%q is not an ISO-8601 date (YYYY-MM-DD)", s)
	}
	d, err := civil.ParseDate(s)
	if err != nil || d.Year < MinYear {
		return CalendarDate{}, newError(KindInvalidDateFormat, param, "%q is not a valid calendar date", s)
	}
	return CalendarDate{d}, nil
}

func (d CalendarDate) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// AddDays shifts by n days using exact Gregorian day counting.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return CalendarDate{d.Date.AddDays(n)}
}

func (d CalendarDate) Before(o CalendarDate) bool { return d.Date.Before(o.Date) }
func (d CalendarDate) After(o CalendarDate) bool  { return d.Date.After(o.Date) }

// DaysSince returns d - o in days.
func (d CalendarDate) DaysSince(o CalendarDate) int { return d.Date.DaysSince(o.Date) }

func (d CalendarDate) inRange() bool {
	return d.Year >= MinYear && d.Year <= MaxYear
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the length of month in year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

// Anchor is a parsed date argument: a calendar day, optionally with a time of
// day, optionally pinned to a location. A nil location means the value is
// floating (no zone was given and the input carried no offset).
type Anchor struct {
	Wall    civil.DateTime
	HasTime bool
	Loc     *time.Location
}

// Day returns the calendar-day part of the anchor.
func (a Anchor) Day() CalendarDate { return CalendarDate{a.Wall.Date} }

// Instant materializes the anchor. Floating anchors are placed in UTC.
// A wall time skipped by a DST transition moves forward by the length of
// the gap; a wall time that occurs twice resolves to the earlier instant.
func (a Anchor) Instant() time.Time {
	loc := a.Loc
	if loc == nil {
		loc = time.UTC
	}
	t := a.Wall.In(loc)

	// Candidate offsets: the one time.Date picked and those of the
	// neighbouring zone periods.
	_, off := t.Zone()
	offsets := []int{off}
	start, end := t.ZoneBounds()
	if !start.IsZero() {
		_, prev := start.Add(-time.Second).Zone()
		offsets = append(offsets, prev)
	}
	if !end.IsZero() {
		_, next := end.Zone()
		offsets = append(offsets, next)
	}

	wall := a.Wall.In(time.UTC)
	var best time.Time
	found := false
	minOff := off
	for _, o := range offsets {
		minOff = min(minOff, o)
		c := wall.Add(-time.Duration(o) * time.Second).In(loc)
		if civil.DateTimeOf(c) == a.Wall && (!found || c.Before(best)) {
			best, found = c, true
		}
	}
	if found {
		return best
	}
	// In a gap the offset increases; reading the wall time with the
	// pre-transition offset lands after the gap.
	return wall.Add(-time.Duration(minOff) * time.Second).In(loc)
}

// withDay keeps time of day and location and replaces the day.
func (a Anchor) withDay(d CalendarDate) Anchor {
	a.Wall.Date = d.Date
	return a
}

// String renders the anchor the way results are reported: a bare date for a
// floating day, a floating ISO datetime, or an ISO datetime with offset.
func (a Anchor) String() string {
	switch {
	case a.Loc == nil && !a.HasTime:
		return a.Wall.Date.String()
	case a.Loc == nil:
		return a.Instant().Format("2006-01-02T15:04:05")
	default:
		return a.Instant().Format("2006-01-02T15:04:05-07:00")
	}
}

// ParseAnchor accepts YYYY-MM-DD or YYYY-MM-DDTHH:MM[:SS[.frac]] with an
// optional Z or ±HH:MM suffix. When loc is non-nil, an offset-bearing value
// is converted into loc and a floating value is interpreted in loc.
func ParseAnchor(param, s string, loc *time.Location) (Anchor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Anchor{}, Missing(param)
	}
	if dateRe.MatchString(s) {
		d, err := ParseDate(param, s)
		if err != nil {
			return Anchor{}, err
		}
		return Anchor{Wall: civil.DateTime{Date: d.Date}, Loc: loc}, nil
	}

	m := dateTimeRe.FindStringSubmatch(s)
	if m == nil {
		return Anchor{}, newError(KindInvalidDateFormat, param, "%q is not an ISO-8601 date or datetime", s)
	}
	if _, err := ParseDate(param, m[1]); err != nil {
		return Anchor{}, err
	}
	clock := m[2]
	if len(clock) == len("15:04") {
		clock += ":00"
	}

	if m[3] == "" {
		t, err := time.Parse("2006-01-02T15:04:05.999999999", m[1]+"T"+clock)
		if err != nil {
			return Anchor{}, newError(KindInvalidDateFormat, param, "%q has an invalid time of day", s)
		}
		return Anchor{Wall: civil.DateTimeOf(t.Truncate(time.Second)), HasTime: true, Loc: loc}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, m[1]+"T"+clock+m[3])
	if err != nil {
		return Anchor{}, newError(KindInvalidDateFormat, param, "%q has an invalid time of day or offset", s)
	}
	t = t.Truncate(time.Second)
	if loc != nil {
		t = t.In(loc)
	} else {
		// time.Parse may attach time.Local when the offset happens to match
		// the host zone; pin a fixed offset so results never depend on it.
		if _, off := t.Zone(); off == 0 {
			t = t.In(time.UTC)
		} else {
			t = t.In(time.FixedZone("", off))
		}
	}
	a := Anchor{Wall: civil.DateTimeOf(t), HasTime: true, Loc: t.Location()}
	if !a.Day().inRange() {
		return Anchor{}, newError(KindInvalidDateFormat, param, "%q is outside years %d..%d", s, MinYear, MaxYear)
	}
	return a, nil
}

// ParseDay accepts anything ParseAnchor does and keeps only the calendar day
// in the value's own offset.
func ParseDay(param, s string) (CalendarDate, error) {
	a, err := ParseAnchor(param, s, nil)
	if err != nil {
		return CalendarDate{}, err
	}
	return a.Day(), nil
}
