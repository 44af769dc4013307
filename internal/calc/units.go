package calc

import (
	"strings"
	"time"
)

// TimeUnit is a calendar-relative step. Months and years are not fixed
// durations; their effect depends on the anchor date.
type TimeUnit int

const (
	Days TimeUnit = iota + 1
	Weeks
	Months
	Years
)

func (u TimeUnit) String() string {
	switch u {
	case Days:
		return "days"
	case Weeks:
		return "weeks"
	case Months:
		return "months"
	case Years:
		return "years"
	}
	return "unknown"
}

// ParseUnit accepts the plural wire names and their singular forms.
func ParseUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "days", "day":
		return Days, nil
	case "weeks", "week":
		return Weeks, nil
	case "months", "month":
		return Months, nil
	case "years", "year":
		return Years, nil
	case "":
		return 0, Missing("unit")
	}
	return 0, Invalid("unit", "%q is not one of days, weeks, months, years", s)
}

// Operation is the direction of a date shift.
type Operation int

const (
	Add Operation = iota + 1
	Subtract
)

func (o Operation) String() string {
	if o == Subtract {
		return "subtract"
	}
	return "add"
}

func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return Add, nil
	case "subtract":
		return Subtract, nil
	case "":
		return 0, Missing("operation")
	}
	return 0, Invalid("operation", "%q is not one of add, subtract", s)
}

// RangeDirection selects the units before (Last) or after (Next) a reference.
type RangeDirection int

const (
	Last RangeDirection = iota + 1
	Next
)

func (d RangeDirection) String() string {
	if d == Next {
		return "next"
	}
	return "last"
}

func ParseRangeDirection(s string) (RangeDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last":
		return Last, nil
	case "next":
		return Next, nil
	case "":
		return 0, Missing("direction")
	}
	return 0, Invalid("direction", "%q is not one of last, next", s)
}

// WeekendPattern names the two weekdays treated as non-business days.
type WeekendPattern int

const (
	SaturdaySunday WeekendPattern = iota
	FridaySaturday
	ThursdayFriday
)

var weekendDays = map[WeekendPattern][2]time.Weekday{
	SaturdaySunday: {time.Saturday, time.Sunday},
	FridaySaturday: {time.Friday, time.Saturday},
	ThursdayFriday: {time.Thursday, time.Friday},
}

func (w WeekendPattern) String() string {
	switch w {
	case FridaySaturday:
		return "friday-saturday"
	case ThursdayFriday:
		return "thursday-friday"
	}
	return "saturday-sunday"
}

// Days returns the weekend weekdays.
func (w WeekendPattern) Days() [2]time.Weekday {
	return weekendDays[w]
}

// IsWeekend reports whether wd is a weekend day under the pattern.
func (w WeekendPattern) IsWeekend(wd time.Weekday) bool {
	days := weekendDays[w]
	return wd == days[0] || wd == days[1]
}

// ParseWeekendPattern defaults to SaturdaySunday on the empty string.
func ParseWeekendPattern(s string) (WeekendPattern, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	switch norm {
	case "", "saturday-sunday", "sat-sun":
		return SaturdaySunday, nil
	case "friday-saturday", "fri-sat":
		return FridaySaturday, nil
	case "thursday-friday", "thu-fri":
		return ThursdayFriday, nil
	}
	return 0, Invalid("weekend_pattern", "%q is not one of saturday-sunday, friday-saturday, thursday-friday", s)
}

// OutputFormat selects how the current instant is rendered.
type OutputFormat int

const (
	FormatISO OutputFormat = iota + 1
	FormatRFC3339
	FormatUnix
	FormatReadable
	FormatJSON
	FormatCustom
)

func (f OutputFormat) String() string {
	switch f {
	case FormatISO:
		return "iso"
	case FormatRFC3339:
		return "rfc3339"
	case FormatUnix:
		return "unix"
	case FormatReadable:
		return "readable"
	case FormatJSON:
		return "json"
	case FormatCustom:
		return "custom"
	}
	return "unknown"
}

// ParseOutputFormat accepts the short wire names and the long descriptive
// aliases. The empty string selects FormatISO.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iso", "iso8601":
		return FormatISO, nil
	case "rfc3339":
		return FormatRFC3339, nil
	case "unix", "unix-epoch-seconds":
		return FormatUnix, nil
	case "readable", "human-readable":
		return FormatReadable, nil
	case "json", "structured-json":
		return FormatJSON, nil
	case "custom", "custom-pattern":
		return FormatCustom, nil
	}
	return 0, Invalid("format", "%q is not one of iso, rfc3339, unix, readable, json, custom", s)
}
