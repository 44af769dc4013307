package calc

import "time"

// maxShift bounds each unit so intermediate arithmetic cannot overflow; any
// amount beyond it necessarily leaves the supported year span.
var maxShift = map[TimeUnit]int{
	Days:   (MaxYear - MinYear + 1) * 366,
	Weeks:  (MaxYear-MinYear+1)*366/7 + 1,
	Months: (MaxYear - MinYear + 1) * 12,
	Years:  MaxYear - MinYear + 1,
}

// AddUnits shifts d by a signed amount of unit.
//
// Days and weeks use exact day counting. Months and years move the calendar
// fields and clamp the day down to the last valid day of the target month,
// so Jan 31 + 1 month is Feb 28 (or 29) and Feb 29 + 1 year is Feb 28.
func AddUnits(d CalendarDate, amount int, unit TimeUnit) (CalendarDate, error) {
	limit, ok := maxShift[unit]
	if !ok {
		return CalendarDate{}, Invalid("unit", "unsupported unit %d", int(unit))
	}
	if amount > limit || amount < -limit {
		return CalendarDate{}, Invalid("amount", "%d %s is outside the supported range", amount, unit)
	}

	var out CalendarDate
	switch unit {
	case Days:
		out = d.AddDays(amount)
	case Weeks:
		out = d.AddDays(amount * 7)
	case Months:
		out = addMonths(d, amount)
	case Years:
		out = addYears(d, amount)
	}
	if !out.inRange() {
		return CalendarDate{}, Invalid("amount", "result falls outside years %d..%d", MinYear, MaxYear)
	}
	return out, nil
}

func addMonths(d CalendarDate, n int) CalendarDate {
	total := d.Year*12 + int(d.Month-1) + n
	year := floorDiv(total, 12)
	month := time.Month(total-year*12) + 1
	return clampDay(year, month, d.Day)
}

func addYears(d CalendarDate, n int) CalendarDate {
	return clampDay(d.Year+n, d.Month, d.Day)
}

// clampDay builds year-month-day, rounding day down to the month's last day.
func clampDay(year int, month time.Month, day int) CalendarDate {
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	out := CalendarDate{}
	out.Year, out.Month, out.Day = year, month, day
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Shift applies op/amount/unit to the anchor's calendar day, preserving its
// time of day and location. amount must be non-negative; op carries the sign.
func Shift(a Anchor, op Operation, amount int, unit TimeUnit) (Anchor, error) {
	if amount < 0 {
		return Anchor{}, Invalid("amount", "must be a non-negative integer, got %d", amount)
	}
	signed := amount
	switch op {
	case Add:
	case Subtract:
		signed = -amount
	default:
		return Anchor{}, Invalid("operation", "unsupported operation %d", int(op))
	}
	day, err := AddUnits(a.Day(), signed, unit)
	if err != nil {
		return Anchor{}, err
	}
	return a.withDay(day), nil
}
