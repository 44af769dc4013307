package calc

// AnchorRange is an ordered pair of anchors with Start never after End.
type AnchorRange struct {
	Start Anchor
	End   Anchor
}

// DateRange is an ordered pair of calendar days with Start never after End.
type DateRange struct {
	Start CalendarDate
	End   CalendarDate
}

// NewDateRange rejects reversed pairs instead of swapping them.
func NewDateRange(start, end CalendarDate) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, newError(KindInvalidDateRange, "start_date", "%s is after %s", start, end)
	}
	return DateRange{Start: start, End: end}, nil
}

// Days is the number of calendar days in the closed interval.
func (r DateRange) Days() int {
	return r.End.DaysSince(r.Start) + 1
}

// Contains reports whether d lies in the closed interval.
func (r DateRange) Contains(d CalendarDate) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// DeriveRange returns the amount units immediately before (Last) or after
// (Next) ref. Ordering holds by construction: subtracting a non-negative
// amount never moves forward and adding never moves back, including under
// the month-end clamp.
func DeriveRange(ref Anchor, dir RangeDirection, amount int, unit TimeUnit) (AnchorRange, error) {
	if amount < 0 {
		return AnchorRange{}, Invalid("amount", "must be a non-negative integer, got %d", amount)
	}
	switch dir {
	case Last:
		start, err := Shift(ref, Subtract, amount, unit)
		if err != nil {
			return AnchorRange{}, err
		}
		return AnchorRange{Start: start, End: ref}, nil
	case Next:
		end, err := Shift(ref, Add, amount, unit)
		if err != nil {
			return AnchorRange{}, err
		}
		return AnchorRange{Start: ref, End: end}, nil
	}
	return AnchorRange{}, Invalid("direction", "unsupported direction %d", int(dir))
}

// Days returns the calendar-day span of the anchor range.
func (r AnchorRange) Days() DateRange {
	return DateRange{Start: r.Start.Day(), End: r.End.Day()}
}
