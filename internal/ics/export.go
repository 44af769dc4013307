package ics

import (
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"datecalc/internal/calc"
	appLog "datecalc/internal/log"
)

const productID = "-//datecalc//date range export//EN"

// RangeEvent describes one all-day VEVENT covering a calendar-day range.
type RangeEvent struct {
	Range       calc.DateRange
	Summary     string
	Description string

	// Stamp becomes DTSTAMP; callers pass the engine clock so output is
	// reproducible under a fixed clock.
	Stamp time.Time
}

// UID is stable for a given range so re-exports update the same event.
func (e RangeEvent) UID() string {
	return "range-" + e.Range.Start.String() + "-" + e.Range.End.String() + "@datecalc"
}

// Export renders the range as a single-event VCALENDAR.
//
// DTEND of an all-day event is exclusive, so it is set to the day after
// Range.End.
func Export(ev RangeEvent) (string, error) {
	if ev.Range.Start.After(ev.Range.End) {
		return "", errors.New("range start is after end")
	}
	summary := strings.TrimSpace(ev.Summary)
	if summary == "" {
		summary = ev.Range.Start.String() + " to " + ev.Range.End.String()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	vev := cal.AddEvent(ev.UID())
	vev.SetDtStampTime(ev.Stamp.UTC())
	vev.SetAllDayStartAt(ev.Range.Start.In(time.UTC))
	vev.SetAllDayEndAt(ev.Range.End.AddDays(1).In(time.UTC))
	vev.SetSummary(summary)
	if ev.Description != "" {
		vev.SetDescription(ev.Description)
	}

	out := cal.Serialize()
	appLog.Debug("ics export completed", "uid", ev.UID(), "days", ev.Range.Days())
	return out, nil
}
