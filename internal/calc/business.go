package calc

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"
)

// MaxListDays caps ListBusinessDays, which materializes every day.
const MaxListDays = 3660

// HolidaySet is a per-call set of non-business days. Duplicates collapse by
// value equality.
type HolidaySet map[civil.Date]struct{}

func NewHolidaySet(days ...CalendarDate) HolidaySet {
	h := make(HolidaySet, len(days))
	for _, d := range days {
		h[d.Date] = struct{}{}
	}
	return h
}

// ParseHolidays parses each entry with the same rules as dates elsewhere.
func ParseHolidays(values []string) (HolidaySet, error) {
	h := make(HolidaySet, len(values))
	for i, v := range values {
		d, err := ParseDay(fmt.Sprintf("holidays[%d]", i), v)
		if err != nil {
			return nil, err
		}
		h[d.Date] = struct{}{}
	}
	return h, nil
}

func (h HolidaySet) Contains(d CalendarDate) bool {
	_, ok := h[d.Date]
	return ok
}

// Sorted returns the holidays in calendar order.
func (h HolidaySet) Sorted() []CalendarDate {
	out := make([]CalendarDate, 0, len(h))
	for d := range h {
		out = append(out, CalendarDate{d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// IsBusinessDay applies the definition: not a weekend day, not a holiday.
func IsBusinessDay(d CalendarDate, holidays HolidaySet, weekend WeekendPattern) bool {
	return !weekend.IsWeekend(d.Weekday()) && !holidays.Contains(d)
}

// CountBusinessDays counts business days in the closed interval r, both
// endpoints included. Whole weeks are counted in closed form; only the
// remainder days and the holidays inside r are inspected, so the cost does
// not grow with the interval length.
func CountBusinessDays(r DateRange, holidays HolidaySet, weekend WeekendPattern) int {
	n := r.Days()
	full := n / 7
	count := full * (7 - len(weekend.Days()))

	tail := r.Start.AddDays(full * 7)
	for i := 0; i < n%7; i++ {
		if !weekend.IsWeekend(tail.AddDays(i).Weekday()) {
			count++
		}
	}

	// A holiday on a weekend day is already excluded; subtract it only once.
	for d := range holidays {
		cd := CalendarDate{d}
		if r.Contains(cd) && !weekend.IsWeekend(cd.Weekday()) {
			count--
		}
	}
	return count
}

// ListBusinessDays enumerates the business days of r in order: a daily
// recurrence restricted to the business weekdays, with holidays as
// exception dates.
func ListBusinessDays(r DateRange, holidays HolidaySet, weekend WeekendPattern) ([]CalendarDate, error) {
	if r.Days() > MaxListDays {
		return nil, Invalid("end_date", "listing is limited to %d days, interval has %d", MaxListDays, r.Days())
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   r.Start.In(time.UTC),
		Until:     r.End.In(time.UTC),
		Byweekday: businessWeekdays(weekend),
	})
	if err != nil {
		return nil, Invalid("weekend_pattern", "cannot build recurrence: %v", err)
	}

	var set rrule.Set
	set.RRule(rule)
	for d := range holidays {
		cd := CalendarDate{d}
		if r.Contains(cd) {
			set.ExDate(cd.In(time.UTC))
		}
	}

	occ := set.All()
	out := make([]CalendarDate, 0, len(occ))
	for _, t := range occ {
		out = append(out, DateOf(t))
	}
	return out, nil
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

func businessWeekdays(weekend WeekendPattern) []rrule.Weekday {
	out := make([]rrule.Weekday, 0, 5)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if !weekend.IsWeekend(wd) {
			out = append(out, rruleWeekdays[wd])
		}
	}
	return out
}
