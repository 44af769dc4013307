package calc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"datecalc/internal/model"
)

// Engine is the calendar arithmetic entry point. Every method validates its
// raw string arguments before computing anything, so a failed call never
// returns a partial result. The engine holds no mutable state besides the
// optional memo cache and is safe for concurrent use.
type Engine struct {
	zones       *ZoneDB
	clock       Clock
	cache       *Cache
	defaultZone string
}

type Option func(*Engine)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithCache memoizes pure results. A nil cache disables memoization.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithDefaultZone sets the zone used by the datetime:// resources.
func WithDefaultZone(name string) Option {
	return func(e *Engine) { e.defaultZone = name }
}

func NewEngine(zones *ZoneDB, opts ...Option) *Engine {
	e := &Engine{
		zones:       zones,
		clock:       SystemClock{},
		defaultZone: DefaultZone,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Zones() *ZoneDB      { return e.zones }
func (e *Engine) Cache() *Cache       { return e.cache }
func (e *Engine) DefaultZone() string { return e.defaultZone }

// DateRequest carries calculate-date arguments.
type DateRequest struct {
	BaseDate  string
	Operation string
	Amount    int
	Unit      string
	Timezone  string
}

// RangeRequest carries calculate-date-range arguments.
type RangeRequest struct {
	ReferenceDate string
	Direction     string
	Amount        int
	Unit          string
	Timezone      string
}

// BusinessDaysRequest carries calculate-business-days arguments.
type BusinessDaysRequest struct {
	StartDate      string
	EndDate        string
	Holidays       []string
	WeekendPattern string
}

// CurrentRequest carries get-current-datetime arguments.
type CurrentRequest struct {
	Timezone     string
	Format       string
	CustomFormat string
}

// FormatRequest carries format-date arguments.
type FormatRequest struct {
	Date   string
	Format string
}

// optionalZone resolves a timezone argument. Absent means nil: anchors stay
// floating and results render without an offset.
func (e *Engine) optionalZone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	return e.zones.Lookup(name)
}

func zoneKey(loc *time.Location) string {
	if loc == nil {
		return "-"
	}
	return loc.String()
}

// memo runs fn through the cache when one is configured.
func memo[T any](e *Engine, key string, fn func() (T, error)) (T, error) {
	if e.cache == nil {
		return fn()
	}
	v, err := e.cache.Do(key, func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// CalculateDate shifts base_date by amount units.
func (e *Engine) CalculateDate(req DateRequest) (string, error) {
	loc, err := e.optionalZone(req.Timezone)
	if err != nil {
		return "", err
	}
	anchor, err := ParseAnchor("base_date", req.BaseDate, loc)
	if err != nil {
		return "", err
	}
	op, err := ParseOperation(req.Operation)
	if err != nil {
		return "", err
	}
	if req.Amount < 0 {
		return "", Invalid("amount", "must be a non-negative integer, got %d", req.Amount)
	}
	unit, err := ParseUnit(req.Unit)
	if err != nil {
		return "", err
	}

	// Keyed on the wall time: two inputs in a DST gap can render alike.
	key := fmt.Sprintf("calculate-date|%s|%t|%s|%s|%d|%s", anchor.Wall, anchor.HasTime, zoneKey(anchor.Loc), op, req.Amount, unit)
	return memo(e, key, func() (string, error) {
		out, err := Shift(anchor, op, req.Amount, unit)
		if err != nil {
			return "", err
		}
		return out.String(), nil
	})
}

// ResolveRange validates a range request and derives the anchor range.
func (e *Engine) ResolveRange(req RangeRequest) (AnchorRange, error) {
	loc, err := e.optionalZone(req.Timezone)
	if err != nil {
		return AnchorRange{}, err
	}
	ref, err := ParseAnchor("reference_date", req.ReferenceDate, loc)
	if err != nil {
		return AnchorRange{}, err
	}
	dir, err := ParseRangeDirection(req.Direction)
	if err != nil {
		return AnchorRange{}, err
	}
	if req.Amount < 0 {
		return AnchorRange{}, Invalid("amount", "must be a non-negative integer, got %d", req.Amount)
	}
	unit, err := ParseUnit(req.Unit)
	if err != nil {
		return AnchorRange{}, err
	}
	return DeriveRange(ref, dir, req.Amount, unit)
}

// CalculateDateRange returns the last/next amount units around reference_date.
func (e *Engine) CalculateDateRange(req RangeRequest) (model.DateRange, error) {
	r, err := e.ResolveRange(req)
	if err != nil {
		return model.DateRange{}, err
	}
	return model.DateRange{Start: r.Start.String(), End: r.End.String()}, nil
}

func (e *Engine) businessArgs(req BusinessDaysRequest) (DateRange, HolidaySet, WeekendPattern, error) {
	if strings.TrimSpace(req.StartDate) == "" {
		return DateRange{}, nil, 0, Missing("start_date")
	}
	if strings.TrimSpace(req.EndDate) == "" {
		return DateRange{}, nil, 0, Missing("end_date")
	}
	start, err := ParseDay("start_date", req.StartDate)
	if err != nil {
		return DateRange{}, nil, 0, err
	}
	end, err := ParseDay("end_date", req.EndDate)
	if err != nil {
		return DateRange{}, nil, 0, err
	}
	holidays, err := ParseHolidays(req.Holidays)
	if err != nil {
		return DateRange{}, nil, 0, err
	}
	weekend, err := ParseWeekendPattern(req.WeekendPattern)
	if err != nil {
		return DateRange{}, nil, 0, err
	}
	r, err := NewDateRange(start, end)
	if err != nil {
		return DateRange{}, nil, 0, err
	}
	return r, holidays, weekend, nil
}

func businessKey(op string, r DateRange, h HolidaySet, w WeekendPattern) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%s|", op, r.Start, r.End, w)
	for i, d := range h.Sorted() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d.String())
	}
	return b.String()
}

// CountBusinessDays counts business days between start_date and end_date,
// both included.
func (e *Engine) CountBusinessDays(req BusinessDaysRequest) (model.BusinessDays, error) {
	r, holidays, weekend, err := e.businessArgs(req)
	if err != nil {
		return model.BusinessDays{}, err
	}
	return memo(e, businessKey("count", r, holidays, weekend), func() (model.BusinessDays, error) {
		return model.BusinessDays{BusinessDays: CountBusinessDays(r, holidays, weekend)}, nil
	})
}

// ListBusinessDays is CountBusinessDays plus the dates themselves.
func (e *Engine) ListBusinessDays(req BusinessDaysRequest) (model.BusinessDays, error) {
	r, holidays, weekend, err := e.businessArgs(req)
	if err != nil {
		return model.BusinessDays{}, err
	}
	return memo(e, businessKey("list", r, holidays, weekend), func() (model.BusinessDays, error) {
		days, err := ListBusinessDays(r, holidays, weekend)
		if err != nil {
			return model.BusinessDays{}, err
		}
		out := model.BusinessDays{BusinessDays: len(days), Dates: make([]string, len(days))}
		for i, d := range days {
			out.Dates[i] = d.String()
		}
		return out, nil
	})
}

// Now samples the clock once in the named zone ("" means UTC).
func (e *Engine) Now(zone string) (ZonedInstant, error) {
	if strings.TrimSpace(zone) == "" {
		zone = DefaultZone
	}
	loc, err := e.zones.Lookup(zone)
	if err != nil {
		return ZonedInstant{}, err
	}
	return CurrentInstant(e.clock, zone, loc), nil
}

// Snapshot renders every structured field from one sample.
func Snapshot(z ZonedInstant) model.CurrentDateTime {
	return model.CurrentDateTime{
		ISO:       RenderInstant(z, FormatISO),
		Readable:  RenderInstant(z, FormatReadable),
		Unix:      z.Unix(),
		RFC3339:   RenderInstant(z, FormatRFC3339),
		Timezone:  z.Zone(),
		UTCOffset: z.Offset(),
		IsDST:     z.IsDST(),
	}
}

// CurrentDateTime renders the current instant. Arguments are validated
// before the clock is read.
func (e *Engine) CurrentDateTime(req CurrentRequest) (string, error) {
	format, err := ParseOutputFormat(req.Format)
	if err != nil {
		return "", err
	}
	if format == FormatCustom {
		if err := ValidatePattern("custom_format", req.CustomFormat); err != nil {
			return "", err
		}
	}
	z, err := e.Now(req.Timezone)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(Snapshot(z), "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatCustom:
		return FormatPattern(z.Local(), req.CustomFormat), nil
	}
	return RenderInstant(z, format), nil
}

// CurrentTime is the older single-format variant: iso, readable, unix or
// rfc3339 only.
func (e *Engine) CurrentTime(format, timezone string) (string, error) {
	f, err := ParseOutputFormat(format)
	if err != nil {
		return "", err
	}
	switch f {
	case FormatISO, FormatReadable, FormatUnix, FormatRFC3339:
	default:
		return "", Invalid("format", "%q is not one of iso, readable, unix, rfc3339", format)
	}
	return e.CurrentDateTime(CurrentRequest{Timezone: timezone, Format: f.String()})
}

// FormatDate re-renders a strict ISO date or datetime.
func (e *Engine) FormatDate(req FormatRequest) (string, error) {
	a, err := ParseAnchor("date", req.Date, nil)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("format-date|%s|%s", a, req.Format)
	return memo(e, key, func() (string, error) {
		return FormatAnchor(a, req.Format)
	})
}

// TimezoneInfo describes the zone at the current instant.
func (e *Engine) TimezoneInfo(zone string) (model.TimezoneInfo, error) {
	z, err := e.Now(zone)
	if err != nil {
		return model.TimezoneInfo{}, err
	}
	return model.TimezoneInfo{
		TimezoneName:     z.Zone(),
		UTCOffset:        z.Offset(),
		IsDST:            z.IsDST(),
		CurrentTime:      RenderInstant(z, FormatISO),
		UTCTime:          z.UTC().Format(time.RFC3339),
		DSTOffsetSeconds: z.DSTOffsetSeconds(),
	}, nil
}

// SupportedTimezones groups every zone by its first path segment with the
// offset in effect right now. Zones without a region go under "Other".
func (e *Engine) SupportedTimezones() model.SupportedTimezones {
	now := e.clock.Now()
	names := e.zones.Names()
	regions := make(map[string][]model.ZoneEntry)
	for _, name := range names {
		loc, err := e.zones.Lookup(name)
		if err != nil {
			continue
		}
		region, display := "Other", name
		if i := strings.IndexByte(name, '/'); i > 0 {
			region, display = name[:i], name[i+1:]
		}
		regions[region] = append(regions[region], model.ZoneEntry{
			Name:          name,
			DisplayName:   strings.ReplaceAll(display, "_", " "),
			CurrentOffset: NewZonedInstant(now, name, loc).Offset(),
		})
	}
	for _, zs := range regions {
		sort.Slice(zs, func(i, j int) bool { return zs[i].Name < zs[j].Name })
	}
	return model.SupportedTimezones{
		TotalTimezones: len(names),
		Regions:        regions,
		GeneratedAt:    now.UTC().Format(time.RFC3339),
	}
}
