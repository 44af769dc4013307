package calc

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // embedded IANA database; lookups never depend on the host

	appLog "datecalc/internal/log"
)

// DefaultZone is used whenever a caller omits the timezone.
const DefaultZone = "UTC"

// zoneinfoDirs are probed, in order, to enumerate zone names for listing.
var zoneinfoDirs = []string{
	"/usr/share/zoneinfo",
	"/usr/lib/zoneinfo",
	"/usr/share/lib/zoneinfo",
	"/etc/zoneinfo",
}

// fallbackZones is listed when no zoneinfo directory can be scanned.
var fallbackZones = []string{
	"UTC",
	"Africa/Cairo", "Africa/Johannesburg", "Africa/Lagos",
	"America/Chicago", "America/Denver", "America/Los_Angeles", "America/New_York",
	"America/Sao_Paulo", "America/Toronto",
	"Asia/Dubai", "Asia/Jerusalem", "Asia/Kolkata", "Asia/Seoul", "Asia/Shanghai",
	"Asia/Singapore", "Asia/Tokyo",
	"Australia/Sydney",
	"Europe/Berlin", "Europe/London", "Europe/Madrid", "Europe/Moscow", "Europe/Paris",
	"Pacific/Auckland",
}

// ZoneDB is the read-only timezone rule database. It is built once at start
// and never mutated afterwards; the lookup memo only ever caches results of
// the embedded database, so it cannot diverge from it.
type ZoneDB struct {
	names []string
	locs  map[string]*time.Location
	memo  sync.Map // name -> *time.Location, for names missing from the scan
}

// NewZoneDB scans dir (or the usual system locations when dir is empty) for
// zone names. Every listed name must load with time.LoadLocation, which
// consults ZONEINFO and the host zoneinfo before the embedded copy.
func NewZoneDB(dir string) *ZoneDB {
	db := &ZoneDB{locs: make(map[string]*time.Location)}

	dirs := zoneinfoDirs
	if dir != "" {
		dirs = []string{dir}
	} else if env := os.Getenv("ZONEINFO"); env != "" {
		dirs = append([]string{env}, dirs...)
	}

	var names []string
	for _, d := range dirs {
		names = scanZoneDir(d)
		if len(names) > 0 {
			appLog.Debug("zoneinfo scanned", "dir", d, "zones", len(names))
			break
		}
	}
	if len(names) == 0 {
		names = fallbackZones
	}

	for _, name := range names {
		loc, err := time.LoadLocation(name)
		if err != nil {
			continue
		}
		db.locs[name] = loc
		db.names = append(db.names, name)
	}
	if _, ok := db.locs["UTC"]; !ok {
		db.locs["UTC"] = time.UTC
		db.names = append(db.names, "UTC")
	}
	sort.Strings(db.names)
	return db
}

func scanZoneDir(root string) []string {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}
	var names []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			// posix/ and right/ duplicate the main tree.
			if rel == "posix" || rel == "right" {
				return filepath.SkipDir
			}
			return nil
		}
		name := filepath.ToSlash(rel)
		if !isZoneName(name) {
			return nil
		}
		names = append(names, name)
		return nil
	})
	return names
}

func isZoneName(name string) bool {
	if name == "" || strings.Contains(name, ".") {
		return false
	}
	c := name[0]
	if c < 'A' || c > 'Z' {
		return false
	}
	switch name {
	case "Factory", "SECURITY":
		return false
	}
	return true
}

// Lookup resolves an IANA identifier. The empty string means DefaultZone.
// "Local" is rejected: results must not depend on the host configuration.
func (db *ZoneDB) Lookup(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultZone
	}
	if loc, ok := db.locs[name]; ok {
		return loc, nil
	}
	if v, ok := db.memo.Load(name); ok {
		return v.(*time.Location), nil
	}
	if name == "Local" {
		return nil, newError(KindUnknownTimezone, "timezone", "unknown timezone %q", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, newError(KindUnknownTimezone, "timezone", "unknown timezone %q", name)
	}
	db.memo.Store(name, loc)
	return loc, nil
}

// Names returns the sorted zone identifiers known to the database.
func (db *ZoneDB) Names() []string {
	out := make([]string, len(db.names))
	copy(out, db.names)
	return out
}

// ZonedInstant is a UTC instant paired with a zone. Wall-clock fields are
// always derived from the pair, never stored.
type ZonedInstant struct {
	utc  time.Time
	zone string
	loc  *time.Location
}

// NewZonedInstant truncates t to whole seconds.
func NewZonedInstant(t time.Time, zone string, loc *time.Location) ZonedInstant {
	return ZonedInstant{utc: t.UTC().Truncate(time.Second), zone: zone, loc: loc}
}

func (z ZonedInstant) UTC() time.Time   { return z.utc }
func (z ZonedInstant) Zone() string     { return z.zone }
func (z ZonedInstant) Local() time.Time { return z.utc.In(z.loc) }
func (z ZonedInstant) Unix() int64      { return z.utc.Unix() }
func (z ZonedInstant) IsDST() bool      { return z.Local().IsDST() }

// OffsetSeconds is the UTC offset in effect at the instant.
func (z ZonedInstant) OffsetSeconds() int {
	_, off := z.Local().Zone()
	return off
}

// Offset renders the UTC offset as ±HH:MM.
func (z ZonedInstant) Offset() string {
	return formatOffset(z.OffsetSeconds())
}

// DSTOffsetSeconds is how far the offset at the instant exceeds the zone's
// standard offset for that year (0 outside DST).
func (z ZonedInstant) DSTOffsetSeconds() int {
	if !z.IsDST() {
		return 0
	}
	return z.OffsetSeconds() - standardOffset(z.Local().Year(), z.loc)
}

// standardOffset picks the non-DST offset among the solstice samples.
func standardOffset(year int, loc *time.Location) int {
	best := 0
	found := false
	for _, m := range []time.Month{time.January, time.July} {
		t := time.Date(year, m, 1, 12, 0, 0, 0, loc)
		if t.IsDST() {
			continue
		}
		_, off := t.Zone()
		if !found || off < best {
			best, found = off, true
		}
	}
	if !found {
		_, best = time.Date(year, time.January, 1, 12, 0, 0, 0, loc).Zone()
	}
	return best
}

func formatOffset(sec int) string {
	sign := '+'
	if sec < 0 {
		sign = '-'
		sec = -sec
	}
	return fmt.Sprintf("%c%02d:%02d", sign, sec/3600, (sec%3600)/60)
}
