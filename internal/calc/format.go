package calc

import (
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// patternTokens are the conversion characters accepted after '%'.
const patternTokens = "aAbBcCdDeFHIjklmMnprRStTuVwyYzZ%"

const (
	layoutISO      = "2006-01-02T15:04:05-07:00"
	layoutReadable = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// ValidatePattern checks every conversion in a strftime pattern before any
// rendering happens. A lone trailing '%' is rejected.
func ValidatePattern(param, pattern string) error {
	if pattern == "" {
		return Missing(param)
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			continue
		}
		if i+1 >= len(pattern) {
			return newError(KindInvalidFormatPattern, param, "pattern %q ends with a bare %%", pattern)
		}
		if !strings.ContainsRune(patternTokens, rune(pattern[i+1])) {
			return newError(KindInvalidFormatPattern, param, "unsupported token %%%c in %q", pattern[i+1], pattern)
		}
		i++
	}
	return nil
}

// FormatPattern renders t with a pattern that passed ValidatePattern.
func FormatPattern(t time.Time, pattern string) string {
	return strftime.Format(pattern, t)
}

// Named formats understood by FormatAnchor in place of a pattern.
const (
	NamedISO      = "iso"
	NamedDate     = "date"
	NamedRFC3339  = "rfc3339"
	NamedReadable = "readable"
	NamedUnix     = "unix"
)

// FormatAnchor renders a parsed date argument with a named format or a
// strftime pattern. Floating anchors render in UTC for instant-based formats.
func FormatAnchor(a Anchor, format string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(format))
	switch name {
	case "":
		return "", Missing("format")
	case NamedISO, "iso8601":
		return a.String(), nil
	case NamedDate:
		return a.Day().String(), nil
	case NamedRFC3339:
		return a.Instant().Format(time.RFC3339), nil
	case NamedReadable, "human-readable":
		return a.Instant().Format(layoutReadable), nil
	case NamedUnix, "unix-epoch-seconds":
		return strconv.FormatInt(a.Instant().Unix(), 10), nil
	}
	if err := ValidatePattern("format", format); err != nil {
		return "", err
	}
	return FormatPattern(a.Instant(), format), nil
}

// RenderInstant renders z in one of the fixed output formats. FormatJSON and
// FormatCustom are handled by the caller.
func RenderInstant(z ZonedInstant, f OutputFormat) string {
	local := z.Local()
	switch f {
	case FormatRFC3339:
		return local.Format(time.RFC3339)
	case FormatUnix:
		return strconv.FormatInt(z.Unix(), 10)
	case FormatReadable:
		return local.Format(layoutReadable)
	}
	return local.Format(layoutISO)
}
