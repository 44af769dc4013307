package calc

import "time"

// Clock is the engine's only source of the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// CurrentInstant samples clock once and pins the result to zone.
func CurrentInstant(clock Clock, zone string, loc *time.Location) ZonedInstant {
	return NewZonedInstant(clock.Now(), zone, loc)
}
