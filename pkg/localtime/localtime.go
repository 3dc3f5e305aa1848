// Package localtime implements the fixed-zone, fixed-locale timestamp
// formatting used by the time_now tool and the REST time endpoint.
//
// The zone and locale are deliberately constants, not configuration: the
// tool's contract is a single documented rendering, and every consumer of
// this package shares it.
package localtime

import (
	"fmt"
	"time"
)

const (
	// ZoneName is the fixed IANA timezone for all formatted output.
	// Europe/Moscow is UTC+3 year-round (no daylight saving since 2014).
	ZoneName = "Europe/Moscow"

	// Layout renders day.month.year hour:minute:second per the Russian
	// (ru-RU) date convention, e.g. "15.01.2024 13:30:00".
	Layout = "02.01.2006 15:04:05"

	// Prefix is the fixed sentence prefix preceding the timestamp.
	Prefix = "Текущее время: "
)

// Clock formats times in the fixed zone. The zero value is not usable;
// construct one with New so a missing tzdata entry surfaces at startup.
type Clock struct {
	loc *time.Location
}

// New loads the fixed timezone and returns a ready Clock.
// Failure here means the timezone database is unavailable, which is an
// infrastructure fault the caller should treat as fatal.
func New() (*Clock, error) {
	loc, err := time.LoadLocation(ZoneName)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", ZoneName, err)
	}
	return &Clock{loc: loc}, nil
}

// Location returns the fixed timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the fixed zone.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Format renders t in the fixed zone using the fixed layout.
func (c *Clock) Format(t time.Time) string {
	return t.In(c.loc).Format(Layout)
}

// Sentence renders the full localized sentence for t, e.g.
// "Текущее время: 15.01.2024 13:30:00".
func (c *Clock) Sentence(t time.Time) string {
	return Prefix + c.Format(t)
}

// Parse converts a string produced by Format back into a time in the
// fixed zone. Used by tests to verify round-trip accuracy.
func (c *Clock) Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, c.loc)
}
