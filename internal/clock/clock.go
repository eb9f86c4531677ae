// Package clock supplies the system's notion of "today" so departure and
// cancellation checks can be pinned in tests.
package clock

import "time"

type Clock interface {
	// Today returns the current calendar day, normalized to midnight UTC.
	Today() time.Time
}

type offsetClock struct {
	loc *time.Location
}

// NewOffset builds a clock whose day boundary follows a fixed UTC offset in
// minutes, e.g. 345 for UTC+5:45.
func NewOffset(offsetMinutes int) Clock {
	return offsetClock{loc: time.FixedZone("booking", offsetMinutes*60)}
}

func (c offsetClock) Today() time.Time {
	now := time.Now().In(c.loc)
	return Day(now.Year(), now.Month(), now.Day())
}

// Day builds a normalized calendar day.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Static is a fixed-day clock for tests.
type Static time.Time

func (s Static) Today() time.Time { return time.Time(s) }
