package domain

import "time"

// DayFormat is the wire format for calendar dates.
const DayFormat = "2006-01-02"

// Day truncates an instant to its UTC calendar day. Historical series are
// keyed by the resulting value, so every date entering a series must pass
// through here first.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO calendar date into a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayFormat, s, time.UTC)
}
