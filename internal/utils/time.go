package utils

import (
	"fmt"
	"time"

	"github.com/stepworks/streakd/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// An empty name means UTC; "Local" means the system timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	switch timezone {
	case "", "UTC":
		return time.UTC, nil
	case "Local":
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// DayOf truncates t to its calendar day as observed in loc. The result is that
// civil date at midnight UTC, so day arithmetic never crosses a DST transition.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Both values are expected to come from DayOf or ParseDay.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// ParseDay parses a date string (YYYY-MM-DD) into a civil date at midnight UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// FormatDay formats a civil date as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseTimeToMinutes parses a time string (HH:MM) and returns the number of minutes from midnight.
func ParseTimeToMinutes(timeStr string) (int, error) {
	t, err := time.Parse(constants.TimeFormat, timeStr)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// InWindow reports whether the wall-clock time of now falls inside [start, end).
// Windows that wrap midnight (e.g. 21:00-08:00) are supported.
func InWindow(now time.Time, start, end string) (bool, error) {
	startMin, err := ParseTimeToMinutes(start)
	if err != nil {
		return false, fmt.Errorf("invalid window start %q: %w", start, err)
	}
	endMin, err := ParseTimeToMinutes(end)
	if err != nil {
		return false, fmt.Errorf("invalid window end %q: %w", end, err)
	}
	cur := now.Hour()*60 + now.Minute()
	if startMin == endMin {
		return false, nil
	}
	if startMin < endMin {
		return cur >= startMin && cur < endMin, nil
	}
	return cur >= startMin || cur < endMin, nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
