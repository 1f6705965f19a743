// Package clock converts between "HH:MM" wall-clock strings and minutes since midnight.
// All values are local wall-clock time with minute granularity.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MinutesPerDay = 24 * 60
	DateLayout    = "2006-01-02"
)

// Parse converts "HH:MM" into minutes since midnight (0–1439).
func Parse(hhmm string) (int, error) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	if len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return hour*60 + minute, nil
}

// ToMinutes is Parse for values that were already validated. Malformed input panics.
func ToMinutes(hhmm string) int {
	m, err := Parse(hhmm)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMinutes formats minutes since midnight as "HH:MM", wrapping at 24h.
func FromMinutes(minutes int) string {
	m := minutes % MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Duration returns end - start in minutes. The result is not checked: it is zero or
// negative for an empty or inverted interval.
func Duration(start, end string) int {
	return ToMinutes(end) - ToMinutes(start)
}

// Normalize validates hhmm and returns its zero-padded form ("9:05" -> "09:05").
func Normalize(hhmm string) (string, error) {
	m, err := Parse(hhmm)
	if err != nil {
		return "", err
	}
	return FromMinutes(m), nil
}

// DateKey formats the calendar date of t, dropping the time component.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a "YYYY-MM-DD" calendar date in the local zone.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return d, nil
}

// Of returns the minutes since midnight of t's wall clock.
func Of(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
