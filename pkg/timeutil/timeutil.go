// Package timeutil provides UTC calendar utilities for leaderboard periods.
// All leaderboard windows in Lorebound are anchored to UTC so that every
// client, regardless of device timezone, competes on the same board.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04:05"
)

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// StartOfISOWeek returns the Monday 00:00:00 UTC of the ISO week containing t.
func StartOfISOWeek(t time.Time) time.Time {
	u := StartOfDay(t)
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return u.AddDate(0, 0, -(weekday - 1))
}

// DayKey formats a time as its UTC calendar-day key, e.g. "2025-10-26".
func DayKey(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// ISOWeekKey formats a time as its ISO-week key, e.g. "2025-W43".
// The ISO year can differ from the calendar year around January 1st.
func ISOWeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// ParseDayKey parses a "YYYY-MM-DD" key into the UTC midnight it names.
func ParseDayKey(key string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, key, time.UTC)
}

// ParseISOWeekKey parses a "YYYY-Www" key into the Monday 00:00:00 UTC
// that starts that ISO week.
func ParseISOWeekKey(key string) (time.Time, error) {
	parts := strings.SplitN(key, "-W", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("timeutil: malformed week key %q", key)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: malformed week key %q: %w", key, err)
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: malformed week key %q: %w", key, err)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("timeutil: week out of range in %q", key)
	}

	// ISO week 1 is the week containing January 4th.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	week1Monday := StartOfISOWeek(jan4)
	return week1Monday.AddDate(0, 0, (week-1)*7), nil
}

// IsSameDay checks if two times fall on the same UTC calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := t1.UTC(), t2.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DaysBetween returns the absolute number of whole days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a := StartOfDay(t1)
	b := StartOfDay(t2)
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
