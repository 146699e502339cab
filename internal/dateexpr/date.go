// Package dateexpr interprets the due-date mini-language used inside {due:...}
// tags and the interactive "create due date" input, and classifies due values
// against a reference day.
package dateexpr

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date and datetime layouts used in special tags.
const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02T15:04:05"
)

var (
	weekdayRe = regexp.MustCompile(`(?i)^(sun|sunday|mon|monday|tue|tuesday|wed|wednesday|thu|thursday|fri|friday|sat|saturday)$`)
	monthRe   = regexp.MustCompile(`(?i)^(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|september|oct|october|nov|november|dec|december)\s?(\d\d?)$`)
)

// DateOnly truncates t to midnight of its calendar day in t's location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
// b is compared in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayDiff returns the number of calendar days from b to a (a - b).
// Daylight saving transitions do not affect the result.
func DayDiff(a, b time.Time) int {
	b = b.In(a.Location())
	return civilDays(a) - civilDays(b)
}

// civilDays counts days since 1970-01-01 for t's calendar date.
func civilDays(t time.Time) int {
	y, m, d := t.Date()
	u := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(u.Unix() / 86400)
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// AddMonths shifts a calendar date by n months, clamping the day to the last
// valid day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// AddYears shifts a calendar date by n years with the same clamping as AddMonths.
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, 12*n)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatDate renders t as YYYY-MM-DD, or YYYY-MM-DDTHH:MM:SS when includeTime is set.
func FormatDate(t time.Time, includeTime bool) string {
	if includeTime {
		return t.Format(DateTimeFormat)
	}
	return t.Format(DateFormat)
}

// ParseDate parses a date or datetime string in local time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(DateTimeFormat, s, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(DateFormat, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// ParseWeekday maps a full or 3-letter weekday name (any case) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	if !weekdayRe.MatchString(name) {
		return 0, false
	}
	switch strings.ToLower(name)[:3] {
	case "sun":
		return time.Sunday, true
	case "mon":
		return time.Monday, true
	case "tue":
		return time.Tuesday, true
	case "wed":
		return time.Wednesday, true
	case "thu":
		return time.Thursday, true
	case "fri":
		return time.Friday, true
	default:
		return time.Saturday, true
	}
}

// ParseMonth maps a full or 3-letter month name (any case) to time.Month.
func ParseMonth(name string) (time.Month, bool) {
	if len(name) < 3 {
		return 0, false
	}
	prefix := strings.ToLower(name[:3])
	for m := time.January; m <= time.December; m++ {
		long := strings.ToLower(m.String())
		if long[:3] == prefix && (len(name) == 3 || strings.EqualFold(name, long)) {
			return m, true
		}
	}
	return 0, false
}
