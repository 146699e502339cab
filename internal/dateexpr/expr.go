package dateexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DueState is the classification of a due value relative to a reference day.
type DueState int

const (
	NotDue DueState = iota
	Due
	Overdue
	Invalid
)

// String returns the lowercase name of the state.
func (s DueState) String() string {
	switch s {
	case Due:
		return "due"
	case Overdue:
		return "overdue"
	case Invalid:
		return "invalid"
	default:
		return "not-due"
	}
}

// MarshalText renders the state by name in JSON output.
func (s DueState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Unit is the interval unit of a recurrence.
type Unit string

const (
	Days   Unit = "d"
	Months Unit = "m"
	Years  Unit = "y"
)

// Recurrence describes "every N units starting at Anchor".
type Recurrence struct {
	Every    int       `json:"every"`
	Unit     Unit      `json:"unit"`
	Anchor   time.Time `json:"anchor"`
	Anchored bool      `json:"anchored"`
}

// String renders the interval part, e.g. "e7d".
func (r Recurrence) String() string {
	return fmt.Sprintf("e%d%s", r.Every, r.Unit)
}

// Next returns the first occurrence on or after the calendar day of ref.
func (r Recurrence) Next(ref time.Time) time.Time {
	day := DateOnly(ref)
	anchor := DateOnly(r.Anchor.In(ref.Location()))
	if !r.Anchored {
		anchor = day
	}
	if DayDiff(anchor, day) >= 0 {
		return anchor
	}
	switch r.Unit {
	case Months, Years:
		step := r.Every
		if r.Unit == Years {
			step *= 12
		}
		months := (day.Year()-anchor.Year())*12 + int(day.Month()-anchor.Month())
		k := months / step
		occ := AddMonths(anchor, k*step)
		for DayDiff(occ, day) < 0 {
			k++
			occ = AddMonths(anchor, k*step)
		}
		return occ
	default:
		n := DayDiff(day, anchor)
		k := (n + r.Every - 1) / r.Every
		return AddDays(anchor, k*r.Every)
	}
}

// DueInfo is the interpretation of one raw due expression.
type DueInfo struct {
	Raw        string      `json:"raw"`
	State      DueState    `json:"state"`
	Recurring  bool        `json:"recurring"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	// Date is the concrete due date, or the next occurrence for recurring values.
	// Zero when State is Invalid.
	Date time.Time `json:"date,omitzero"`
}

// IsDue reports whether the value is due or overdue.
func (d DueInfo) IsDue() bool {
	return d.State == Due || d.State == Overdue
}

// Options carries the configured target weekdays for "this week" and "next week".
type Options struct {
	ThisWeekDay time.Weekday
	NextWeekDay time.Weekday
}

// DefaultOptions returns Friday for "this week" and Monday for "next week".
func DefaultOptions() Options {
	return Options{ThisWeekDay: time.Friday, NextWeekDay: time.Monday}
}

var (
	shiftRe      = regexp.MustCompile(`^([+-])(\d+)([dwm])?$`)
	dayOfMonthRe = regexp.MustCompile(`^(\d+)$`)
	recurrenceRe = regexp.MustCompile(`^e(\d+)([dmy])$`)
)

// Classify interprets a stored due expression against the calendar day of ref.
// Recurring values are classified by their next occurrence and are never
// overdue; missed cycles are tracked by the {overdue:...} tag instead.
func Classify(raw string, ref time.Time, opts Options) DueInfo {
	info := DueInfo{Raw: raw, State: Invalid}
	expr := strings.TrimSpace(raw)
	if expr == "" {
		return info
	}

	if rec, ok := parseRecurrence(expr, ref.Location()); ok {
		info.Recurring = true
		info.Recurrence = &rec
		info.Date = rec.Next(ref)
		info.State = stateOf(info.Date, ref)
		return info
	}

	date, ok := concreteDate(expr, ref, opts)
	if !ok {
		return info
	}
	info.Date = date
	info.State = stateOf(date, ref)
	return info
}

// Resolve turns interactive input ("+3", "fri", "jan 5", "e2d", ...) into the
// text stored inside {due:...}. Returns "" for input that does not parse.
func Resolve(input string, ref time.Time, opts Options) string {
	expr := strings.TrimSpace(input)
	switch expr {
	case "+":
		expr = "+1"
	case "-":
		expr = "-1"
	}
	if m := recurrenceRe.FindStringSubmatch(expr); m != nil {
		if n, _ := strconv.Atoi(m[1]); n > 0 {
			return FormatDate(ref, false) + "|" + expr
		}
		return ""
	}
	date, ok := concreteDate(expr, ref, opts)
	if !ok {
		return ""
	}
	return FormatDate(date, false)
}

func stateOf(date, ref time.Time) DueState {
	switch diff := DayDiff(date, ref); {
	case diff < 0:
		return Overdue
	case diff == 0:
		return Due
	default:
		return NotDue
	}
}

// parseRecurrence accepts "eNu", "YYYY-MM-DD|eNu" and "eNu|YYYY-MM-DD".
func parseRecurrence(expr string, loc *time.Location) (Recurrence, bool) {
	parts := strings.Split(expr, "|")
	if len(parts) > 2 {
		return Recurrence{}, false
	}
	var rec Recurrence
	var interval, anchor string
	for _, p := range parts {
		if recurrenceRe.MatchString(p) && interval == "" {
			interval = p
		} else if anchor == "" {
			anchor = p
		} else {
			return Recurrence{}, false
		}
	}
	if interval == "" {
		return Recurrence{}, false
	}
	m := recurrenceRe.FindStringSubmatch(interval)
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return Recurrence{}, false
	}
	rec.Every = n
	rec.Unit = Unit(m[2])
	if anchor != "" {
		t, err := ParseDate(anchor, loc)
		if err != nil {
			return Recurrence{}, false
		}
		rec.Anchor = DateOnly(t)
		rec.Anchored = true
	}
	return rec, true
}

// concreteDate resolves absolute and relative expressions to a calendar day.
// Alternatives are tried in order; the first match wins.
func concreteDate(expr string, ref time.Time, opts Options) (time.Time, bool) {
	now := DateOnly(ref)

	if t, err := ParseDate(expr, ref.Location()); err == nil {
		return DateOnly(t), true
	}

	if m := shiftRe.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, false
		}
		if m[1] == "-" {
			n = -n
		}
		switch m[3] {
		case "w":
			return AddDays(now, 7*n), true
		case "m":
			return AddMonths(now, n), true
		default:
			return AddDays(now, n), true
		}
	}

	if m := dayOfMonthRe.FindStringSubmatch(expr); m != nil {
		target, err := strconv.Atoi(m[1])
		if err != nil || target < 1 || target > 31 {
			return time.Time{}, false
		}
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		if target < now.Day() {
			month = AddMonths(month, 1)
		}
		return clampDay(month.Year(), month.Month(), target, now.Location()), true
	}

	if m := monthRe.FindStringSubmatch(expr); m != nil {
		month, ok := ParseMonth(m[1])
		day, err := strconv.Atoi(m[2])
		if !ok || err != nil || day < 1 || day > 31 {
			return time.Time{}, false
		}
		t := clampDay(now.Year(), month, day, now.Location())
		if DayDiff(t, now) < 0 {
			t = clampDay(now.Year()+1, month, day, now.Location())
		}
		return t, true
	}

	if wd, ok := ParseWeekday(expr); ok {
		diff := (int(wd) - int(now.Weekday()) + 7) % 7
		return AddDays(now, diff), true
	}

	switch strings.ToLower(expr) {
	case "this week":
		return weekdayOfWeek(now, opts.ThisWeekDay), true
	case "next week":
		return AddDays(weekdayOfWeek(now, opts.NextWeekDay), 7), true
	}

	return time.Time{}, false
}

func clampDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// weekdayOfWeek returns the given weekday in the Monday-based week containing day.
func weekdayOfWeek(day time.Time, wd time.Weekday) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	monday := AddDays(day, -offset)
	return AddDays(monday, (int(wd)+6)%7)
}
