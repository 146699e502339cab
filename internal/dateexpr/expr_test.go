package dateexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Wednesday
var ref = time.Date(2024, time.January, 10, 15, 30, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		state     DueState
		date      time.Time
		recurring bool
	}{
		{"today", "+0", Due, day(2024, 1, 10), false},
		{"yesterday", "-1", Overdue, day(2024, 1, 9), false},
		{"in five days", "+5", NotDue, day(2024, 1, 15), false},
		{"weeks", "+2w", NotDue, day(2024, 1, 24), false},
		{"months", "+1m", NotDue, day(2024, 2, 10), false},
		{"explicit days", "-3d", Overdue, day(2024, 1, 7), false},
		{"day of month later", "15", NotDue, day(2024, 1, 15), false},
		{"day of month rolls over", "5", NotDue, day(2024, 2, 5), false},
		{"day of month today", "10", Due, day(2024, 1, 10), false},
		{"month and day", "feb 3", NotDue, day(2024, 2, 3), false},
		{"month and day rolls to next year", "January 5", NotDue, day(2025, 1, 5), false},
		{"month day clamps", "feb 30", NotDue, day(2024, 2, 29), false},
		{"weekday later this week", "fri", NotDue, day(2024, 1, 12), false},
		{"weekday same day", "Wednesday", Due, day(2024, 1, 10), false},
		{"weekday next week", "mon", NotDue, day(2024, 1, 15), false},
		{"this week", "this week", NotDue, day(2024, 1, 12), false},
		{"next week", "next week", NotDue, day(2024, 1, 15), false},
		{"absolute past", "2024-01-01", Overdue, day(2024, 1, 1), false},
		{"absolute with time", "2024-01-10T08:00:00", Due, day(2024, 1, 10), false},
		{"recurring anchored before", "2024-01-01|e7d", NotDue, day(2024, 1, 15), true},
		{"recurring anchor after interval", "e7d|2024-01-01", NotDue, day(2024, 1, 15), true},
		{"recurring hits today", "2024-01-01|e3d", Due, day(2024, 1, 10), true},
		{"recurring without anchor", "e1d", Due, day(2024, 1, 10), true},
		{"recurring future anchor", "2024-03-01|e1y", NotDue, day(2024, 3, 1), true},
		{"recurring monthly", "2023-11-10|e1m", Due, day(2024, 1, 10), true},
		{"day zero", "0", Invalid, time.Time{}, false},
		{"day out of range", "32", Invalid, time.Time{}, false},
		{"zero interval", "e0d", Invalid, time.Time{}, false},
		{"bad anchor", "2024-13-01|e1d", Invalid, time.Time{}, false},
		{"unknown words", "tomorrow", Invalid, time.Time{}, false},
		{"empty", "", Invalid, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Classify(tt.raw, ref, DefaultOptions())
			assert.Equal(t, tt.raw, info.Raw)
			assert.Equal(t, tt.state, info.State, "state of %q", tt.raw)
			assert.Equal(t, tt.recurring, info.Recurring)
			if tt.state == Invalid {
				assert.True(t, info.Date.IsZero())
				return
			}
			assert.True(t, SameDay(tt.date, info.Date), "date = %s, want %s", info.Date, tt.date)
		})
	}
}

func TestClassifyRecurrenceIsNeverOverdue(t *testing.T) {
	for d := 0; d < 40; d++ {
		now := AddDays(day(2024, 1, 1), d)
		for _, raw := range []string{"2023-12-01|e5d", "2023-06-30|e1m", "e2d", "2020-02-29|e1y"} {
			info := Classify(raw, now, DefaultOptions())
			require.True(t, info.Recurring, raw)
			assert.NotEqual(t, Overdue, info.State, "%s at %s", raw, now)
			assert.GreaterOrEqual(t, DayDiff(info.Date, now), 0)
		}
	}
}

func TestClassifyRecurrenceDescriptor(t *testing.T) {
	info := Classify("2024-01-01|e2m", ref, DefaultOptions())
	require.NotNil(t, info.Recurrence)
	assert.Equal(t, 2, info.Recurrence.Every)
	assert.Equal(t, Months, info.Recurrence.Unit)
	assert.True(t, info.Recurrence.Anchored)
	assert.Equal(t, "e2m", info.Recurrence.String())
	assert.True(t, SameDay(day(2024, 3, 1), info.Date))
}

func TestClassifyConfiguredWeekdays(t *testing.T) {
	opts := Options{ThisWeekDay: time.Sunday, NextWeekDay: time.Wednesday}
	assert.True(t, SameDay(day(2024, 1, 14), Classify("this week", ref, opts).Date))
	assert.True(t, SameDay(day(2024, 1, 17), Classify("next week", ref, opts).Date))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+", "2024-01-11"},
		{"-", "2024-01-09"},
		{"+3", "2024-01-13"},
		{"-1w", "2024-01-03"},
		{"20", "2024-01-20"},
		{"sat", "2024-01-13"},
		{"dec 25", "2024-12-25"},
		{"next week", "2024-01-15"},
		{"e2d", "2024-01-10|e2d"},
		{"e3y", "2024-01-10|e3y"},
		{"2024-05-05", "2024-05-05"},
		{"e0m", ""},
		{"someday", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.input, ref, DefaultOptions()))
		})
	}
}

func TestResolvedValueClassifies(t *testing.T) {
	for _, input := range []string{"+3", "fri", "e1d", "jan 1"} {
		resolved := Resolve(input, ref, DefaultOptions())
		require.NotEmpty(t, resolved, input)
		assert.NotEqual(t, Invalid, Classify(resolved, ref, DefaultOptions()).State, input)
	}
}

func TestDueStateString(t *testing.T) {
	assert.Equal(t, "not-due", NotDue.String())
	assert.Equal(t, "due", Due.String())
	assert.Equal(t, "overdue", Overdue.String())
	assert.Equal(t, "invalid", Invalid.String())
}
