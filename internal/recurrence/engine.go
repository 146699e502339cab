// Package recurrence resets recurring tasks when a document is opened on a
// new day: completed cycles are reopened, missed cycles get an overdue
// marker and counters start again from zero.
package recurrence

import (
	"time"

	"notecraft/internal/actions"
	"notecraft/internal/dateexpr"
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
)

// Engine computes reset batches.
type Engine struct {
	due dateexpr.Options
}

// NewEngine returns an Engine classifying due values with opts.
func NewEngine(opts dateexpr.Options) *Engine {
	return &Engine{due: opts}
}

// Reset returns one batch with the edits for every recurring task of doc.
// The batch is only valid for the exact text doc was parsed from.
func (e *Engine) Reset(doc *markdown.Document, lastVisit, now time.Time) *edit.Batch {
	b := edit.NewBatch()
	sameDay := dateexpr.SameDay(now, lastVisit)
	days := dateexpr.DayDiff(now, lastVisit)

	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		if !t.IsRecurring() {
			continue
		}

		rm := actions.NewRemoval(t)
		switch {
		case t.Done:
			actions.ClearCompletion(rm, t)
		case t.OverdueRange == nil && !sameDay:
			if missed, ok := e.oldestMissed(t.Due.Raw, now, days); ok {
				actions.AppendToLine(b, t, actions.SpecialTag(markdown.TagOverdue, dateexpr.FormatDate(missed, false)))
			}
		}
		rm.Flush(b)

		if t.Count != nil && t.Count.Current != 0 {
			actions.SetCountCurrent(b, t.Count, 0)
		}
	}
	return b
}

// oldestMissed scans from days ago towards yesterday and returns the first
// day the due value was due on.
func (e *Engine) oldestMissed(raw string, now time.Time, days int) (time.Time, bool) {
	for i := days; i >= 1; i-- {
		day := dateexpr.AddDays(now, -i)
		if dateexpr.Classify(raw, day, e.due).IsDue() {
			return day, true
		}
	}
	return time.Time{}, false
}

// NeedsReset decides whether a reset is due given the stored last visit.
// Without a record the reset runs with now as the last visit. A visit on
// the same calendar day needs nothing.
func NeedsReset(lastVisit *time.Time, now time.Time) (time.Time, bool) {
	if lastVisit == nil {
		return now, true
	}
	if dateexpr.SameDay(*lastVisit, now) {
		return time.Time{}, false
	}
	return *lastVisit, true
}
