package actions

import (
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
)

// ToggleDone completes or reopens the task at line. Completing writes
// {cm:...} (and {duration:...} for started tasks); reopening removes the
// completion date, start, duration and a leading done symbol. The overdue
// marker is dropped either way.
func (a *Actions) ToggleDone(doc *markdown.Document, line int) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	b := edit.NewBatch()
	rm := NewRemoval(t)
	rm.Tag(t.OverdueRange)
	if t.Done {
		ClearCompletion(rm, t)
		rm.Exact(t.DoneRange)
	} else {
		a.insertCompletion(b, t)
	}
	rm.Flush(b)
	return b, nil
}

// ToggleDoneOrIncrementCount increments the counter of counted tasks and
// toggles completion of all others.
func (a *Actions) ToggleDoneOrIncrementCount(doc *markdown.Document, line int) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	if t.Count != nil {
		return a.IncrementCount(doc, line)
	}
	return a.ToggleDone(doc, line)
}

// IncrementCount advances {count:current/needed}. Reaching needed completes
// the task; incrementing a full counter wraps it to 0 and reopens it.
func (a *Actions) IncrementCount(doc *markdown.Document, line int) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	if t.Count == nil {
		return nil, ErrNoCount
	}
	b := edit.NewBatch()
	rm := NewRemoval(t)
	c := t.Count
	if c.Current != c.Needed {
		next := c.Current + 1
		if next == c.Needed {
			a.insertCompletion(b, t)
			rm.Tag(t.OverdueRange)
		}
		SetCountCurrent(b, c, next)
	} else {
		SetCountCurrent(b, c, 0)
		rm.Tag(t.CompletionDateRange)
	}
	rm.Flush(b)
	return b, nil
}

// DecrementCount steps the counter back. A counter at 0 is left alone;
// leaving the full state removes the completion date.
func (a *Actions) DecrementCount(doc *markdown.Document, line int) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	if t.Count == nil {
		return nil, ErrNoCount
	}
	b := edit.NewBatch()
	c := t.Count
	if c.Current == 0 {
		return b, nil
	}
	if c.Current == c.Needed {
		rm := NewRemoval(t)
		rm.Tag(t.CompletionDateRange)
		rm.Flush(b)
	}
	SetCountCurrent(b, c, c.Current-1)
	return b, nil
}
