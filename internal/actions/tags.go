package actions

import (
	"fmt"

	"notecraft/internal/dateexpr"
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
)

// SetDueDate writes {due:rawDue}, replacing an existing due tag, and drops
// the overdue marker.
func (a *Actions) SetDueDate(doc *markdown.Document, line int, rawDue string) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	if rawDue == "" {
		return nil, fmt.Errorf("due date: %w", ErrEmptyText)
	}
	b := edit.NewBatch()
	rm := NewRemoval(t)
	rm.Tag(t.OverdueRange)
	due := SpecialTag(markdown.TagDue, rawDue)
	if r := t.DueRange; r != nil {
		b.ReplaceRange(r.Line, r.Start, r.End, due)
	} else {
		AppendToLine(b, t, due)
	}
	rm.Flush(b)
	return b, nil
}

// RemoveOverdue drops the {overdue:...} marker from every given task line.
// Tasks without a marker are skipped.
func (a *Actions) RemoveOverdue(doc *markdown.Document, lines ...int) (*edit.Batch, error) {
	b := edit.NewBatch()
	for _, line := range lines {
		t, err := taskAt(doc, line)
		if err != nil {
			return nil, err
		}
		rm := NewRemoval(t)
		rm.Tag(t.OverdueRange)
		rm.Flush(b)
	}
	return b, nil
}

// StartTask writes {start:<now>} for time tracking, replacing an earlier start.
func (a *Actions) StartTask(doc *markdown.Document, line int) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	b := edit.NewBatch()
	start := SpecialTag(markdown.TagStart, dateexpr.FormatDate(a.now(), true))
	if r := t.StartRange; r != nil {
		b.ReplaceRange(r.Line, r.Start, r.End, start)
	} else {
		AppendToLine(b, t, start)
	}
	return b, nil
}

// HideTask appends {h}. Already hidden tasks are left alone.
func (a *Actions) HideTask(doc *markdown.Document, line int) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	b := edit.NewBatch()
	if !t.IsHidden {
		AppendToLine(b, t, SpecialTag(markdown.TagHidden, ""))
	}
	return b, nil
}

// ToggleCollapse adds or removes {c}.
func (a *Actions) ToggleCollapse(doc *markdown.Document, line int) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	b := edit.NewBatch()
	toggleCollapse(b, t)
	return b, nil
}

// ToggleCollapseRecursive toggles the task at line and brings every nested
// task that has subtasks into the same state.
func (a *Actions) ToggleCollapseRecursive(doc *markdown.Document, line int) (*edit.Batch, error) {
	parent, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	b := edit.NewBatch()
	expand := parent.IsCollapsed
	markdown.WalkTasks(parent.Subtasks, func(t *markdown.Task) {
		if t.HasSubtasks() && t.IsCollapsed == expand {
			toggleCollapse(b, t)
		}
	})
	toggleCollapse(b, parent)
	return b, nil
}

func toggleCollapse(b *edit.Batch, t *markdown.Task) {
	if t.CollapseRange != nil {
		rm := NewRemoval(t)
		rm.Tag(t.CollapseRange)
		rm.Flush(b)
		return
	}
	AppendToLine(b, t, SpecialTag(markdown.TagCollapsed, ""))
}

// IncrementPriority raises the priority one letter towards A.
func (a *Actions) IncrementPriority(doc *markdown.Document, line int) (*edit.Batch, error) {
	return a.shiftPriority(doc, line, -1)
}

// DecrementPriority lowers the priority one letter towards Z.
func (a *Actions) DecrementPriority(doc *markdown.Document, line int) (*edit.Batch, error) {
	return a.shiftPriority(doc, line, 1)
}

// shiftPriority moves the priority by delta letters. Tasks without a marker
// start from the default priority; the marker is inserted after the
// indentation and done symbol.
func (a *Actions) shiftPriority(doc *markdown.Document, line, delta int) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	b := edit.NewBatch()
	next := int(t.Priority) + delta
	if next < 'A' || next > 'Z' {
		return b, nil
	}
	marker := "(" + string(rune(next)) + ")"
	if r := t.PriorityRange; r != nil {
		b.ReplaceRange(r.Line, r.Start, r.End, marker)
		return b, nil
	}
	col := t.ContentStart()
	if t.DoneRange != nil {
		col = t.DoneRange.End
	}
	b.InsertAt(t.LineNumber, col, marker+" ")
	return b, nil
}
