package actions

import (
	"fmt"
	"slices"
	"strings"

	"notecraft/internal/dateexpr"
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
	"notecraft/internal/views"
)

// DeleteTask removes the task at line and all its nested tasks.
func (a *Actions) DeleteTask(doc *markdown.Document, line int) (*edit.Batch, error) {
	t, err := taskAt(doc, line)
	if err != nil {
		return nil, err
	}
	b := edit.NewBatch()
	b.DeleteLine(t.LineNumber)
	for _, ln := range markdown.NestedLineNumbers(t) {
		b.DeleteLine(ln)
	}
	return b, nil
}

// ArchiveResult is the outcome of an archive operation: deletions for the
// source document and the lines to append to the archive document.
type ArchiveResult struct {
	Source *edit.Batch
	Lines  []string
}

// Archive moves root, non-recurring tasks and their nested tasks out of the
// document. Other tasks are ignored.
func (a *Actions) Archive(doc *markdown.Document, tasks []*markdown.Task) (*ArchiveResult, error) {
	if a.settings.ArchiveFile == "" {
		return nil, ErrNoArchiveFile
	}
	seen := make(map[int]bool)
	var lines []int
	for _, t := range tasks {
		if !t.IsRoot() || t.IsRecurring() {
			continue
		}
		node := doc.TaskAt(t.LineNumber)
		if node == nil {
			continue
		}
		for _, ln := range append([]int{node.LineNumber}, markdown.NestedLineNumbers(node)...) {
			if !seen[ln] {
				seen[ln] = true
				lines = append(lines, ln)
			}
		}
	}
	slices.Sort(lines)

	res := &ArchiveResult{Source: edit.NewBatch()}
	for _, ln := range lines {
		res.Source.DeleteLine(ln)
		res.Lines = append(res.Lines, doc.Line(ln))
	}
	return res, nil
}

// ArchiveCompleted archives every completed root task.
func (a *Actions) ArchiveCompleted(doc *markdown.Document) (*ArchiveResult, error) {
	var done []*markdown.Task
	doc.Walk(func(t *markdown.Task) {
		if t.Done {
			done = append(done, t)
		}
	})
	return a.Archive(doc, done)
}

// Fragment kinds for Rename.
const (
	KindTag     = "tag"
	KindProject = "project"
	KindContext = "context"
)

// Rename replaces every occurrence of the tag, project or context oldName
// with newName.
func (a *Actions) Rename(doc *markdown.Document, kind, oldName, newName string) (*edit.Batch, error) {
	if newName == "" || strings.ContainsAny(newName, " \t") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, newName)
	}
	switch kind {
	case KindTag, KindProject, KindContext:
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	b := edit.NewBatch()
	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		var fragments []markdown.Fragment
		switch kind {
		case KindTag:
			fragments = t.TagRanges
		case KindProject:
			fragments = t.ProjectRanges
		case KindContext:
			fragments = t.ContextRanges
		}
		for _, f := range fragments {
			if f.Name == oldName {
				b.ReplaceRange(f.NameRange.Line, f.NameRange.Start, f.NameRange.End, newName)
			}
		}
	}
	return b, nil
}

// RenameTag renames a tag across the document.
func (a *Actions) RenameTag(doc *markdown.Document, oldName, newName string) (*edit.Batch, error) {
	return a.Rename(doc, KindTag, oldName, newName)
}

// RenameProject renames a project across the document.
func (a *Actions) RenameProject(doc *markdown.Document, oldName, newName string) (*edit.Batch, error) {
	return a.Rename(doc, KindProject, oldName, newName)
}

// RenameContext renames a context across the document.
func (a *Actions) RenameContext(doc *markdown.Document, oldName, newName string) (*edit.Batch, error) {
	return a.Rename(doc, KindContext, oldName, newName)
}

// ToggleComment turns a line into a comment by inserting "# " after its
// indentation, or removes that prefix from a comment line. Blank lines are
// left alone.
func (a *Actions) ToggleComment(doc *markdown.Document, line int) (*edit.Batch, error) {
	if line < 0 || line >= doc.LineCount {
		return nil, fmt.Errorf("%w %d", ErrNoTask, line)
	}
	b := edit.NewBatch()
	text := doc.Line(line)
	content := strings.TrimLeft(text, " \t")
	if content == "" {
		return b, nil
	}
	col := len(text) - len(content)
	if strings.HasPrefix(content, markdown.CommentPrefix) {
		b.DeleteRange(line, col, col+len(markdown.CommentPrefix))
	} else {
		b.InsertAt(line, col, markdown.CommentPrefix)
	}
	return b, nil
}

// AddTask appends text as a new last line, with {cr:<now>} when creation
// dates are enabled. A trailing newline of the document is preserved.
func (a *Actions) AddTask(doc *markdown.Document, text string) (*edit.Batch, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("task: %w", ErrEmptyText)
	}
	if a.settings.AddCreationDate {
		text += " " + SpecialTag(markdown.TagCreationDate, dateexpr.FormatDate(a.now(), a.settings.CreationDateIncludeTime))
	}
	b := edit.NewBatch()
	last := doc.LineCount - 1
	if last < 0 {
		last = 0
	}
	if doc.Line(last) == "" {
		b.InsertAt(last, 0, text+"\n")
	} else {
		b.InsertAt(last, len(doc.Line(last)), "\n"+text)
	}
	return b, nil
}

// SortByPriority reorders the task lines between from and to (inclusive)
// from A to Z. Non-task lines keep their place; tasks of equal priority keep
// their order.
func (a *Actions) SortByPriority(doc *markdown.Document, from, to int) (*edit.Batch, error) {
	if from > to {
		from, to = to, from
	}
	var selected []markdown.Task
	for _, t := range doc.Tasks {
		if t.LineNumber >= from && t.LineNumber <= to {
			selected = append(selected, t)
		}
	}
	b := edit.NewBatch()
	sorted := views.SortByPriority(selected)
	for i, slot := range selected {
		if sorted[i].RawText != slot.RawText {
			b.ReplaceRange(slot.LineNumber, 0, len(slot.RawText), sorted[i].RawText)
		}
	}
	return b, nil
}
