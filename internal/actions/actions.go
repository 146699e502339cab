// Package actions computes edit batches for task operations (toggle done,
// counters, due dates, archiving, renaming and so on) from the ranges of a
// parsed document. Nothing here mutates a task; callers apply the batch to
// the exact text the document was parsed from and reparse.
package actions

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"notecraft/internal/dateexpr"
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
)

var (
	// ErrNoTask is returned when the addressed line holds no task.
	ErrNoTask = errors.New("no task at line")
	// ErrNoCount is returned by counter actions on tasks without {count}.
	ErrNoCount = errors.New("task has no counter")
	// ErrNoArchiveFile is returned by archiving when no archive document is configured.
	ErrNoArchiveFile = errors.New("no archive file configured")
	// ErrInvalidName is returned when a rename target is empty or contains whitespace.
	ErrInvalidName = errors.New("invalid name")
	// ErrEmptyText is returned when adding a task without text or setting an empty due date.
	ErrEmptyText = errors.New("empty text")
)

// Settings is the configuration the actions consume.
type Settings struct {
	CompletionDateIncludeTime bool
	CreationDateIncludeTime   bool
	DurationIncludeSeconds    bool
	AddCreationDate           bool
	// ArchiveFile must be non-empty for archiving to be allowed.
	ArchiveFile string
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Actions builds edit batches for one configuration.
type Actions struct {
	settings Settings
}

// New returns Actions for settings.
func New(settings Settings) *Actions {
	return &Actions{settings: settings}
}

func (a *Actions) now() time.Time {
	if a.settings.Now != nil {
		return a.settings.Now()
	}
	return time.Now()
}

func taskAt(doc *markdown.Document, line int) (*markdown.Task, error) {
	t := doc.TaskAt(line)
	if t == nil {
		return nil, fmt.Errorf("%w %d", ErrNoTask, line)
	}
	return t, nil
}

// SpecialTag formats {name:value}, or {name} when value is empty.
func SpecialTag(name, value string) string {
	if value == "" {
		return "{" + name + "}"
	}
	return "{" + name + ":" + value + "}"
}

// AppendToLine inserts text at the end of the task line, separated by a
// space unless the line already ends with whitespace.
func AppendToLine(b *edit.Batch, t *markdown.Task, text string) {
	sep := " "
	if n := len(t.RawText); n > 0 && (t.RawText[n-1] == ' ' || t.RawText[n-1] == '\t') {
		sep = ""
	}
	b.InsertAt(t.LineNumber, t.End(), sep+text)
}

// SetCountCurrent replaces the current value of a counter.
func SetCountCurrent(b *edit.Batch, c *markdown.Count, value int) {
	r := c.CurrentRange
	b.ReplaceRange(r.Line, r.Start, r.End, fmt.Sprint(value))
}

// Removal collects fragment deletions on one task line. Fragments are
// widened by one adjacent space so that removing an appended tag restores
// the line exactly; overlapping widened spans are merged on Flush.
type Removal struct {
	task  *markdown.Task
	spans [][2]int
}

// NewRemoval starts collecting deletions for t.
func NewRemoval(t *markdown.Task) *Removal {
	return &Removal{task: t}
}

// Tag schedules r for deletion together with one neighbouring space. The
// preceding space is preferred; indentation is never consumed.
func (rm *Removal) Tag(r *markdown.Range) {
	if r == nil {
		return
	}
	line := rm.task.RawText
	start, end := r.Start, r.End
	switch {
	case start > rm.task.ContentStart() && line[start-1] == ' ':
		start--
	case end < len(line) && line[end] == ' ':
		end++
	}
	rm.spans = append(rm.spans, [2]int{start, end})
}

// Exact schedules r for deletion as is.
func (rm *Removal) Exact(r *markdown.Range) {
	if r == nil {
		return
	}
	rm.spans = append(rm.spans, [2]int{r.Start, r.End})
}

// Flush adds the merged deletions to b.
func (rm *Removal) Flush(b *edit.Batch) {
	if len(rm.spans) == 0 {
		return
	}
	sort.Slice(rm.spans, func(i, j int) bool { return rm.spans[i][0] < rm.spans[j][0] })
	merged := [][2]int{rm.spans[0]}
	for _, s := range rm.spans[1:] {
		last := &merged[len(merged)-1]
		if s[0] <= last[1] {
			if s[1] > last[1] {
				last[1] = s[1]
			}
			continue
		}
		merged = append(merged, s)
	}
	line := rm.task.RawText
	for _, s := range merged {
		// A removal at the start of the content must not leave a leading space.
		if s[0] == rm.task.ContentStart() && s[1] < len(line) && line[s[1]] == ' ' {
			s[1]++
		}
		b.DeleteRange(rm.task.LineNumber, s[0], s[1])
	}
	rm.spans = nil
}

// ClearCompletion schedules removal of the completion date, start and
// duration tags of t.
func ClearCompletion(rm *Removal, t *markdown.Task) {
	rm.Tag(t.CompletionDateRange)
	rm.Tag(t.StartRange)
	rm.Tag(t.DurationRange)
}

// insertCompletion writes {cm:now}, replacing an existing one, and the
// tracked duration when the task was started.
func (a *Actions) insertCompletion(b *edit.Batch, t *markdown.Task) {
	now := a.now()
	cm := SpecialTag(markdown.TagCompletionDate, dateexpr.FormatDate(now, a.settings.CompletionDateIncludeTime))
	if r := t.CompletionDateRange; r != nil {
		b.ReplaceRange(r.Line, r.Start, r.End, cm)
	} else {
		AppendToLine(b, t, cm)
	}

	if t.Start == "" {
		return
	}
	started, err := dateexpr.ParseDate(t.Start, now.Location())
	if err != nil {
		return
	}
	duration := SpecialTag(markdown.TagDuration, dateexpr.FormatDuration(now.Sub(started), true, a.settings.DurationIncludeSeconds))
	if r := t.DurationRange; r != nil {
		b.ReplaceRange(r.Line, r.Start, r.End, duration)
	} else {
		AppendToLine(b, t, duration)
	}
}
