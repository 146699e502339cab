// Package markdown parses the line-oriented task format: one task per line,
// #tags, @contexts, +projects, (X) priorities and {name:value} special tags.
// Every parsed fragment carries the byte range it came from so callers can
// compute precise text edits against the original line.
package markdown

import (
	"fmt"
	"slices"

	"notecraft/internal/dateexpr"
)

// DefaultPriority is assigned to tasks without a (X) marker.
const DefaultPriority Priority = 'G'

// Priority is a single uppercase letter, 'A' being the highest.
type Priority byte

func (p Priority) String() string {
	return string(rune(p))
}

// MarshalText renders the priority as its letter.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte{byte(p)}, nil
}

// Range is a byte span [Start, End) on one line.
type Range struct {
	Line  int `json:"line"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Text slices the range out of the line it was computed from.
func (r Range) Text(line string) string {
	if r.Start < 0 || r.End > len(line) || r.Start > r.End {
		return ""
	}
	return line[r.Start:r.End]
}

// Len returns the width of the range in bytes.
func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d", r.Line, r.Start, r.End)
}

// Fragment is one #tag, @context or +project occurrence.
type Fragment struct {
	Name string `json:"name"`
	// Range covers the delimiter and the name.
	Range          Range `json:"range"`
	DelimiterRange Range `json:"delimiterRange"`
	NameRange      Range `json:"nameRange"`
}

// Count is a {count:current/needed} multi-step completion counter.
type Count struct {
	Current int `json:"current"`
	Needed  int `json:"needed"`
	// Range covers the whole special tag, CurrentRange only the current digits.
	Range        Range `json:"range"`
	CurrentRange Range `json:"currentRange"`
}

// Link is a URI or absolute file path found in the title words.
type Link struct {
	Value  string `json:"value"`
	Scheme string `json:"scheme"`
	Range  Range  `json:"range"`
}

// Task is one non-blank, non-comment line. Tasks are produced by a parse and
// never mutated afterwards; all changes go through text edits and a reparse.
type Task struct {
	LineNumber int    `json:"lineNumber"`
	RawText    string `json:"rawText"`
	Title      string `json:"title"`
	Done       bool   `json:"done"`

	Indent    string `json:"indent,omitempty"`
	IndentLvl int    `json:"indentLvl"`
	// ParentLineNumber is nil for root tasks.
	ParentLineNumber *int `json:"parentLineNumber,omitempty"`
	// Subtasks is populated only on Document.Tree nodes.
	Subtasks []*Task `json:"subtasks,omitempty"`

	Tags          []string   `json:"tags,omitempty"`
	TagRanges     []Fragment `json:"tagRanges,omitempty"`
	Projects      []string   `json:"projects,omitempty"`
	ProjectRanges []Fragment `json:"projectRanges,omitempty"`
	Contexts      []string   `json:"contexts,omitempty"`
	ContextRanges []Fragment `json:"contextRanges,omitempty"`

	Priority      Priority `json:"priority"`
	PriorityRange *Range   `json:"priorityRange,omitempty"`
	DoneRange     *Range   `json:"doneRange,omitempty"`

	Due      *dateexpr.DueInfo `json:"due,omitempty"`
	DueRange *Range            `json:"dueRange,omitempty"`
	Count    *Count            `json:"count,omitempty"`

	Overdue             string `json:"overdue,omitempty"`
	OverdueRange        *Range `json:"overdueRange,omitempty"`
	Start               string `json:"start,omitempty"`
	StartRange          *Range `json:"startRange,omitempty"`
	Duration            string `json:"duration,omitempty"`
	DurationRange       *Range `json:"durationRange,omitempty"`
	CompletionDate      string `json:"completionDate,omitempty"`
	CompletionDateRange *Range `json:"completionDateRange,omitempty"`
	CreationDate        string `json:"creationDate,omitempty"`
	CreationDateRange   *Range `json:"creationDateRange,omitempty"`

	IsHidden      bool   `json:"isHidden,omitempty"`
	HiddenRange   *Range `json:"hiddenRange,omitempty"`
	IsCollapsed   bool   `json:"isCollapsed,omitempty"`
	CollapseRange *Range `json:"collapseRange,omitempty"`

	// SpecialTagRanges lists every recognized {...} tag in line order.
	SpecialTagRanges []Range `json:"specialTagRanges,omitempty"`
	Links            []Link  `json:"links,omitempty"`
}

// IsRecurring reports whether the due value encodes a repeat interval.
func (t *Task) IsRecurring() bool {
	return t.Due != nil && t.Due.Recurring
}

// IsRoot reports whether the task has no parent.
func (t *Task) IsRoot() bool {
	return t.ParentLineNumber == nil
}

// HasSubtasks reports whether the tree node has children.
func (t *Task) HasSubtasks() bool {
	return len(t.Subtasks) > 0
}

// End returns the end-of-line column.
func (t *Task) End() int {
	return len(t.RawText)
}

// ContentStart returns the column of the first non-whitespace character.
func (t *Task) ContentStart() int {
	return len(t.Indent)
}

// HasTag reports whether the task carries the tag.
func (t *Task) HasTag(name string) bool {
	return slices.Contains(t.Tags, name)
}

// HasProject reports whether the task carries the project.
func (t *Task) HasProject(name string) bool {
	return slices.Contains(t.Projects, name)
}

// HasContext reports whether the task carries the context.
func (t *Task) HasContext(name string) bool {
	return slices.Contains(t.Contexts, name)
}
