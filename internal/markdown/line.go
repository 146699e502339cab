package markdown

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"notecraft/internal/dateexpr"
)

// CommentPrefix marks a line as a comment rather than a task.
const CommentPrefix = "# "

// Special tag names.
const (
	TagDue            = "due"
	TagCreationDate   = "cr"
	TagCompletionDate = "cm"
	TagCount          = "count"
	TagHidden         = "h"
	TagCollapsed      = "c"
	TagOverdue        = "overdue"
	TagStart          = "start"
	TagDuration       = "duration"
)

// Options is the resolved configuration the parser needs.
type Options struct {
	// DoneSymbol marks a task done when it leads the line content. Empty never matches.
	DoneSymbol string
	// TabSize is the number of spaces that make one indentation unit.
	TabSize int
	// Now is the reference instant for due classification. Zero means time.Now().
	Now time.Time
	Due dateexpr.Options
}

// DefaultOptions returns the parser defaults.
func DefaultOptions() Options {
	return Options{
		DoneSymbol: "x ",
		TabSize:    4,
		Due:        dateexpr.DefaultOptions(),
	}
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func (o Options) tabSize() int {
	if o.TabSize <= 0 {
		return 4
	}
	return o.TabSize
}

// LineKind classifies a parsed line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineTask
)

// LineResult is the outcome of parsing a single line.
type LineResult struct {
	Kind LineKind
	// Range spans the whole line.
	Range Range
	// Task is set only for LineTask.
	Task *Task
}

var countRe = regexp.MustCompile(`^(\d+)/(\d+)$`)

type word struct {
	text  string
	start int
}

// ParseLine parses one line of text. A trailing carriage return is ignored.
// Malformed fragments never fail the line; they are kept as title text.
func ParseLine(text string, lineNumber int, opts Options) LineResult {
	text = strings.TrimSuffix(text, "\r")
	whole := Range{Line: lineNumber, Start: 0, End: len(text)}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return LineResult{Kind: LineBlank, Range: whole}
	}
	if strings.HasPrefix(trimmed, CommentPrefix) {
		return LineResult{Kind: LineComment, Range: whole}
	}

	t := &Task{
		LineNumber: lineNumber,
		RawText:    text,
		Priority:   DefaultPriority,
	}

	cursor := 0
	tabs, spaces := 0, 0
	for cursor < len(text) && (text[cursor] == ' ' || text[cursor] == '\t') {
		if text[cursor] == '\t' {
			tabs++
		} else {
			spaces++
		}
		cursor++
	}
	t.Indent = text[:cursor]
	t.IndentLvl = tabs + spaces/opts.tabSize()

	symbolDone := false
	if opts.DoneSymbol != "" && strings.HasPrefix(text[cursor:], opts.DoneSymbol) {
		t.DoneRange = &Range{Line: lineNumber, Start: cursor, End: cursor + len(opts.DoneSymbol)}
		symbolDone = true
		cursor += len(opts.DoneSymbol)
	}

	var title []string
	for _, w := range splitWords(text, cursor) {
		if !parseWord(t, w, opts) {
			title = append(title, w.text)
			t.Links = append(t.Links, findLinks(w, lineNumber)...)
		}
	}
	t.Title = strings.Join(title, " ")

	// A counter is the only completion trigger besides {cm}; the done symbol
	// does not complete a counted task.
	if t.Count != nil {
		t.Done = t.CompletionDateRange != nil || t.Count.Current == t.Count.Needed
	} else {
		t.Done = symbolDone || t.CompletionDateRange != nil
	}

	return LineResult{Kind: LineTask, Range: whole, Task: t}
}

// splitWords splits text[from:] on spaces and tabs, keeping byte offsets.
func splitWords(text string, from int) []word {
	var words []word
	start := -1
	for i := from; i <= len(text); i++ {
		if i == len(text) || text[i] == ' ' || text[i] == '\t' {
			if start >= 0 {
				words = append(words, word{text: text[start:i], start: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return words
}

// parseWord records w on t when it is a recognized fragment and reports
// whether it was consumed. Unconsumed words become title text.
func parseWord(t *Task, w word, opts Options) bool {
	line := t.LineNumber
	rng := Range{Line: line, Start: w.start, End: w.start + len(w.text)}

	switch w.text[0] {
	case '{':
		return parseSpecialTag(t, w, rng, opts)
	case '#':
		return parseTags(t, w)
	case '@':
		if len(w.text) == 1 {
			return false
		}
		t.Contexts = append(t.Contexts, w.text[1:])
		t.ContextRanges = append(t.ContextRanges, sigilFragment(w, line))
		return true
	case '+':
		if len(w.text) == 1 {
			return false
		}
		t.Projects = append(t.Projects, w.text[1:])
		t.ProjectRanges = append(t.ProjectRanges, sigilFragment(w, line))
		return true
	case '(':
		if t.PriorityRange != nil || len(w.text) != 3 || w.text[2] != ')' || w.text[1] < 'A' || w.text[1] > 'Z' {
			return false
		}
		t.Priority = Priority(w.text[1])
		t.PriorityRange = &rng
		return true
	}
	return false
}

func sigilFragment(w word, line int) Fragment {
	return Fragment{
		Name:           w.text[1:],
		Range:          Range{Line: line, Start: w.start, End: w.start + len(w.text)},
		DelimiterRange: Range{Line: line, Start: w.start, End: w.start + 1},
		NameRange:      Range{Line: line, Start: w.start + 1, End: w.start + len(w.text)},
	}
}

// parseTags splits "#a#b" into one fragment per name. A word of only '#'
// characters is plain text.
func parseTags(t *Task, w word) bool {
	if strings.Trim(w.text, "#") == "" {
		return false
	}
	line := t.LineNumber
	for i := 0; i < len(w.text); {
		next := strings.IndexByte(w.text[i+1:], '#')
		end := len(w.text)
		if next >= 0 {
			end = i + 1 + next
		}
		if end > i+1 {
			start := w.start + i
			t.Tags = append(t.Tags, w.text[i+1:end])
			t.TagRanges = append(t.TagRanges, Fragment{
				Name:           w.text[i+1 : end],
				Range:          Range{Line: line, Start: start, End: w.start + end},
				DelimiterRange: Range{Line: line, Start: start, End: start + 1},
				NameRange:      Range{Line: line, Start: start + 1, End: w.start + end},
			})
		}
		i = end
	}
	return true
}

// parseSpecialTag handles {name} and {name:value}. Unknown names and
// counters with invalid numbers are left as text. A repeated tag overrides
// the earlier one.
func parseSpecialTag(t *Task, w word, rng Range, opts Options) bool {
	if len(w.text) < 2 || w.text[len(w.text)-1] != '}' {
		return false
	}
	inner := w.text[1 : len(w.text)-1]
	name, value, hasValue := strings.Cut(inner, ":")
	r := rng

	switch {
	case name == TagDue && hasValue:
		info := dateexpr.Classify(value, opts.now(), opts.Due)
		t.Due = &info
		t.DueRange = &r
	case name == TagCreationDate && hasValue:
		t.CreationDate = value
		t.CreationDateRange = &r
	case name == TagCompletionDate && hasValue:
		t.CompletionDate = value
		t.CompletionDateRange = &r
	case name == TagOverdue && hasValue:
		t.Overdue = value
		t.OverdueRange = &r
	case name == TagStart && hasValue:
		t.Start = value
		t.StartRange = &r
	case name == TagDuration && hasValue:
		t.Duration = value
		t.DurationRange = &r
	case name == TagCount && hasValue:
		m := countRe.FindStringSubmatch(value)
		if m == nil {
			return false
		}
		current, err1 := strconv.Atoi(m[1])
		needed, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return false
		}
		currentStart := rng.Start + len("{"+TagCount+":")
		t.Count = &Count{
			Current:      current,
			Needed:       needed,
			Range:        r,
			CurrentRange: Range{Line: rng.Line, Start: currentStart, End: currentStart + len(m[1])},
		}
	case name == TagHidden && !hasValue:
		t.IsHidden = true
		t.HiddenRange = &r
	case name == TagCollapsed && !hasValue:
		t.IsCollapsed = true
		t.CollapseRange = &r
	default:
		return false
	}
	t.SpecialTagRanges = append(t.SpecialTagRanges, r)
	return true
}
