// Package prompt asks for what a command needs when its arguments leave it
// out: the task to act on, or the fields of a new task.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"notecraft/internal/markdown"
	"notecraft/internal/views"
)

// Sentinel errors for prompt operations.
var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrNoPromptMode       = errors.New("interactive prompts disabled (--no-prompt / -y)")
	ErrNoTasks            = errors.New("no tasks available")
	ErrNoMatches          = errors.New("no tasks match the filter")
)

// TaskSelector picks one task by filtering titles and choosing a number.
type TaskSelector struct {
	Tasks    []markdown.Task
	Prompt   string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run returns the chosen task. A single candidate, before or after
// filtering, is selected without asking.
func (s *TaskSelector) Run() (*markdown.Task, error) {
	if s.NoPrompt {
		return nil, ErrNoPromptMode
	}
	if len(s.Tasks) == 0 {
		return nil, ErrNoTasks
	}
	if len(s.Tasks) == 1 {
		return &s.Tasks[0], nil
	}

	writer := s.Writer
	if writer == nil {
		writer = io.Discard
	}
	scanner := bufio.NewScanner(s.Reader)

	_, _ = fmt.Fprintf(writer, "%s\nFilter (or press Enter to show all): ", s.Prompt)
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}
	filtered := Filter(s.Tasks, strings.TrimSpace(scanner.Text()))
	if len(filtered) == 0 {
		return nil, ErrNoMatches
	}
	if len(filtered) == 1 {
		_, _ = fmt.Fprintf(writer, "Auto-selected: %s\n", filtered[0].Title)
		return &filtered[0], nil
	}

	for i := range filtered {
		t := &filtered[i]
		_, _ = fmt.Fprintf(writer, "  %d) line %d: %s\n", i+1, t.LineNumber+1, views.FormatTask(t))
	}
	_, _ = fmt.Fprintf(writer, "Select (0 to cancel): ")
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	input := strings.TrimSpace(scanner.Text())
	num, err := strconv.Atoi(input)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %s", input)
	}
	if num == 0 {
		return nil, ErrSelectionCancelled
	}
	if num < 1 || num > len(filtered) {
		return nil, fmt.Errorf("selection out of range: %d", num)
	}
	return &filtered[num-1], nil
}

// Filter keeps the tasks whose title contains text, ignoring case. Empty
// text keeps all.
func Filter(tasks []markdown.Task, text string) []markdown.Task {
	if text == "" {
		return tasks
	}
	needle := strings.ToLower(text)
	var out []markdown.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			out = append(out, t)
		}
	}
	return out
}

// openOnly lists the actions offered only open tasks.
var openOnly = map[string]bool{
	"start": true,
	"hide":  true,
	"undue": true,
}

// Candidates returns the tasks an action can be applied to. Done tasks are
// left out for actions that only make sense on open ones unless showAll.
func Candidates(doc *markdown.Document, action string, showAll bool) []markdown.Task {
	if showAll || !openOnly[action] {
		return doc.Tasks
	}
	var out []markdown.Task
	for _, t := range doc.Tasks {
		if !t.Done {
			out = append(out, t)
		}
	}
	return out
}

// AddFields holds what the interactive add mode collected.
type AddFields struct {
	Title    string
	Priority byte
	// Due is the resolved {due:...} value.
	Due      string
	Tags     []string
	Contexts []string
}

// Line renders the fields as a task line.
func (f *AddFields) Line() string {
	var parts []string
	if f.Priority != 0 {
		parts = append(parts, "("+string(f.Priority)+")")
	}
	parts = append(parts, f.Title)
	for _, t := range f.Tags {
		parts = append(parts, "#"+t)
	}
	for _, c := range f.Contexts {
		parts = append(parts, "@"+c)
	}
	if f.Due != "" {
		parts = append(parts, "{due:"+f.Due+"}")
	}
	return strings.Join(parts, " ")
}

// InteractiveAdder asks for the fields of a new task one by one.
type InteractiveAdder struct {
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
	// ResolveDue turns due input into a stored value, "" when invalid.
	ResolveDue func(input string) string
}

// Run prompts for title (required), priority, due date, tags and contexts.
// Invalid priority or due input is asked again.
func (a *InteractiveAdder) Run() (*AddFields, error) {
	if a.NoPrompt {
		return nil, ErrNoPromptMode
	}
	writer := a.Writer
	if writer == nil {
		writer = io.Discard
	}
	scanner := bufio.NewScanner(a.Reader)
	fields := &AddFields{}

	for {
		_, _ = fmt.Fprint(writer, "Title (required): ")
		if !scanner.Scan() {
			return nil, errors.New("no input for title")
		}
		fields.Title = strings.TrimSpace(scanner.Text())
		if fields.Title != "" {
			break
		}
		_, _ = fmt.Fprintln(writer, "Title cannot be empty.")
	}

	for {
		_, _ = fmt.Fprint(writer, "Priority (A-Z, optional): ")
		if !scanner.Scan() {
			break
		}
		input := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if input == "" {
			break
		}
		if len(input) != 1 || input[0] < 'A' || input[0] > 'Z' {
			_, _ = fmt.Fprintln(writer, "Invalid priority: must be a letter A-Z")
			continue
		}
		fields.Priority = input[0]
		break
	}

	for a.ResolveDue != nil {
		_, _ = fmt.Fprint(writer, "Due (2024-03-01, +3, fri, e2d, optional): ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			break
		}
		due := a.ResolveDue(input)
		if due == "" {
			_, _ = fmt.Fprintf(writer, "Invalid due date: %s\n", input)
			continue
		}
		fields.Due = due
		break
	}

	_, _ = fmt.Fprint(writer, "Tags (space-separated, optional): ")
	if scanner.Scan() {
		fields.Tags = words(scanner.Text(), "#")
	}
	_, _ = fmt.Fprint(writer, "Contexts (space-separated, optional): ")
	if scanner.Scan() {
		fields.Contexts = words(scanner.Text(), "@")
	}
	return fields, nil
}

// words splits s on spaces and commas and drops a leading sigil from each word.
func words(s, sigil string) []string {
	var out []string
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) }) {
		if w = strings.TrimPrefix(w, sigil); w != "" {
			out = append(out, w)
		}
	}
	return out
}
