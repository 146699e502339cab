package views

import (
	"strings"

	"notecraft/internal/dateexpr"
	"notecraft/internal/markdown"
)

// ParseQuery splits a query string into terms. Each whitespace-separated
// word may start with '-' for negation, followed by #tag, @context,
// +project or $keyword; any other word matches against the title.
func ParseQuery(raw string) Query {
	q := Query{Raw: raw}
	for _, word := range strings.Fields(raw) {
		term := Term{}
		if word[0] == '-' {
			term.Negate = true
			word = word[1:]
		}
		if word == "" {
			continue
		}
		switch word[0] {
		case '#':
			term.Field, term.Value = FieldTag, word[1:]
		case '@':
			term.Field, term.Value = FieldContext, word[1:]
		case '+':
			term.Field, term.Value = FieldProject, word[1:]
		case '$':
			term.Field, term.Value = FieldStatus, word[1:]
		default:
			term.Field, term.Value = FieldTitle, word
		}
		q.Terms = append(q.Terms, term)
	}
	return q
}

// IsEmpty reports whether the query has no terms.
func (q Query) IsEmpty() bool {
	return len(q.Terms) == 0
}

// Match reports whether t satisfies every term.
func (q Query) Match(t *markdown.Task) bool {
	for _, term := range q.Terms {
		if matchesTerm(t, term) == term.Negate {
			return false
		}
	}
	return true
}

// FilterTasks returns the tasks matching q, in their original order.
func FilterTasks(tasks []markdown.Task, q Query) []markdown.Task {
	if q.IsEmpty() {
		return tasks
	}

	var result []markdown.Task
	for i := range tasks {
		if q.Match(&tasks[i]) {
			result = append(result, tasks[i])
		}
	}
	return result
}

// Filter parses raw and applies it to tasks.
func Filter(tasks []markdown.Task, raw string) []markdown.Task {
	return FilterTasks(tasks, ParseQuery(raw))
}

// matchesTerm evaluates the predicate of a term without its negation.
func matchesTerm(t *markdown.Task, term Term) bool {
	switch term.Field {
	case FieldTag:
		return t.HasTag(term.Value)
	case FieldContext:
		return t.HasContext(term.Value)
	case FieldProject:
		return t.HasProject(term.Value)
	case FieldStatus:
		return matchesStatus(t, term.Value)
	case FieldTitle:
		return strings.Contains(strings.ToLower(t.Title), strings.ToLower(term.Value))
	default:
		return false
	}
}

// matchesStatus handles $keywords; unknown keywords are false.
func matchesStatus(t *markdown.Task, keyword string) bool {
	switch keyword {
	case StatusDone:
		return t.Done
	case StatusDue:
		return t.Due != nil && t.Due.IsDue()
	case StatusOverdue:
		return t.Due != nil && t.Due.State == dateexpr.Overdue
	case StatusRecurring:
		return t.IsRecurring()
	default:
		return false
	}
}
