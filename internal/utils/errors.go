package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion pairs an error with a hint on how to fix it. The hint
// is printed after the message.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\nSuggestion: " + e.Suggestion
}

func (e *ErrorWithSuggestion) GetSuggestion() string { return e.Suggestion }

func (e *ErrorWithSuggestion) Unwrap() error { return e.Err }

// WrapWithSuggestion attaches suggestion to err.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{Err: err, Suggestion: suggestion}
}

// SplitSuggestion returns the message of err without its hint, and the hint
// of the outermost ErrorWithSuggestion in the chain, if any.
func SplitSuggestion(err error) (message, suggestion string) {
	var ews *ErrorWithSuggestion
	if !errors.As(err, &ews) {
		return err.Error(), ""
	}
	return strings.TrimSuffix(err.Error(), "\n\nSuggestion: "+ews.Suggestion), ews.Suggestion
}

// ErrTaskNotFound returns an error for a line that holds no task.
// line is 1-based.
func ErrTaskNotFound(line int) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no task on line %d", line),
		Suggestion: "Use 'notecraft list' to see task line numbers",
	}
}

// ErrNoDocument returns an error when no task document is configured.
func ErrNoDocument() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("no task document"),
		Suggestion: "Pass --file or set default_file in your config file",
	}
}

// ErrInvalidDueDate returns an error for a due expression that does not resolve.
func ErrInvalidDueDate(expr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid due date: %s", expr),
		Suggestion: "Use YYYY-MM-DD, +N[d|w|m], a weekday, 'jan 5', 'this week', 'next week' or eNd|eNm|eNy",
	}
}

// ErrStaleDocument returns an error when the document changed during an edit.
func ErrStaleDocument(path string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%s changed while it was being edited", path),
		Suggestion: "Run the command again",
	}
}

// ErrInvalidLine returns an error for a line argument that is not a positive number.
func ErrInvalidLine(arg string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid line number: %s", arg),
		Suggestion: "Line numbers start at 1",
	}
}

// ErrInvalidChoice returns an error for an argument outside a fixed set.
func ErrInvalidChoice(what, got string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid %s: %s", what, got),
		Suggestion: fmt.Sprintf("Valid options: %s", strings.Join(valid, ", ")),
	}
}
