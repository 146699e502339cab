package utils

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorWithSuggestion(t *testing.T) {
	base := errors.New("no task on line 4")
	tests := []struct {
		name string
		err  *ErrorWithSuggestion
		want string
	}{
		{"with hint", &ErrorWithSuggestion{Err: base, Suggestion: "Run notecraft list"}, "no task on line 4\n\nSuggestion: Run notecraft list"},
		{"empty hint", &ErrorWithSuggestion{Err: base}, "no task on line 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, base) {
				t.Error("errors.Is should see the wrapped error")
			}
		})
	}
}

func TestWrapWithSuggestion(t *testing.T) {
	wrapped := WrapWithSuggestion(errors.New("parse failed"), "Check the file")

	var ews *ErrorWithSuggestion
	if !errors.As(wrapped, &ews) {
		t.Fatal("WrapWithSuggestion should return *ErrorWithSuggestion")
	}
	if ews.GetSuggestion() != "Check the file" {
		t.Errorf("GetSuggestion() = %q", ews.GetSuggestion())
	}
}

func TestSplitSuggestion(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantMessage    string
		wantSuggestion string
	}{
		{"plain", errors.New("boom"), "boom", ""},
		{"direct", ErrInvalidLine("x"), "invalid line number: x", "Line numbers start at 1"},
		{"wrapped", fmt.Errorf("toggle: %w", ErrTaskNotFound(3)), "toggle: no task on line 3", "Use 'notecraft list' to see task line numbers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, suggestion := SplitSuggestion(tt.err)
			if message != tt.wantMessage || suggestion != tt.wantSuggestion {
				t.Errorf("SplitSuggestion() = (%q, %q), want (%q, %q)", message, suggestion, tt.wantMessage, tt.wantSuggestion)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantMessage    string
		wantSuggestion string
	}{
		{"task not found", ErrTaskNotFound(7), "line 7", "notecraft list"},
		{"no document", ErrNoDocument(), "no task document", "--file"},
		{"invalid due date", ErrInvalidDueDate("someday"), "someday", "YYYY-MM-DD"},
		{"stale document", ErrStaleDocument("/tmp/todo.md"), "/tmp/todo.md", "again"},
		{"invalid line", ErrInvalidLine("zero"), "zero", "start at 1"},
		{"invalid choice", ErrInvalidChoice("direction", "sideways", []string{"up", "down"}), "sideways", "up, down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ews *ErrorWithSuggestion
			if !errors.As(tt.err, &ews) {
				t.Fatal("should return *ErrorWithSuggestion")
			}
			if !strings.Contains(tt.err.Error(), tt.wantMessage) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.wantMessage)
			}
			if !strings.Contains(ews.GetSuggestion(), tt.wantSuggestion) {
				t.Errorf("GetSuggestion() = %q, want it to contain %q", ews.GetSuggestion(), tt.wantSuggestion)
			}
		})
	}
}
