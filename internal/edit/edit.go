// Package edit describes text changes as batches of range operations
// computed against one snapshot of a document, and applies them atomically.
package edit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrOutOfRange is returned when an edit addresses a position outside the text.
	ErrOutOfRange = errors.New("edit position out of range")
	// ErrOverlap is returned when two edits of a batch touch the same characters.
	ErrOverlap = errors.New("overlapping edits")
)

// Position is a 0-based line and byte column.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Span is the half-open region [Start, End). It may cross lines.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LineSpan returns the span [start, end) on a single line.
func LineSpan(line, start, end int) Span {
	return Span{Start: Position{Line: line, Col: start}, End: Position{Line: line, Col: end}}
}

// Kind is the operation type of an edit.
type Kind int

const (
	Insert Kind = iota
	Replace
	Delete
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Replace:
		return "replace"
	default:
		return "delete"
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Edit is a single operation. Inserts use Span.Start only.
type Edit struct {
	Kind    Kind   `json:"kind"`
	Span    Span   `json:"span"`
	NewText string `json:"newText,omitempty"`
}

// Batch is an ordered set of edits against one text snapshot.
type Batch struct {
	ID    uuid.UUID `json:"id"`
	Edits []Edit    `json:"edits"`
}

// NewBatch returns an empty batch with a fresh id.
func NewBatch() *Batch {
	return &Batch{ID: uuid.New()}
}

// Insert adds text at pos.
func (b *Batch) Insert(pos Position, text string) {
	b.Edits = append(b.Edits, Edit{Kind: Insert, Span: Span{Start: pos, End: pos}, NewText: text})
}

// InsertAt adds text on line at col.
func (b *Batch) InsertAt(line, col int, text string) {
	b.Insert(Position{Line: line, Col: col}, text)
}

// Replace substitutes the text in span.
func (b *Batch) Replace(span Span, text string) {
	b.Edits = append(b.Edits, Edit{Kind: Replace, Span: span, NewText: text})
}

// ReplaceRange substitutes [start, end) on line.
func (b *Batch) ReplaceRange(line, start, end int, text string) {
	b.Replace(LineSpan(line, start, end), text)
}

// Delete removes the text in span.
func (b *Batch) Delete(span Span) {
	b.Edits = append(b.Edits, Edit{Kind: Delete, Span: span})
}

// DeleteRange removes [start, end) on line.
func (b *Batch) DeleteRange(line, start, end int) {
	b.Delete(LineSpan(line, start, end))
}

// DeleteLine removes a whole line including its line break. On the last
// line the span ends at the end of the document.
func (b *Batch) DeleteLine(line int) {
	b.Delete(Span{Start: Position{Line: line}, End: Position{Line: line + 1}})
}

// Append adds the edits of other to b.
func (b *Batch) Append(other *Batch) {
	if other != nil {
		b.Edits = append(b.Edits, other.Edits...)
	}
}

// Len returns the number of edits.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Edits)
}

// Empty reports whether the batch has no edits.
func (b *Batch) Empty() bool {
	return b.Len() == 0
}

type resolved struct {
	start, end int
	text       string
	order      int
}

// Apply applies every edit of b to text and returns the result. Either all
// edits apply or none do: out of range or overlapping edits fail the batch.
// Inserts at the same position keep their batch order.
func Apply(text string, b *Batch) (string, error) {
	if b.Empty() {
		return text, nil
	}
	lines := strings.Split(text, "\n")
	lineStarts := make([]int, len(lines))
	off := 0
	for i, l := range lines {
		lineStarts[i] = off
		off += len(l) + 1
	}

	offset := func(p Position) (int, error) {
		switch {
		case p.Line == len(lines) && p.Col == 0:
			return len(text), nil
		case p.Line < 0 || p.Line >= len(lines):
			return 0, fmt.Errorf("%w: line %d of %d", ErrOutOfRange, p.Line, len(lines))
		case p.Col < 0 || p.Col > len(lines[p.Line]):
			return 0, fmt.Errorf("%w: column %d on line %d", ErrOutOfRange, p.Col, p.Line)
		}
		return lineStarts[p.Line] + p.Col, nil
	}

	ops := make([]resolved, 0, len(b.Edits))
	for i, e := range b.Edits {
		start, err := offset(e.Span.Start)
		if err != nil {
			return "", err
		}
		end := start
		if e.Kind != Insert {
			if end, err = offset(e.Span.End); err != nil {
				return "", err
			}
			if end < start {
				return "", fmt.Errorf("%w: span end before start", ErrOutOfRange)
			}
		}
		newText := e.NewText
		if e.Kind == Delete {
			newText = ""
		}
		ops = append(ops, resolved{start: start, end: end, text: newText, order: i})
	}

	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].start != ops[j].start {
			return ops[i].start < ops[j].start
		}
		return ops[i].end < ops[j].end
	})
	for i := 1; i < len(ops); i++ {
		if ops[i-1].end > ops[i].start {
			return "", fmt.Errorf("%w: edits %d and %d", ErrOverlap, ops[i-1].order, ops[i].order)
		}
	}

	var sb strings.Builder
	sb.Grow(len(text))
	cursor := 0
	for _, op := range ops {
		sb.WriteString(text[cursor:op.start])
		sb.WriteString(op.text)
		cursor = op.end
	}
	sb.WriteString(text[cursor:])
	return sb.String(), nil
}
