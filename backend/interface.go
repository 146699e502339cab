// Package backend defines the stores the task core works against: a
// document store holding the text of one task document and a key-value
// store remembering when each document was last visited, plus a log of the
// due reminders already sent.
package backend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"notecraft/internal/edit"
)

var (
	// ErrStaleSnapshot is returned by DocumentStore.Apply when the document
	// changed since the snapshot the batch was computed from.
	ErrStaleSnapshot = errors.New("document changed since it was read")
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
)

// DocumentStore holds the text of one document.
type DocumentStore interface {
	// Read returns the current text.
	Read(ctx context.Context) (string, error)
	// Apply applies b to the current text if it still equals snapshot and
	// returns the new text. Either every edit is applied or none.
	Apply(ctx context.Context, snapshot string, b *edit.Batch) (string, error)
	// Append adds lines at the end of the document.
	Append(ctx context.Context, lines []string) error
	// Path identifies the document; it is also the last-visit key.
	Path() string
}

// LastVisitStore persists the last visit time per document key.
type LastVisitStore interface {
	// Get returns nil when key was never visited.
	Get(ctx context.Context, key string) (*time.Time, error)
	Set(ctx context.Context, key string, t time.Time) error
	Close() error
}

// ReminderLog records which task reminders were sent on which day.
type ReminderLog interface {
	// Reminded reports whether task of document was reminded on day (YYYY-MM-DD).
	Reminded(ctx context.Context, document, task, day string) (bool, error)
	MarkReminded(ctx context.Context, document, task, day string) error
}

// AppendLines returns text with lines appended, each terminated by a line
// break. A missing final line break of text is added first.
func AppendLines(text string, lines []string) string {
	if len(lines) == 0 {
		return text
	}
	var sb strings.Builder
	sb.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		sb.WriteByte('\n')
	}
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ApplySnapshot checks current against snapshot and applies b.
func ApplySnapshot(current, snapshot string, b *edit.Batch) (string, error) {
	if current != snapshot {
		return "", ErrStaleSnapshot
	}
	return edit.Apply(current, b)
}

// MemoryDocument is an in-memory DocumentStore.
type MemoryDocument struct {
	mu   sync.Mutex
	name string
	text string
}

// NewMemoryDocument returns a document named name holding text.
func NewMemoryDocument(name, text string) *MemoryDocument {
	return &MemoryDocument{name: name, text: text}
}

func (m *MemoryDocument) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *MemoryDocument) Apply(ctx context.Context, snapshot string, b *edit.Batch) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out, err := ApplySnapshot(m.text, snapshot, b)
	if err != nil {
		return "", err
	}
	m.text = out
	return out, nil
}

func (m *MemoryDocument) Append(ctx context.Context, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = AppendLines(m.text, lines)
	return nil
}

func (m *MemoryDocument) Path() string {
	return m.name
}

// MemoryLastVisits is an in-memory LastVisitStore.
type MemoryLastVisits struct {
	mu     sync.Mutex
	visits map[string]time.Time
}

// NewMemoryLastVisits returns an empty store.
func NewMemoryLastVisits() *MemoryLastVisits {
	return &MemoryLastVisits{visits: make(map[string]time.Time)}
}

func (m *MemoryLastVisits) Get(ctx context.Context, key string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.visits[key]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MemoryLastVisits) Set(ctx context.Context, key string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits[key] = t
	return nil
}

func (m *MemoryLastVisits) Close() error {
	return nil
}

// MemoryReminders is an in-memory ReminderLog.
type MemoryReminders struct {
	mu   sync.Mutex
	sent map[string]bool
}

// NewMemoryReminders returns an empty log.
func NewMemoryReminders() *MemoryReminders {
	return &MemoryReminders{sent: make(map[string]bool)}
}

func reminderKey(document, task, day string) string {
	return document + "\x00" + task + "\x00" + day
}

func (m *MemoryReminders) Reminded(ctx context.Context, document, task, day string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[reminderKey(document, task, day)], nil
}

func (m *MemoryReminders) MarkReminded(ctx context.Context, document, task, day string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[reminderKey(document, task, day)] = true
	return nil
}
