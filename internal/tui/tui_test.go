package tui_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"notecraft/backend"
	"notecraft/internal/actions"
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
	"notecraft/internal/tui"
)

var testNow = time.Date(2024, time.January, 10, 10, 30, 0, 0, time.UTC)

const sampleDocument = `Review PR #work
Write tests {count:0/2}
Plan trip {c}
    Book hotel
Buy groceries @shop
`

// sendKeyAndWait sends a key message and waits briefly for processing.
func sendKeyAndWait(tm *teatest.TestModel, key tea.KeyMsg) {
	tm.Send(key)
	time.Sleep(20 * time.Millisecond)
}

// sendRunesAndWait sends a rune key message and waits briefly for processing.
func sendRunesAndWait(tm *teatest.TestModel, runes []rune) {
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyRunes, Runes: runes})
}

func typeText(tm *teatest.TestModel, s string) {
	for _, r := range s {
		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newTestModel(t *testing.T, text string) (*teatest.TestModel, *backend.MemoryDocument) {
	t.Helper()
	store := backend.NewMemoryDocument("todo.md", text)
	now := func() time.Time { return testNow }
	opts := tui.Options{
		Parse:   markdown.DefaultOptions(),
		Actions: actions.New(actions.Settings{Now: now}),
		Now:     now,
	}
	tm := teatest.NewTestModel(t, tui.New(store, opts), teatest.WithInitialTermSize(80, 24))
	waitForOutput(t, tm, "Review PR")
	return tm, store
}

func waitForOutput(t *testing.T, tm *teatest.TestModel, want string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte(want))
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))
}

// waitForDocument polls the store until cond holds.
func waitForDocument(t *testing.T, store *backend.MemoryDocument, cond func(string) bool) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		text, err := store.Read(context.Background())
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if cond(text) || time.Now().After(deadline) {
			return text
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func quit(t *testing.T, tm *teatest.TestModel) []byte {
	t.Helper()
	sendRunesAndWait(tm, []rune{'q'})
	out, err := io.ReadAll(tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return out
}

func finalView(t *testing.T, tm *teatest.TestModel) string {
	t.Helper()
	return tm.FinalModel(t).(*tui.Model).View()
}

func TestTUILaunch(t *testing.T) {
	tm, _ := newTestModel(t, sampleDocument)
	out := quit(t, tm)
	if len(out) == 0 {
		t.Error("expected TUI to render some output")
	}
}

func TestTUIHidesCollapsedSubtasks(t *testing.T) {
	tm, _ := newTestModel(t, sampleDocument)
	quit(t, tm)
	if view := finalView(t, tm); strings.Contains(view, "Book hotel") {
		t.Errorf("subtask of a collapsed task should not be shown:\n%s", view)
	}
}

func TestTUIToggleDone(t *testing.T) {
	tm, store := newTestModel(t, sampleDocument)

	sendRunesAndWait(tm, []rune{'x'})

	got := waitForDocument(t, store, func(s string) bool { return strings.Contains(s, "{cm:") })
	if !strings.HasPrefix(got, "Review PR #work {cm:2024-01-10}\n") {
		t.Errorf("document after toggle = %q", got)
	}
	waitForOutput(t, tm, "[x]")
	quit(t, tm)
}

func TestTUIIncrementCount(t *testing.T) {
	tm, store := newTestModel(t, sampleDocument)

	sendRunesAndWait(tm, []rune{'j'})
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	got := waitForDocument(t, store, func(s string) bool { return strings.Contains(s, "{count:1/2}") })
	if !strings.Contains(got, "Write tests {count:1/2}") {
		t.Errorf("document after increment = %q", got)
	}
	quit(t, tm)
}

func TestTUIAddTask(t *testing.T) {
	tm, store := newTestModel(t, sampleDocument)

	sendRunesAndWait(tm, []rune{'a'})
	typeText(tm, "New test task")
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})

	got := waitForDocument(t, store, func(s string) bool { return strings.Contains(s, "New test task") })
	if !strings.Contains(got, "New test task") {
		t.Errorf("document after add = %q", got)
	}
	waitForOutput(t, tm, "New test task")
	quit(t, tm)
}

func TestTUISetDueDate(t *testing.T) {
	tm, store := newTestModel(t, sampleDocument)

	sendRunesAndWait(tm, []rune{'u'})
	typeText(tm, "2024-02-01")
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})

	got := waitForDocument(t, store, func(s string) bool { return strings.Contains(s, "{due:") })
	if !strings.HasPrefix(got, "Review PR #work {due:2024-02-01}\n") {
		t.Errorf("document after due = %q", got)
	}
	quit(t, tm)
}

func TestTUIDeleteTask(t *testing.T) {
	tm, store := newTestModel(t, sampleDocument)

	sendRunesAndWait(tm, []rune{'G'})
	sendRunesAndWait(tm, []rune{'d'})
	waitForOutput(t, tm, "Delete: Buy groceries?")
	sendRunesAndWait(tm, []rune{'y'})

	got := waitForDocument(t, store, func(s string) bool { return !strings.Contains(s, "Buy groceries") })
	if strings.Contains(got, "Buy groceries") {
		t.Errorf("document after delete = %q", got)
	}
	quit(t, tm)
}

func TestTUICancelDelete(t *testing.T) {
	tm, store := newTestModel(t, sampleDocument)

	sendRunesAndWait(tm, []rune{'d'})
	sendRunesAndWait(tm, []rune{'n'})
	quit(t, tm)

	got, _ := store.Read(context.Background())
	if got != sampleDocument {
		t.Errorf("document changed after cancelled delete: %q", got)
	}
}

func TestTUIFilterTasks(t *testing.T) {
	tm, _ := newTestModel(t, sampleDocument)

	sendRunesAndWait(tm, []rune{'/'})
	typeText(tm, "@shop")
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})

	waitForOutput(t, tm, "Filter: @shop")
	quit(t, tm)
	view := finalView(t, tm)
	if strings.Contains(view, "Review PR") || !strings.Contains(view, "Buy groceries") {
		t.Errorf("filtered view = \n%s", view)
	}
}

func TestTUIReloadMsg(t *testing.T) {
	tm, store := newTestModel(t, sampleDocument)

	if err := store.Append(context.Background(), []string{"Added elsewhere"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	tm.Send(tui.ReloadMsg{})

	waitForOutput(t, tm, "Added elsewhere")
	quit(t, tm)
}

func TestTUIStaleSnapshotReloads(t *testing.T) {
	store := &staleOnce{MemoryDocument: backend.NewMemoryDocument("todo.md", sampleDocument)}
	opts := tui.Options{
		Parse: markdown.DefaultOptions(),
		Now:   func() time.Time { return testNow },
	}
	tm := teatest.NewTestModel(t, tui.New(store, opts), teatest.WithInitialTermSize(80, 24))
	waitForOutput(t, tm, "Review PR")

	sendRunesAndWait(tm, []rune{'x'})
	waitForOutput(t, tm, "Error:")
	quit(t, tm)
}

func TestTUIKeyBindings(t *testing.T) {
	tm, _ := newTestModel(t, sampleDocument)

	sendRunesAndWait(tm, []rune{'?'})
	waitForOutput(t, tm, "Key Bindings")
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEsc})
	quit(t, tm)
}

func TestTUIQuit(t *testing.T) {
	tm, _ := newTestModel(t, sampleDocument)
	sendRunesAndWait(tm, []rune{'q'})
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))
}

// staleOnce rejects the first Apply as if the file changed underneath.
type staleOnce struct {
	*backend.MemoryDocument
	failed bool
}

func (s *staleOnce) Apply(ctx context.Context, snapshot string, b *edit.Batch) (string, error) {
	if !s.failed {
		s.failed = true
		return "", backend.ErrStaleSnapshot
	}
	return s.MemoryDocument.Apply(ctx, snapshot, b)
}
