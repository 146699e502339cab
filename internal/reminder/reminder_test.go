package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"notecraft/backend"
	"notecraft/internal/markdown"
	"notecraft/internal/notification"
	"notecraft/internal/reminder"
)

var now = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.Local)

const document = `Pay rent {due:2024-01-10}
Fix bug {due:2024-01-08}
Later {due:2024-02-01}
x Filed {due:2024-01-09}
Secret {due:2024-01-10} {h}
Water {due:2024-01-01|e7d} {overdue:2024-01-08}
Plain
`

func parse(t *testing.T, text string) *markdown.Document {
	t.Helper()
	opts := markdown.DefaultOptions()
	opts.Now = now
	return markdown.ParseDocument(text, opts)
}

type sink struct {
	sent []notification.Notification
	err  error
}

func (s *sink) Send(n notification.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func TestDue(t *testing.T) {
	got := reminder.Due(parse(t, document))

	want := []struct {
		title string
		kind  notification.Kind
		since string
		line  int
	}{
		{"Pay rent", notification.KindDue, "2024-01-10", 1},
		{"Fix bug", notification.KindOverdue, "2024-01-08", 2},
		{"Water", notification.KindOverdue, "2024-01-08", 6},
	}
	if len(got) != len(want) {
		t.Fatalf("Due() returned %d reminders, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		r := got[i]
		if r.Task.Title != w.title || r.Kind != w.kind || r.Since != w.since || r.Line() != w.line {
			t.Errorf("reminder %d = {%q %s %s line %d}, want %+v", i, r.Task.Title, r.Kind, r.Since, r.Line(), w)
		}
	}
}

func TestMessage(t *testing.T) {
	got := reminder.Due(parse(t, document))

	if msg := got[0].Message(); msg != "Pay rent is due today (line 1)" {
		t.Errorf("due message = %q", msg)
	}
	if msg := got[1].Message(); msg != "Fix bug is overdue since 2024-01-08 (line 2)" {
		t.Errorf("overdue message = %q", msg)
	}
}

func TestCheckOncePerDay(t *testing.T) {
	ctx := context.Background()
	log := backend.NewMemoryReminders()
	out := &sink{}
	svc := &reminder.Service{Log: log, Notifier: out, Now: func() time.Time { return now }}
	doc := parse(t, document)

	sent, err := svc.Check(ctx, "/tmp/todo.md", doc)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(sent) != 3 || len(out.sent) != 3 {
		t.Fatalf("first check sent %d (%d delivered), want 3", len(sent), len(out.sent))
	}
	if n := out.sent[1]; n.Kind != notification.KindOverdue || n.Title != "notecraft: overdue" || n.Document != "/tmp/todo.md" || !n.Timestamp.Equal(now) {
		t.Errorf("unexpected notification: %+v", n)
	}

	sent, err = svc.Check(ctx, "/tmp/todo.md", doc)
	if err != nil {
		t.Fatalf("second Check() error = %v", err)
	}
	if len(sent) != 0 || len(out.sent) != 3 {
		t.Errorf("second check on the same day sent %d, want 0", len(sent))
	}

	svc.Now = func() time.Time { return now.AddDate(0, 0, 1) }
	sent, _ = svc.Check(ctx, "/tmp/todo.md", doc)
	if len(sent) != 3 {
		t.Errorf("check on the next day sent %d, want 3", len(sent))
	}
}

func TestCheckRetriesFailedSends(t *testing.T) {
	ctx := context.Background()
	log := backend.NewMemoryReminders()
	errDown := errors.New("notifier down")
	out := &sink{err: errDown}
	svc := &reminder.Service{Log: log, Notifier: out, Now: func() time.Time { return now }}
	doc := parse(t, "Pay rent {due:2024-01-10}\n")

	sent, err := svc.Check(ctx, "/tmp/todo.md", doc)
	if !errors.Is(err, errDown) {
		t.Fatalf("Check() error = %v, want %v", err, errDown)
	}
	if len(sent) != 0 {
		t.Errorf("failed send reported as sent: %+v", sent)
	}

	out.err = nil
	sent, err = svc.Check(ctx, "/tmp/todo.md", doc)
	if err != nil || len(sent) != 1 {
		t.Errorf("retry sent %d, err %v; want 1, nil", len(sent), err)
	}
}
