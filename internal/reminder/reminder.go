// Package reminder finds open tasks that are due today or overdue and sends
// each one as a notification at most once per day.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notecraft/backend"
	"notecraft/internal/dateexpr"
	"notecraft/internal/markdown"
	"notecraft/internal/notification"
	"notecraft/internal/utils"
)

// Reminder is one task that needs attention.
type Reminder struct {
	Kind notification.Kind `json:"kind"`
	Task *markdown.Task    `json:"task"`
	// Since is the due date, or the first missed occurrence of a recurring task.
	Since string `json:"since"`
}

// Line returns the 1-based line number of the task.
func (r Reminder) Line() int {
	return r.Task.LineNumber + 1
}

// Message renders the reminder as one sentence.
func (r Reminder) Message() string {
	if r.Kind == notification.KindOverdue {
		return fmt.Sprintf("%s is overdue since %s (line %d)", r.Task.Title, r.Since, r.Line())
	}
	return fmt.Sprintf("%s is due today (line %d)", r.Task.Title, r.Line())
}

// Due lists the open, visible tasks of doc that are due or overdue, in line
// order. A recurring task carrying {overdue:...} is overdue since that date.
func Due(doc *markdown.Document) []Reminder {
	var out []Reminder
	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		if t.Done || t.IsHidden {
			continue
		}
		switch {
		case t.Overdue != "":
			out = append(out, Reminder{Kind: notification.KindOverdue, Task: t, Since: t.Overdue})
		case t.Due != nil && t.Due.State == dateexpr.Overdue:
			out = append(out, Reminder{Kind: notification.KindOverdue, Task: t, Since: dateexpr.FormatDate(t.Due.Date, false)})
		case t.Due != nil && t.Due.State == dateexpr.Due:
			out = append(out, Reminder{Kind: notification.KindDue, Task: t, Since: dateexpr.FormatDate(t.Due.Date, false)})
		}
	}
	return out
}

// Notifier delivers notifications.
type Notifier interface {
	Send(n notification.Notification) error
}

// Service sends the reminders of a document that were not sent yet today.
type Service struct {
	Log      backend.ReminderLog
	Notifier Notifier
	// Now defaults to time.Now.
	Now func() time.Time
}

// Check sends every reminder of doc not already sent today and returns the
// ones it sent. A failed send is not recorded, so the next check retries it.
func (s *Service) Check(ctx context.Context, document string, doc *markdown.Document) ([]Reminder, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	at := now()
	day := dateexpr.FormatDate(at, false)

	var sent []Reminder
	var errs []error
	for _, r := range Due(doc) {
		reminded, err := s.Log.Reminded(ctx, document, r.Task.Title, day)
		if err != nil {
			return sent, err
		}
		if reminded {
			utils.Debugf("already reminded %q on %s", r.Task.Title, day)
			continue
		}
		n := notification.Notification{
			Kind:      r.Kind,
			Title:     "notecraft: " + string(r.Kind),
			Message:   r.Message(),
			Timestamp: at,
			Document:  document,
		}
		if err := s.Notifier.Send(n); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", r.Line(), err))
			continue
		}
		if err := s.Log.MarkReminded(ctx, document, r.Task.Title, day); err != nil {
			return sent, err
		}
		sent = append(sent, r)
	}
	return sent, errors.Join(errs...)
}
