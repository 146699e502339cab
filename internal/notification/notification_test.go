package notification_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"notecraft/internal/notification"
)

var stamp = time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC)

func overdue() notification.Notification {
	return notification.Notification{
		Kind:      notification.KindOverdue,
		Title:     "notecraft: overdue",
		Message:   `Pay "rent" (line 3)`,
		Timestamp: stamp,
		Document:  "/tmp/todo.md",
	}
}

type call struct {
	cmd  string
	args []string
}

func recorder(calls *[]call) *notification.MockCommandExecutor {
	return &notification.MockCommandExecutor{
		ExecuteFunc: func(cmd string, args ...string) error {
			*calls = append(*calls, call{cmd, args})
			return nil
		},
	}
}

// =============================================================================
// Desktop channel
// =============================================================================

func TestDesktopLinux(t *testing.T) {
	var calls []call
	ch := notification.NewDesktopChannel(
		notification.WithCommandExecutor(recorder(&calls)),
		notification.WithPlatform("linux"),
	)

	if err := ch.Send(overdue()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(calls) != 1 || calls[0].cmd != "notify-send" {
		t.Fatalf("expected one notify-send call, got %+v", calls)
	}
	args := strings.Join(calls[0].args, " ")
	if !strings.Contains(args, "--urgency=critical") {
		t.Errorf("overdue reminders should be critical, got %q", args)
	}
	if last := calls[0].args[len(calls[0].args)-1]; last != `Pay "rent" (line 3)` {
		t.Errorf("message argument = %q", last)
	}
}

func TestDesktopDueUrgency(t *testing.T) {
	var calls []call
	ch := notification.NewDesktopChannel(
		notification.WithCommandExecutor(recorder(&calls)),
		notification.WithPlatform("linux"),
	)
	n := overdue()
	n.Kind = notification.KindDue

	_ = ch.Send(n)

	if len(calls) != 1 || !strings.Contains(strings.Join(calls[0].args, " "), "--urgency=normal") {
		t.Errorf("due reminders should be normal urgency, got %+v", calls)
	}
}

func TestDesktopDarwinEscapes(t *testing.T) {
	var calls []call
	ch := notification.NewDesktopChannel(
		notification.WithCommandExecutor(recorder(&calls)),
		notification.WithPlatform("darwin"),
	)

	if err := ch.Send(overdue()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(calls) != 1 || calls[0].cmd != "osascript" {
		t.Fatalf("expected one osascript call, got %+v", calls)
	}
	script := calls[0].args[1]
	if !strings.Contains(script, `Pay \"rent\" (line 3)`) {
		t.Errorf("quotes should be escaped in %q", script)
	}
}

func TestDesktopUnsupportedPlatform(t *testing.T) {
	ch := notification.NewDesktopChannel(
		notification.WithCommandExecutor(&notification.MockCommandExecutor{}),
		notification.WithPlatform("plan9"),
	)

	if err := ch.Send(overdue()); err == nil {
		t.Error("expected an error on an unsupported platform")
	}
}

// =============================================================================
// Log and writer channels
// =============================================================================

func TestLogChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reminders.log")
	ch := notification.NewLogChannel(path)

	if err := ch.Send(overdue()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Reopening appends.
	ch = notification.NewLogChannel(path)
	_ = ch.Send(notification.Notification{Kind: notification.KindTest, Message: "hello", Timestamp: stamp})
	_ = ch.Close()

	lines, err := notification.ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog() error = %v", err)
	}
	want := []string{
		`2024-01-10T09:30:00Z [OVERDUE] Pay "rent" (line 3)`,
		"2024-01-10T09:30:00Z [TEST] hello",
	}
	if len(lines) != len(want) {
		t.Fatalf("log has %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestReadLogMissing(t *testing.T) {
	lines, err := notification.ReadLog(filepath.Join(t.TempDir(), "none.log"))
	if err != nil || lines != nil {
		t.Errorf("ReadLog() = %v, %v; want nil, nil", lines, err)
	}
}

func TestWriterChannel(t *testing.T) {
	var buf bytes.Buffer
	ch := notification.NewWriterChannel(&buf)

	_ = ch.Send(overdue())

	if got := buf.String(); got != "[OVERDUE] Pay \"rent\" (line 3)\n" {
		t.Errorf("writer output = %q", got)
	}
}

// =============================================================================
// Manager
// =============================================================================

func TestManagerChannels(t *testing.T) {
	tests := []struct {
		name string
		cfg  notification.Config
		opts []notification.Option
		want int
	}{
		{"none", notification.Config{}, nil, 0},
		{"desktop", notification.Config{Desktop: true}, nil, 1},
		{"log", notification.Config{LogFile: "/tmp/x.log"}, nil, 1},
		{"all", notification.Config{Desktop: true, LogFile: "/tmp/x.log"},
			[]notification.Option{notification.WithChannel(notification.NewWriterChannel(&bytes.Buffer{}))}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := notification.NewManager(tt.cfg, tt.opts...)
			if got := m.ChannelCount(); got != tt.want {
				t.Errorf("ChannelCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestManagerSendContinuesOnError(t *testing.T) {
	errDesktop := errors.New("no display")
	logPath := filepath.Join(t.TempDir(), "reminders.log")
	m := notification.NewManager(
		notification.Config{Desktop: true, LogFile: logPath},
		notification.WithPlatform("linux"),
		notification.WithCommandExecutor(&notification.MockCommandExecutor{
			ExecuteFunc: func(string, ...string) error { return errDesktop },
		}),
	)
	defer func() { _ = m.Close() }()

	err := m.Send(overdue())

	if !errors.Is(err, errDesktop) {
		t.Errorf("Send() error = %v, want it to wrap %v", err, errDesktop)
	}
	if data, _ := os.ReadFile(logPath); !strings.Contains(string(data), "[OVERDUE]") {
		t.Errorf("log channel should still receive the notification, got %q", data)
	}
}
