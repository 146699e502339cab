// Package notification delivers due and overdue reminders to the desktop,
// a log file or a writer.
package notification

import (
	"time"
)

// Kind identifies what a notification is about.
type Kind string

const (
	KindDue     Kind = "due"
	KindOverdue Kind = "overdue"
	KindTest    Kind = "test"
)

// Notification is one message to deliver.
type Notification struct {
	Kind      Kind
	Title     string
	Message   string
	Timestamp time.Time
	// Document is the path of the task document the message refers to.
	Document string
}

// Channel delivers notifications to one destination.
type Channel interface {
	Send(n Notification) error
	Close() error
}

// Config selects the channels a Manager opens.
type Config struct {
	Desktop bool
	// LogFile is appended to when set.
	LogFile string
}

// CommandExecutor runs a system command.
type CommandExecutor interface {
	Execute(cmd string, args ...string) error
}

// MockCommandExecutor is a CommandExecutor for tests.
type MockCommandExecutor struct {
	ExecuteFunc func(cmd string, args ...string) error
}

// Execute implements CommandExecutor
func (m *MockCommandExecutor) Execute(cmd string, args ...string) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(cmd, args...)
	}
	return nil
}

type options struct {
	executor CommandExecutor
	platform string
	extra    []Channel
}

// Option configures a Manager or a desktop channel.
type Option func(*options)

// WithCommandExecutor replaces the executor desktop notifications run through.
func WithCommandExecutor(executor CommandExecutor) Option {
	return func(o *options) { o.executor = executor }
}

// WithPlatform overrides runtime.GOOS for desktop notifications.
func WithPlatform(platform string) Option {
	return func(o *options) { o.platform = platform }
}

// WithChannel adds ch to the channels of a Manager.
func WithChannel(ch Channel) Option {
	return func(o *options) { o.extra = append(o.extra, ch) }
}
