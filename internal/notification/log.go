package notification

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FormatLine renders n as one log line: "2024-01-10T09:30:00Z [OVERDUE] message".
func FormatLine(n Notification) string {
	return fmt.Sprintf("%s [%s] %s", n.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), strings.ToUpper(string(n.Kind)), n.Message)
}

type logChannel struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewLogChannel appends notifications to the file at path, creating it on first send.
func NewLogChannel(path string) Channel {
	return &logChannel{path: path}
}

func (c *logChannel) Send(n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file == nil {
		if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open notification log: %w", err)
		}
		c.file = f
	}
	if _, err := c.file.WriteString(FormatLine(n) + "\n"); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return c.file.Sync()
}

func (c *logChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

// ReadLog returns the lines of the log at path; a missing log has none.
func ReadLog(path string) ([]string, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var entries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entries = append(entries, scanner.Text())
	}
	return entries, scanner.Err()
}

type writerChannel struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterChannel prints "[KIND] message" lines to w.
func NewWriterChannel(w io.Writer) Channel {
	return &writerChannel{w: w}
}

func (c *writerChannel) Send(n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "[%s] %s\n", strings.ToUpper(string(n.Kind)), n.Message)
	return err
}

func (c *writerChannel) Close() error {
	return nil
}
