package notification

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

type desktopChannel struct {
	executor CommandExecutor
	platform string
}

// NewDesktopChannel sends notifications through notify-send on Linux and
// osascript on macOS.
func NewDesktopChannel(opts ...Option) Channel {
	o := &options{platform: runtime.GOOS}
	for _, opt := range opts {
		opt(o)
	}
	if o.executor == nil {
		o.executor = execCommand{}
	}
	return &desktopChannel{executor: o.executor, platform: o.platform}
}

func (c *desktopChannel) Send(n Notification) error {
	switch c.platform {
	case "linux", "freebsd", "openbsd":
		urgency := "normal"
		if n.Kind == KindOverdue {
			urgency = "critical"
		}
		return c.executor.Execute("notify-send", "--app-name=notecraft", "--urgency="+urgency, n.Title, n.Message)
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			escapeAppleScript(n.Message), escapeAppleScript(n.Title))
		return c.executor.Execute("osascript", "-e", script)
	default:
		return fmt.Errorf("desktop notifications are not supported on %s", c.platform)
	}
}

func (c *desktopChannel) Close() error {
	return nil
}

// escapeAppleScript escapes backslashes and double quotes for an AppleScript string literal.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

type execCommand struct{}

func (execCommand) Execute(cmd string, args ...string) error {
	if out, err := exec.Command(cmd, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", cmd, err, strings.TrimSpace(string(out)))
	}
	return nil
}
