// Package testutil provides shared test utilities for CLI testing across packages.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"notecraft/cmd/notecraft/cmd"
)

// Now is the fixed clock of every CLITest: Wednesday 2024-01-10 10:30.
var Now = time.Date(2024, time.January, 10, 10, 30, 0, 0, time.Local)

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
	docPath    string
}

// NewCLITest creates a CLI test helper with a config file, state database,
// views directory and archive file inside a temp dir. The document does not
// exist until it is written.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	docPath := filepath.Join(tmpDir, "todo.md")
	viewsDir := filepath.Join(tmpDir, "views")

	config := "# test config\n" +
		"default_file: " + docPath + "\n" +
		"default_archive_file: " + filepath.Join(tmpDir, "archive.md") + "\n"
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}
	if err := os.MkdirAll(viewsDir, 0755); err != nil {
		t.Fatalf("failed to create views directory: %v", err)
	}

	return &CLITest{
		t: t,
		cfg: &cmd.Config{
			NoPrompt:    true,
			ConfigPath:  configPath,
			StateDBPath: filepath.Join(tmpDir, "state.db"),
			ViewsPath:   viewsDir,
			Now:         func() time.Time { return Now },
		},
		tmpDir:     tmpDir,
		configPath: configPath,
		docPath:    docPath,
	}
}

// NewCLITestWithDocument creates a CLI test helper whose document holds text.
func NewCLITestWithDocument(t *testing.T, text string) *CLITest {
	t.Helper()
	c := NewCLITest(t)
	c.WriteDocument(text)
	return c
}

// Config returns the test configuration.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temporary directory for the test.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the path to the config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// DocumentPath returns the path of the task document.
func (c *CLITest) DocumentPath() string {
	return c.docPath
}

// ArchivePath returns the path of the archive document.
func (c *CLITest) ArchivePath() string {
	return filepath.Join(c.tmpDir, "archive.md")
}

// ViewsDir returns the views directory.
func (c *CLITest) ViewsDir() string {
	return c.cfg.ViewsPath
}

// WriteDocument replaces the task document.
func (c *CLITest) WriteDocument(text string) {
	c.t.Helper()
	if err := os.WriteFile(c.docPath, []byte(text), 0644); err != nil {
		c.t.Fatalf("failed to write document: %v", err)
	}
}

// Document returns the current task document.
func (c *CLITest) Document() string {
	c.t.Helper()
	data, err := os.ReadFile(c.docPath)
	if err != nil {
		c.t.Fatalf("failed to read document: %v", err)
	}
	return string(data)
}

// WriteView places a view definition in the views directory.
func (c *CLITest) WriteView(name, yamlContent string) {
	c.t.Helper()
	path := filepath.Join(c.cfg.ViewsPath, name+".yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write view: %v", err)
	}
}

// SetConfigValue appends a key-value pair to the test config file.
func (c *CLITest) SetConfigValue(key, value string) {
	c.t.Helper()

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		c.t.Fatalf("failed to read config file: %v", err)
	}
	newConfig := string(data) + key + ": " + value + "\n"
	if err := os.WriteFile(c.configPath, []byte(newConfig), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// ExecuteWithInput runs a CLI command with prompts enabled, answering them
// from input.
func (c *CLITest) ExecuteWithInput(input string, args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	cfg := *c.cfg
	cfg.NoPrompt = false
	cfg.Stdin = strings.NewReader(input)
	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, &cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if exit code doesn't match expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// AssertResultCode verifies that the output ends with the expected result code.
func AssertResultCode(t *testing.T, output, expectedCode string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	lastLine := strings.TrimSpace(lines[len(lines)-1])
	if lastLine != expectedCode {
		t.Errorf("expected result code %q, got %q\nFull output:\n%s", expectedCode, lastLine, output)
	}
}

// Result code constants for convenience.
const (
	ResultActionCompleted = cmd.ResultActionCompleted
	ResultInfoOnly        = cmd.ResultInfoOnly
	ResultError           = cmd.ResultError
)
