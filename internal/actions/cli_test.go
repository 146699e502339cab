package actions_test

import (
	"os"
	"strings"
	"testing"

	"notecraft/internal/testutil"
)

// =============================================================================
// CLI Tests for task edits
// =============================================================================

func TestToggleCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Write report #work\nCall mom\n")

	stdout := cli.MustExecute("-y", "toggle", "1")

	testutil.AssertContains(t, stdout, "toggle line 1: [x] Write report #work")
	testutil.AssertResultCode(t, stdout, testutil.ResultActionCompleted)
	if got := cli.Document(); got != "Write report #work {cm:2024-01-10}\nCall mom\n" {
		t.Errorf("document after toggle = %q", got)
	}

	cli.MustExecute("-y", "toggle", "1")
	if got := cli.Document(); got != "Write report #work\nCall mom\n" {
		t.Errorf("document after second toggle = %q", got)
	}
}

func TestToggleCountedCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Push-ups {count:1/2}\n")

	stdout := cli.MustExecute("-y", "toggle", "1")

	testutil.AssertContains(t, stdout, "[x]")
	if got := cli.Document(); got != "Push-ups {count:2/2} {cm:2024-01-10}\n" {
		t.Errorf("document after counting up = %q", got)
	}
}

func TestCountCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Reps {count:0/3}\nPlain\n")

	cli.MustExecute("-y", "count", "1", "inc")
	cli.MustExecute("-y", "count", "1", "inc")
	cli.MustExecute("-y", "count", "1", "dec")
	if got := cli.Document(); got != "Reps {count:1/3}\nPlain\n" {
		t.Errorf("document after counting = %q", got)
	}

	_, stderr := cli.ExecuteAndFail("-y", "count", "2", "inc")
	testutil.AssertContains(t, stderr, "{count:0/N}")

	_, stderr = cli.ExecuteAndFail("-y", "count", "1", "sideways")
	testutil.AssertContains(t, stderr, "Valid options: inc, dec")
}

func TestDueCLI(t *testing.T) {
	tests := []struct {
		name string
		expr []string
		want string
	}{
		{"absolute date", []string{"2024-03-01"}, "Task {due:2024-03-01}\n"},
		{"relative days", []string{"+3"}, "Task {due:2024-01-13}\n"},
		{"weekday", []string{"fri"}, "Task {due:2024-01-12}\n"},
		{"month and day", []string{"feb", "5"}, "Task {due:2024-02-05}\n"},
		{"recurrence", []string{"e2d"}, "Task {due:2024-01-10|e2d}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := testutil.NewCLITestWithDocument(t, "Task\n")

			cli.MustExecute(append([]string{"-y", "due", "1"}, tt.expr...)...)

			if got := cli.Document(); got != tt.want {
				t.Errorf("document = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDueInvalidCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Task\n")

	stdout, stderr := cli.ExecuteAndFail("-y", "due", "1", "whenever")

	testutil.AssertContains(t, stderr, "invalid due date: whenever")
	testutil.AssertResultCode(t, stdout, testutil.ResultError)
	if got := cli.Document(); got != "Task\n" {
		t.Errorf("document changed on invalid due date: %q", got)
	}
}

func TestUndueCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Water {due:e1d} {overdue:2024-01-08}\n")

	cli.MustExecute("-y", "undue", "1")

	if got := cli.Document(); got != "Water {due:e1d}\n" {
		t.Errorf("document after undue = %q", got)
	}
}

func TestPriorityCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "(B) Task\n")

	cli.MustExecute("-y", "priority", "1", "up")
	if got := cli.Document(); got != "(A) Task\n" {
		t.Errorf("document after raising = %q", got)
	}
	cli.MustExecute("-y", "priority", "1", "down")
	cli.MustExecute("-y", "priority", "1", "down")
	if got := cli.Document(); got != "(C) Task\n" {
		t.Errorf("document after lowering = %q", got)
	}
}

func TestStartHideCollapseCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Parent\n\tChild\n\t\tLeaf\n")

	cli.MustExecute("-y", "start", "1")
	cli.MustExecute("-y", "hide", "3")
	cli.MustExecute("-y", "collapse", "-r", "1")

	want := "Parent {start:2024-01-10T10:30:00} {c}\n\tChild {c}\n\t\tLeaf {h}\n"
	if got := cli.Document(); got != want {
		t.Errorf("document = %q, want %q", got, want)
	}
}

func TestCommentCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Task\n")

	cli.MustExecute("-y", "comment", "1")
	if got := cli.Document(); got != "# Task\n" {
		t.Errorf("document after comment = %q", got)
	}
	cli.MustExecute("-y", "comment", "1")
	if got := cli.Document(); got != "Task\n" {
		t.Errorf("document after uncomment = %q", got)
	}
}

func TestAddCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("-y", "add", "Buy", "milk", "@shop")

	testutil.AssertContains(t, stdout, "add line 1: [ ] Buy milk @shop")
	if got := cli.Document(); got != "Buy milk @shop\n" {
		t.Errorf("document after add = %q", got)
	}

	cli.SetConfigValue("add_creation_date", "true")
	cli.MustExecute("-y", "add", "Second")
	if got := cli.Document(); got != "Buy milk @shop\nSecond {cr:2024-01-10}\n" {
		t.Errorf("document after second add = %q", got)
	}
}

func TestDeleteCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Trip\n\tBook hotel\n\tPack\nOther\n")

	stdout := cli.MustExecute("-y", "delete", "1")

	testutil.AssertContains(t, stdout, "Deleted line 1: Trip (3 lines)")
	if got := cli.Document(); got != "Other\n" {
		t.Errorf("document after delete = %q", got)
	}
}

func TestDeleteConfirmCLI(t *testing.T) {
	const text = "Trip\n\tBook hotel\nOther\n"
	cli := testutil.NewCLITestWithDocument(t, text)

	stdout, _, exitCode := cli.ExecuteWithInput("n\n", "delete", "1")

	testutil.AssertExitCode(t, exitCode, 0)
	testutil.AssertContains(t, stdout, "Delete \"Trip\" and 1 nested lines?")
	testutil.AssertContains(t, stdout, "Cancelled")
	if got := cli.Document(); got != text {
		t.Errorf("document changed after declining: %q", got)
	}

	_, _, exitCode = cli.ExecuteWithInput("y\n", "delete", "1")

	testutil.AssertExitCode(t, exitCode, 0)
	if got := cli.Document(); got != "Other\n" {
		t.Errorf("document after confirming = %q", got)
	}
}

func TestRenameCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "a #old\nb #old @old\n")

	stdout := cli.MustExecute("-y", "rename", "tag", "#old", "new")

	testutil.AssertContains(t, stdout, `Renamed tag "old" to "new" (2 occurrences)`)
	if got := cli.Document(); got != "a #new\nb #new @old\n" {
		t.Errorf("document after rename = %q", got)
	}

	_, stderr := cli.ExecuteAndFail("-y", "rename", "label", "a", "b")
	testutil.AssertContains(t, stderr, "invalid kind: label")
}

func TestSortCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "(C) c\n(A) a\nb\n")

	cli.MustExecute("-y", "sort", "1", "3")

	if got := cli.Document(); got != "(A) a\n(C) c\nb\n" {
		t.Errorf("document after sort = %q", got)
	}
}

func TestArchiveCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "x Done\n\tnote\nOpen\nx Daily {due:e1d}\n")

	stdout := cli.MustExecute("-y", "archive")

	testutil.AssertContains(t, stdout, "Archived 2 lines to "+cli.ArchivePath())
	if got := cli.Document(); got != "Open\nx Daily {due:e1d}\n" {
		t.Errorf("document after archive = %q", got)
	}
	archived, err := os.ReadFile(cli.ArchivePath())
	if err != nil {
		t.Fatalf("archive not written: %v", err)
	}
	if string(archived) != "x Done\n\tnote\n" {
		t.Errorf("archive = %q", archived)
	}

	stdout = cli.MustExecute("-y", "archive")
	testutil.AssertContains(t, stdout, "Nothing to archive")
}

func TestArchiveWithoutArchiveFileCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "x Done\n")
	if err := os.WriteFile(cli.ConfigPath(), []byte("default_file: "+cli.DocumentPath()+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr := cli.ExecuteAndFail("-y", "archive")

	testutil.AssertContains(t, stderr, "default_archive_file")
	if !strings.HasPrefix(cli.Document(), "x Done") {
		t.Errorf("document changed: %q", cli.Document())
	}
}
