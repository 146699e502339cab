package recurrence_test

import (
	"encoding/json"
	"testing"

	"notecraft/internal/testutil"
)

// =============================================================================
// CLI Tests for the daily recurring reset
// =============================================================================

func TestResetCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Water plants {due:e1d|2024-01-01} {cm:2024-01-05}\nOne-off {cm:2024-01-05}\n")

	stdout := cli.MustExecute("-y", "reset", "--last-visit", "2024-01-05")

	testutil.AssertContains(t, stdout, "Reset 1 edits since 2024-01-05T00:00:00")
	testutil.AssertResultCode(t, stdout, testutil.ResultActionCompleted)
	if got := cli.Document(); got != "Water plants {due:e1d|2024-01-01}\nOne-off {cm:2024-01-05}\n" {
		t.Errorf("document after reset = %q", got)
	}

	stdout = cli.MustExecute("-y", "reset")
	testutil.AssertContains(t, stdout, "Already reset today (last visit 2024-01-10T10:30:00)")
	testutil.AssertResultCode(t, stdout, testutil.ResultInfoOnly)
}

func TestResetMarksOverdueCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Water {due:e7d|2024-01-01}\n")

	cli.MustExecute("-y", "reset", "--last-visit", "2024-01-05", "--now", "2024-01-10T09:00:00")

	if got := cli.Document(); got != "Water {due:e7d|2024-01-01} {overdue:2024-01-08}\n" {
		t.Errorf("document after reset = %q", got)
	}
}

func TestResetJSONCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Stretch {due:e1d} {cm:2024-01-09}\n")

	stdout := cli.MustExecute("--json", "reset", "--last-visit", "2024-01-09")

	var resp struct {
		Ran       bool   `json:"ran"`
		LastVisit string `json:"lastVisit"`
		Batch     string `json:"batch"`
		Edits     int    `json:"edits"`
	}
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if !resp.Ran || resp.LastVisit != "2024-01-09T00:00:00" || resp.Edits == 0 || resp.Batch == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestResetInvalidDateCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Task\n")

	_, stderr := cli.ExecuteAndFail("-y", "reset", "--now", "tomorrow")

	testutil.AssertContains(t, stderr, "invalid --now: tomorrow")
}

func TestLastVisitCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Task\n")

	stdout := cli.MustExecute("-y", "last-visit")
	testutil.AssertContains(t, stdout, "has not been visited")

	stdout = cli.MustExecute("-y", "last-visit", "set", "2024-01-05T08:15:00")
	testutil.AssertContains(t, stdout, "Last visit set to 2024-01-05T08:15:00")

	stdout = cli.MustExecute("-y", "last-visit")
	testutil.AssertContains(t, stdout, cli.DocumentPath()+" last visited 2024-01-05T08:15:00")
}
