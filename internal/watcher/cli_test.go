package watcher_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"notecraft/internal/testutil"
)

func TestWatchCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Task\n")

	done := make(chan string)
	go func() {
		stdout, _, _ := cli.Execute("-y", "watch", "--for", "1500ms")
		done <- stdout
	}()

	// Give the watcher time to register before writing.
	time.Sleep(400 * time.Millisecond)
	if err := os.WriteFile(cli.DocumentPath(), []byte("x Task\nOther\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case stdout := <-done:
		testutil.AssertContains(t, stdout, "Watching "+cli.DocumentPath())
		testutil.AssertContains(t, stdout, cli.DocumentPath()+" changed: 1/2 (50.0%)")
		if !strings.HasSuffix(strings.TrimSpace(stdout), testutil.ResultInfoOnly) {
			t.Errorf("expected %s at the end, got:\n%s", testutil.ResultInfoOnly, stdout)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after --for elapsed")
	}
}

func TestWatchRemindCLI(t *testing.T) {
	cli := testutil.NewCLITestWithDocument(t, "Pay rent {due:2024-01-10}\n")

	stdout := cli.MustExecute("-y", "watch", "--for", "300ms", "--remind")

	testutil.AssertContains(t, stdout, "[DUE] Pay rent is due today (line 1)")
	if strings.Count(stdout, "Pay rent") != 1 {
		t.Errorf("reminder should be sent once, got:\n%s", stdout)
	}
}
