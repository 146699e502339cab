package views

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoaderPathTraversal tests that view names with path traversal sequences are rejected
func TestLoaderPathTraversal(t *testing.T) {
	tmpDir := t.TempDir()
	viewsDir := filepath.Join(tmpDir, "views")
	secretDir := filepath.Join(tmpDir, "secret")
	if err := os.MkdirAll(viewsDir, 0755); err != nil {
		t.Fatalf("Failed to create views dir: %v", err)
	}
	if err := os.MkdirAll(secretDir, 0755); err != nil {
		t.Fatalf("Failed to create secret dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(secretDir, "secret.yaml"), []byte("name: secret\nquery: \"#x\"\n"), 0644); err != nil {
		t.Fatalf("Failed to create secret file: %v", err)
	}

	loader := NewLoader(viewsDir)

	tests := []string{
		"../secret/secret",
		"../../../etc/passwd",
		"foo/../../../etc/passwd",
		"/etc/passwd",
		"foo\\bar",
		"..",
		".hidden",
	}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			view, err := loader.LoadView(name)
			if err == nil {
				t.Fatalf("LoadView(%q) should have failed, got view: %+v", name, view)
			}
			if !strings.Contains(err.Error(), "invalid view name") {
				t.Errorf("LoadView(%q) error = %v, want 'invalid view name'", name, err)
			}
		})
	}
}

func TestLoaderBuiltinsAndOverrides(t *testing.T) {
	viewsDir := filepath.Join(t.TempDir(), "views")
	loader := NewLoader(viewsDir)

	view, err := loader.LoadView("")
	if err != nil {
		t.Fatalf("LoadView(\"\") error = %v", err)
	}
	if view.Name != "default" || view.Query != "-$done" {
		t.Errorf("LoadView(\"\") = %+v, want builtin default", view)
	}

	if _, err := loader.LoadView("missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("LoadView(missing) error = %v, want not found", err)
	}

	created, err := SetupViewsFolder(viewsDir)
	if err != nil || !created {
		t.Fatalf("SetupViewsFolder() = %v, %v; want true, nil", created, err)
	}
	again, err := SetupViewsFolder(viewsDir)
	if err != nil || again {
		t.Errorf("second SetupViewsFolder() = %v, %v; want false, nil", again, err)
	}

	work, err := loader.LoadView("work")
	if err != nil {
		t.Fatalf("LoadView(work) error = %v", err)
	}
	if work.Query != "#work -$done" || !work.SortByPriority {
		t.Errorf("LoadView(work) = %+v", work)
	}

	override := "description: mine\nquery: \"#mine\"\n"
	if err := os.WriteFile(filepath.Join(viewsDir, "default.yaml"), []byte(override), 0644); err != nil {
		t.Fatal(err)
	}
	view, err = loader.LoadView("default")
	if err != nil {
		t.Fatalf("LoadView(default) error = %v", err)
	}
	if view.Query != "#mine" || view.Name != "default" {
		t.Errorf("override = %+v, want query #mine", view)
	}

	infos, err := loader.ListViews()
	if err != nil {
		t.Fatalf("ListViews() error = %v", err)
	}
	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
		if info.Name == "default" && (!info.Overrides || info.BuiltIn) {
			t.Errorf("default info = %+v, want override", info)
		}
	}
	if got := strings.Join(names, ","); got != "default,all,due,work" {
		t.Errorf("ListViews() names = %q, want %q", got, "default,all,due,work")
	}
}

func TestLoaderRejectsUnknownKeyword(t *testing.T) {
	viewsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(viewsDir, "bad.yaml"), []byte("query: \"$someday\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewLoader(viewsDir).LoadView("bad")
	if err == nil || !strings.Contains(err.Error(), "unknown status keyword") {
		t.Errorf("LoadView(bad) error = %v, want unknown status keyword", err)
	}
}
