package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// mustNewStore creates an in-memory store and registers cleanup
func mustNewStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, context.Background()
}

func TestGetMissing(t *testing.T) {
	s, ctx := mustNewStore(t)
	got, err := s.Get(ctx, "/tmp/todo.md")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Errorf("Get = %v, want nil", got)
	}
}

func TestSetAndGet(t *testing.T) {
	s, ctx := mustNewStore(t)
	loc := time.FixedZone("CET", 3600)
	first := time.Date(2024, time.January, 5, 8, 15, 0, 0, loc)
	second := time.Date(2024, time.January, 8, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		key  string
		set  time.Time
	}{
		{"insert", "a.md", first},
		{"update", "a.md", second},
		{"other key", "b.md", first},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Set(ctx, tt.key, tt.set); err != nil {
				t.Fatalf("Set error: %v", err)
			}
			got, err := s.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get error: %v", err)
			}
			if got == nil || !got.Equal(tt.set) {
				t.Errorf("Get = %v, want %v", got, tt.set)
			}
		})
	}

	got, _ := s.Get(ctx, "a.md")
	if got == nil || !got.Equal(second) {
		t.Errorf("a.md = %v, want %v", got, second)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	ctx := context.Background()
	visit := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	s, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := s.Set(ctx, "todo.md", visit); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	_ = s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() { _ = s.Close() }()
	got, err := s.Get(ctx, "todo.md")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil || !got.Equal(visit) {
		t.Errorf("Get = %v, want %v", got, visit)
	}
}

func TestReminders(t *testing.T) {
	s, ctx := mustNewStore(t)

	ok, err := s.Reminded(ctx, "/tmp/todo.md", "Pay rent", "2024-01-10")
	if err != nil {
		t.Fatalf("Reminded error: %v", err)
	}
	if ok {
		t.Fatal("Reminded = true on an empty log")
	}

	for i := 0; i < 2; i++ {
		if err := s.MarkReminded(ctx, "/tmp/todo.md", "Pay rent", "2024-01-10"); err != nil {
			t.Fatalf("MarkReminded error: %v", err)
		}
	}

	tests := []struct {
		document, task, day string
		want                bool
	}{
		{"/tmp/todo.md", "Pay rent", "2024-01-10", true},
		{"/tmp/todo.md", "Pay rent", "2024-01-11", false},
		{"/tmp/todo.md", "Water plants", "2024-01-10", false},
		{"/tmp/other.md", "Pay rent", "2024-01-10", false},
	}
	for _, tt := range tests {
		got, err := s.Reminded(ctx, tt.document, tt.task, tt.day)
		if err != nil {
			t.Fatalf("Reminded error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Reminded(%q, %q, %q) = %v, want %v", tt.document, tt.task, tt.day, got, tt.want)
		}
	}
}
