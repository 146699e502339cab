// Package sqlite implements the last-visit store and the reminder log on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"notecraft/backend"
	"notecraft/internal/utils"
)

// Store implements backend.LastVisitStore and backend.ReminderLog using SQLite
type Store struct {
	db *sql.DB
}

var (
	_ backend.LastVisitStore = (*Store)(nil)
	_ backend.ReminderLog    = (*Store)(nil)
)

// New opens the database at path, creating its directory and the schema
// when missing. ":memory:" opens a private in-memory database.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps an in-memory database alive and shared.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	utils.Debugf("opened state database %s", path)
	return s, nil
}

// initSchema creates the database tables if they don't exist
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS last_visits (
			document TEXT PRIMARY KEY,
			visited_at TEXT NOT NULL,
			updated TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS reminders (
			document TEXT NOT NULL,
			task TEXT NOT NULL,
			day TEXT NOT NULL,
			sent_at TEXT NOT NULL,
			PRIMARY KEY (document, task, day)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the last visit of key, or nil when there is none.
func (s *Store) Get(ctx context.Context, key string) (*time.Time, error) {
	var visited string
	err := s.db.QueryRowContext(ctx,
		"SELECT visited_at FROM last_visits WHERE document = ?",
		key,
	).Scan(&visited)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, visited)
	if err != nil {
		return nil, fmt.Errorf("invalid last visit for %s: %w", key, err)
	}
	return &t, nil
}

// Set records t as the last visit of key.
func (s *Store) Set(ctx context.Context, key string, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO last_visits (document, visited_at, updated) VALUES (?, ?, ?)
		 ON CONFLICT(document) DO UPDATE SET visited_at = excluded.visited_at, updated = excluded.updated`,
		key, t.Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Reminded reports whether task was reminded on day.
func (s *Store) Reminded(ctx context.Context, document, task, day string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reminders WHERE document = ? AND task = ? AND day = ?",
		document, task, day,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkReminded records a reminder for task on day. Marking twice is a no-op.
func (s *Store) MarkReminded(ctx context.Context, document, task, day string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reminders (document, task, day, sent_at) VALUES (?, ?, ?, ?)`,
		document, task, day, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
