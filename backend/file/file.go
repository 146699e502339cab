// Package file implements a DocumentStore backed by a plain text file.
// Writes go through a sidecar lock file and an atomic rename, so external
// readers never see a half-written document.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"

	"notecraft/backend"
	"notecraft/internal/edit"
	"notecraft/internal/utils"
)

const (
	lockSuffix     = ".lock"
	lockRetryDelay = 50 * time.Millisecond
	filePerms      = 0o644
)

// Config holds file store configuration
type Config struct {
	FilePath string // Path to the document
	// LockTimeout bounds the wait for the lock. Zero means 5 seconds.
	LockTimeout time.Duration
}

// Store implements backend.DocumentStore for one file.
type Store struct {
	// mu serializes goroutines sharing the store; the file lock only
	// excludes other processes.
	mu      sync.Mutex
	path    string
	lock    *flock.Flock
	timeout time.Duration
}

var _ backend.DocumentStore = (*Store)(nil)

// New creates a store for cfg.FilePath. Relative paths are resolved
// against the working directory.
func New(cfg Config) (*Store, error) {
	path := cfg.FilePath
	if path == "" {
		return nil, errors.New("file path is required")
	}
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		path = abs
	}
	timeout := cfg.LockTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{
		path:    path,
		lock:    flock.New(path + lockSuffix),
		timeout: timeout,
	}, nil
}

// Path returns the absolute path of the document.
func (s *Store) Path() string {
	return s.path
}

// Read returns the document text.
func (s *Store) Read(ctx context.Context) (string, error) {
	unlock, err := s.acquire(ctx, false)
	if err != nil {
		return "", err
	}
	defer unlock()
	return s.read()
}

// Apply applies b if the file still holds snapshot.
func (s *Store) Apply(ctx context.Context, snapshot string, b *edit.Batch) (string, error) {
	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return "", err
	}
	defer unlock()

	// A missing file is the empty snapshot, so the first edit creates it.
	current, err := s.read()
	if err != nil && !(errors.Is(err, backend.ErrNotFound) && snapshot == "") {
		return "", err
	}
	out, err := backend.ApplySnapshot(current, snapshot, b)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.path, err)
	}
	if out == current {
		return out, nil
	}
	if err := s.write(out); err != nil {
		return "", err
	}
	if b != nil {
		utils.Debugf("applied batch %s (%d edits) to %s", b.ID, b.Len(), s.path)
	}
	return out, nil
}

// Append adds lines to the end of the file, creating it when missing.
func (s *Store) Append(ctx context.Context, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.read()
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		return err
	}
	if err := s.write(backend.AppendLines(current, lines)); err != nil {
		return err
	}
	utils.Debugf("appended %d lines to %s", len(lines), s.path)
	return nil
}

func (s *Store) read() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", s.path, backend.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return string(data), nil
}

func (s *Store) write(text string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", s.path, err)
	}
	_, statErr := os.Stat(s.path)
	if err := atomic.WriteFile(s.path, strings.NewReader(text)); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	// atomic.WriteFile does not set permissions on new files
	if errors.Is(statErr, fs.ErrNotExist) {
		if err := os.Chmod(s.path, filePerms); err != nil {
			return fmt.Errorf("failed to set permissions on %s: %w", s.path, err)
		}
	}
	return nil
}

// acquire takes the shared or exclusive lock, waiting at most the
// configured timeout.
func (s *Store) acquire(ctx context.Context, exclusive bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", s.path, err)
	}
	s.mu.Lock()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = s.lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = s.lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil || !locked {
		s.mu.Unlock()
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, fmt.Errorf("failed to lock %s: %w", s.path, err)
	}
	return func() {
		_ = s.lock.Unlock()
		s.mu.Unlock()
	}, nil
}
