// Package shutdown stops long-running sessions (watch, tui) on a signal or
// deadline and releases what they hold: file watchers, open databases.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"notecraft/internal/utils"
)

// CleanupFunc releases one resource. ctx is done when the cleanup deadline passes.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager cancels a session context and runs registered cleanups once.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
	ran      bool
}

// NewManager returns a Manager whose context is derived from parent.
func NewManager(parent context.Context) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{ctx: ctx, cancel: cancel}
}

// RegisterCleanup adds fn; cleanups run in LIFO order.
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Context is cancelled by Shutdown, by a watched signal or with its parent.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Shutdown cancels the session context. Safe to call more than once.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		utils.Debugf("shutdown requested")
		m.cancel()
	})
}

// IsShutdown reports whether the session context is done.
func (m *Manager) IsShutdown() bool {
	return m.ctx.Err() != nil
}

// ListenForSignals calls Shutdown when one of signals arrives. The returned
// function stops listening.
func (m *Manager) ListenForSignals(signals ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			utils.Debugf("received %s", sig)
			m.Shutdown()
		case <-done:
		}
	}()
	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// Cleanup runs the registered cleanups, last registered first. Only the
// first call runs them. A failing cleanup does not stop the others; the
// errors are joined. Cleanup returns ctx.Err() if ctx ends first.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	if m.ran {
		m.mu.Unlock()
		return nil
	}
	m.ran = true
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	m.Shutdown()

	result := make(chan error, 1)
	go func() {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			c := cleanups[i]
			if err := c.fn(ctx); err != nil {
				utils.Warnf("cleanup %s failed: %v", c.name, err)
				errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			}
		}
		result <- errors.Join(errs...)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
