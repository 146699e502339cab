// Package watcher reports changes of a task document on disk. Bursts of
// events are debounced into one callback so the document is re-parsed
// once per external edit.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"notecraft/internal/utils"
)

// DefaultDebounceDuration is how long the document must stay quiet before
// OnChange runs.
const DefaultDebounceDuration = 200 * time.Millisecond

var errStopped = errors.New("watcher has been stopped and cannot be restarted")

type Config struct {
	Path             string
	DebounceDuration time.Duration
	// OnChange runs on the watcher goroutine with the absolute document path.
	OnChange func(path string)
}

func DefaultConfig(path string, onChange func(path string)) *Config {
	return &Config{Path: path, DebounceDuration: DefaultDebounceDuration, OnChange: onChange}
}

// Watcher follows a single document.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(string)
	fsw      *fsnotify.Watcher

	mu       sync.Mutex
	running  bool
	closed   bool
	quit     chan struct{}
	finished chan struct{}
}

func New(cfg *Config) (*Watcher, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, errors.New("watch path is required")
	}
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", cfg.Path, err)
	}
	debounce := cfg.DebounceDuration
	if debounce <= 0 {
		debounce = DefaultDebounceDuration
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		onChange: cfg.OnChange,
		fsw:      fsw,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}, nil
}

// Start subscribes to the document's directory: editors and atomic writers
// replace the file, which drops a watch on the file itself.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.closed:
		return errStopped
	case w.running:
		return nil
	}
	dir := filepath.Dir(w.path)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch path %q: %w", dir, err)
	}
	w.running = true
	go w.loop()
	return nil
}

// Stop ends the watch and returns once no OnChange call is in flight.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	running := w.running
	close(w.quit)
	_ = w.fsw.Close()
	w.mu.Unlock()

	if running {
		<-w.finished
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) loop() {
	defer close(w.finished)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-w.quit:
			timer.Stop()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			timer.Reset(w.debounce)
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			utils.Warnf("watching %s: %v", w.path, err)

		case <-fire:
			fire = nil
			utils.Debugf("%s changed", w.path)
			if w.onChange != nil {
				w.onChange(w.path)
			}
		}
	}
}
