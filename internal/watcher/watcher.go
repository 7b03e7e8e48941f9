// Package watcher organizes files as they appear in a directory.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fenilsonani/fileflow/internal/logger"
	"github.com/fenilsonani/fileflow/internal/organizer"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the settle time used when none is configured
const DefaultDebounce = 2 * time.Second

// Summary contains stats from a watch session
type Summary struct {
	Organized int
	Skipped   int
	Failed    int
	Dropped   int // paths still settling when the watch stopped
	Outcomes  []organizer.MoveOutcome
	Duration  time.Duration
}

// Handler organizes one settled path
type Handler func(path string) organizer.MoveOutcome

// Watcher monitors the top level of one directory. Created or written
// files are handed to the handler once they stop changing.
type Watcher struct {
	root     string
	debounce time.Duration
	handler  Handler
	ignore   func(path string) bool
	log      *logger.Logger

	mu      sync.Mutex
	summary Summary
}

// New creates a Watcher. ignore may be nil.
func New(root string, debounce time.Duration, handler Handler, ignore func(path string) bool, log *logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if ignore == nil {
		ignore = func(string) bool { return false }
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		handler:  handler,
		ignore:   ignore,
		log:      log,
	}
}

// Run watches until ctx is cancelled and returns the session summary.
// Pending paths that have not settled by then are dropped.
func (w *Watcher) Run(ctx context.Context) (*Summary, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsWatcher.Close()

	absRoot, err := filepath.Abs(w.root)
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(absRoot); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", absRoot, err)
	}

	start := time.Now()
	debouncer := NewDebouncer(w.debounce, w.handle)
	w.log.Info("Watching %s (debounce %s)", absRoot, w.debounce)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case event, ok := <-fsWatcher.Events:
			if !ok {
				break loop
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if w.ignore(event.Name) {
				w.log.Debug("Ignoring %s", event.Name)
				continue
			}
			debouncer.Add(event.Name)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				break loop
			}
			w.log.Warn("Watch error: %v", err)
		}
	}

	dropped := debouncer.PendingCount()
	if dropped > 0 {
		w.log.Info("Stopping with %d paths still settling", dropped)
	}
	debouncer.CancelAll()
	debouncer.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	summary := w.summary
	summary.Dropped = dropped
	summary.Outcomes = append([]organizer.MoveOutcome(nil), w.summary.Outcomes...)
	summary.Duration = time.Since(start)
	return &summary, nil
}

func (w *Watcher) handle(path string) {
	out := w.handler(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	switch out.Status {
	case organizer.Moved:
		w.summary.Organized++
		w.log.Info("Moved %s -> %s", out.Source, out.Destination)
	case organizer.Failed:
		w.summary.Failed++
		w.log.Error("Failed to organize %s: %v", out.Source, out.Err)
	default:
		w.summary.Skipped++
		w.log.Debug("Skipped %s: %s", out.Source, out.Reason)
	}
	w.summary.Outcomes = append(w.summary.Outcomes, out)
}
