// Package watcher reruns analysis when its input files change.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"modcheck/internal/shared/observability"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a fixed set of files. Parent directories are
// watched so editors that replace files atomically are still seen. A write
// that leaves the content unchanged is not reported.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	onChange   func([]string)
	callbackMu sync.Mutex

	targets map[string]bool
	hashes  map[string]uint64

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
	done      chan struct{}
	closeOnce sync.Once
}

func NewWatcher(debounce time.Duration, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		onChange:  onChange,
		targets:   make(map[string]bool),
		hashes:    make(map[string]uint64),
		pending:   make(map[string]time.Time),
		done:      make(chan struct{}),
	}, nil
}

// Watch starts watching files. It returns once the watches are installed.
func (w *Watcher) Watch(files []string) error {
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		w.targets[abs] = true
		if sum, ok := hashFile(abs); ok {
			w.hashes[abs] = sum
		}
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			name, err := filepath.Abs(event.Name)
			if err != nil || !w.targets[name] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		if w.changed(path) {
			paths = append(paths, path)
		}
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	select {
	case <-w.done:
		return
	default:
	}
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

// changed compares the current content hash with the last seen one. Callers
// hold pendingMu.
func (w *Watcher) changed(path string) bool {
	sum, ok := hashFile(path)
	prev, seen := w.hashes[path]
	switch {
	case !ok && !seen:
		return false
	case !ok:
		delete(w.hashes, path)
		return true
	default:
		w.hashes[path] = sum
		return !seen || prev != sum
	}
}

func hashFile(path string) (uint64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(data), true
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.pendingMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.pendingMu.Unlock()
		err = w.fsWatcher.Close()
	})
	return err
}
