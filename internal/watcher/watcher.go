// Package watcher reloads environment settings when files under the
// environments directory change.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Invalidator drops cached state, typically an environment registry
type Invalidator interface {
	Invalidate()
}

// Watcher watches a directory and its immediate subdirectories
type Watcher struct {
	root     string
	onChange func(path string)
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a new directory watcher
func New(root string, onChange func(path string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:     root,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		logger:   logger,
	}
}

// ForRegistry creates a watcher that invalidates target on any change,
// then calls notify if it is non-nil.
func ForRegistry(root string, target Invalidator, notify func(path string), logger *slog.Logger) *Watcher {
	return New(root, func(path string) {
		target.Invalidate()
		if notify != nil {
			notify(path)
		}
	}, logger)
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch starts watching for changes.
// It blocks until the context is cancelled or an error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.root); err != nil {
		return err
	}
	w.addSubdirs(fsw)

	w.logger.Info("watching environments", "root", w.root)

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
		lastPath      string
	)

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			// New environment directories need their own watch
			if event.Op&fsnotify.Create != 0 && filepath.Dir(event.Name) == filepath.Clean(w.root) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						w.logger.Warn("failed to watch directory", "dir", event.Name, "error", err)
					}
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			lastPath = event.Name
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				mu.Lock()
				path := lastPath
				mu.Unlock()
				w.logger.Info("environment changed", "path", path)
				w.onChange(path)
			})
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			mu.Unlock()
			return ctx.Err()
		}
	}
}

func (w *Watcher) addSubdirs(fsw *fsnotify.Watcher) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		w.logger.Warn("failed to list environments", "root", w.root, "error", err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(w.root, e.Name())
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}
}
