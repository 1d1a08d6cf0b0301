package devloop

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher produces batches of changed paths until ctx is done. Run must not
// close batches; the caller owns the channel.
type Watcher interface {
	Run(ctx context.Context, batches chan<- []string) error
}

// ErrNothingToWatch is returned when none of the configured watch paths exist.
var ErrNothingToWatch = errors.New("none of the watch paths exist")

// FSWatcher is an fsnotify backed Watcher that watches directories
// recursively and debounces events into batches.
type FSWatcher struct {
	paths    []string
	debounce time.Duration
	logger   *slog.Logger
	warn     func(format string, args ...any)
}

// FSWatcherOption configures an FSWatcher.
type FSWatcherOption func(*FSWatcher)

// WithWatchLogger sets the logger used for watcher diagnostics.
func WithWatchLogger(logger *slog.Logger) FSWatcherOption {
	return func(w *FSWatcher) {
		w.logger = logger
	}
}

// WithWarnFunc sets where user-facing warnings (missing paths) are sent.
func WithWarnFunc(fn func(format string, args ...any)) FSWatcherOption {
	return func(w *FSWatcher) {
		w.warn = fn
	}
}

// NewFSWatcher watches paths, resolved against root when relative.
func NewFSWatcher(root string, paths []string, debounce time.Duration, opts ...FSWatcherOption) *FSWatcher {
	abs := make([]string, 0, len(paths))

	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}

		abs = append(abs, filepath.Clean(p))
	}

	w := &FSWatcher{
		paths:    abs,
		debounce: debounce,
		logger:   slog.Default(),
		warn:     func(string, ...any) {},
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run adds all watch paths and forwards debounced batches until ctx is done.
func (w *FSWatcher) Run(ctx context.Context, batches chan<- []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0

	for _, p := range w.paths {
		info, statErr := os.Stat(p)
		if statErr != nil {
			w.warn("Watch path %s does not exist, skipping.", p)
			continue
		}

		if info.IsDir() {
			err = addRecursive(watcher, p)
		} else {
			err = watcher.Add(p)
		}

		if err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}

		watched++
	}

	if watched == 0 {
		return ErrNothingToWatch
	}

	done := make(chan struct{})
	defer close(done)

	ready := make(chan []string)

	debouncer := NewDebouncer(w.debounce, func(paths []string) {
		select {
		case ready <- paths:
		case <-done:
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case paths := <-ready:
			select {
			case batches <- paths:
			case <-ctx.Done():
				return nil
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				continue
			}

			// New directories are watched as they appear; hidden ones are
			// skipped like at startup.
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if skipDir(filepath.Base(event.Name)) {
						continue
					}

					if addErr := addRecursive(watcher, event.Name); addErr != nil {
						w.logger.Debug("watching new directory failed",
							slog.String("path", event.Name), slog.String("error", addErr.Error()))
					}
				}
			}

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// addRecursive walks root and adds all non-hidden directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}

// skipDir reports whether a directory is hidden or a cache and must not be
// watched.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || IsIgnored(name)
}

// isRelevant keeps content-changing operations only.
func isRelevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	return !IsIgnored(event.Name)
}
