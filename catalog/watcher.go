// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/openxosc/xosc-core/logging"
	"github.com/openxosc/xosc-core/xosc"
)

const invalidatingOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watcher invalidates cached catalog content when catalog files in watched
// directories change. Only explicit changes invalidate; nothing expires by
// age.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu       sync.Mutex
	onChange []func(path string)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger. The default discards output.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a watcher that invalidates entries in the loader's
// cache. Call Close to release the underlying watch handles.
func NewWatcher(loader *Loader, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{loader: loader, watcher: fw}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.Discard()
	}
	return w, nil
}

// Add watches the catalog directory dir. The path must be a literal.
func (w *Watcher) Add(dir xosc.Directory) error {
	path, ok := dir.Path.Get()
	if !ok {
		return &DiscoveryError{
			Path:   dir.Path.String(),
			Reason: "parameterized directory paths are not supported",
		}
	}
	if err := w.watcher.Add(filepath.Clean(path)); err != nil {
		return &DiscoveryError{Path: path, Reason: "cannot watch directory", Err: err}
	}
	return nil
}

// OnChange registers fn to be called after the cache entries of a changed
// catalog file have been invalidated.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&invalidatingOps == 0 || !w.loader.IsCatalogFile(event.Name) {
				continue
			}
			w.invalidate(filepath.Clean(event.Name), event.Op)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

func (w *Watcher) invalidate(path string, op fsnotify.Op) {
	removed := w.loader.Cache().InvalidateFile(path)
	w.logger.Debug("catalog file changed", "path", path, "op", op.String(), "invalidated", removed)

	w.mu.Lock()
	callbacks := make([]func(string), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(path)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
