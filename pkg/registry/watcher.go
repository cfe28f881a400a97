package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/devmock/devmock/pkg/logging"
)

// Watcher re-scans the mock directory when anything inside it changes.
// Events are debounced so an editor save producing several writes
// triggers a single reload.
type Watcher struct {
	dir      string
	loader   *Loader
	onReload func(*LoadResult)
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewWatcher creates a watcher over dir. Each completed re-scan is
// delivered to onReload.
func NewWatcher(dir string, loader *Loader, onReload func(*LoadResult)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		dir:      dir,
		loader:   loader,
		onReload: onReload,
		logger:   logging.Nop(),
		watcher:  fsw,
		debounce: 300 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetLogger replaces the watcher's logger.
func (w *Watcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// SetDebounce changes the event coalescing window. Must be called before
// Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Start watches the directory tree and runs the event loop until the
// context is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.started = true
	go w.run(ctx)
	return nil
}

// addTree registers root and every subdirectory with the fs watcher.
// Subdirectories that vanish mid-walk are skipped; a missing root is an
// error.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			if path == root {
				return err
			}
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New subdirectories must be added or changes inside them
			// would go unseen.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			w.logger.Debug("mock file event", "op", event.Op.String(), "path", event.Name)
			dirty = true
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			w.reload()
		}
	}
}

// reload re-scans the whole directory and hands the result to onReload.
func (w *Watcher) reload() {
	result, err := w.loader.Load(w.dir)
	if err != nil {
		w.logger.Error("reload failed", "dir", w.dir, "error", err)
		return
	}
	w.logger.Info("reloaded mock directory",
		"routes", len(result.Routes),
		"files", result.FileCount,
		"errors", len(result.Errors),
	)
	if w.onReload != nil {
		w.onReload(result)
	}
}

// Stop halts the event loop and releases the fs watcher. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
		if w.started {
			<-w.doneCh
		}
	})
}
