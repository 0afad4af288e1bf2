package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// bundleWatcher reloads the shell when the bundle file changes on disk.
// Bursts of events (editors often write a file several times on save) are
// collapsed into one reload.
type bundleWatcher struct {
	path     string
	debounce time.Duration
	reload   func(context.Context) error
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	// pending counts scheduled or running reloads.
	pending sync.WaitGroup
}

func newBundleWatcher(path string, debounce time.Duration, reload func(context.Context) error, logger *slog.Logger) (*bundleWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("bundle watcher: bad path %q: %w", path, err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &bundleWatcher{path: absPath, debounce: debounce, reload: reload, logger: logger}, nil
}

// Start watches the bundle's directory rather than the file itself so that
// atomic saves (write temp, rename over) are still seen.
func (w *bundleWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("bundle watcher: create: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("bundle watcher: watch %q: %w", filepath.Dir(w.path), err)
	}
	w.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(watchCtx)

	w.logger.Info("watching bundle", "path", w.path)
	return nil
}

func (w *bundleWatcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			if absPath != w.path {
				continue
			}
			w.schedule(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("bundle watcher error", "error", err)
		}
	}
}

func (w *bundleWatcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		if ctx.Err() != nil {
			return
		}
		w.logger.Info("bundle changed, reloading", "path", w.path)
		if err := w.reload(ctx); err != nil {
			w.logger.Error("bundle reload failed", "path", w.path, "error", err)
		}
	})
}

// Stop ends the watch loop, cancels a pending reload and waits for one that
// is already running.
func (w *bundleWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.watcher != nil {
		w.watcher.Close()
	}
	if w.done != nil {
		<-w.done
	}
	w.mu.Lock()
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.timer = nil
	w.mu.Unlock()
	w.pending.Wait()
}
