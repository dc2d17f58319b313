package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Watcher hot-reloads instruction overrides when the overrides file changes.
// Only instruction text is reloaded; the pipeline shape is fixed for the
// process lifetime, so runs already in flight are unaffected beyond the
// instructions of stages that have not yet executed.
type Watcher struct {
	registry *Registry
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	stop     chan struct{}
}

// NewWatcher creates a watcher for the given overrides file.
func NewWatcher(r *Registry, path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	return &Watcher{
		registry: r,
		path:     path,
		watcher:  fw,
		logger:   logger,
		stop:     make(chan struct{}),
	}, nil
}

// Start applies the current file contents and begins watching for changes.
// Reload failures are logged and skipped; the last good instructions stay in
// effect.
func (w *Watcher) Start(ctx context.Context) error {
	if err := ApplyOverrides(w.registry, w.path); err != nil {
		return fmt.Errorf("initial overrides load: %w", err)
	}

	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("watching overrides file: %w", err)
	}

	go w.loop(ctx)
	return nil
}

// Stop releases the filesystem watcher.
func (w *Watcher) Stop() error {
	close(w.stop)
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := ApplyOverrides(w.registry, w.path); err != nil {
				w.logger.Warn("overrides reload failed, keeping previous instructions",
					zap.String("path", w.path),
					zap.Error(err))
				continue
			}
			w.logger.Info("role instructions reloaded", zap.String("path", w.path))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("overrides watcher error", zap.Error(err))
		}
	}
}
