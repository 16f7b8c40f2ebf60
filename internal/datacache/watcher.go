package datacache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"parlacorpus/internal/logging"
)

// Invalidator drops cached state for a path.
type Invalidator interface {
	Invalidate(path string)
}

// Watcher invalidates cache entries when their files change. It watches
// parent directories so that editors replacing a file by rename are seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	target  Invalidator
	logger  *slog.Logger
	changes chan string

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}
}

// NewWatcher creates a watcher that forwards changes to target.
func NewWatcher(target Invalidator, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		watcher: fw,
		target:  target,
		logger:  logging.NewComponentLogger(logger, "datacache"),
		changes: make(chan string, 1),
		files:   make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
	}, nil
}

// Add starts tracking path.
func (w *Watcher) Add(path string) error {
	abs, err := normalize(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; !ok {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs[dir] = struct{}{}
	}
	w.files[abs] = struct{}{}
	return nil
}

// Changes delivers the path of a tracked file after it changed. Bursts of
// events are coalesced when the receiver is slower than the writer.
func (w *Watcher) Changes() <-chan string {
	return w.changes
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
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error",
				logging.String(logging.FieldEventType, "watch_error"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "cached data may be stale until the next change"),
			)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)
	w.mu.Lock()
	_, tracked := w.files[path]
	w.mu.Unlock()
	if !tracked {
		return
	}

	w.target.Invalidate(path)
	w.logger.Debug("cache entry invalidated",
		logging.String(logging.FieldFile, path),
		logging.String("op", event.Op.String()),
	)
	select {
	case w.changes <- path:
	default:
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
