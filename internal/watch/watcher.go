package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before refreshing.
const DefaultDebounce = 250 * time.Millisecond

// Refresher reloads project state when the document changed on disk.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// Watcher refreshes a project when its metadata document changes.
type Watcher struct {
	path     string
	target   Refresher
	debounce time.Duration
	logger   *slog.Logger
	watched  string

	mu      sync.Mutex
	timer   *time.Timer
	pending chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher returns a watcher for the document at path.
func NewWatcher(path string, target Refresher, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.FileSystemError("failed to resolve metadata path").WithCause(err).WithContext("path", path).Build()
	}
	w := &Watcher{
		path:     abs,
		target:   target,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		pending:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is done. The directory holding the document is
// watched, since editors and atomic saves replace the file itself. While
// that directory does not exist its nearest existing ancestor is watched
// instead; Run never creates directories.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.FileSystemError("failed to create file watcher").WithCause(err).Build()
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	ready, err := w.attach(fw)
	if err != nil {
		return err
	}
	w.logAttached(ctx, ready)

	name := filepath.Base(w.path)
	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Name == w.watched || (!ready && onPath(event.Name, dir)) {
				wasReady := ready
				if ready, err = w.attach(fw); err != nil {
					return err
				}
				if ready != wasReady {
					w.logAttached(ctx, ready)
					w.schedule(ctx)
				}
				continue
			}
			if !ready || filepath.Dir(event.Name) != dir || filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.logger.DebugContext(ctx, "Metadata change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				w.schedule(ctx)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.ErrorContext(ctx, "Metadata watcher error", logfields.Error(err))
		case <-w.pending:
			w.refresh(ctx)
		}
	}
}

// attach moves the watch to the deepest existing directory on the way to the
// document and reports whether that is the document's own directory.
func (w *Watcher) attach(fw *fsnotify.Watcher) (bool, error) {
	target := filepath.Dir(w.path)
	dir := target
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false, errors.FileSystemError("no existing directory to watch").WithContext("path", target).Build()
		}
		dir = parent
	}
	if dir == w.watched {
		return dir == target, nil
	}
	if err := fw.Add(dir); err != nil {
		return false, errors.FileSystemError("failed to watch metadata directory").WithCause(err).WithContext("path", dir).Build()
	}
	if w.watched != "" {
		_ = fw.Remove(w.watched)
	}
	w.watched = dir
	return dir == target, nil
}

func (w *Watcher) logAttached(ctx context.Context, ready bool) {
	if ready {
		w.logger.InfoContext(ctx, "Watching facet metadata", logfields.Path(w.path))
		return
	}
	w.logger.InfoContext(ctx, "Metadata directory missing, waiting for it", logfields.Path(w.watched))
}

// onPath reports whether name is dir or one of its ancestors.
func onPath(name, dir string) bool {
	return name == dir || strings.HasPrefix(dir, name+string(filepath.Separator))
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		select {
		case w.pending <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	reloaded, err := w.target.Refresh(ctx)
	switch {
	case err != nil:
		w.logger.ErrorContext(ctx, "Failed to refresh facet project", logfields.Error(err))
	case reloaded:
		w.logger.InfoContext(ctx, "Facet project refreshed from disk", logfields.Path(w.path))
	}
}
