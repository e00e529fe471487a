package fixture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports edits of the fixture file. It exists for debugging test
// runs: replies never depend on it, since Load is called on every request.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	notify  func(op fsnotify.Op)
}

// NewWatcher starts watching dir. The directory is watched rather than the
// file so that editors replacing the file by rename are still seen.
// notify is called from Run's goroutine for every event touching the fixture
// file; nil logs at debug level.
func NewWatcher(dir string, notify func(op fsnotify.Op)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if notify == nil {
		path := Path(dir)
		notify = func(op fsnotify.Op) {
			slog.Debug("fixture changed", "path", path, "op", op.String())
		}
	}
	return &Watcher{dir: dir, watcher: w, notify: notify}, nil
}

// Run delivers events until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	path := Path(w.dir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name == path {
				w.notify(event.Op)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("fixture watcher error", "error", err)
		}
	}
}
