// Package watch re-runs a callback when any of a set of files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/entql/internal/debug"
)

// DefaultDebounce is how long a burst of events must settle before the
// callback runs.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches files for changes
type Watcher struct {
	files    map[string]bool
	callback func() error
	watcher  *fsnotify.Watcher
	debounce time.Duration
	// OnError receives callback and watcher errors; they never stop the
	// watch loop.
	OnError func(error)
}

// NewWatcher creates a watcher over files. Their directories are
// watched so editors that replace files on save are still seen.
func NewWatcher(callback func() error, files ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		callback: callback,
		watcher:  fw,
		debounce: DefaultDebounce,
		OnError:  func(err error) { debug.Warn("watch error", "error", err) },
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch directory: %w", err)
		}
	}
	return w, nil
}

// SetDebounce changes the settle interval.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run calls the callback once, then again after every change, until ctx
// is done. The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.callback(); err != nil {
		w.OnError(err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var settle <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.files[path] {
				continue
			}
			debug.Debug("file changed", "path", path, "op", event.Op.String())
			timer.Reset(w.debounce)
			settle = timer.C

		case <-settle:
			settle = nil
			if err := w.callback(); err != nil {
				w.OnError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.OnError(err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
