// Package watch re-runs a callback whenever a Kerberos configuration file or
// anything it includes changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/krb5audit/internal/logger"
	"github.com/marmos91/krb5audit/pkg/krb5conf"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher follows a configuration file and its include targets.
//
// Directories are watched rather than files so that editors which replace
// a file by rename are still seen. The set of watched paths is recomputed
// after every callback, picking up include directives added or removed.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher

	files   map[string]bool
	dirs    map[string]bool
	watched map[string]bool
}

// New creates a Watcher for root. A non-positive debounce selects
// DefaultDebounce.
func New(root string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		fsw:      fsw,
		watched:  make(map[string]bool),
	}, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Files returns the configuration files currently followed.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

// Run calls fn after each settled burst of changes until ctx is done. fn
// runs on the calling goroutine, so two calls never overlap.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context)) error {
	if err := w.refresh(); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			logger.DebugCtx(ctx, "Configuration changed", logger.Path(event.Name), "op", event.Op.String())
			timer.Reset(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			fn(ctx)
			if err := w.refresh(); err != nil {
				logger.WarnCtx(ctx, "Could not refresh watched files", logger.Err(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// relevant reports whether an event on name concerns the configuration.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	return w.dirs[filepath.Dir(name)]
}

// refresh recomputes the followed files and watches their directories.
// When the root cannot be read, its directory stays watched so that the
// root reappearing is noticed.
func (w *Watcher) refresh() error {
	files, dirs, err := krb5conf.Sources(w.root)
	if err != nil {
		logger.Warn("Configuration unreadable; waiting for it to reappear", logger.Path(w.root), logger.Err(err))
		files, dirs = []string{w.root}, nil
	}

	w.files = make(map[string]bool, len(files))
	w.dirs = make(map[string]bool, len(dirs))
	want := make(map[string]bool)
	for _, f := range files {
		f = filepath.Clean(f)
		w.files[f] = true
		want[filepath.Dir(f)] = true
	}
	for _, d := range dirs {
		d = filepath.Clean(d)
		w.dirs[d] = true
		want[d] = true
	}

	for dir := range want {
		if w.watched[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			// Typically a directory that does not exist yet.
			logger.Debug("Cannot watch directory", logger.Path(dir), logger.Err(err))
			continue
		}
		w.watched[dir] = true
	}
	for dir := range w.watched {
		if !want[dir] {
			_ = w.fsw.Remove(dir)
			delete(w.watched, dir)
		}
	}

	if len(w.watched) == 0 {
		return fmt.Errorf("nothing to watch for %s", w.root)
	}
	logger.Debug("Watching configuration", logger.Path(w.root), logger.Count(len(w.files)))
	return nil
}
