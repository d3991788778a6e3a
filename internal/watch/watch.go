// Package watch reports batches of filesystem changes below a set of paths.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/recap-org/tgen/internal/logging"
)

// DefaultDebounce is how long the tree must be quiet before a batch is
// delivered.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches directories recursively and individual files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	roots []string        // recursive directories
	files map[string]bool // single files, watched through their parent

	mu      sync.Mutex
	watched map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New watches every path. Directories are watched with all their
// descendants, including directories created later; files are watched
// individually. Paths that do not exist are skipped.
func New(paths []string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  fw,
		debounce: DefaultDebounce,
		files:    map[string]bool{},
		watched:  map[string]bool{},
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range paths {
		p = filepath.Clean(p)
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			fw.Close()
			return nil, err
		}
		if info.IsDir() {
			w.roots = append(w.roots, p)
			if err := w.addTree(p); err != nil {
				fw.Close()
				return nil, err
			}
			continue
		}
		w.files[p] = true
		if err := w.add(filepath.Dir(p)); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Watched returns the directories currently registered, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := make([]string, 0, len(w.watched))
	for dir := range w.watched {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Run calls fn with each batch of changed paths until ctx is done. Errors
// from fn are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed []string) error) error {
	logger := logging.FromContext(ctx)

	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod || !w.relevant(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						logger.Warn("watching new directory", "dir", event.Name, "error", err)
					}
				}
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			logger.Debug("changes detected", "paths", changed)
			if err := fn(ctx, changed); err != nil {
				logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	for _, root := range w.roots {
		if name == root || strings.HasPrefix(name, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addTree registers dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.add(path)
	})
}

func (w *Watcher) add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.watched[dir] = true
	return nil
}
