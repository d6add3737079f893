// Package watch recursively watches a store's root directory and fires a
// debounced callback when files change, so `lattice index --watch` can
// keep a store's tables current without the operator re-running index by
// hand. Trimmed down from the teacher's internal/watcher (file_watcher.go):
// same fsnotify.Watcher + recursive directory registration + debounce
// timer shape, without the teacher's directory-count/depth governors and
// pause/resume controls, which this single-process CLI command doesn't
// need.
package watch

import (
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/localcortex/lattice/internal/classify"
	"github.com/localcortex/lattice/internal/errkit"
)

// Watcher fires Callback after debounce has elapsed since the last change
// seen anywhere under root.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	callback func()

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// New creates a watcher over root (recursing into every non-ignored
// subdirectory) that invokes callback no sooner than debounce after the
// last observed change.
func New(root string, debounce time.Duration, callback func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errkit.Wrap(errkit.Fatal, "create file watcher", err)
	}

	w := &Watcher{watcher: fw, debounce: debounce, callback: callback, done: make(chan struct{})}
	if err := w.addRecursive(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && classify.IsIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run blocks, dispatching debounced callbacks, until Stop is called.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.schedule()
			}
		case <-w.watcher.Errors:
			// individual watch errors don't stop the loop; the next
			// successful event still triggers a re-index.
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.callback)
}

// Stop closes the underlying fsnotify watcher and stops any pending timer.
func (w *Watcher) Stop() {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.watcher.Close()
}
