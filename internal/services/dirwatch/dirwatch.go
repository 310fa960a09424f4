// Package dirwatch watches a directory for changes to files with a given
// extension and reports them after a quiet period.
package dirwatch

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/authquota/internal/logger"
)

// DefaultDebounce is the quiet period used when none is given.
const DefaultDebounce = 100 * time.Millisecond

// Watcher debounces fsnotify events for one directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange func()
	onError  func(error)
	stopChan chan struct{}
	timer    *time.Timer
	ext      string
	debounce time.Duration
	mu       sync.Mutex
	stopped  bool
}

// Start watches dir. onChange runs on its own goroutine once events for files
// ending in ext stop arriving for debounce. onError may be nil.
func Start(dir, ext string, debounce time.Duration, onChange func(), onError func(error)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		onError:  onError,
		stopChan: make(chan struct{}),
		ext:      strings.ToLower(ext),
		debounce: debounce,
	}
	go w.loop()
	return w, nil
}

// Matches reports whether path has the watched extension.
func (w *Watcher) Matches(path string) bool {
	return w.ext == "" || strings.ToLower(filepath.Ext(path)) == w.ext
}

func (w *Watcher) loop() {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.Matches(event.Name) || event.Op&relevant == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-w.stopChan:
			return
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

// Close stops watching. Pending callbacks are cancelled.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.stopChan)
	return w.watcher.Close()
}
