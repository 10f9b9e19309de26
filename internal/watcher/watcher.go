// Package watcher delivers debounced batches of changed source paths.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch is delivered.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors a directory tree and reports changed files in batches.
type Watcher interface {
	// Start begins watching, calling callback with each debounced batch of
	// absolute paths, sorted.
	Start(ctx context.Context, callback func(paths []string)) error

	// Stop stops the watcher and waits for the event loop to exit.
	Stop() error

	// Pause holds batches back while still accumulating events.
	Pause()

	// Resume delivers anything accumulated while paused.
	Resume()
}

// Options configures a Watcher.
type Options struct {
	// Match reports whether a changed file is of interest. Nil matches all.
	Match func(path string) bool

	// SkipDir reports whether a directory should not be watched.
	SkipDir func(path string) bool

	// Debounce overrides DefaultDebounce.
	Debounce time.Duration
}

type fsWatcher struct {
	fs       *fsnotify.Watcher
	opts     Options
	callback func(paths []string)
	cancel   context.CancelFunc

	mu      sync.Mutex
	paused  bool
	pending map[string]bool
	timer   *time.Timer

	// fire wakes the loop to deliver the pending batch. Callbacks only run
	// on the loop goroutine.
	fire chan struct{}

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New watches root and every directory below it.
func New(root string, opts Options) (Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &fsWatcher{
		fs:      fs,
		opts:    opts,
		pending: make(map[string]bool),
		fire:    make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
	}

	if err := w.addTree(root); err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

func (w *fsWatcher) Start(ctx context.Context, callback func(paths []string)) error {
	if callback == nil {
		return nil
	}
	w.callback = callback

	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx)
	return nil
}

func (w *fsWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.fs.Close()
	})
	return err
}

func (w *fsWatcher) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
}

func (w *fsWatcher) Resume() {
	w.mu.Lock()
	wasPaused := w.paused
	w.paused = false
	w.mu.Unlock()

	if wasPaused {
		w.wake()
	}
}

// wake schedules a flush on the loop goroutine.
func (w *fsWatcher) wake() {
	select {
	case w.fire <- struct{}{}:
	default:
	}
}

func (w *fsWatcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !w.relevant(event) {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = true
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.opts.Debounce, w.wake)
			w.mu.Unlock()

		case <-w.fire:
			w.mu.Lock()
			paused := w.paused
			w.mu.Unlock()
			if !paused {
				w.flush()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: file watcher error: %v", err)
		}
	}
}

// flush hands the pending batch to the callback.
func (w *fsWatcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(paths)
	if w.callback != nil {
		w.callback(paths)
	}
}

func (w *fsWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.opts.Match == nil {
		return true
	}
	return w.opts.Match(event.Name)
}

func (w *fsWatcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.opts.SkipDir != nil && w.opts.SkipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
