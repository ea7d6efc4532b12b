// Package watch delivers per-file save notifications.
//
// SaveWatcher wraps fsnotify and exposes individual file subscriptions:
// each subscriber registers one path and receives one debounced event per
// save, regardless of how many write operations the save produced. Parent
// directories are watched rather than the files themselves so that
// atomic-rename saves (write temp file, rename over target) are still
// observed.
package watch

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/inlay/logging"
)

// Common errors returned by watcher operations.
var (
	// ErrClosed is returned when operating on a closed watcher.
	ErrClosed = errors.New("save watcher is closed")
)

// SaveEvent reports that a watched file was saved.
type SaveEvent struct {
	// Path is the absolute path of the saved file.
	Path string

	// At is when the event was delivered.
	At time.Time
}

// Handler receives save events for one subscription.
type Handler func(SaveEvent)

// SaveWatcher watches individually subscribed files for saves.
type SaveWatcher struct {
	mu sync.Mutex

	fsw *fsnotify.Watcher

	// subs maps absolute file paths to their subscriptions.
	subs map[string][]*SaveSubscription

	// dirs refcounts watched parent directories.
	dirs map[string]int

	// pending holds the debounce timer per path.
	pending map[string]*time.Timer

	debounce time.Duration
	logger   *logging.Logger

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Option configures a SaveWatcher.
type Option func(*SaveWatcher)

// WithDebounce sets the coalescing window for rapid writes to one file.
func WithDebounce(d time.Duration) Option {
	return func(w *SaveWatcher) {
		w.debounce = d
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *logging.Logger) Option {
	return func(w *SaveWatcher) {
		w.logger = l
	}
}

// NewSaveWatcher creates a watcher and starts its event loop.
func NewSaveWatcher(opts ...Option) (*SaveWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &SaveWatcher{
		fsw:      fsw,
		subs:     make(map[string][]*SaveSubscription),
		dirs:     make(map[string]int),
		pending:  make(map[string]*time.Timer),
		debounce: 100 * time.Millisecond,
		logger:   logging.Discard(),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Subscribe registers a handler for saves of the given file.
// The file does not have to exist yet; its parent directory must.
func (w *SaveWatcher) Subscribe(path string, fn Handler) (*SaveSubscription, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}

	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return nil, err
		}
	}
	w.dirs[dir]++

	sub := &SaveSubscription{
		watcher: w,
		path:    abs,
		dir:     dir,
		fn:      fn,
	}
	w.subs[abs] = append(w.subs[abs], sub)

	return sub, nil
}

// Close stops the watcher. All pending events are dropped and all
// subscriptions become inert.
func (w *SaveWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)

	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// SubscriptionCount returns the number of active subscriptions.
func (w *SaveWatcher) SubscriptionCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, subs := range w.subs {
		n += len(subs)
	}
	return n
}

// run consumes fsnotify events until the watcher is closed.
func (w *SaveWatcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}

// handleEvent debounces write-like events on subscribed paths.
// Create covers atomic-rename saves where the target reappears.
func (w *SaveWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if _, ok := w.subs[path]; !ok {
		return
	}

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.fire(path)
	})
}

// fire delivers one save event to all subscribers of a path.
func (w *SaveWatcher) fire(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	if w.closed {
		w.mu.Unlock()
		return
	}
	subs := make([]*SaveSubscription, len(w.subs[path]))
	copy(subs, w.subs[path])
	w.mu.Unlock()

	event := SaveEvent{Path: path, At: time.Now()}
	for _, sub := range subs {
		sub.fn(event)
	}
}

// SaveSubscription represents one registered handler for one file.
type SaveSubscription struct {
	watcher *SaveWatcher
	path    string
	dir     string
	fn      Handler
	once    sync.Once
}

// Path returns the subscribed file path.
func (s *SaveSubscription) Path() string {
	return s.path
}

// Cancel removes the subscription. It is safe to call more than once and
// after the watcher is closed.
func (s *SaveSubscription) Cancel() {
	s.once.Do(func() {
		w := s.watcher

		w.mu.Lock()
		defer w.mu.Unlock()

		subs := w.subs[s.path]
		for i, sub := range subs {
			if sub == s {
				w.subs[s.path] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(w.subs[s.path]) == 0 {
			delete(w.subs, s.path)
			if timer, ok := w.pending[s.path]; ok {
				timer.Stop()
				delete(w.pending, s.path)
			}
		}

		w.dirs[s.dir]--
		if w.dirs[s.dir] <= 0 {
			delete(w.dirs, s.dir)
			if !w.closed {
				// Best effort: the directory may already be gone.
				_ = w.fsw.Remove(s.dir)
			}
		}
	})
}
