package filespace

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/dshills/inlay/config"
	"github.com/dshills/inlay/expire"
	"github.com/dshills/inlay/gitignore"
	"github.com/dshills/inlay/language"
	"github.com/dshills/inlay/logging"
	"github.com/dshills/inlay/suggestion"
	"github.com/dshills/inlay/watch"
)

// Common errors returned by registry operations.
var (
	// ErrRegistryClosed is returned when opening files on a shut-down
	// registry.
	ErrRegistryClosed = errors.New("registry is closed")

	// ErrNotOpen is returned when closing a file that is not open.
	ErrNotOpen = errors.New("file is not open")
)

// Registry owns one Filespace per open file in a workspace.
//
// The registry's mutex is the serialization domain for every Filespace it
// owns: all mutation and cache checks across all files of the workspace
// execute mutually exclusive. That includes the git-ignore check, which
// may perform I/O while holding the lock; the workspace accepts that
// stall in exchange for a single, simple ordering domain.
type Registry struct {
	mu         sync.Mutex
	filespaces map[string]*Filespace

	watcher     *watch.SaveWatcher
	ownsWatcher bool
	checker     gitignore.Checker
	classifier  *language.Classifier

	suggestionTTL time.Duration
	gitIgnoreTTL  time.Duration
	now           func() time.Time
	logger        *logging.Logger

	onOpen  []func(*Filespace)
	onSave  []func(*Filespace)
	onClose []func(path string)

	closed bool
}

// RegistryConfig configures a Registry. Zero-value fields fall back to
// defaults; a nil Watcher disables save notifications and a nil Checker
// makes IsGitIgnored return ErrNoChecker.
type RegistryConfig struct {
	Watcher       *watch.SaveWatcher
	Checker       gitignore.Checker
	Classifier    *language.Classifier
	SuggestionTTL time.Duration
	GitIgnoreTTL  time.Duration
	Logger        *logging.Logger

	// Clock overrides the time source. Used by tests.
	Clock func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.SuggestionTTL <= 0 {
		cfg.SuggestionTTL = suggestion.DefaultStaleAfter
	}
	if cfg.GitIgnoreTTL <= 0 {
		cfg.GitIgnoreTTL = DefaultGitIgnoreTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	return &Registry{
		filespaces:    make(map[string]*Filespace),
		watcher:       cfg.Watcher,
		checker:       cfg.Checker,
		classifier:    cfg.Classifier,
		suggestionTTL: cfg.SuggestionTTL,
		gitIgnoreTTL:  cfg.GitIgnoreTTL,
		now:           cfg.Clock,
		logger:        cfg.Logger,
	}
}

// NewRegistryFromConfig builds a production registry from loaded
// configuration: a real save watcher, the git binary checker, and a
// classifier carrying the configured language overrides. The registry
// owns the watcher and closes it on Shutdown.
func NewRegistryFromConfig(cfg config.Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Prefix: "inlay",
	})

	watcher, err := watch.NewSaveWatcher(
		watch.WithDebounce(cfg.SaveDebounce.Std()),
		watch.WithLogger(logger.WithComponent("watch")),
	)
	if err != nil {
		return nil, err
	}

	r := NewRegistry(RegistryConfig{
		Watcher:       watcher,
		Checker:       gitignore.NewGitChecker(),
		Classifier:    language.NewClassifier(language.WithOverrides(cfg.Languages)),
		SuggestionTTL: cfg.SuggestionTTL.Std(),
		GitIgnoreTTL:  cfg.GitIgnoreTTL.Std(),
		Logger:        logger,
	})
	r.ownsWatcher = true
	return r, nil
}

// Open returns the Filespace for path, constructing it on first use.
// Construction wires the save subscription and the close callback that
// evicts the entry from the registry.
func (r *Registry) Open(path string) (*Filespace, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if fs, ok := r.filespaces[abs]; ok {
		r.mu.Unlock()
		return fs, nil
	}

	fs := &Filespace{
		path:       abs,
		mu:         &r.mu,
		classifier: r.classifier,
		cursor: suggestion.NewCursor(
			suggestion.WithStaleAfter(r.suggestionTTL),
			suggestion.WithClock(r.now),
		),
		checker: r.checker,
		ignored: expire.NewValue[bool](r.gitIgnoreTTL),
		props:   make(map[any]any),
		now:     r.now,
	}
	fs.onSave = r.notifySave
	fs.onClose = r.handleClose

	if r.watcher != nil {
		sub, err := r.watcher.Subscribe(abs, fs.handleSave)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		fs.sub = sub
	}

	r.filespaces[abs] = fs
	openHandlers := append([]func(*Filespace){}, r.onOpen...)
	r.mu.Unlock()

	r.logger.Debug("opened filespace %s", abs)
	for _, handler := range openHandlers {
		handler(fs)
	}

	return fs, nil
}

// Get returns the Filespace for path if it is open.
func (r *Registry) Get(path string) (*Filespace, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fs, ok := r.filespaces[abs]
	return fs, ok
}

// Close disposes the Filespace for path and evicts it.
// Returns ErrNotOpen if the file is not open.
func (r *Registry) Close(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	fs, ok := r.filespaces[abs]
	r.mu.Unlock()

	if !ok {
		return ErrNotOpen
	}

	fs.Close()
	return nil
}

// CloseAll disposes every open Filespace.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	open := make([]*Filespace, 0, len(r.filespaces))
	for _, fs := range r.filespaces {
		open = append(open, fs)
	}
	r.mu.Unlock()

	for _, fs := range open {
		fs.Close()
	}
}

// Shutdown closes every Filespace, refuses further opens, and releases
// the watcher if the registry created it.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.CloseAll()

	if r.ownsWatcher && r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

// Count returns the number of open filespaces.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filespaces)
}

// Paths returns the paths of all open filespaces.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.filespaces))
	for path := range r.filespaces {
		paths = append(paths, path)
	}
	return paths
}

// OnOpen registers a handler called when a filespace is opened.
func (r *Registry) OnOpen(handler func(*Filespace)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onOpen = append(r.onOpen, handler)
}

// OnSave registers a handler called when an open file is saved on disk.
func (r *Registry) OnSave(handler func(*Filespace)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSave = append(r.onSave, handler)
}

// OnClose registers a handler called with the path when a filespace is
// disposed.
func (r *Registry) OnClose(handler func(path string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = append(r.onClose, handler)
}

// notifySave fans a save event out to registered handlers.
// Runs on the watcher's goroutine; handlers are invoked without the
// registry lock held so they may call back into the filespace.
func (r *Registry) notifySave(fs *Filespace) {
	r.mu.Lock()
	handlers := append([]func(*Filespace){}, r.onSave...)
	r.mu.Unlock()

	r.logger.Debug("file saved %s", fs.Path())
	for _, handler := range handlers {
		handler(fs)
	}
}

// handleClose evicts the entry and notifies close handlers. Invoked from
// Filespace.Close, which never holds the lock at that point.
func (r *Registry) handleClose(path string) {
	r.mu.Lock()
	delete(r.filespaces, path)
	handlers := append([]func(path string){}, r.onClose...)
	r.mu.Unlock()

	r.logger.Debug("closed filespace %s", path)
	for _, handler := range handlers {
		handler(path)
	}
}
