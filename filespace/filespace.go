// Package filespace tracks per-file suggestion state for an editor
// integration.
//
// A Filespace is the aggregate for one open file: the current suggestion
// list and presentation cursor, lazily-classified language, formatting
// metadata, a TTL-cached git-ignore status, and an open-ended set of
// externally-defined properties. A Registry owns one Filespace per open
// file and evicts it when the file closes.
package filespace

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/dshills/inlay/expire"
	"github.com/dshills/inlay/gitignore"
	"github.com/dshills/inlay/language"
	"github.com/dshills/inlay/suggestion"
	"github.com/dshills/inlay/watch"
)

// DefaultGitIgnoreTTL is how long a git-ignore check result is cached.
const DefaultGitIgnoreTTL = 180 * time.Second

// Common errors returned by filespace operations.
var (
	// ErrNoChecker is returned by IsGitIgnored when no git-ignore checker
	// was configured.
	ErrNoChecker = errors.New("no git-ignore checker configured")
)

// Filespace is the per-file state aggregate.
//
// All mutating and cache-sensitive operations serialize on one mutex. A
// Registry shares a single mutex across every Filespace it owns, so
// operations on different files of the same workspace are mutually
// exclusive too. The path is immutable and may be read without
// synchronization.
type Filespace struct {
	path string

	// mu is the serialization domain. Registry-owned filespaces share
	// the registry's mutex; standalone ones get their own.
	mu *sync.Mutex

	classifier *language.Classifier
	lang       string
	langSet    bool

	metadata CodeMetadata

	cursor *suggestion.Cursor

	checker gitignore.Checker
	ignored *expire.Value[bool]

	props map[any]any

	onSave  func(*Filespace)
	onClose func(path string)

	sub       *watch.SaveSubscription
	closeOnce sync.Once

	now func() time.Time

	// construction-time settings consumed by New
	suggestionTTL time.Duration
	gitIgnoreTTL  time.Duration
	watcherOpt    *watch.SaveWatcher
}

// Option configures a standalone Filespace.
type Option func(*Filespace)

// WithOnSave sets the callback invoked with the filespace whenever the
// underlying file is saved. Requires WithWatcher.
func WithOnSave(fn func(*Filespace)) Option {
	return func(fs *Filespace) {
		fs.onSave = fn
	}
}

// WithOnClose sets the callback invoked with the file path when the
// filespace is closed.
func WithOnClose(fn func(path string)) Option {
	return func(fs *Filespace) {
		fs.onClose = fn
	}
}

// WithChecker sets the git-ignore checker collaborator.
func WithChecker(c gitignore.Checker) Option {
	return func(fs *Filespace) {
		fs.checker = c
	}
}

// WithClassifier sets the language classifier.
func WithClassifier(c *language.Classifier) Option {
	return func(fs *Filespace) {
		fs.classifier = c
	}
}

// WithWatcher subscribes the filespace to save events from the watcher.
// The subscription is canceled when the filespace closes.
func WithWatcher(w *watch.SaveWatcher) Option {
	return func(fs *Filespace) {
		fs.watcherOpt = w
	}
}

// WithSuggestionTTL sets the suggestion staleness TTL.
func WithSuggestionTTL(d time.Duration) Option {
	return func(fs *Filespace) {
		fs.suggestionTTL = d
	}
}

// WithGitIgnoreTTL sets the git-ignore cache TTL.
func WithGitIgnoreTTL(d time.Duration) Option {
	return func(fs *Filespace) {
		fs.gitIgnoreTTL = d
	}
}

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(fs *Filespace) {
		fs.now = now
	}
}

// New creates a standalone Filespace for the given path.
//
// The path is normalized to its absolute form and becomes the immutable
// identity of the filespace. Registry.Open is the usual construction
// path; New exists for embedding the aggregate without a workspace.
func New(path string, opts ...Option) (*Filespace, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fs := &Filespace{
		path:          abs,
		mu:            new(sync.Mutex),
		props:         make(map[any]any),
		suggestionTTL: suggestion.DefaultStaleAfter,
		gitIgnoreTTL:  DefaultGitIgnoreTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(fs)
	}

	fs.cursor = suggestion.NewCursor(
		suggestion.WithStaleAfter(fs.suggestionTTL),
		suggestion.WithClock(fs.now),
	)
	fs.ignored = expire.NewValue[bool](fs.gitIgnoreTTL)

	if fs.watcherOpt != nil {
		sub, err := fs.watcherOpt.Subscribe(abs, fs.handleSave)
		if err != nil {
			return nil, err
		}
		fs.sub = sub
	}

	return fs, nil
}

// Path returns the immutable file identity.
func (fs *Filespace) Path() string {
	return fs.path
}

// Language returns the language identifier for the file. It is derived
// from the path on first access and cached for the filespace's lifetime.
func (fs *Filespace) Language() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.langSet {
		fs.lang = fs.classifier.Detect(fs.path)
		fs.langSet = true
	}
	return fs.lang
}

// Metadata returns a copy of the current code metadata.
func (fs *Filespace) Metadata() CodeMetadata {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.metadata.clone()
}

// SetMetadata replaces the code metadata wholesale.
func (fs *Filespace) SetMetadata(md CodeMetadata) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.metadata = md.clone()
}

// SetFileType sets the editor file type tag.
func (fs *Filespace) SetFileType(ft string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.metadata.FileType = &ft
}

// SetTabSize sets the tab display width.
func (fs *Filespace) SetTabSize(n int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.metadata.TabSize = &n
}

// SetIndentSize sets the indent width.
func (fs *Filespace) SetIndentSize(n int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.metadata.IndentSize = &n
}

// SetUsesTabs sets whether indentation uses tabs.
func (fs *Filespace) SetUsesTabs(v bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.metadata.UsesTabs = &v
}

// SetSuggestions replaces the suggestion list, resets the cursor to the
// first entry, and refreshes the staleness timestamp. The replacement and
// the timestamp refresh are atomic: no reader of this filespace observes
// one without the other.
func (fs *Filespace) SetSuggestions(items []suggestion.Suggestion) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.cursor.Set(items)
}

// ClearSuggestions empties the suggestion list without refreshing the
// staleness timestamp.
func (fs *Filespace) ClearSuggestions() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.cursor.Reset()
}

// NextSuggestion advances to the next suggestion, wrapping past the end,
// and returns the newly presented one.
func (fs *Filespace) NextSuggestion() (suggestion.Suggestion, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.cursor.Next()
	return fs.cursor.Presenting()
}

// PreviousSuggestion moves to the previous suggestion, wrapping below
// zero, and returns the newly presented one.
func (fs *Filespace) PreviousSuggestion() (suggestion.Suggestion, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.cursor.Previous()
	return fs.cursor.Presenting()
}

// PresentingSuggestion returns the currently presented suggestion, if the
// cursor is in bounds.
func (fs *Filespace) PresentingSuggestion() (suggestion.Suggestion, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cursor.Presenting()
}

// Suggestions returns a copy of the current suggestion list.
func (fs *Filespace) Suggestions() []suggestion.Suggestion {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cursor.Suggestions()
}

// SuggestionIndex returns the cursor position.
func (fs *Filespace) SuggestionIndex() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cursor.Index()
}

// SuggestionCount returns the number of suggestions.
func (fs *Filespace) SuggestionCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cursor.Len()
}

// LastSuggestionUpdate returns when the suggestion list was last replaced.
func (fs *Filespace) LastSuggestionUpdate() time.Time {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cursor.LastUpdate()
}

// Expired reports whether the suggestion list has gone stale.
func (fs *Filespace) Expired() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.cursor.Expired()
}

// IsGitIgnored reports whether the file is ignored by git.
//
// The result is cached with its own TTL; within the window the checker is
// invoked at most once no matter how many callers ask. The lock is held
// across the underlying check, so other operations on this workspace
// stall while it runs. Checker failures propagate to the caller and leave
// any previous cached value in place for the next attempt.
func (fs *Filespace) IsGitIgnored(ctx context.Context) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.checker == nil {
		return false, ErrNoChecker
	}
	return fs.ignored.Get(fs.now(), func() (bool, error) {
		return fs.checker.IsIgnored(ctx, fs.path)
	})
}

// GitIgnoreStatus returns the cached ignore status without triggering a
// check. The second return is false if no unexpired result is cached.
func (fs *Filespace) GitIgnoreStatus() (gitignore.Status, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ignored, at, ok := fs.ignored.Peek(fs.now())
	if !ok {
		return gitignore.Status{}, false
	}
	return gitignore.Status{Ignored: ignored, CheckedAt: at}, true
}

// InvalidateGitIgnore drops the cached ignore status so the next
// IsGitIgnored rechecks.
func (fs *Filespace) InvalidateGitIgnore() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.ignored.Invalidate()
}

// Close tears down the filespace: the save subscription is canceled and
// the onClose callback fires with the file path as the final effect.
// Close is idempotent; onClose fires exactly once no matter how many
// times or from where disposal is triggered.
func (fs *Filespace) Close() {
	fs.closeOnce.Do(func() {
		if fs.sub != nil {
			fs.sub.Cancel()
		}
		if fs.onClose != nil {
			fs.onClose(fs.path)
		}
	})
}

// handleSave runs on the watcher's goroutine when the file is saved.
func (fs *Filespace) handleSave(watch.SaveEvent) {
	if fs.onSave != nil {
		fs.onSave(fs)
	}
}
