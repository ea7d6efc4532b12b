package suggestion

import "time"

// DefaultStaleAfter is how long a suggestion list stays usable after its
// last replacement before it is considered stale.
const DefaultStaleAfter = 180 * time.Second

// Cursor tracks an ordered list of suggestions and a wrapping index
// selecting the one currently presented. Insertion order is display order.
//
// Cursor is not safe for concurrent use; the owning Filespace serializes
// access.
type Cursor struct {
	suggestions []Suggestion
	index       int

	lastUpdate time.Time
	staleAfter time.Duration
	now        func() time.Time
}

// CursorOption configures a Cursor.
type CursorOption func(*Cursor)

// WithStaleAfter sets the staleness TTL.
func WithStaleAfter(d time.Duration) CursorOption {
	return func(c *Cursor) {
		c.staleAfter = d
	}
}

// WithClock sets the time source. Used by tests to advance a fake clock.
func WithClock(now func() time.Time) CursorOption {
	return func(c *Cursor) {
		c.now = now
	}
}

// NewCursor creates an empty cursor.
func NewCursor(opts ...CursorOption) *Cursor {
	c := &Cursor{
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set replaces the full suggestion list, resets the index to 0, and
// refreshes the update timestamp. Replacement is unconditional: an empty
// list or a list identical to the current one still counts as new data.
func (c *Cursor) Set(items []Suggestion) {
	c.suggestions = make([]Suggestion, len(items))
	copy(c.suggestions, items)
	c.index = 0
	c.lastUpdate = c.now()
}

// Reset clears the suggestion list and resets the index to 0.
// The update timestamp is deliberately left untouched: clearing is not
// new data, so staleness keeps counting from the last real replacement.
func (c *Cursor) Reset() {
	c.suggestions = nil
	c.index = 0
}

// Next advances the index, wrapping to 0 past the end.
// On an empty list the index wraps to 0 and Presenting reports absent.
func (c *Cursor) Next() {
	c.index++
	if c.index >= len(c.suggestions) {
		c.index = 0
	}
}

// Previous moves the index back, wrapping to the last element below 0.
// On an empty list this leaves the index at -1, an out-of-bounds sentinel
// that Presenting treats as absent.
func (c *Cursor) Previous() {
	c.index--
	if c.index < 0 {
		c.index = len(c.suggestions) - 1
	}
}

// Presenting returns the suggestion at the current index.
// It reports false whenever the index is out of bounds, which covers both
// the empty list and the Previous underflow sentinel.
func (c *Cursor) Presenting() (Suggestion, bool) {
	if c.index < 0 || c.index >= len(c.suggestions) {
		return Suggestion{}, false
	}
	return c.suggestions[c.index], true
}

// Suggestions returns a copy of the current list.
func (c *Cursor) Suggestions() []Suggestion {
	out := make([]Suggestion, len(c.suggestions))
	copy(out, c.suggestions)
	return out
}

// Index returns the current index. It is only meaningful while
// 0 <= index < Len.
func (c *Cursor) Index() int {
	return c.index
}

// Len returns the number of suggestions.
func (c *Cursor) Len() int {
	return len(c.suggestions)
}

// LastUpdate returns when the list was last replaced via Set.
func (c *Cursor) LastUpdate() time.Time {
	return c.lastUpdate
}

// Expired reports whether the staleness TTL has elapsed since the last
// replacement. Emptiness does not factor in.
func (c *Cursor) Expired() bool {
	return c.now().Sub(c.lastUpdate) > c.staleAfter
}
