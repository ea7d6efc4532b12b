package suggestion

import (
	"testing"
	"time"
)

// fakeClock is an adjustable time source for TTL tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func makeSuggestions(texts ...string) []Suggestion {
	out := make([]Suggestion, len(texts))
	for i, text := range texts {
		out[i] = New(text, Range{}, "test")
	}
	return out
}

func TestCursor_SetResetsIndex(t *testing.T) {
	c := NewCursor()
	c.Set(makeSuggestions("a", "b", "c"))
	c.Next()

	c.Set(makeSuggestions("x", "y"))

	if c.Index() != 0 {
		t.Errorf("Index = %d, want 0 after Set", c.Index())
	}
	got, ok := c.Presenting()
	if !ok {
		t.Fatal("Presenting should report a suggestion")
	}
	if got.Text != "x" {
		t.Errorf("Presenting = %q, want %q", got.Text, "x")
	}
}

func TestCursor_SetEmptyStillRefreshesTimestamp(t *testing.T) {
	clock := newFakeClock()
	c := NewCursor(WithClock(clock.Now))

	c.Set(makeSuggestions("a"))
	first := c.LastUpdate()

	clock.Advance(time.Second)
	c.Set(nil)

	if !c.LastUpdate().After(first) {
		t.Error("Set with an empty list must still refresh the timestamp")
	}
	if _, ok := c.Presenting(); ok {
		t.Error("Presenting should report absent after Set(nil)")
	}
}

func TestCursor_NextWraps(t *testing.T) {
	c := NewCursor()
	c.Set(makeSuggestions("a", "b", "c"))

	want := []string{"b", "c", "a"}
	for i, text := range want {
		c.Next()
		got, ok := c.Presenting()
		if !ok {
			t.Fatalf("step %d: Presenting reported absent", i)
		}
		if got.Text != text {
			t.Errorf("step %d: Presenting = %q, want %q", i, got.Text, text)
		}
	}
}

func TestCursor_NextCyclesBackToStart(t *testing.T) {
	c := NewCursor()
	items := makeSuggestions("a", "b", "c", "d")
	c.Set(items)

	for i := 0; i < len(items); i++ {
		c.Next()
	}

	if c.Index() != 0 {
		t.Errorf("Index = %d, want 0 after %d Next calls", c.Index(), len(items))
	}
}

func TestCursor_PreviousWrapsToEnd(t *testing.T) {
	c := NewCursor()
	c.Set(makeSuggestions("a", "b", "c"))

	c.Previous()

	if c.Index() != 2 {
		t.Errorf("Index = %d, want 2", c.Index())
	}
	got, ok := c.Presenting()
	if !ok {
		t.Fatal("Presenting should report a suggestion")
	}
	if got.Text != "c" {
		t.Errorf("Presenting = %q, want %q", got.Text, "c")
	}
}

func TestCursor_PreviousOnEmptyList(t *testing.T) {
	c := NewCursor()

	// Must not panic; the index underflows to the -1 sentinel and
	// Presenting reports absent.
	c.Previous()

	if c.Index() != -1 {
		t.Errorf("Index = %d, want -1", c.Index())
	}
	if _, ok := c.Presenting(); ok {
		t.Error("Presenting should report absent on an empty list")
	}
}

func TestCursor_NextOnEmptyList(t *testing.T) {
	c := NewCursor()

	c.Next()

	if c.Index() != 0 {
		t.Errorf("Index = %d, want 0", c.Index())
	}
	if _, ok := c.Presenting(); ok {
		t.Error("Presenting should report absent on an empty list")
	}
}

func TestCursor_ResetKeepsTimestamp(t *testing.T) {
	clock := newFakeClock()
	c := NewCursor(WithClock(clock.Now))

	c.Set(makeSuggestions("a", "b"))
	updated := c.LastUpdate()

	clock.Advance(time.Minute)
	c.Reset()

	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after Reset", c.Len())
	}
	if c.Index() != 0 {
		t.Errorf("Index = %d, want 0 after Reset", c.Index())
	}
	if !c.LastUpdate().Equal(updated) {
		t.Error("Reset must not refresh the update timestamp")
	}
}

func TestCursor_Expired(t *testing.T) {
	clock := newFakeClock()
	c := NewCursor(WithClock(clock.Now))

	c.Set(makeSuggestions("a"))
	if c.Expired() {
		t.Error("Expired should be false immediately after Set")
	}

	clock.Advance(180 * time.Second)
	if c.Expired() {
		t.Error("Expired should be false exactly at the TTL boundary")
	}

	clock.Advance(time.Nanosecond)
	if !c.Expired() {
		t.Error("Expired should be true past the TTL")
	}

	c.Set(makeSuggestions("b"))
	if c.Expired() {
		t.Error("Expired should be false after a fresh Set")
	}
}

func TestCursor_SuggestionsReturnsCopy(t *testing.T) {
	c := NewCursor()
	c.Set(makeSuggestions("a", "b"))

	got := c.Suggestions()
	got[0].Text = "mutated"

	fresh := c.Suggestions()
	if fresh[0].Text != "a" {
		t.Error("Suggestions must return a copy, not the backing slice")
	}
}

func TestNew_GeneratesIDs(t *testing.T) {
	a := New("a", Range{}, "prov")
	b := New("b", Range{}, "prov")

	if a.ID == "" || b.ID == "" {
		t.Fatal("New should assign IDs")
	}
	if a.ID == b.ID {
		t.Error("suggestion IDs should be unique")
	}
	if a.Source != "prov" {
		t.Errorf("Source = %q, want %q", a.Source, "prov")
	}
}
