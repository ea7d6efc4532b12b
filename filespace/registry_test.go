package filespace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/inlay/config"
	"github.com/dshills/inlay/watch"
)

func setupRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(RegistryConfig{})
}

func TestRegistry_OpenConstructsLazily(t *testing.T) {
	r := setupRegistry(t)

	if r.Count() != 0 {
		t.Fatalf("Count = %d, want 0", r.Count())
	}

	fs, err := r.Open("/work/main.go")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if fs.Path() != "/work/main.go" {
		t.Errorf("Path = %q, want /work/main.go", fs.Path())
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
}

func TestRegistry_OpenReturnsExisting(t *testing.T) {
	r := setupRegistry(t)

	first, err := r.Open("/work/main.go")
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	second, err := r.Open("/work/main.go")
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}

	if first != second {
		t.Error("Open should return the existing filespace for an open path")
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
}

func TestRegistry_Get(t *testing.T) {
	r := setupRegistry(t)

	if _, ok := r.Get("/work/main.go"); ok {
		t.Error("Get before Open should report absent")
	}

	fs, err := r.Open("/work/main.go")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	got, ok := r.Get("/work/main.go")
	if !ok {
		t.Fatal("Get after Open should find the filespace")
	}
	if got != fs {
		t.Error("Get should return the same instance Open created")
	}
}

func TestRegistry_CloseEvicts(t *testing.T) {
	r := setupRegistry(t)

	var closed []string
	r.OnClose(func(path string) {
		closed = append(closed, path)
	})

	if _, err := r.Open("/work/main.go"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := r.Close("/work/main.go"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0 after Close", r.Count())
	}
	if len(closed) != 1 || closed[0] != "/work/main.go" {
		t.Errorf("close handler calls = %v, want one call with the path", closed)
	}

	if err := r.Close("/work/main.go"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("second Close = %v, want ErrNotOpen", err)
	}
}

func TestRegistry_DirectFilespaceCloseEvicts(t *testing.T) {
	r := setupRegistry(t)

	closes := 0
	r.OnClose(func(string) {
		closes++
	})

	fs, err := r.Open("/work/main.go")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Disposal through the filespace itself must still evict the entry
	// and fire handlers exactly once.
	fs.Close()
	fs.Close()

	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}
	if closes != 1 {
		t.Errorf("close handler fired %d times, want 1", closes)
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	r := setupRegistry(t)

	for _, path := range []string{"/a.go", "/b.go", "/c.go"} {
		if _, err := r.Open(path); err != nil {
			t.Fatalf("Open %s failed: %v", path, err)
		}
	}

	r.CloseAll()

	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0 after CloseAll", r.Count())
	}
}

func TestRegistry_ShutdownRefusesOpens(t *testing.T) {
	r := setupRegistry(t)

	if _, err := r.Open("/work/main.go"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if _, err := r.Open("/work/other.go"); !errors.Is(err, ErrRegistryClosed) {
		t.Errorf("Open after Shutdown = %v, want ErrRegistryClosed", err)
	}
}

func TestRegistry_OnOpen(t *testing.T) {
	r := setupRegistry(t)

	var opened []string
	r.OnOpen(func(fs *Filespace) {
		opened = append(opened, fs.Path())
	})

	if _, err := r.Open("/work/main.go"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	// Re-opening an already open path does not fire the handler again.
	if _, err := r.Open("/work/main.go"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if len(opened) != 1 || opened[0] != "/work/main.go" {
		t.Errorf("open handler calls = %v, want one call", opened)
	}
}

func TestRegistry_Paths(t *testing.T) {
	r := setupRegistry(t)

	if _, err := r.Open("/a.go"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := r.Open("/b.go"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	paths := r.Paths()
	if len(paths) != 2 {
		t.Errorf("Paths = %v, want 2 entries", paths)
	}
}

func TestRegistry_SharedTTLConfig(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(RegistryConfig{
		SuggestionTTL: time.Minute,
		Clock:         clock.Now,
	})

	fs, err := r.Open("/work/main.go")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	fs.SetSuggestions(makeSuggestions("a"))
	if fs.Expired() {
		t.Error("Expired should be false right after SetSuggestions")
	}

	clock.Advance(61 * time.Second)
	if !fs.Expired() {
		t.Error("Expired should honor the registry-configured TTL")
	}
}

func TestRegistry_SaveNotification(t *testing.T) {
	watcher, err := watch.NewSaveWatcher(watch.WithDebounce(20 * time.Millisecond))
	if err != nil {
		t.Fatalf("NewSaveWatcher failed: %v", err)
	}
	defer watcher.Close()

	r := NewRegistry(RegistryConfig{Watcher: watcher})

	saved := make(chan string, 10)
	r.OnSave(func(fs *Filespace) {
		saved <- fs.Path()
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	fs, err := r.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("package main\n\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case got := <-saved:
		if got != fs.Path() {
			t.Errorf("saved path = %q, want %q", got, fs.Path())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for save notification")
	}

	// Closing the filespace releases the watch registration.
	if err := r.Close(path); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if n := watcher.SubscriptionCount(); n != 0 {
		t.Errorf("SubscriptionCount = %d, want 0 after Close", n)
	}

	if err := os.WriteFile(path, []byte("package main\n\n\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case got := <-saved:
		t.Errorf("unexpected save notification for %q after Close", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "error"
	cfg.Languages = map[string]string{".tpl": "html"}

	r, err := NewRegistryFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewRegistryFromConfig failed: %v", err)
	}
	defer func() {
		if err := r.Shutdown(); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	}()

	dir := t.TempDir()
	path := filepath.Join(dir, "page.tpl")
	if err := os.WriteFile(path, []byte("<html></html>\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	fs, err := r.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := fs.Language(); got != "html" {
		t.Errorf("Language = %q, want %q via configured override", got, "html")
	}
}

func TestNewRegistryFromConfig_RejectsInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.GitIgnoreTTL = 0

	if _, err := NewRegistryFromConfig(cfg); err == nil {
		t.Fatal("expected validation error for zero TTL")
	}
}
