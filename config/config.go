// Package config loads tunables for the suggestion state layer from TOML.
//
// A missing config file is not an error; defaults apply.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so TOML values like "180s" parse directly.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the tunables for the suggestion state layer.
type Config struct {
	// SuggestionTTL is how long a suggestion list stays fresh after its
	// last replacement.
	SuggestionTTL Duration `toml:"suggestion_ttl"`

	// GitIgnoreTTL is how long a git-ignore check result is cached.
	GitIgnoreTTL Duration `toml:"gitignore_ttl"`

	// SaveDebounce is the coalescing window for file-save events.
	SaveDebounce Duration `toml:"save_debounce"`

	// LogLevel is the minimum log level ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`

	// Languages maps file extensions (with leading dot) to language
	// identifiers, overriding the built-in classification table.
	Languages map[string]string `toml:"languages"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		SuggestionTTL: Duration(180 * time.Second),
		GitIgnoreTTL:  Duration(180 * time.Second),
		SaveDebounce:  Duration(100 * time.Millisecond),
		LogLevel:      "info",
	}
}

// Load reads configuration from path. A file that does not exist yields
// the defaults without error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return parse(data)
}

// LoadFrom reads configuration from an io.Reader.
func LoadFrom(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.SuggestionTTL <= 0 {
		return fmt.Errorf("suggestion_ttl must be positive, got %s", c.SuggestionTTL.Std())
	}
	if c.GitIgnoreTTL <= 0 {
		return fmt.Errorf("gitignore_ttl must be positive, got %s", c.GitIgnoreTTL.Std())
	}
	if c.SaveDebounce < 0 {
		return fmt.Errorf("save_debounce must not be negative, got %s", c.SaveDebounce.Std())
	}
	return nil
}
