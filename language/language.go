// Package language classifies files into language identifiers based on
// their path. Identifiers follow the LSP convention ("go", "python",
// "typescriptreact", ...).
package language

import (
	"path/filepath"
	"strings"
)

// Plaintext is the identifier returned for unrecognized files.
const Plaintext = "plaintext"

// extLanguages maps lowercased file extensions to language identifiers.
var extLanguages = map[string]string{
	".go":         "go",
	".py":         "python",
	".js":         "javascript",
	".ts":         "typescript",
	".jsx":        "javascriptreact",
	".tsx":        "typescriptreact",
	".rs":         "rust",
	".rb":         "ruby",
	".java":       "java",
	".c":          "c",
	".cpp":        "cpp",
	".cc":         "cpp",
	".cxx":        "cpp",
	".h":          "cpp",
	".hpp":        "cpp",
	".cs":         "csharp",
	".php":        "php",
	".swift":      "swift",
	".kt":         "kotlin",
	".kts":        "kotlin",
	".scala":      "scala",
	".html":       "html",
	".htm":        "html",
	".css":        "css",
	".scss":       "scss",
	".less":       "less",
	".json":       "json",
	".yaml":       "yaml",
	".yml":        "yaml",
	".xml":        "xml",
	".md":         "markdown",
	".markdown":   "markdown",
	".sql":        "sql",
	".sh":         "shellscript",
	".bash":       "shellscript",
	".ps1":        "powershell",
	".dockerfile": "dockerfile",
	".lua":        "lua",
	".r":          "r",
	".jl":         "julia",
	".ex":         "elixir",
	".exs":        "elixir",
	".erl":        "erlang",
	".hs":         "haskell",
	".ml":         "ocaml",
	".mli":        "ocaml",
	".clj":        "clojure",
	".cljs":       "clojure",
	".vim":        "vim",
	".toml":       "toml",
	".ini":        "ini",
	".cfg":        "ini",
	".proto":      "protobuf",
	".graphql":    "graphql",
	".gql":        "graphql",
}

// Classifier maps file paths to language identifiers.
// The zero value uses the built-in extension table only.
type Classifier struct {
	overrides map[string]string
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithOverride maps an extension (with leading dot) to a language
// identifier, taking precedence over the built-in table.
func WithOverride(ext, lang string) ClassifierOption {
	return func(c *Classifier) {
		if c.overrides == nil {
			c.overrides = make(map[string]string)
		}
		c.overrides[strings.ToLower(ext)] = lang
	}
}

// WithOverrides applies a map of extension to language overrides.
func WithOverrides(m map[string]string) ClassifierOption {
	return func(c *Classifier) {
		for ext, lang := range m {
			WithOverride(ext, lang)(c)
		}
	}
}

// NewClassifier creates a classifier with the given options.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Detect returns the language identifier for a path. Classification is a
// pure function of the path, so results may be cached indefinitely.
func (c *Classifier) Detect(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if c != nil {
		if lang, ok := c.overrides[ext]; ok {
			return lang
		}
	}
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	return Plaintext
}

// Detect classifies a path using the built-in extension table.
func Detect(path string) string {
	return (*Classifier)(nil).Detect(path)
}
