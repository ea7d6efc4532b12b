// Package gitignore answers whether files are ignored by git.
//
// The Checker interface is the collaborator consumed by the filespace
// package; GitChecker is the real implementation backed by the git binary.
package gitignore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotRepository is returned when a path is not inside a git repository.
var ErrNotRepository = errors.New("not a git repository")

// Checker reports whether a file is ignored by git.
// Implementations may be slow; callers should expect I/O latency.
type Checker interface {
	IsIgnored(ctx context.Context, path string) (bool, error)
}

// Status is the cached result of one ignore check.
// A fresh check replaces the whole value; the fields are never updated
// independently.
type Status struct {
	Ignored   bool
	CheckedAt time.Time
}

// GitChecker checks ignore status by running git check-ignore.
type GitChecker struct{}

// NewGitChecker creates a checker backed by the git binary.
func NewGitChecker() *GitChecker {
	return &GitChecker{}
}

// IsIgnored runs git check-ignore for the path. The command executes in
// the file's directory so repository discovery works from any location.
//
// Exit status 0 means ignored, 1 means not ignored. Any other failure is
// surfaced to the caller, with ErrNotRepository for paths outside a
// repository.
func (c *GitChecker) IsIgnored(ctx context.Context, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve path %s: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, "git", "check-ignore", "-q", "--", abs)
	cmd.Dir = filepath.Dir(abs)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case 1:
			return false, nil
		case 128:
			msg := strings.TrimSpace(stderr.String())
			if strings.Contains(msg, "not a git repository") {
				return false, fmt.Errorf("check-ignore %s: %w", abs, ErrNotRepository)
			}
			return false, fmt.Errorf("check-ignore %s: %s", abs, msg)
		}
	}

	return false, fmt.Errorf("check-ignore %s: %w", abs, err)
}

var _ Checker = (*GitChecker)(nil)
