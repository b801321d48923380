// Package files provides sandboxed read/write access to project files.
// Every path is resolved against the project root; paths escaping the
// root are rejected before any disk access.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrOutsideProject is returned when a path resolves outside the project root.
	ErrOutsideProject = errors.New("path outside project root")
	// ErrNotFound is returned when a file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrProtectedPath is returned when a write targets a protected path pattern.
	ErrProtectedPath = errors.New("path is protected")
)

// Store reads and writes files under a single project root.
type Store struct {
	root      string
	protected []string
}

// NewStore creates a Store rooted at root. The protected patterns are
// doublestar globs matched against root-relative paths on write.
func NewStore(root string, protected []string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	return &Store{root: abs, protected: protected}, nil
}

// Root returns the absolute project root.
func (s *Store) Root() string {
	return s.root
}

// Abs resolves path against the project root and verifies the result is
// a descendant of the root. Absolute paths are accepted if they already
// point inside the root.
func (s *Store) Abs(path string) (string, error) {
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideProject, path)
	}
	return p, nil
}

// Rel returns the root-relative form of path, validating containment.
func (s *Store) Rel(path string) (string, error) {
	abs, err := s.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideProject, path)
	}
	return filepath.ToSlash(rel), nil
}

// Read returns the content of the file at path.
func (s *Store) Read(path string) (string, error) {
	abs, err := s.Abs(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), nil
}

// Exists reports whether a regular file exists at path inside the root.
func (s *Store) Exists(path string) bool {
	abs, err := s.Abs(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Write persists content at path, creating intermediate directories as
// needed. Callers are responsible for backup-before-write ordering; Write
// performs no locking and no atomic rename.
func (s *Store) Write(path, content string) error {
	abs, err := s.Abs(path)
	if err != nil {
		return err
	}

	rel, err := s.Rel(path)
	if err != nil {
		return err
	}
	for _, pattern := range s.protected {
		ok, matchErr := doublestar.Match(pattern, rel)
		if matchErr != nil {
			return fmt.Errorf("protected pattern %q: %w", pattern, matchErr)
		}
		if ok {
			return fmt.Errorf("%w: %s matches %q", ErrProtectedPath, rel, pattern)
		}
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create directories for %s: %w", path, err)
	}

	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
