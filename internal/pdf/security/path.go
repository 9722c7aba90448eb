package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideArchive is returned for paths that resolve outside the archive root
var ErrOutsideArchive = errors.New("path is outside the archive directory")

// PathValidator confines release-note file access to one archive directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at the given directory. The
// directory does not have to exist yet.
func NewPathValidator(root string) (*PathValidator, error) {
	if root == "" {
		return nil, fmt.Errorf("archive directory cannot be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive directory: %w", err)
	}

	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute archive directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns a user-supplied path into an absolute path inside the
// archive. Relative paths are taken relative to the archive root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	within, err := v.IsPathWithinDirectory(abs)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("%w: %s", ErrOutsideArchive, path)
	}

	return abs, nil
}

// ValidatePath checks that a path lies inside the archive
func (v *PathValidator) ValidatePath(path string) error {
	_, err := v.Resolve(path)
	return err
}

// IsPathWithinDirectory reports whether path, and the file it points to if
// it is a symlink, both lie inside the archive root
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	clean := filepath.Clean(abs)

	roots := []string{v.root}
	if resolved, err := filepath.EvalSymlinks(v.root); err == nil && resolved != v.root {
		roots = append(roots, resolved)
	}

	real := clean
	if info, err := os.Lstat(clean); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(clean); err == nil {
			real = resolved
		}
	}

	return withinAny(clean, roots) && withinAny(real, roots), nil
}

// EnsureRoot creates the archive directory if it does not exist
func (v *PathValidator) EnsureRoot() error {
	info, err := os.Stat(v.root)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(v.root, 0o755); err != nil {
			return fmt.Errorf("cannot create archive directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access archive directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive path is not a directory: %s", v.root)
	}
	return nil
}

func withinAny(path string, roots []string) bool {
	for _, root := range roots {
		prefix := root
		if !strings.HasSuffix(prefix, string(filepath.Separator)) {
			prefix += string(filepath.Separator)
		}
		if path == root || strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
