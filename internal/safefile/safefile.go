// Package safefile resolves paths under a scan root without following links
// out of it.
package safefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path resolves to a location outside its root.
var ErrOutsideRoot = errors.New("path resolves outside the root")

// CanonicalRoot resolves root to an absolute path without symlinks and checks
// that it is a directory.
func CanonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fs.ErrInvalid
	}
	return resolved, nil
}

// Within reports whether path is root or a descendant of it. Both must be
// canonical.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// Resolve follows every symlink in path and returns the result only when it
// stays within root, which must be canonical.
func Resolve(root, path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	if !Within(root, resolved) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return resolved, nil
}

// ResolveRel is Resolve for a slash-separated path relative to root.
func ResolveRel(root, rel string) (string, error) {
	return Resolve(root, filepath.Join(root, filepath.FromSlash(rel)))
}
