// Package pathutil resolves user-supplied storage paths against the farm data
// directory.
//
// Custom storage file locations come from environment variables, so they are
// treated as untrusted: a resolved path must stay inside the data directory
// even after following symlinks.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEscapesBase is returned when a path resolves outside its base directory.
var ErrEscapesBase = errors.New("path escapes base directory")

// ResolveSafePath resolves userPath relative to baseDir and returns the
// absolute, symlink-free result.
//
// Relative paths are joined onto baseDir; absolute paths are accepted only if
// they land inside baseDir. The target file and any number of its parent
// directories may not exist yet: the deepest existing ancestor is resolved and
// the missing components are appended unchanged.
//
// Example:
//
//	path, err := ResolveSafePath(dataDir, "backups/farm.json")
//	if errors.Is(err, ErrEscapesBase) {
//	    // reject the configuration
//	}
func ResolveSafePath(baseDir, userPath string) (string, error) {
	if strings.TrimSpace(userPath) == "" {
		return "", fmt.Errorf("path is empty or whitespace-only")
	}
	if strings.ContainsRune(userPath, 0) {
		return "", fmt.Errorf("path contains null byte")
	}

	candidate := userPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(baseDir, candidate)
	}

	resolved, err := resolveDeepest(filepath.Clean(candidate))
	if err != nil {
		return "", err
	}

	base, err := filepath.EvalSymlinks(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	if !within(base, resolved) {
		return "", fmt.Errorf("%w: %s", ErrEscapesBase, userPath)
	}
	return resolved, nil
}

// resolveDeepest evaluates symlinks on the longest existing prefix of path
// and re-attaches the remaining components.
func resolveDeepest(path string) (string, error) {
	var missing []string
	current := path

	for {
		if _, err := os.Lstat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				return "", fmt.Errorf("failed to resolve symlinks: %w", err)
			}
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat %s: %w", current, err)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing parent directory found for %s", path)
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}

// within reports whether target is base or lies beneath it.
func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
