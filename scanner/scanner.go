// Package scanner expands Ant-style include/exclude patterns against a
// directory tree.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadPattern is returned for a malformed include or exclude pattern.
var ErrBadPattern = errors.New("bad pattern")

// Scan returns the slash-separated paths, relative to baseDir, of the regular
// files matching include and none of excludes. Matching is case-sensitive.
// An empty result is not an error.
func Scan(baseDir string, include string, excludes []string) ([]string, error) {
	include = normalize(include)
	if !doublestar.ValidatePattern(include) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, include)
	}

	var patterns []string
	for _, exclude := range excludes {
		if strings.TrimSpace(exclude) == "" {
			continue
		}

		exclude = normalize(exclude)
		if !doublestar.ValidatePattern(exclude) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, exclude)
		}
		patterns = append(patterns, exclude)
	}

	files := make([]string, 0)
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if pruned(rel, patterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if !doublestar.MatchUnvalidated(include, rel) {
			return nil
		}

		for _, exclude := range patterns {
			if doublestar.MatchUnvalidated(exclude, rel) {
				return nil
			}
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// normalize rewrites a pattern the way Ant reads it: "/" separators, no
// leading "./" or "/", and a trailing "/" standing for everything below.
func normalize(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	for strings.HasPrefix(pattern, "./") {
		pattern = strings.TrimPrefix(pattern, "./")
	}
	pattern = strings.TrimLeft(pattern, "/")

	if strings.HasSuffix(pattern, "/") {
		pattern += "**"
	}
	return pattern
}

// pruned reports whether an exclude of the form "dir/**" covers the whole directory.
func pruned(dir string, excludes []string) bool {
	for _, exclude := range excludes {
		prefix, ok := strings.CutSuffix(exclude, "/**")
		if !ok {
			continue
		}
		if doublestar.MatchUnvalidated(prefix, dir) {
			return true
		}
	}
	return false
}
