package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoverFiles walks rootDir and returns the sorted absolute paths of files
// matching any include glob and no exclude glob. Globs are matched against
// the slash-separated path relative to rootDir. An excluded directory is not
// descended into.
func DiscoverFiles(rootDir string, include, exclude []string) ([]string, error) {
	if err := validatePatterns(include, exclude); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		relPath := relSlash(absRoot, path)
		if matchAny(exclude, relPath) || (d.IsDir() && matchAny(exclude, relPath+"/")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if len(include) > 0 && !matchAny(include, relPath) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func validatePatterns(include, exclude []string) error {
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return nil
}

func matchAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if m, _ := doublestar.Match(pattern, relPath); m {
			return true
		}
	}
	return false
}

// relSlash returns path relative to root with forward slashes, or path
// itself when it is not under root.
func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
