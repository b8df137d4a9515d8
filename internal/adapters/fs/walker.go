// Package fs provides file system adapters for walking and fingerprinting package trees.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every non-directory entry under root in lexical order,
// skipping .git and any entry whose base name matches one of ignores.
// Symlinks are yielded but never followed.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}

			if skip, action := w.shouldSkip(d, ignores); skip {
				return action
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip reports whether d is excluded, and the action WalkDir should take.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() && name == ".git" {
		return true, filepath.SkipDir
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}
	return false, nil
}
