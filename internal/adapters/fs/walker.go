// Package fs provides file system adapters for walking, hashing, resolving and writing files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// alwaysSkipped lists directory names never walked.
var alwaysSkipped = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Walker yields the regular files below a directory in lexical order.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every file below root, skipping VCS metadata, node_modules,
// and any entry whose base name matches one of ignores (filepath.Match syntax).
// Yielded paths include root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path != root && ignored(d.Name(), ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func ignored(name string, ignores []string) bool {
	if alwaysSkipped[name] {
		return true
	}
	for _, pattern := range ignores {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
