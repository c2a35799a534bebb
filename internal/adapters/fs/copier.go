package fs

import (
	"path/filepath"

	"go.trai.ch/swatch/internal/core/ports"
)

var _ ports.FileCopier = (*Copier)(nil)

// Copier implements ports.FileCopier with atomic writes.
type Copier struct {
	walker *Walker
}

// NewCopier creates a new Copier.
func NewCopier(walker *Walker) *Copier {
	return &Copier{walker: walker}
}

// WriteFile writes data to path atomically.
func (c *Copier) WriteFile(path string, data []byte) error {
	return WriteFileAtomic(path, data)
}

// CopyFile copies a single file.
func (c *Copier) CopyFile(src, dst string) error {
	return CopyFileAtomic(src, dst)
}

// CopyTree copies every file below src into dst, keeping relative paths.
// Files already present in dst that do not exist in src are left alone.
func (c *Copier) CopyTree(src, dst string) ([]string, error) {
	var written []string
	for path := range c.walker.WalkFiles(src, nil) {
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return written, err
		}
		target := filepath.Join(dst, rel)
		if err := CopyFileAtomic(path, target); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}
