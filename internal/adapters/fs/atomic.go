package fs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/zerr"
)

// WriteFileAtomic writes data to path through a temporary file and a rename,
// creating parent directories as needed. Readers observe either the previous
// content or the new content, never a partial file.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	if err := renameio.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	return nil
}

// CopyFileAtomic streams src into dst with the same guarantees as WriteFileAtomic.
func CopyFileAtomic(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", src)
	}
	defer in.Close() //nolint:errcheck // Read-only file

	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", dst)
	}

	t, err := renameio.TempFile("", dst)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", dst)
	}
	defer t.Cleanup() //nolint:errcheck // No-op after a successful replace

	if _, err := io.Copy(t, in); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", dst)
	}
	if err := t.Chmod(domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", dst)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", dst)
	}
	return nil
}
