package fs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes xxhash digests over task definitions and files.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the xxhash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}
	return d.Sum64(), nil
}

// ComputeInputHash hashes the task definition, the environment and the
// content of every resolved input file.
func (h *Hasher) ComputeInputHash(task *domain.Task, env map[string]string, inputs []string) (string, error) {
	d := xxhash.New()

	writeField(d, task.Name.String())
	writeField(d, string(task.Action))
	writeField(d, task.Bundle)
	writeSection(d, domain.Strings(task.Inputs))
	writeSection(d, domain.Strings(task.Outputs))
	writeSection(d, domain.Strings(task.Dependencies))
	writeSection(d, task.Command)

	for _, k := range slices.Sorted(maps.Keys(env)) {
		writeField(d, k+"="+env[k])
	}
	_, _ = d.Write([]byte{0})

	for _, path := range inputs {
		if err := h.hashFile(d, path, path); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%016x", d.Sum64()), nil
}

// ComputeOutputHash hashes the outputs relative to root. Directories are
// hashed recursively. A missing output is an error.
func (h *Hasher) ComputeOutputHash(outputs []string, root string) (string, error) {
	d := xxhash.New()

	for _, output := range slices.Sorted(slices.Values(outputs)) {
		path := filepath.Join(root, filepath.FromSlash(output))
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return "", zerr.With(zerr.Wrap(err, "output missing"), "path", output)
			}
			return "", zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", output)
		}

		if !info.IsDir() {
			if err := h.hashFile(d, output, path); err != nil {
				return "", err
			}
			continue
		}

		for file := range h.walker.WalkFiles(path, nil) {
			rel, _ := filepath.Rel(root, file)
			if err := h.hashFile(d, filepath.ToSlash(rel), file); err != nil {
				return "", err
			}
		}
	}

	return fmt.Sprintf("%016x", d.Sum64()), nil
}

func (h *Hasher) hashFile(d *xxhash.Digest, label, path string) error {
	sum, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}
	writeField(d, label)
	return binary.Write(d, binary.LittleEndian, sum)
}

func writeField(d *xxhash.Digest, s string) {
	_, _ = d.WriteString(s)
	_, _ = d.Write([]byte{0})
}

func writeSection(d *xxhash.Digest, values []string) {
	for _, v := range values {
		writeField(d, v)
	}
	_, _ = d.Write([]byte{0})
}
