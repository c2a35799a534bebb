// Package cas persists per-task build records used to skip unchanged tasks.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.BuildInfoStore with one JSON file per task under
// <root>/.swatch/store.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the build info for a given task name.
// A missing record is not an error.
func (s *Store) Get(root, taskName string) (*domain.BuildInfo, error) {
	filename := recordPath(root, taskName)
	//nolint:gosec // Path is built from the project root and a hashed name
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "task", taskName)
	}

	var info domain.BuildInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "task", taskName)
	}

	return &info, nil
}

// Put stores the build info, replacing any previous record atomically.
func (s *Store) Put(root string, info domain.BuildInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	filename := recordPath(root, info.TaskName)
	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	if err := renameio.WriteFile(filename, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "task", info.TaskName)
	}

	return nil
}

// recordPath maps a task name to a file name safe on every platform;
// task names such as "styles:toolkit" contain separators some filesystems reject.
func recordPath(root, taskName string) string {
	sum := sha256.Sum256([]byte(taskName))
	return filepath.Join(root, domain.DefaultStorePath(), hex.EncodeToString(sum[:])+".json")
}
