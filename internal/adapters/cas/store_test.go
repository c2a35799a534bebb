package cas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/swatch/internal/adapters/cas"
	"go.trai.ch/swatch/internal/core/domain"
)

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := cas.NewStore()

	info := domain.BuildInfo{
		TaskName:   "styles:toolkit",
		InputHash:  "abc",
		OutputHash: "def",
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, store.Put(root, info))

	got, err := store.Get(root, "styles:toolkit")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, info.TaskName, got.TaskName)
	assert.Equal(t, info.InputHash, got.InputHash)
	assert.Equal(t, info.OutputHash, got.OutputHash)
	assert.True(t, info.Timestamp.Equal(got.Timestamp))

	entries, err := os.ReadDir(filepath.Join(root, domain.DefaultStorePath()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), ":")
}

func TestStore_Overwrite(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := cas.NewStore()

	require.NoError(t, store.Put(root, domain.BuildInfo{TaskName: "images", InputHash: "one"}))
	require.NoError(t, store.Put(root, domain.BuildInfo{TaskName: "images", InputHash: "two"}))

	got, err := store.Get(root, "images")
	require.NoError(t, err)
	assert.Equal(t, "two", got.InputHash)
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	got, err := cas.NewStore().Get(t.TempDir(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_GetCorrupt(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := cas.NewStore()
	require.NoError(t, store.Put(root, domain.BuildInfo{TaskName: "favicon"}))

	dir := filepath.Join(root, domain.DefaultStorePath())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{not json"), domain.FilePerm))

	got, err := store.Get(root, "favicon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrStoreUnmarshalFailed.Error())
	assert.Nil(t, got)
}
