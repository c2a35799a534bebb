package fs_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/swatch/internal/adapters/fs"
	"go.trai.ch/swatch/internal/core/domain"
)

// writeTree creates files relative to root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestWalker_WalkFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".git/config":             "x",
		"node_modules/pkg/a.js":   "x",
		"ignored/file":            "x",
		"src/styles/toolkit.scss": "x",
		"README.md":               "x",
	})

	files := slices.Collect(fs.NewWalker().WalkFiles(root, []string{"ignored"}))
	assert.Equal(t, []string{"README.md", "src/styles/toolkit.scss"}, rel(t, root, files))
}

func TestWalker_EarlyStop(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "1", "b": "2", "c": "3"})

	count := 0
	for range fs.NewWalker().WalkFiles(root, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestResolver_ResolveInputs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/assets/toolkit/styles/toolkit.scss":        "a",
		"src/assets/toolkit/styles/partials/_grid.scss": "b",
		"src/assets/toolkit/images/logo.png":            "c",
		"src/assets/toolkit/images/icons/arrow.svg":     "d",
		"src/assets/fabricator/styles/fabricator.scss":  "e",
		"src/assets/fabricator/scripts/fabricator.js":   "f",
		"src/favicon.ico": "g",
	})
	resolver := fs.NewResolver(fs.NewWalker())

	tests := []struct {
		name   string
		inputs []string
		want   []string
	}{
		{
			name:   "double star includes direct children",
			inputs: []string{"src/assets/toolkit/styles/**/*.scss"},
			want: []string{
				"src/assets/toolkit/styles/partials/_grid.scss",
				"src/assets/toolkit/styles/toolkit.scss",
			},
		},
		{
			name:   "source tree of a flat directory",
			inputs: []string{"src/assets/fabricator/scripts/**/*"},
			want:   []string{"src/assets/fabricator/scripts/fabricator.js"},
		},
		{
			name:   "double star with zero directories",
			inputs: []string{"src/assets/toolkit/styles/**"},
			want: []string{
				"src/assets/toolkit/styles/partials/_grid.scss",
				"src/assets/toolkit/styles/toolkit.scss",
			},
		},
		{
			name:   "alternatives",
			inputs: []string{"src/assets/{fabricator,toolkit}/styles/*.scss"},
			want: []string{
				"src/assets/fabricator/styles/fabricator.scss",
				"src/assets/toolkit/styles/toolkit.scss",
			},
		},
		{
			name:   "literal file",
			inputs: []string{"src/favicon.ico"},
			want:   []string{"src/favicon.ico"},
		},
		{
			name:   "directory expands",
			inputs: []string{"src/assets/toolkit/images"},
			want: []string{
				"src/assets/toolkit/images/icons/arrow.svg",
				"src/assets/toolkit/images/logo.png",
			},
		},
		{
			name:   "duplicates collapse",
			inputs: []string{"src/favicon.ico", "src/*.ico"},
			want:   []string{"src/favicon.ico"},
		},
		{
			name:   "glob without matches",
			inputs: []string{"src/missing/**/*.js"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.ResolveInputs(tt.inputs, root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rel(t, root, got))
		})
	}
}

func TestResolver_ResolveInputs_Errors(t *testing.T) {
	root := t.TempDir()
	resolver := fs.NewResolver(fs.NewWalker())

	_, err := resolver.ResolveInputs([]string{"src/favicon.ico"}, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrInputNotFound.Error())

	_, err = resolver.ResolveInputs([]string{"src/[a"}, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrInvalidGlob.Error())
}

func TestStaticPrefix(t *testing.T) {
	assert.Equal(t, "src/assets", fs.StaticPrefix("src/assets/{fabricator}/scripts/**/*.js"))
	assert.Equal(t, "src/assets/toolkit/images", fs.StaticPrefix("src/assets/toolkit/images/**/*"))
	assert.Equal(t, ".", fs.StaticPrefix("*.html"))
	assert.Equal(t, ".", fs.StaticPrefix("**/*.md"))
}

func TestHasher_InputHash(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.scss": "a { color: red }"})
	hasher := fs.NewHasher(fs.NewWalker())
	input := filepath.Join(root, "a.scss")

	task := &domain.Task{
		Name:    domain.NewInternedString("styles:toolkit"),
		Action:  domain.ActionStyles,
		Inputs:  domain.NewInternedStrings([]string{"a.scss"}),
		Outputs: domain.NewInternedStrings([]string{"dist/a.css"}),
	}

	first, err := hasher.ComputeInputHash(task, nil, []string{input})
	require.NoError(t, err)
	again, err := hasher.ComputeInputHash(task, nil, []string{input})
	require.NoError(t, err)
	assert.Equal(t, first, again)

	withEnv, err := hasher.ComputeInputHash(task, map[string]string{"SWATCH_DEV": "1"}, []string{input})
	require.NoError(t, err)
	assert.NotEqual(t, first, withEnv)

	writeTree(t, root, map[string]string{"a.scss": "a { color: blue }"})
	changed, err := hasher.ComputeInputHash(task, nil, []string{input})
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)

	_, err = hasher.ComputeInputHash(task, nil, []string{filepath.Join(root, "missing")})
	require.Error(t, err)
}

func TestHasher_OutputHash(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"dist/assets/toolkit/scripts/a.js": "a",
		"dist/assets/toolkit/scripts/b.js": "b",
		"dist/favicon.ico":                 "ico",
	})
	hasher := fs.NewHasher(fs.NewWalker())

	outputs := []string{"dist/favicon.ico", "dist/assets/toolkit/scripts"}
	first, err := hasher.ComputeOutputHash(outputs, root)
	require.NoError(t, err)

	reordered, err := hasher.ComputeOutputHash([]string{outputs[1], outputs[0]}, root)
	require.NoError(t, err)
	assert.Equal(t, first, reordered)

	writeTree(t, root, map[string]string{"dist/assets/toolkit/scripts/c.js": "c"})
	grown, err := hasher.ComputeOutputHash(outputs, root)
	require.NoError(t, err)
	assert.NotEqual(t, first, grown)

	_, err = hasher.ComputeOutputHash([]string{"dist/missing.css"}, root)
	require.Error(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "dist", "assets", "f.css")

	require.NoError(t, fs.WriteFileAtomic(path, []byte("one")))
	require.NoError(t, fs.WriteFileAtomic(path, []byte("two")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestCopier_CopyTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/scripts/my.js":         "my",
		"src/scripts/vendor/lib.js": "lib",
		"dist/scripts/modernizr.js": "generated",
	})
	copier := fs.NewCopier(fs.NewWalker())

	written, err := copier.CopyTree(filepath.Join(root, "src/scripts"), filepath.Join(root, "dist/scripts"))
	require.NoError(t, err)
	assert.Equal(t, []string{"dist/scripts/my.js", "dist/scripts/vendor/lib.js"}, rel(t, root, written))

	lib, err := os.ReadFile(filepath.Join(root, "dist/scripts/vendor/lib.js"))
	require.NoError(t, err)
	assert.Equal(t, "lib", string(lib))

	_, err = os.Stat(filepath.Join(root, "dist/scripts/modernizr.js"))
	require.NoError(t, err, "existing files are kept")
}

func TestCopier_CopyFile_MissingSource(t *testing.T) {
	root := t.TempDir()
	err := fs.NewCopier(fs.NewWalker()).CopyFile(filepath.Join(root, "nope"), filepath.Join(root, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrFileOpenFailed.Error())
}
