package images_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/swatch/internal/adapters/fs"
	"go.trai.ch/swatch/internal/adapters/images"
	"go.trai.ch/swatch/internal/core/domain"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, data, domain.FilePerm))
}

// uncompressedPNG encodes a flat image without compression so any recode is smaller.
func uncompressedPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := range 64 {
		for y := range 64 {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(&buf, img))
	return buf.Bytes()
}

func TestOptimizer_Optimize(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	raster := uncompressedPNG(t)
	vector := []byte("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 10 10\">\n  <!-- dot -->\n  <circle cx=\"5\" cy=\"5\" r=\"4\" />\n</svg>\n")
	photo := []byte("\xff\xd8\xff\xe0 not really a jpeg")

	writeFile(t, filepath.Join(src, "logo.png"), raster)
	writeFile(t, filepath.Join(src, "icons/dot.svg"), vector)
	writeFile(t, filepath.Join(src, "photos/cat.jpg"), photo)

	report, err := images.NewOptimizer(fs.NewWalker()).Optimize(t.Context(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Files)
	assert.Equal(t, int64(len(raster)+len(vector)+len(photo)), report.BytesBefore)
	assert.Less(t, report.BytesAfter, report.BytesBefore)

	out, err := os.ReadFile(filepath.Join(dst, "logo.png"))
	require.NoError(t, err)
	assert.Less(t, len(out), len(raster))
	_, err = png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	out, err = os.ReadFile(filepath.Join(dst, "icons/dot.svg"))
	require.NoError(t, err)
	assert.Less(t, len(out), len(vector))
	assert.NotContains(t, string(out), "dot -->")

	out, err = os.ReadFile(filepath.Join(dst, "photos/cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, photo, out)
}

func TestOptimizer_Optimize_NeverLarger(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	original := []byte("tiny")
	writeFile(t, filepath.Join(src, "a.webp"), original)

	grow := func(data []byte) ([]byte, error) { return append(bytes.Clone(data), "padding"...), nil }
	opt := images.NewOptimizer(fs.NewWalker()).WithPass(".WEBP", grow)

	report, err := opt.Optimize(t.Context(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, report.BytesBefore, report.BytesAfter)

	out, err := os.ReadFile(filepath.Join(dst, "a.webp"))
	require.NoError(t, err)
	assert.Equal(t, original, out)
}

func TestOptimizer_Optimize_CorruptRasterIsCopied(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	corrupt := []byte("\x89PNG\r\n\x1a\ngarbage")
	writeFile(t, filepath.Join(src, "broken.png"), corrupt)

	_, err := images.NewOptimizer(fs.NewWalker()).Optimize(t.Context(), src, dst)
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(dst, "broken.png"))
	require.NoError(t, err)
	assert.Equal(t, corrupt, out)
}

func TestOptimizer_Optimize_SmallestCandidateWins(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a.bin"), []byte("0123456789"))

	opt := images.NewOptimizer(fs.NewWalker()).
		WithPass(".bin", func([]byte) ([]byte, error) { return []byte("01234"), nil }).
		WithPass(".bin", func([]byte) ([]byte, error) { return []byte("01"), nil }).
		WithPass(".bin", func([]byte) ([]byte, error) { return []byte("0123"), nil })

	_, err := opt.Optimize(t.Context(), src, dst)
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(dst, "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, "01", string(out))
}
