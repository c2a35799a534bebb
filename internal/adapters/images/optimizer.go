// Package images copies images to the destination through an optimizer chain
// that never makes a file larger.
package images

import (
	"bytes"
	"context"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/swatch/internal/adapters/fs"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ImageOptimizer = (*Optimizer)(nil)

// Pass produces a candidate encoding of an image. A pass that cannot handle
// its input returns an error and the candidate is discarded.
type Pass func(data []byte) ([]byte, error)

// Optimizer implements ports.ImageOptimizer.
type Optimizer struct {
	walker *fs.Walker
	passes map[string][]Pass
}

// NewOptimizer creates an Optimizer with the default passes per extension.
// JPEG files are copied as is since every available encoder is lossy.
func NewOptimizer(walker *fs.Walker) *Optimizer {
	m := minify.New()
	m.AddFunc("image/svg+xml", svg.Minify)

	return &Optimizer{
		walker: walker,
		passes: map[string][]Pass{
			".svg": {func(data []byte) ([]byte, error) { return m.Bytes("image/svg+xml", data) }},
			".png": {recodePNG},
			".gif": {recodeGIF},
		},
	}
}

// WithPass appends a pass for files with extension ext, e.g. ".webp".
func (o *Optimizer) WithPass(ext string, p Pass) *Optimizer {
	ext = strings.ToLower(ext)
	o.passes[ext] = append(o.passes[ext], p)
	return o
}

// Optimize writes the smallest candidate of every file below srcDir into the
// same relative path under dstDir. The original is always a candidate.
func (o *Optimizer) Optimize(ctx context.Context, srcDir, dstDir string) (*ports.ImageReport, error) {
	report := &ports.ImageReport{}

	for path := range o.walker.WalkFiles(srcDir, nil) {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return report, err
		}

		data, err := os.ReadFile(path) //nolint:gosec // Path comes from walking the image directory
		if err != nil {
			return report, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path)
		}

		best := o.smallest(strings.ToLower(filepath.Ext(path)), data)
		if err := fs.WriteFileAtomic(filepath.Join(dstDir, rel), best); err != nil {
			return report, err
		}

		report.Files++
		report.BytesBefore += int64(len(data))
		report.BytesAfter += int64(len(best))
	}
	return report, nil
}

func (o *Optimizer) smallest(ext string, data []byte) []byte {
	best := data
	for _, pass := range o.passes[ext] {
		candidate, err := pass(best)
		if err != nil || len(candidate) == 0 {
			continue
		}
		if len(candidate) < len(best) {
			best = candidate
		}
	}
	return best
}

func recodePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// recodeGIF re-encodes every frame losslessly, keeping delays and loop count.
func recodeGIF(data []byte) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
