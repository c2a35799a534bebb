package ports

import (
	"context"

	"go.trai.ch/swatch/internal/core/domain"
)

//go:generate mockgen -source=tools.go -destination=mocks/mock_tools.go -package=mocks

// StyleRequest describes one stylesheet compilation.
type StyleRequest struct {
	Root     string
	Bundle   domain.StyleBundle
	Browsers []domain.Browser
	// Source is the file handed to the bundler, either the entry or the
	// preprocessed stage file.
	Source string
	Dev    bool
}

// StyleResult is the outcome of a stylesheet compilation.
type StyleResult struct {
	Outputs     []string
	Diagnostics []domain.Diagnostic
}

// StyleCompiler compiles stylesheet bundles.
type StyleCompiler interface {
	// Compile builds one bundle. Problems located in sources are returned as
	// diagnostics; nothing is written when any error diagnostic is present.
	Compile(ctx context.Context, req StyleRequest) (*StyleResult, error)
}

// BundleRequest describes one script bundle.
type BundleRequest struct {
	Root     string
	Bundle   domain.ScriptBundle
	Browsers []domain.Browser
	Dev      bool
}

// BundleResult is the outcome of a script bundle.
type BundleResult struct {
	Outputs     []string
	Diagnostics []domain.Diagnostic
}

// ScriptBundler bundles script entry points and keeps an incremental cache per entry.
type ScriptBundler interface {
	// Bundle builds one entry point, reusing cached module resolution when possible.
	// Compilation problems are reported as diagnostics, never as the error value.
	Bundle(ctx context.Context, req BundleRequest) (*BundleResult, error)
	// Invalidate drops every cached bundle whose inputs contain path.
	// It returns the number of dropped entries.
	Invalidate(path string) int
	// Close releases all cached bundles.
	Close()
}

// FeatureGenerator produces the feature detection script.
type FeatureGenerator interface {
	Generate(ctx context.Context, features []string, dev bool) ([]byte, error)
}

// StyleStatsRequest describes one run of the stylesheet checks.
type StyleStatsRequest struct {
	// Files are absolute paths of compiled stylesheets.
	Files     []string
	Threshold float64
	Ignore    []string
	Strict    bool
}

// ColorCollision is a pair of distinct colors closer than the threshold.
type ColorCollision struct {
	A, B     string
	Distance float64
}

// StyleStats holds the metrics of one stylesheet.
type StyleStats struct {
	File                   string
	Size                   int
	Rules                  int
	Selectors              int
	Declarations           int
	IdentifiersPerSelector float64
	SpecificityPerSelector float64
	TopSpecificity         int
	TopSelector            string
	IDSelectors            int
	Importants             int
	MediaQueries           []string
	Colors                 []string
	Collisions             []ColorCollision
}

// StyleStatsResult is the outcome of the stylesheet checks.
type StyleStatsResult struct {
	Stats       []StyleStats
	Diagnostics []domain.Diagnostic
}

// StyleAnalyzer inspects compiled stylesheets.
type StyleAnalyzer interface {
	// Analyze reports metrics per file. Color collisions are diagnostics,
	// errors when the request is strict and warnings otherwise.
	Analyze(ctx context.Context, req StyleStatsRequest) (*StyleStatsResult, error)
}

// SpriteBuilder merges a directory of SVG icons into one sprite document.
type SpriteBuilder interface {
	Build(ctx context.Context, srcDir string) ([]byte, error)
}

// ImageReport summarizes an optimization run.
type ImageReport struct {
	Files       int
	BytesBefore int64
	BytesAfter  int64
}

// ImageOptimizer copies images through the optimizer chain.
type ImageOptimizer interface {
	// Optimize processes every file under srcDir into dstDir.
	// No output file is ever larger than its input.
	Optimize(ctx context.Context, srcDir, dstDir string) (*ImageReport, error)
}

// AssembleRequest describes one assembly run.
type AssembleRequest struct {
	Root   string
	Config domain.Assemble
	// LogErrors reports failing pages and keeps going instead of failing the run.
	LogErrors bool
}

// Assembler turns templated views and content data into HTML pages.
type Assembler interface {
	// Assemble renders every view. It returns the written page paths.
	Assemble(ctx context.Context, req AssembleRequest) ([]string, error)
}

// FileCopier writes files into the destination tree atomically.
type FileCopier interface {
	// WriteFile writes data to path, creating parent directories.
	WriteFile(path string, data []byte) error
	// CopyFile copies a single file.
	CopyFile(src, dst string) error
	// CopyTree copies every regular file below src into dst, keeping relative paths.
	// It returns the destination paths.
	CopyTree(src, dst string) ([]string, error)
}
