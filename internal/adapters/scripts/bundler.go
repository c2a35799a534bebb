// Package scripts bundles script entry points and generates the feature
// detection snippet.
package scripts

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tidwall/gjson"
	"go.trai.ch/swatch/internal/adapters/esbuild"
	"go.trai.ch/swatch/internal/adapters/fs"
	"go.trai.ch/swatch/internal/core/ports"
)

// Bundler implements ports.ScriptBundler on top of esbuild incremental contexts.
// Each entry point keeps its own context so unchanged modules are not re-parsed
// between watch mode rebuilds.
type Bundler struct {
	mu    sync.Mutex
	cache map[string]*cachedContext
}

type cachedContext struct {
	build api.BuildContext
	// key fingerprints the options the context was created with.
	key string
	// inputs are the absolute paths of every module in the last successful bundle.
	inputs map[string]struct{}
}

// NewBundler creates a Bundler with an empty cache.
func NewBundler() *Bundler {
	return &Bundler{cache: make(map[string]*cachedContext)}
}

// Bundle builds one entry point and writes the bundle and its linked source map.
func (b *Bundler) Bundle(ctx context.Context, req ports.BundleRequest) (*ports.BundleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := filepath.Join(req.Root, filepath.FromSlash(req.Bundle.Entry))
	outfile := filepath.Join(req.Root, filepath.FromSlash(req.Bundle.Output))
	key := fingerprint(outfile, req)

	b.mu.Lock()
	defer b.mu.Unlock()

	cached := b.cache[entry]
	if cached != nil && cached.key != key {
		cached.build.Dispose()
		delete(b.cache, entry)
		cached = nil
	}

	if cached == nil {
		build, ctxErr := api.Context(buildOptions(entry, outfile, req))
		if ctxErr != nil {
			return &ports.BundleResult{Diagnostics: esbuild.Diagnostics(req.Root, ctxErr.Errors, nil)}, nil
		}
		cached = &cachedContext{build: build, key: key}
		b.cache[entry] = cached
	}

	result := cached.build.Rebuild()
	res := &ports.BundleResult{Diagnostics: esbuild.Diagnostics(req.Root, result.Errors, result.Warnings)}
	if len(result.Errors) > 0 {
		return res, nil
	}

	cached.inputs = metafileInputs(req.Root, result.Metafile)

	for _, file := range result.OutputFiles {
		if err := fs.WriteFileAtomic(file.Path, file.Contents); err != nil {
			return res, err
		}
		res.Outputs = append(res.Outputs, file.Path)
	}
	slices.Sort(res.Outputs)
	return res, nil
}

// Invalidate disposes every cached context whose last bundle included path.
func (b *Bundler) Invalidate(path string) int {
	path = filepath.Clean(path)

	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for entry, cached := range b.cache {
		if _, ok := cached.inputs[path]; !ok && entry != path {
			continue
		}
		cached.build.Dispose()
		delete(b.cache, entry)
		dropped++
	}
	return dropped
}

// Cached reports the number of entry points with a live context.
func (b *Bundler) Cached() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cache)
}

// Close disposes every cached context.
func (b *Bundler) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for entry, cached := range b.cache {
		cached.build.Dispose()
		delete(b.cache, entry)
	}
}

func buildOptions(entry, outfile string, req ports.BundleRequest) api.BuildOptions {
	mode := "production"
	if req.Dev {
		mode = "development"
	}

	return api.BuildOptions{
		EntryPoints:       []string{entry},
		Outfile:           outfile,
		AbsWorkingDir:     req.Root,
		Bundle:            true,
		Write:             false,
		Metafile:          true,
		Format:            api.FormatIIFE,
		LogLevel:          api.LogLevelSilent,
		Sourcemap:         api.SourceMapLinked,
		SourcesContent:    api.SourcesContentInclude,
		Charset:           api.CharsetUTF8,
		Engines:           esbuild.Engines(req.Browsers),
		MinifyWhitespace:  !req.Dev,
		MinifySyntax:      !req.Dev,
		MinifyIdentifiers: !req.Dev,
		Define:            map[string]string{"process.env.NODE_ENV": `"` + mode + `"`},
	}
}

func fingerprint(outfile string, req ports.BundleRequest) string {
	var sb strings.Builder
	sb.WriteString(outfile)
	if req.Dev {
		sb.WriteString("|dev")
	}
	for _, browser := range req.Browsers {
		sb.WriteString("|" + browser.Engine + " " + browser.Version)
	}
	return sb.String()
}

// metafileInputs lists the modules of a bundle from esbuild's metafile.
// Keys are relative to the working directory; namespaced virtual modules are skipped.
func metafileInputs(root, metafile string) map[string]struct{} {
	inputs := make(map[string]struct{})
	gjson.Get(metafile, "inputs").ForEach(func(key, _ gjson.Result) bool {
		p := key.String()
		if strings.Contains(p, ":") && !filepath.IsAbs(p) {
			return true
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, filepath.FromSlash(p))
		}
		inputs[filepath.Clean(p)] = struct{}{}
		return true
	})
	return inputs
}

var _ ports.ScriptBundler = (*Bundler)(nil)
