// Package styles compiles stylesheet bundles with esbuild.
package styles

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/swatch/internal/adapters/esbuild"
	"go.trai.ch/swatch/internal/adapters/fs"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
)

// Compiler implements ports.StyleCompiler.
type Compiler struct{}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile resolves imports, lowers and prefixes for the browser window,
// optionally merges media queries and inlines small images, then writes the
// stylesheet and its linked source map. Production builds are minified.
func (c *Compiler) Compile(ctx context.Context, req ports.StyleRequest) (*ports.StyleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := req.Source
	if source == "" {
		source = req.Bundle.Entry
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(req.Root, source)
	}
	outfile := filepath.Join(req.Root, filepath.FromSlash(req.Bundle.Output))

	opts := api.BuildOptions{
		EntryPoints:      []string{source},
		Outfile:          outfile,
		AbsWorkingDir:    req.Root,
		Bundle:           true,
		Write:            false,
		LogLevel:         api.LogLevelSilent,
		Sourcemap:        api.SourceMapLinked,
		SourcesContent:   api.SourcesContentInclude,
		Charset:          api.CharsetUTF8,
		Engines:          esbuild.Engines(req.Browsers),
		MinifyWhitespace: !req.Dev,
		MinifySyntax:     !req.Dev,
		Loader:           map[string]api.Loader{".css": api.LoaderCSS},
		Plugins:          []api.Plugin{urlPlugin(req.Root, req.Bundle.EmbedImages)},
	}
	if req.Bundle.CombineMediaQueries {
		opts.Plugins = append(opts.Plugins, combineMediaQueriesPlugin())
	}
	if embed := req.Bundle.EmbedImages; embed != nil {
		for _, ext := range embed.Extensions {
			opts.Loader["."+strings.TrimPrefix(ext, ".")] = api.LoaderDataURL
		}
	}

	result := api.Build(opts)
	res := &ports.StyleResult{Diagnostics: esbuild.Diagnostics(req.Root, result.Errors, result.Warnings)}
	if len(result.Errors) > 0 {
		return res, nil
	}

	for _, file := range result.OutputFiles {
		if err := fs.WriteFileAtomic(file.Path, file.Contents); err != nil {
			return res, err
		}
		res.Outputs = append(res.Outputs, file.Path)
	}
	slices.Sort(res.Outputs)
	return res, nil
}

// urlPlugin decides what happens to url() references: images with an embedded
// extension at or below the size limit are inlined as data URIs, everything
// else stays an external reference.
func urlPlugin(root string, embed *domain.EmbedImages) api.Plugin {
	return api.Plugin{
		Name: "swatch-url",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Kind != api.ResolveCSSURLToken {
					return api.OnResolveResult{}, nil
				}
				if path, ok := embeddable(root, embed, args); ok {
					return api.OnResolveResult{Path: path}, nil
				}
				return api.OnResolveResult{Path: args.Path, External: true}, nil
			})
		},
	}
}

func embeddable(root string, embed *domain.EmbedImages, args api.OnResolveArgs) (string, bool) {
	if embed == nil || strings.Contains(args.Path, ":") || strings.ContainsAny(args.Path, "?#") {
		return "", false
	}
	ext := strings.TrimPrefix(filepath.Ext(args.Path), ".")
	if !slices.Contains(embed.Extensions, strings.ToLower(ext)) {
		return "", false
	}

	rel := filepath.FromSlash(args.Path)
	candidates := []string{filepath.Join(args.ResolveDir, rel)}
	if embed.Dir != "" {
		dir := filepath.Join(root, filepath.FromSlash(embed.Dir))
		candidates = append(candidates, filepath.Join(dir, rel), filepath.Join(dir, filepath.Base(rel)))
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return candidate, info.Size() <= embed.Limit
	}
	return "", false
}

func combineMediaQueriesPlugin() api.Plugin {
	return api.Plugin{
		Name: "swatch-combine-mq",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.css$`, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				// #nosec G304 -- path comes from esbuild's resolver
				data, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "file", args.Path)
				}
				merged, err := CombineMediaQueries(data)
				if err != nil {
					return api.OnLoadResult{}, zerr.With(err, "file", args.Path)
				}
				contents := string(merged)
				return api.OnLoadResult{Contents: &contents, Loader: api.LoaderCSS}, nil
			})
		},
	}
}
