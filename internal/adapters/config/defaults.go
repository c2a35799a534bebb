package config

import (
	"path"

	"go.trai.ch/swatch/internal/core/domain"
)

// Built-in layout of a style guide project. Source paths are relative to the
// project root, outputs are relative to the destination.
const (
	defaultDest = "dist"
	defaultHost = "localhost"
	defaultPort = 3000

	defaultEmbedLimit = 8 * 1024

	// defaultColorThreshold is the CIEDE2000 distance under which two colors
	// count as the same color.
	defaultColorThreshold = 3
)

// defaultBrowsers approximates "last 1 version" of the major engines.
var defaultBrowsers = []string{"chrome 120", "edge 120", "firefox 121", "safari 17", "ios 17"}

var defaultStyles = map[string]StyleBundleDTO{
	domain.BundleFabricator: {
		Entry:  "src/assets/fabricator/styles/fabricator.css",
		Output: "assets/fabricator/styles/f.css",
	},
	domain.BundleToolkit: {
		Entry:               "src/assets/toolkit/styles/toolkit.css",
		Output:              "assets/toolkit/styles/toolkit.css",
		CombineMediaQueries: ptr(true),
		EmbedImages: &EmbedImagesDTO{
			Dir:        "src/assets/toolkit/images",
			Extensions: []string{"jpg", "png"},
			Limit:      defaultEmbedLimit,
		},
	},
}

var defaultScripts = map[string]ScriptDTO{
	domain.BundleFabricator: {
		Entry:  "src/assets/fabricator/scripts/fabricator.js",
		Output: "assets/fabricator/scripts/f.js",
	},
}

var (
	defaultShame    = ShameDTO{Src: "src/assets/toolkit/scripts", Output: "assets/toolkit/scripts", Features: []string{"svg", "flexbox"}}
	defaultImages   = CopyDTO{Src: "src/assets/toolkit/images", Output: "assets/toolkit/images"}
	defaultFavicon  = CopyDTO{Src: "src/favicon.ico", Output: "favicon.ico"}
	defaultIcons    = CopyDTO{Src: "src/assets/toolkit/svgIcons", Output: "assets/toolkit/svgIcons/svgIcons.svg"}
	defaultAssemble = AssembleDTO{
		Layouts:   "src/views/layouts",
		Layout:    "default",
		Materials: "src/materials",
		Data:      "src/data",
		Docs:      "src/docs",
		Views:     "src/views",
	}
)

func ptr[T any](v T) *T {
	return &v
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// inDest joins a destination relative output with the destination root.
func inDest(dest, output string) string {
	return path.Join(dest, output)
}

// defaultWatch mirrors the source layout: content changes reassemble pages,
// stylesheet changes are injected, script and image changes reload the page.
func defaultWatch(cfg *domain.BuildConfig) []domain.WatchBinding {
	var bindings []domain.WatchBinding

	add := func(pattern, task string, reload domain.ReloadKind, invalidate bool) {
		bindings = append(bindings, domain.WatchBinding{
			Pattern:           pattern,
			Task:              domain.NewInternedString(task),
			Reload:            reload,
			InvalidateScripts: invalidate,
		})
	}

	add("src/**/*.{html,md,json,yml,yaml}", domain.TaskAssemble, domain.ReloadPage, false)
	for _, name := range sortedKeys(cfg.Styles) {
		dir := path.Dir(cfg.Styles[name].Entry)
		add(dir+"/**/*.{css,scss,sass}", domain.StyleTaskName(name), domain.ReloadInject, false)
	}
	for _, name := range sortedKeys(cfg.Scripts) {
		dir := path.Dir(cfg.Scripts[name].Entry)
		add(dir+"/**/*.js", domain.TaskScripts, domain.ReloadPage, true)
	}
	if cfg.Shame.Src != "" {
		add(cfg.Shame.Src+"/**/*.js", domain.TaskScriptsShame, domain.ReloadNone, false)
	}
	if cfg.Images.Src != "" {
		add(cfg.Images.Src+"/**/*", domain.TaskImages, domain.ReloadPage, false)
	}
	if cfg.Icons.Src != "" {
		add(cfg.Icons.Src+"/**/*.svg", domain.TaskSvgIcons, domain.ReloadPage, false)
	}
	return bindings
}
