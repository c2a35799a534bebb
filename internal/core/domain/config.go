package domain

import "path/filepath"

// Default bundle names.
const (
	BundleFabricator = "fabricator"
	BundleToolkit    = "toolkit"
)

// Project is a loaded configuration together with the task graph derived from it.
type Project struct {
	Config *BuildConfig
	Graph  *Graph
}

// BuildConfig is the static description of one build invocation.
// All paths except Root are relative to Root and use forward slashes.
type BuildConfig struct {
	Dev      bool
	Root     string
	Dest     string
	Browsers []Browser
	Styles   map[string]StyleBundle
	Scripts  map[string]ScriptBundle
	Shame    Shame
	Images   Images
	Favicon  Favicon
	Icons    Icons
	Assemble Assemble
	Server   Server
	Test     StyleTest
	Watch    []WatchBinding
}

// Abs resolves a configured path against the project root.
func (c *BuildConfig) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// Browser is one entry of the supported browser window, e.g. "safari 11".
type Browser struct {
	Engine  string
	Version string
}

// StyleBundle describes one stylesheet bundle.
type StyleBundle struct {
	Name   string
	Entry  string
	Output string
	// Preprocessor is an optional command compiling Entry into plain CSS.
	// The placeholders {in} and {out} are replaced with absolute paths.
	Preprocessor        []string
	CombineMediaQueries bool
	EmbedImages         *EmbedImages
}

// SourceMap returns the path of the linked source map.
func (b StyleBundle) SourceMap() string {
	return b.Output + ".map"
}

// EmbedImages configures inlining of small images referenced by url().
type EmbedImages struct {
	Dir        string
	Extensions []string
	Limit      int64
}

// ScriptBundle describes one script bundle.
type ScriptBundle struct {
	Name   string
	Entry  string
	Output string
}

// Shame describes the unbundled scripts copied verbatim, and the feature
// detection snippet generated next to them.
type Shame struct {
	Src      string
	Output   string
	Features []string
}

// FeatureFile is the name of the generated feature detection script.
const FeatureFile = "modernizr.js"

// FeatureOutput returns the path of the generated feature detection script.
func (s Shame) FeatureOutput() string {
	return s.Output + "/" + FeatureFile
}

// Images describes the raster and vector images passed through the optimizer.
type Images struct {
	Src    string
	Output string
}

// Favicon describes the favicon copied to the destination root.
type Favicon struct {
	Src    string
	Output string
}

// Icons describes the directory of SVG icons merged into one sprite.
type Icons struct {
	Src    string
	Output string
}

// Assemble describes the inputs of the page assembler.
type Assemble struct {
	Layouts   string
	Layout    string
	Materials string
	Data      string
	Docs      string
	Views     string
	Output    string
}

// StyleTest configures the checks the test task runs over compiled stylesheets.
type StyleTest struct {
	// Bundles are the style bundles whose outputs are checked.
	Bundles []string
	// Threshold is the CIEDE2000 distance below which two colors collide.
	Threshold float64
	// Ignore lists colors, as lowercase #rrggbb, exempt from collisions.
	Ignore []string
	// Strict turns collisions into errors.
	Strict bool
}

// Server configures the development server.
type Server struct {
	Host string
	Port int
}

// KnownFeatures lists the feature detection tests the snippet generator supports.
var KnownFeatures = []string{
	"cssgrid",
	"flexbox",
	"flexwrap",
	"inlinesvg",
	"localstorage",
	"svg",
	"touchevents",
}
