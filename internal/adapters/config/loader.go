// Package config provides the configuration loader for swatch.
package config

import (
	"bytes"
	"errors"
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

var (
	validTaskNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")
	browserVersion     = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)
	hexColor           = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// knownEngines are the browser engines a version window may name.
var knownEngines = []string{"chrome", "edge", "firefox", "ie", "ios", "opera", "safari"}

// Load finds swatch.yaml by walking up from cwd, applies defaults and builds
// the validated task graph. Without a configuration file the built-in layout
// is used with cwd as the project root.
func (l *Loader) Load(cwd string, opts ports.LoadOptions) (*domain.Project, error) {
	configPath, err := l.findConfiguration(cwd, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	var file Swatchfile
	root := cwd
	if configPath != "" {
		if err := readAndUnmarshalYAML(configPath, &file); err != nil {
			return nil, zerr.With(err, "path", configPath)
		}
		root = resolveRoot(configPath, file.Root)
	}

	cfg, err := buildConfig(root, &file)
	if err != nil {
		return nil, err
	}
	cfg.Dev = opts.Dev || l.devFromEnvironment(root)

	g, err := buildGraph(cfg, file.Tasks)
	if err != nil {
		return nil, err
	}

	if file.Watch != nil {
		cfg.Watch, err = buildWatch(file.Watch)
		if err != nil {
			return nil, err
		}
	} else {
		cfg.Watch = defaultWatch(cfg)
	}
	if err := validateWatch(cfg.Watch, g); err != nil {
		return nil, err
	}

	return &domain.Project{Config: cfg, Graph: g}, nil
}

func (l *Loader) findConfiguration(cwd, explicit string) (string, error) {
	if explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(cwd, explicit)
		}
		if _, err := os.Stat(explicit); err != nil {
			return "", zerr.With(domain.ErrConfigNotFound, "path", explicit)
		}
		return explicit, nil
	}

	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

// devFromEnvironment reports whether SWATCH_DEV is truthy in the process
// environment or in the project's .env file.
func (l *Loader) devFromEnvironment(root string) bool {
	if v, ok := os.LookupEnv(domain.DevEnvVar); ok {
		return truthy(v)
	}

	env, err := godotenv.Read(filepath.Join(root, domain.EnvFileName))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && l.Logger != nil {
			l.Logger.Warn("ignoring unreadable " + domain.EnvFileName + ": " + err.Error())
		}
		return false
	}
	return truthy(env[domain.DevEnvVar])
}

func truthy(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func buildConfig(root string, file *Swatchfile) (*domain.BuildConfig, error) {
	dest := path.Clean(filepath.ToSlash(orDefault(file.Dest, defaultDest)))
	if dest == "." || dest == "/" || strings.HasPrefix(dest, "../") || path.IsAbs(dest) {
		return nil, zerr.With(zerr.With(domain.ErrConfigInvalid, "field", "dest"), "value", dest)
	}

	cfg := &domain.BuildConfig{
		Root:    root,
		Dest:    dest,
		Styles:  make(map[string]domain.StyleBundle),
		Scripts: make(map[string]domain.ScriptBundle),
	}

	browsers, err := parseBrowsers(file.Browsers)
	if err != nil {
		return nil, err
	}
	cfg.Browsers = browsers

	if err := applyStyles(cfg, file.Styles); err != nil {
		return nil, err
	}
	if err := applyScripts(cfg, file.Scripts); err != nil {
		return nil, err
	}
	if err := applyShame(cfg, file.Shame); err != nil {
		return nil, err
	}

	images := mergeCopy(file.Images, defaultImages)
	cfg.Images = domain.Images{Src: images.Src, Output: inDest(dest, images.Output)}
	favicon := mergeCopy(file.Favicon, defaultFavicon)
	cfg.Favicon = domain.Favicon{Src: favicon.Src, Output: inDest(dest, favicon.Output)}
	icons := mergeCopy(file.Icons, defaultIcons)
	cfg.Icons = domain.Icons{Src: icons.Src, Output: inDest(dest, icons.Output)}

	assemble := defaultAssemble
	if file.Assemble != nil {
		a := file.Assemble
		assemble = AssembleDTO{
			Layouts:   orDefault(a.Layouts, defaultAssemble.Layouts),
			Layout:    orDefault(a.Layout, defaultAssemble.Layout),
			Materials: orDefault(a.Materials, defaultAssemble.Materials),
			Data:      orDefault(a.Data, defaultAssemble.Data),
			Docs:      orDefault(a.Docs, defaultAssemble.Docs),
			Views:     orDefault(a.Views, defaultAssemble.Views),
			Output:    a.Output,
		}
	}
	cfg.Assemble = domain.Assemble{
		Layouts:   assemble.Layouts,
		Layout:    assemble.Layout,
		Materials: assemble.Materials,
		Data:      assemble.Data,
		Docs:      assemble.Docs,
		Views:     assemble.Views,
		Output:    inDest(dest, assemble.Output),
	}

	if err := applyTest(cfg, file.Test); err != nil {
		return nil, err
	}

	cfg.Server = domain.Server{Host: defaultHost, Port: defaultPort}
	if file.Server != nil {
		cfg.Server.Host = orDefault(file.Server.Host, defaultHost)
		if file.Server.Port != 0 {
			cfg.Server.Port = file.Server.Port
		}
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, zerr.With(zerr.With(domain.ErrConfigInvalid, "field", "server.port"), "value", cfg.Server.Port)
	}

	return cfg, nil
}

func parseBrowsers(entries []string) ([]domain.Browser, error) {
	if len(entries) == 0 {
		entries = defaultBrowsers
	}

	browsers := make([]domain.Browser, 0, len(entries))
	for _, entry := range entries {
		fields := strings.Fields(strings.ToLower(entry))
		if len(fields) != 2 || !slices.Contains(knownEngines, fields[0]) || !browserVersion.MatchString(fields[1]) {
			return nil, zerr.With(domain.ErrInvalidBrowser, "browser", entry)
		}
		browsers = append(browsers, domain.Browser{Engine: fields[0], Version: fields[1]})
	}
	return browsers, nil
}

// applyStyles uses the configured bundles when the styles section is present.
// Bundles named like a built-in bundle inherit its unset fields.
func applyStyles(cfg *domain.BuildConfig, styles map[string]*StyleBundleDTO) error {
	if styles == nil {
		styles = make(map[string]*StyleBundleDTO, len(defaultStyles))
		for name, dto := range defaultStyles {
			styles[name] = &dto
		}
	}

	for _, name := range sortedKeys(styles) {
		if err := validateBundleName(name); err != nil {
			return err
		}
		dto := styles[name]
		if dto == nil {
			dto = &StyleBundleDTO{}
		}
		def := defaultStyles[name]

		bundle := domain.StyleBundle{
			Name:         name,
			Entry:        orDefault(dto.Entry, def.Entry),
			Output:       orDefault(dto.Output, def.Output),
			Preprocessor: dto.Preprocessor,
		}
		if bundle.Entry == "" || bundle.Output == "" {
			return zerr.With(zerr.With(domain.ErrConfigInvalid, "field", "styles."+name), "reason", "entry and output are required")
		}
		if needsPreprocessor(bundle.Entry) && len(bundle.Preprocessor) == 0 {
			err := zerr.With(zerr.With(domain.ErrConfigInvalid, "field", "styles."+name+".preprocessor"), "entry", bundle.Entry)
			return zerr.With(err, "reason", "a "+path.Ext(bundle.Entry)+" entry needs a preprocessor such as [sass, \"{in}\", \"{out}\"]")
		}
		bundle.Output = inDest(cfg.Dest, bundle.Output)

		switch {
		case dto.CombineMediaQueries != nil:
			bundle.CombineMediaQueries = *dto.CombineMediaQueries
		case def.CombineMediaQueries != nil:
			bundle.CombineMediaQueries = *def.CombineMediaQueries
		}

		embed := dto.EmbedImages
		if embed == nil {
			embed = def.EmbedImages
		}
		if embed != nil {
			limit := embed.Limit
			if limit <= 0 {
				limit = defaultEmbedLimit
			}
			bundle.EmbedImages = &domain.EmbedImages{Dir: embed.Dir, Extensions: embed.Extensions, Limit: limit}
			if embed.Dir == "" || len(embed.Extensions) == 0 {
				return zerr.With(zerr.With(domain.ErrConfigInvalid, "field", "styles."+name+".embedImages"), "reason", "dir and extensions are required")
			}
		}

		cfg.Styles[name] = bundle
	}
	return nil
}

// needsPreprocessor reports whether entry is a syntax the CSS bundler cannot read.
func needsPreprocessor(entry string) bool {
	switch strings.ToLower(path.Ext(entry)) {
	case ".scss", ".sass", ".less", ".styl":
		return true
	default:
		return false
	}
}

func applyScripts(cfg *domain.BuildConfig, scripts map[string]*ScriptDTO) error {
	if scripts == nil {
		scripts = make(map[string]*ScriptDTO, len(defaultScripts))
		for name, dto := range defaultScripts {
			scripts[name] = &dto
		}
	}

	for _, name := range sortedKeys(scripts) {
		if err := validateBundleName(name); err != nil {
			return err
		}
		dto := scripts[name]
		if dto == nil {
			dto = &ScriptDTO{}
		}
		def := defaultScripts[name]

		bundle := domain.ScriptBundle{
			Name:   name,
			Entry:  orDefault(dto.Entry, def.Entry),
			Output: orDefault(dto.Output, def.Output),
		}
		if bundle.Entry == "" || bundle.Output == "" {
			return zerr.With(zerr.With(domain.ErrConfigInvalid, "field", "scripts."+name), "reason", "entry and output are required")
		}
		bundle.Output = inDest(cfg.Dest, bundle.Output)
		cfg.Scripts[name] = bundle
	}
	return nil
}

func applyShame(cfg *domain.BuildConfig, dto *ShameDTO) error {
	shame := defaultShame
	if dto != nil {
		shame.Src = orDefault(dto.Src, defaultShame.Src)
		shame.Output = orDefault(dto.Output, defaultShame.Output)
		if dto.Features != nil {
			shame.Features = dto.Features
		}
	}

	for _, feature := range shame.Features {
		if !slices.Contains(domain.KnownFeatures, feature) {
			return zerr.With(domain.ErrUnknownFeature, "feature", feature)
		}
	}

	cfg.Shame = domain.Shame{
		Src:      shame.Src,
		Output:   inDest(cfg.Dest, shame.Output),
		Features: slices.Compact(slices.Sorted(slices.Values(shame.Features))),
	}
	return nil
}

// applyTest checks the toolkit bundle by default, or every bundle when the
// styles section has none.
func applyTest(cfg *domain.BuildConfig, dto *StyleTestDTO) error {
	if dto == nil {
		dto = &StyleTestDTO{}
	}

	test := domain.StyleTest{Threshold: defaultColorThreshold, Strict: dto.Strict}
	switch {
	case len(dto.Bundles) > 0:
		for _, name := range dto.Bundles {
			if _, ok := cfg.Styles[name]; !ok {
				return zerr.With(zerr.With(domain.ErrConfigInvalid, "field", "test.bundles"), "value", name)
			}
		}
		test.Bundles = slices.Compact(slices.Sorted(slices.Values(dto.Bundles)))
	case hasKey(cfg.Styles, domain.BundleToolkit):
		test.Bundles = []string{domain.BundleToolkit}
	default:
		test.Bundles = sortedKeys(cfg.Styles)
	}

	if dto.Threshold < 0 {
		return zerr.With(zerr.With(domain.ErrConfigInvalid, "field", "test.threshold"), "value", dto.Threshold)
	}
	if dto.Threshold > 0 {
		test.Threshold = dto.Threshold
	}

	for _, color := range dto.Ignore {
		hex, ok := normalizeHex(color)
		if !ok {
			err := zerr.With(domain.ErrConfigInvalid, "field", "test.ignore")
			return zerr.With(zerr.With(err, "value", color), "reason", "colors are written as #rgb or #rrggbb")
		}
		test.Ignore = append(test.Ignore, hex)
	}
	slices.Sort(test.Ignore)
	test.Ignore = slices.Compact(test.Ignore)

	cfg.Test = test
	return nil
}

// normalizeHex expands #rgb and lowercases the result.
func normalizeHex(color string) (string, bool) {
	if !hexColor.MatchString(color) {
		return "", false
	}
	color = strings.ToLower(color)
	if len(color) == 4 {
		color = string([]byte{'#', color[1], color[1], color[2], color[2], color[3], color[3]})
	}
	return color, true
}

func hasKey[V any](m map[string]V, key string) bool {
	_, ok := m[key]
	return ok
}

func mergeCopy(dto *CopyDTO, def CopyDTO) CopyDTO {
	if dto == nil {
		return def
	}
	return CopyDTO{Src: orDefault(dto.Src, def.Src), Output: orDefault(dto.Output, def.Output)}
}

func buildWatch(dtos []WatchDTO) ([]domain.WatchBinding, error) {
	bindings := make([]domain.WatchBinding, 0, len(dtos))
	for _, dto := range dtos {
		reload := domain.ReloadKind(orDefault(dto.Reload, string(domain.ReloadPage)))
		if !reload.Valid() {
			err := zerr.With(domain.ErrConfigInvalid, "field", "watch.reload")
			return nil, zerr.With(err, "value", dto.Reload)
		}
		bindings = append(bindings, domain.WatchBinding{
			Pattern:           dto.Pattern,
			Task:              domain.NewInternedString(dto.Task),
			Reload:            reload,
			InvalidateScripts: dto.InvalidateScripts,
		})
	}
	return bindings, nil
}

func validateWatch(bindings []domain.WatchBinding, g *domain.Graph) error {
	for _, b := range bindings {
		if _, err := domain.CompilePattern(b.Pattern); err != nil {
			return err
		}
		if _, ok := g.GetTask(b.Task); !ok {
			return zerr.With(zerr.With(domain.ErrTaskNotFound, "task", b.Task.String()), "pattern", b.Pattern)
		}
	}
	return nil
}

func validateBundleName(name string) error {
	if !validTaskNameRegex.MatchString(name) {
		return zerr.With(zerr.With(domain.ErrConfigInvalid, "field", "bundle name"), "value", name)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML reads a YAML file and decodes it strictly into target.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(configFile))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return nil
}
