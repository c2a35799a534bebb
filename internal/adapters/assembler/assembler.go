// Package assembler renders HTML pages from layouts, materials, data, docs and views.
package assembler

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.trai.ch/swatch/internal/adapters/fs"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	bodyTemplate   = "body"
	layoutPrefix   = "layout:"
	htmlExt        = ".html"
	markdownExt    = ".md"
	defaultSection = "general"
)

var _ ports.Assembler = (*Assembler)(nil)

// Material is one pattern library entry, rendered for listing on a page.
type Material struct {
	Name       string
	Collection string
	Meta       map[string]any
	Notes      template.HTML
	HTML       template.HTML
}

// Page is the value every template executes with.
type Page struct {
	// Name is the view path relative to the views directory, without extension.
	Name string
	// Meta holds the front matter of the template being executed.
	Meta      map[string]any
	Data      map[string]any
	Docs      map[string]template.HTML
	Materials map[string][]Material
}

// Assembler implements ports.Assembler on html/template.
//
// Layouts are addressed by base name and include the view with {{ template "body" . }}.
// Every material is a named template, so views and other materials include
// it with {{ template "<name>" . }}.
type Assembler struct {
	walker *fs.Walker
	logger ports.Logger
	md     goldmark.Markdown
}

// New creates a new Assembler.
func New(walker *fs.Walker, logger ports.Logger) *Assembler {
	return &Assembler{
		walker: walker,
		logger: logger,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

type source struct {
	name string
	path string
	meta map[string]any
	body []byte
}

// Assemble renders every view under the views directory to <output>/<view>.html.
func (a *Assembler) Assemble(ctx context.Context, req ports.AssembleRequest) ([]string, error) {
	cfg := req.Config
	abs := func(rel string) string {
		if rel == "" || filepath.IsAbs(rel) {
			return rel
		}
		return filepath.Join(req.Root, filepath.FromSlash(rel))
	}

	data, err := a.loadData(abs(cfg.Data))
	if err != nil {
		return nil, err
	}
	docs, err := a.loadDocs(abs(cfg.Docs))
	if err != nil {
		return nil, err
	}

	materialsDir := abs(cfg.Materials)
	materials, err := a.loadSources(materialsDir, "")
	if err != nil {
		return nil, err
	}
	layouts, err := a.loadSources(abs(cfg.Layouts), "")
	if err != nil {
		return nil, err
	}

	base, err := a.baseTemplate(materials, layouts)
	if err != nil {
		return nil, err
	}

	page := Page{Data: data, Docs: docs, Materials: make(map[string][]Material)}
	for _, m := range materials {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		material, err := a.renderMaterial(base, materialsDir, m, page)
		if err != nil {
			if !req.LogErrors {
				return nil, err
			}
			a.logger.Error(err)
			continue
		}
		page.Materials[material.Collection] = append(page.Materials[material.Collection], material)
	}

	views, err := a.loadSources(abs(cfg.Views), abs(cfg.Layouts))
	if err != nil {
		return nil, err
	}

	var written []string
	for _, view := range views {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		out := filepath.Join(abs(cfg.Output), filepath.FromSlash(view.name)+htmlExt)
		if err := a.renderView(base, view, cfg.Layout, page, out); err != nil {
			if !req.LogErrors {
				return written, err
			}
			a.logger.Error(err)
			continue
		}
		written = append(written, out)
	}
	return written, nil
}

func (a *Assembler) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": func(s string) (template.HTML, error) {
			return a.markdown([]byte(s))
		},
	}
}

func (a *Assembler) baseTemplate(materials, layouts []source) (*template.Template, error) {
	base := template.New("").Funcs(a.funcs())
	seen := make(map[string]string)

	for _, m := range materials {
		name := filepath.Base(m.name)
		if prev, ok := seen[name]; ok {
			err := zerr.With(domain.ErrTemplateFailed, "reason", "duplicate material "+name)
			return nil, zerr.With(zerr.With(err, "first", prev), "second", m.path)
		}
		seen[name] = m.path
		if _, err := base.New(name).Parse(string(m.body)); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrTemplateFailed.Error()), "file", m.path)
		}
	}

	for _, l := range layouts {
		if _, err := base.New(layoutPrefix + l.name).Parse(string(l.body)); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrTemplateFailed.Error()), "file", l.path)
		}
	}
	return base, nil
}

func (a *Assembler) renderMaterial(base *template.Template, dir string, m source, page Page) (Material, error) {
	name := filepath.Base(m.name)
	collection := defaultSection
	if parent := filepath.ToSlash(filepath.Dir(m.name)); parent != "." {
		collection = parent
	}

	material := Material{Name: name, Collection: collection, Meta: m.meta}
	if notes, ok := m.meta["notes"].(string); ok {
		rendered, err := a.markdown([]byte(notes))
		if err != nil {
			return Material{}, zerr.With(err, "file", m.path)
		}
		material.Notes = rendered
	}

	t, err := base.Clone()
	if err != nil {
		return Material{}, zerr.Wrap(err, domain.ErrTemplateFailed.Error())
	}
	page.Name = name
	page.Meta = m.meta

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, page); err != nil {
		return Material{}, zerr.With(zerr.Wrap(err, domain.ErrTemplateFailed.Error()), "file", filepath.Join(dir, m.name))
	}
	material.HTML = template.HTML(buf.String()) //nolint:gosec // Output of html/template
	return material, nil
}

func (a *Assembler) renderView(base *template.Template, view source, defaultLayout string, page Page, out string) error {
	fail := func(err error) error {
		return zerr.With(zerr.Wrap(err, domain.ErrTemplateFailed.Error()), "file", view.path)
	}

	t, err := base.Clone()
	if err != nil {
		return fail(err)
	}
	if _, err := t.New(bodyTemplate).Parse(string(view.body)); err != nil {
		return fail(err)
	}

	layout := defaultLayout
	if l, ok := view.meta["layout"].(string); ok {
		layout = l
	}

	entry := bodyTemplate
	if layout != "" {
		entry = layoutPrefix + layout
		if t.Lookup(entry) == nil {
			return zerr.With(zerr.With(domain.ErrTemplateFailed, "layout", layout), "file", view.path)
		}
	}

	page.Name = view.name
	page.Meta = view.meta

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, entry, page); err != nil {
		return fail(err)
	}
	return fs.WriteFileAtomic(out, buf.Bytes())
}

// loadSources reads every .html file below dir, skipping files below exclude.
// Names are slash separated paths relative to dir without extension.
func (a *Assembler) loadSources(dir, exclude string) ([]source, error) {
	if dir == "" {
		return nil, nil
	}

	var sources []source
	for path := range a.walker.WalkFiles(dir, nil) {
		if filepath.Ext(path) != htmlExt {
			continue
		}
		if exclude != "" && within(exclude, path) {
			continue
		}

		content, err := os.ReadFile(path) //nolint:gosec // Path comes from walking a configured directory
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path)
		}
		meta, body, err := splitFrontMatter(content)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrTemplateFailed.Error()), "file", path)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source{
			name: strings.TrimSuffix(filepath.ToSlash(rel), htmlExt),
			path: path,
			meta: meta,
			body: body,
		})
	}
	return sources, nil
}

// loadData decodes every YAML or JSON file below dir, keyed by base name.
func (a *Assembler) loadData(dir string) (map[string]any, error) {
	data := make(map[string]any)
	if dir == "" {
		return data, nil
	}

	for path := range a.walker.WalkFiles(dir, nil) {
		ext := filepath.Ext(path)
		if !slices.Contains([]string{".yml", ".yaml", ".json"}, ext) {
			continue
		}

		content, err := os.ReadFile(path) //nolint:gosec // Path comes from walking the data directory
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path)
		}

		var value any
		if err := yaml.Unmarshal(content, &value); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrTemplateFailed.Error()), "file", path)
		}
		data[strings.TrimSuffix(filepath.Base(path), ext)] = value
	}
	return data, nil
}

// loadDocs renders every markdown file below dir, keyed by base name.
func (a *Assembler) loadDocs(dir string) (map[string]template.HTML, error) {
	docs := make(map[string]template.HTML)
	if dir == "" {
		return docs, nil
	}

	for path := range a.walker.WalkFiles(dir, nil) {
		if filepath.Ext(path) != markdownExt {
			continue
		}

		content, err := os.ReadFile(path) //nolint:gosec // Path comes from walking the docs directory
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path)
		}
		_, body, err := splitFrontMatter(content)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrTemplateFailed.Error()), "file", path)
		}

		rendered, err := a.markdown(body)
		if err != nil {
			return nil, zerr.With(err, "file", path)
		}
		docs[strings.TrimSuffix(filepath.Base(path), markdownExt)] = rendered
	}
	return docs, nil
}

func (a *Assembler) markdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := a.md.Convert(src, &buf); err != nil {
		return "", zerr.Wrap(err, domain.ErrTemplateFailed.Error())
	}
	return template.HTML(buf.String()), nil //nolint:gosec // Markdown sources belong to the project
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
