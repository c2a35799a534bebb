// Package icons merges a directory of SVG icons into one sprite document.
package icons

import (
	"bytes"
	"context"
	"html"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"
	"go.trai.ch/swatch/internal/adapters/fs"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	svgMediaType = "image/svg+xml"
	svgNamespace = "http://www.w3.org/2000/svg"
)

var _ ports.SpriteBuilder = (*SpriteBuilder)(nil)

// SpriteBuilder implements ports.SpriteBuilder.
// Each icon becomes a <symbol> whose id is the file's base name.
type SpriteBuilder struct {
	walker   *fs.Walker
	minifier *minify.M
}

// NewSpriteBuilder creates a new SpriteBuilder.
func NewSpriteBuilder(walker *fs.Walker) *SpriteBuilder {
	m := minify.New()
	m.AddFunc(svgMediaType, svg.Minify)
	return &SpriteBuilder{walker: walker, minifier: m}
}

type symbol struct {
	id      string
	viewBox string
	body    []byte
}

// Build reads every *.svg below srcDir and returns the sprite document.
// Symbols are sorted by id so the output only changes when an icon does.
func (b *SpriteBuilder) Build(ctx context.Context, srcDir string) ([]byte, error) {
	var symbols []symbol
	sources := make(map[string]string)

	for path := range b.walker.WalkFiles(srcDir, nil) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.EqualFold(filepath.Ext(path), ".svg") {
			continue
		}

		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if prev, ok := sources[id]; ok {
			err := zerr.With(domain.ErrDuplicateSymbol, "id", id)
			return nil, zerr.With(zerr.With(err, "first", prev), "second", path)
		}
		sources[id] = path

		sym, err := b.readSymbol(path)
		if err != nil {
			return nil, err
		}
		sym.id = id
		symbols = append(symbols, sym)
	}

	slices.SortFunc(symbols, func(a, b symbol) int {
		return strings.Compare(a.id, b.id)
	})

	var buf bytes.Buffer
	buf.WriteString(`<svg xmlns="` + svgNamespace + `" style="display:none">`)
	for _, sym := range symbols {
		buf.WriteString(`<symbol id="` + html.EscapeString(sym.id) + `"`)
		if sym.viewBox != "" {
			buf.WriteString(` viewBox="` + html.EscapeString(sym.viewBox) + `"`)
		}
		buf.WriteString(">")
		buf.Write(sym.body)
		buf.WriteString("</symbol>")
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func (b *SpriteBuilder) readSymbol(path string) (symbol, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from walking the icon directory
	if err != nil {
		return symbol{}, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path)
	}

	minified, err := b.minifier.Bytes(svgMediaType, data)
	if err != nil {
		return symbol{}, zerr.With(zerr.Wrap(err, domain.ErrInvalidSVG.Error()), "path", path)
	}

	sym, err := parseSymbol(minified)
	if err != nil {
		return symbol{}, zerr.With(err, "path", path)
	}
	return sym, nil
}

// parseSymbol splits an SVG document into the root's viewBox and the markup
// between the root's start and end tags.
func parseSymbol(doc []byte) (symbol, error) {
	l := xml.NewLexer(parse.NewInputBytes(doc))

	var (
		sym     symbol
		body    bytes.Buffer
		attrs   = make(map[string]string)
		inRoot  bool
		rootTag bool
		pending bool
		depth   int
	)

	for {
		tt, data := l.Next()
		switch tt {
		case xml.ErrorToken:
			if l.Err() != io.EOF {
				return symbol{}, zerr.Wrap(l.Err(), domain.ErrInvalidSVG.Error())
			}
			return symbol{}, zerr.With(domain.ErrInvalidSVG, "reason", "missing closing svg tag")

		case xml.StartTagToken:
			name := string(l.Text())
			if !inRoot {
				if name != "svg" {
					return symbol{}, zerr.With(domain.ErrInvalidSVG, "reason", "root element is "+name)
				}
				rootTag = true
				continue
			}
			pending = name == "svg"
			body.Write(data)

		case xml.AttributeToken:
			if rootTag {
				attrs[string(l.Text())] = unquote(l.AttrVal())
				continue
			}
			body.Write(data)

		case xml.StartTagCloseToken:
			if rootTag {
				rootTag, inRoot = false, true
				depth = 1
				continue
			}
			if pending {
				depth++
				pending = false
			}
			body.Write(data)

		case xml.StartTagCloseVoidToken:
			if rootTag {
				sym.viewBox = viewBox(attrs)
				return sym, nil
			}
			pending = false
			body.Write(data)

		case xml.EndTagToken:
			if !inRoot {
				return symbol{}, zerr.With(domain.ErrInvalidSVG, "reason", "unexpected closing tag")
			}
			if string(l.Text()) == "svg" {
				depth--
				if depth == 0 {
					sym.viewBox = viewBox(attrs)
					sym.body = body.Bytes()
					return sym, nil
				}
			}
			body.Write(data)

		case xml.TextToken:
			if inRoot {
				body.Write(data)
			} else if len(bytes.TrimSpace(data)) > 0 {
				return symbol{}, zerr.With(domain.ErrInvalidSVG, "reason", "text outside root element")
			}

		case xml.StartTagPIToken, xml.StartTagClosePIToken, xml.DOCTYPEToken, xml.CommentToken:
			// Prolog and comments are dropped.

		default:
			if inRoot {
				body.Write(data)
			}
		}
	}
}

func unquote(v []byte) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return string(v)
}

// viewBox returns the root's viewBox, derived from width and height when absent.
func viewBox(attrs map[string]string) string {
	if vb, ok := attrs["viewBox"]; ok {
		return vb
	}
	w, errW := strconv.ParseFloat(strings.TrimSuffix(attrs["width"], "px"), 64)
	h, errH := strconv.ParseFloat(strings.TrimSuffix(attrs["height"], "px"), 64)
	if errW != nil || errH != nil {
		return ""
	}
	return "0 0 " + strconv.FormatFloat(w, 'f', -1, 64) + " " + strconv.FormatFloat(h, 'f', -1, 64)
}
