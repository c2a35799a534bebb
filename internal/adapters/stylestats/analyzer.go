// Package stylestats checks compiled stylesheets for near-duplicate colors and
// collects metrics about their rules and selectors.
package stylestats

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StyleAnalyzer = (*Analyzer)(nil)

// Analyzer implements ports.StyleAnalyzer.
type Analyzer struct{}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze reads every file of the request. A file that cannot be read fails
// the run; CSS the lexer rejects is reported as an error diagnostic.
func (a *Analyzer) Analyze(ctx context.Context, req ports.StyleStatsRequest) (*ports.StyleStatsResult, error) {
	res := &ports.StyleStatsResult{}

	severity := domain.SeverityWarning
	if req.Strict {
		severity = domain.SeverityError
	}

	for _, file := range req.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src, err := os.ReadFile(file) //nolint:gosec // Path comes from the style bundle configuration
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", file)
		}

		sheet, err := scan(src)
		if err != nil {
			line, col, _ := parse.Position(bytes.NewReader(src), sheet.offset)
			res.Diagnostics = append(res.Diagnostics, domain.Diagnostic{
				Severity: domain.SeverityError,
				Text:     err.Error(),
				File:     file,
				Line:     line,
				Column:   col,
			})
			continue
		}

		stats := sheet.stats(file, len(src))
		stats.Collisions = collide(sheet.colors, req.Threshold, req.Ignore)
		for _, c := range stats.Collisions {
			line, col, _ := parse.Position(bytes.NewReader(src), sheet.colorAt[c.B])
			res.Diagnostics = append(res.Diagnostics, domain.Diagnostic{
				Severity: severity,
				Text:     c.B + " collides with " + c.A + " (" + strconv.FormatFloat(c.Distance, 'f', 2, 64) + ")",
				File:     file,
				Line:     line,
				Column:   col,
			})
		}
		res.Stats = append(res.Stats, stats)
	}
	return res, nil
}

// collide returns every pair of colors closer than threshold. Pairs are
// ordered by the sorted color list, so the output is stable.
func collide(colors map[string]colorful.Color, threshold float64, ignore []string) []ports.ColorCollision {
	names := make([]string, 0, len(colors))
	for name := range colors {
		if !slices.Contains(ignore, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	var out []ports.ColorCollision
	for i, a := range names {
		for _, b := range names[i+1:] {
			// go-colorful scales Lab to [0,1]; thresholds use the usual 0-100 range.
			d := colors[a].DistanceCIEDE2000(colors[b]) * 100
			if d < threshold {
				out = append(out, ports.ColorCollision{A: a, B: b, Distance: math.Round(d*100) / 100})
			}
		}
	}
	return out
}

type token struct {
	tt     css.TokenType
	text   string
	offset int
}

type blockKind int

const (
	blockRules blockKind = iota
	blockDeclarations
	blockKeyframes
	blockOther
)

type sheet struct {
	rules        int
	declarations int
	importants   int
	selectors    []selector
	media        []string
	colors       map[string]colorful.Color
	colorAt      map[string]int
	// offset is where scanning stopped, for error positions.
	offset int
}

// scan walks the token stream keeping a stack of open blocks. A prelude is
// collected until "{" or ";" and classified by the block it appears in.
func scan(src []byte) (*sheet, error) {
	s := &sheet{colors: make(map[string]colorful.Color), colorAt: make(map[string]int)}
	l := css.NewLexer(parse.NewInputBytes(src))

	stack := []blockKind{blockRules}
	var (
		pending []token
		depth   int
		offset  int
	)

	for {
		tt, text := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); !errors.Is(err, io.EOF) {
				s.offset = offset
				return s, err
			}
			break
		}
		tok := token{tt: tt, text: string(text), offset: offset}
		offset += len(text)

		if tt == css.CommentToken {
			continue
		}

		switch tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth = max(depth-1, 0)
		}

		top := stack[len(stack)-1]
		if depth > 0 || (tt != css.LeftBraceToken && tt != css.RightBraceToken && tt != css.SemicolonToken) {
			if top != blockOther {
				pending = append(pending, tok)
			}
			continue
		}

		switch tt {
		case css.LeftBraceToken:
			stack = append(stack, s.open(top, pending))
		case css.SemicolonToken:
			if top == blockDeclarations {
				s.declaration(pending)
			}
		case css.RightBraceToken:
			if top == blockDeclarations {
				s.declaration(pending)
			}
			if len(stack) == 1 {
				s.offset = tok.offset
				return s, errors.New("unexpected \"}\"")
			}
			stack = stack[:len(stack)-1]
		}
		pending = pending[:0]
	}

	if len(stack) > 1 {
		s.offset = offset
		return s, errors.New("unexpected end of stylesheet inside a block")
	}
	return s, nil
}

// open classifies the prelude in front of "{" and returns the kind of the new block.
func (s *sheet) open(parent blockKind, prelude []token) blockKind {
	prelude = trimSpace(prelude)
	if parent == blockOther {
		return blockOther
	}
	if len(prelude) > 0 && prelude[0].tt == css.AtKeywordToken {
		name := strings.ToLower(strings.TrimPrefix(prelude[0].text, "@"))
		if i := strings.LastIndexByte(name, '-'); strings.HasPrefix(name, "-") && i > 0 {
			name = name[i+1:]
		}
		switch name {
		case "media":
			s.media = append(s.media, join(prelude[1:]))
			return blockRules
		case "supports", "document", "container", "layer", "scope", "starting-style":
			return blockRules
		case "keyframes":
			return blockKeyframes
		case "font-face", "page", "property", "counter-style", "font-palette-values":
			return blockDeclarations
		default:
			return blockOther
		}
	}
	if parent == blockKeyframes {
		return blockDeclarations
	}

	// Qualified rule, possibly nested inside a declaration block.
	s.rules++
	for _, part := range splitTopLevel(prelude) {
		s.selectors = append(s.selectors, newSelector(part))
	}
	return blockDeclarations
}

// declaration records one "property: value" list.
func (s *sheet) declaration(tokens []token) {
	tokens = trimSpace(tokens)
	if len(tokens) < 2 {
		return
	}
	s.declarations++

	values := tokens[1:]
	for i, tok := range values {
		if tok.tt == css.DelimToken && tok.text == "!" {
			if next := nextNonSpace(values, i+1); next >= 0 && strings.EqualFold(values[next].text, "important") {
				s.importants++
			}
		}
	}

	for i := 0; i < len(values); i++ {
		hex, end, ok := colorAt(values, i)
		if !ok {
			continue
		}
		if _, seen := s.colors[hex]; !seen {
			c, _ := colorful.Hex(hex)
			s.colors[hex] = c
			s.colorAt[hex] = values[i].offset
		}
		i = end
	}
}

func (s *sheet) stats(file string, size int) ports.StyleStats {
	stats := ports.StyleStats{
		File:         file,
		Size:         size,
		Rules:        s.rules,
		Selectors:    len(s.selectors),
		Declarations: s.declarations,
		Importants:   s.importants,
		MediaQueries: s.media,
	}

	var identifiers, specificity int
	for _, sel := range s.selectors {
		identifiers += sel.identifiers
		specificity += sel.specificity
		if sel.ids > 0 {
			stats.IDSelectors++
		}
		if sel.specificity > stats.TopSpecificity {
			stats.TopSpecificity = sel.specificity
			stats.TopSelector = sel.text
		}
	}
	if n := len(s.selectors); n > 0 {
		stats.IdentifiersPerSelector = float64(identifiers) / float64(n)
		stats.SpecificityPerSelector = float64(specificity) / float64(n)
	}

	for name := range s.colors {
		stats.Colors = append(stats.Colors, name)
	}
	slices.Sort(stats.Colors)
	return stats
}

// splitTopLevel splits a selector list on commas outside parentheses and brackets.
func splitTopLevel(tokens []token) [][]token {
	var (
		parts [][]token
		start int
		depth int
	)
	for i, tok := range tokens {
		switch tok.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				parts = append(parts, trimSpace(tokens[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, trimSpace(tokens[start:]))
	return slices.DeleteFunc(parts, func(p []token) bool { return len(p) == 0 })
}

func trimSpace(tokens []token) []token {
	for len(tokens) > 0 && tokens[0].tt == css.WhitespaceToken {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].tt == css.WhitespaceToken {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func nextNonSpace(tokens []token, from int) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i].tt != css.WhitespaceToken {
			return i
		}
	}
	return -1
}

// join renders tokens with runs of whitespace collapsed to one space.
func join(tokens []token) string {
	var b strings.Builder
	for _, tok := range trimSpace(tokens) {
		if tok.tt == css.WhitespaceToken {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(tok.text)
	}
	return b.String()
}
