package domain

import (
	"strings"

	"github.com/gobwas/glob"
	"go.trai.ch/zerr"
)

// Pattern is a compiled slash separated glob. Unlike plain gobwas syntax, a
// "**/" segment also matches zero directories, so "src/**/*.css" matches
// "src/a.css".
type Pattern struct {
	source string
	globs  []glob.Glob
}

// CompilePattern compiles pattern. Supported syntax: "*", "**", "?", "[...]"
// and "{a,b}".
func CompilePattern(pattern string) (*Pattern, error) {
	if pattern == "" {
		return nil, zerr.With(ErrInvalidGlob, "pattern", pattern)
	}

	variants := expandDoubleStar(pattern)
	p := &Pattern{source: pattern, globs: make([]glob.Glob, 0, len(variants))}
	for _, v := range variants {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, ErrInvalidGlob.Error()), "pattern", pattern)
		}
		p.globs = append(p.globs, g)
	}
	return p, nil
}

// Match reports whether the slash separated path matches.
func (p *Pattern) Match(path string) bool {
	for _, g := range p.globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.source
}

// expandDoubleStar returns pattern with every "**/" segment both kept and
// dropped.
func expandDoubleStar(pattern string) []string {
	idx := strings.Index(pattern, "**/")
	if idx < 0 || (idx > 0 && pattern[idx-1] != '/') {
		return []string{pattern}
	}

	head := pattern[:idx]
	var out []string
	for _, rest := range expandDoubleStar(pattern[idx+3:]) {
		out = append(out, head+"**/"+rest, head+rest)
	}
	return out
}
