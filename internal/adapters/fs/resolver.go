package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver expands input patterns relative to a root.
//
// Patterns use slash separators and support "*", "**", "?", "[...]" and "{a,b}".
// A literal path must exist; a directory expands to every file below it.
// A pattern matching nothing resolves to no files.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// ResolveInputs resolves the given input patterns to a sorted, de-duplicated
// list of absolute file paths.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	seen := make(map[string]struct{})

	for _, input := range inputs {
		var (
			matches []string
			err     error
		)
		if HasMeta(input) {
			matches, err = r.expandGlob(input, root)
		} else {
			matches, err = r.expandLiteral(input, root)
		}
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}

	result := make([]string, 0, len(seen))
	for path := range seen {
		result = append(result, path)
	}
	slices.Sort(result)
	return result, nil
}

func (r *Resolver) expandLiteral(input, root string) ([]string, error) {
	path := filepath.Join(root, filepath.FromSlash(input))
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, zerr.With(domain.ErrInputNotFound, "path", input)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", input)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}
	return slices.Collect(r.walker.WalkFiles(path, nil)), nil
}

func (r *Resolver) expandGlob(pattern, root string) ([]string, error) {
	g, err := domain.CompilePattern(pattern)
	if err != nil {
		return nil, err
	}

	base := filepath.Join(root, filepath.FromSlash(StaticPrefix(pattern)))
	if _, err := os.Stat(base); err != nil {
		return nil, nil //nolint:nilerr // A glob below a missing directory matches nothing
	}

	var matches []string
	for path := range r.walker.WalkFiles(base, nil) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if g.Match(filepath.ToSlash(rel)) {
			matches = append(matches, path)
		}
	}
	return matches, nil
}

// HasMeta reports whether pattern contains glob syntax.
func HasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[{\`)
}

// StaticPrefix returns the leading directories of pattern that contain no glob syntax.
func StaticPrefix(pattern string) string {
	parts := strings.Split(pattern, "/")
	var prefix []string
	for _, part := range parts[:len(parts)-1] {
		if HasMeta(part) {
			break
		}
		prefix = append(prefix, part)
	}
	if len(prefix) == 0 {
		return "."
	}
	return strings.Join(prefix, "/")
}
