package scripts

import (
	"bytes"
	"context"
	_ "embed"
	"slices"
	"strings"
	"text/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/zerr"
)

const jsMediaType = "application/javascript"

//go:embed templates/features.js.tmpl
var featuresTemplate string

var featuresTmpl = template.Must(template.New("features").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(featuresTemplate))

// featureTests maps each supported feature to a JavaScript expression that is
// truthy when the browser supports it.
var featureTests = map[string]string{
	"cssgrid":      `testProp("gridTemplateRows")`,
	"flexbox":      `testProp("flexBasis")`,
	"flexwrap":     `testProp("flexWrap")`,
	"inlinesvg":    `(function () { var d = document.createElement("div"); d.innerHTML = "<svg/>"; return (d.firstChild && d.firstChild.namespaceURI) === "http://www.w3.org/2000/svg"; })()`,
	"localstorage": `(function () { try { localStorage.setItem("swatch", "swatch"); localStorage.removeItem("swatch"); return true; } catch (e) { return false; } })()`,
	"svg":          `!!document.createElementNS && !!document.createElementNS("http://www.w3.org/2000/svg", "svg").createSVGRect`,
	"touchevents":  `("ontouchstart" in window) || (window.DocumentTouch && document instanceof window.DocumentTouch)`,
}

type featureTest struct {
	Name string
	Expr string
}

// FeatureGenerator implements ports.FeatureGenerator. The generated script
// exposes window.Modernizr and adds a class per test to the root element,
// "flexbox" or "no-flexbox", replacing "no-js" with "js".
type FeatureGenerator struct {
	minifier *minify.M
}

// NewFeatureGenerator creates a new FeatureGenerator.
func NewFeatureGenerator() *FeatureGenerator {
	m := minify.New()
	m.AddFunc(jsMediaType, js.Minify)
	return &FeatureGenerator{minifier: m}
}

// Generate renders the detection script for features. Output is identical for
// the same feature set regardless of order; production output is minified.
func (g *FeatureGenerator) Generate(ctx context.Context, features []string, dev bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := slices.Compact(slices.Sorted(slices.Values(features)))
	tests := make([]featureTest, 0, len(names))
	for _, name := range names {
		expr, ok := featureTests[name]
		if !ok {
			return nil, zerr.With(domain.ErrUnknownFeature, "feature", name)
		}
		tests = append(tests, featureTest{Name: name, Expr: expr})
	}

	var buf bytes.Buffer
	if err := featuresTmpl.Execute(&buf, struct {
		Names []string
		Tests []featureTest
	}{Names: names, Tests: tests}); err != nil {
		return nil, zerr.Wrap(err, "failed to render feature detection script")
	}

	if dev {
		return buf.Bytes(), nil
	}
	out, err := g.minifier.Bytes(jsMediaType, buf.Bytes())
	if err != nil {
		return nil, zerr.Wrap(err, "failed to minify feature detection script")
	}
	return out, nil
}
