// Package esbuild holds the option and message conversions shared by the
// stylesheet compiler and the script bundler.
package esbuild

import (
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/swatch/internal/core/domain"
)

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// Engines converts the supported browser window into esbuild targets.
// Unknown engines are skipped; the configuration loader rejects them earlier.
func Engines(browsers []domain.Browser) []api.Engine {
	engines := make([]api.Engine, 0, len(browsers))
	for _, b := range browsers {
		name, ok := engineNames[b.Engine]
		if !ok {
			continue
		}
		engines = append(engines, api.Engine{Name: name, Version: b.Version})
	}
	return engines
}

// Diagnostics converts esbuild messages. File paths are made absolute against root.
func Diagnostics(root string, errs, warnings []api.Message) []domain.Diagnostic {
	diags := make([]domain.Diagnostic, 0, len(errs)+len(warnings))
	for _, msg := range errs {
		diags = append(diags, diagnostic(root, domain.SeverityError, msg))
	}
	for _, msg := range warnings {
		diags = append(diags, diagnostic(root, domain.SeverityWarning, msg))
	}
	return diags
}

func diagnostic(root string, severity domain.Severity, msg api.Message) domain.Diagnostic {
	d := domain.Diagnostic{Severity: severity, Text: msg.Text}
	if loc := msg.Location; loc != nil {
		d.File = loc.File
		if d.File != "" && !filepath.IsAbs(d.File) {
			d.File = filepath.Join(root, d.File)
		}
		d.Line = loc.Line
		// esbuild columns are zero based.
		d.Column = loc.Column + 1
	}
	return d
}
