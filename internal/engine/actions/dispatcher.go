// Package actions performs the work of a single task by routing its action
// to the adapter that implements it.
package actions

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Dispatcher)(nil)

// Tools are the collaborators a Dispatcher routes actions to.
type Tools struct {
	Shell     ports.Executor
	Styles    ports.StyleCompiler
	Stats     ports.StyleAnalyzer
	Scripts   ports.ScriptBundler
	Features  ports.FeatureGenerator
	Sprites   ports.SpriteBuilder
	Images    ports.ImageOptimizer
	Assembler ports.Assembler
	Files     ports.FileCopier
}

// Dispatcher implements ports.Executor for one project configuration.
type Dispatcher struct {
	cfg   *domain.BuildConfig
	tools *Tools
}

// NewDispatcher creates a Dispatcher resolving task bundles against cfg.
func NewDispatcher(cfg *domain.BuildConfig, tools *Tools) *Dispatcher {
	return &Dispatcher{cfg: cfg, tools: tools}
}

// Execute performs the task's action. Tool diagnostics are written to stderr,
// progress summaries to stdout.
func (d *Dispatcher) Execute(ctx context.Context, task *domain.Task, stdout, stderr io.Writer) error {
	switch task.Action {
	case domain.ActionGroup:
		return nil
	case domain.ActionCommand:
		return d.tools.Shell.Execute(ctx, task, stdout, stderr)
	case domain.ActionStyles:
		return d.styles(ctx, task, stderr)
	case domain.ActionScripts:
		return d.scripts(ctx, task, stderr)
	case domain.ActionFeatures:
		return d.features(ctx)
	case domain.ActionShame:
		return d.shame(stdout)
	case domain.ActionFavicon:
		return d.tools.Files.CopyFile(d.cfg.Abs(d.cfg.Favicon.Src), d.cfg.Abs(d.cfg.Favicon.Output))
	case domain.ActionSprite:
		return d.sprite(ctx)
	case domain.ActionImages:
		return d.images(ctx, stdout)
	case domain.ActionAssemble:
		return d.assemble(ctx, stdout)
	case domain.ActionStyleStats:
		return d.styleStats(ctx, stdout, stderr)
	default:
		return zerr.With(domain.ErrUnknownAction, "action", string(task.Action))
	}
}

func (d *Dispatcher) styles(ctx context.Context, task *domain.Task, stderr io.Writer) error {
	bundle, ok := d.cfg.Styles[task.Bundle]
	if !ok {
		return zerr.With(domain.ErrConfigInvalid, "bundle", task.Bundle)
	}

	var source string
	if len(bundle.Preprocessor) > 0 {
		staged, err := d.preprocess(ctx, task, bundle, stderr)
		if err != nil {
			return err
		}
		source = staged
	}

	res, err := d.tools.Styles.Compile(ctx, ports.StyleRequest{
		Root:     d.cfg.Root,
		Bundle:   bundle,
		Browsers: d.cfg.Browsers,
		Source:   source,
		Dev:      d.cfg.Dev,
	})
	if err != nil {
		return err
	}
	return report(res.Diagnostics, stderr)
}

// preprocess runs the bundle's preprocessor into the stage directory and
// returns the staged stylesheet.
func (d *Dispatcher) preprocess(ctx context.Context, task *domain.Task, bundle domain.StyleBundle, stderr io.Writer) (string, error) {
	stageDir := filepath.Join(d.cfg.Root, domain.DefaultStagePath())
	if err := os.MkdirAll(stageDir, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", stageDir)
	}
	staged := filepath.Join(stageDir, bundle.Name+".css")

	replacer := strings.NewReplacer("{in}", d.cfg.Abs(bundle.Entry), "{out}", staged)
	command := make([]string, len(bundle.Preprocessor))
	for i, arg := range bundle.Preprocessor {
		command[i] = replacer.Replace(arg)
	}

	pre := &domain.Task{
		Name:        task.Name,
		Action:      domain.ActionCommand,
		Command:     command,
		Environment: task.Environment,
		WorkingDir:  domain.NewInternedString(d.cfg.Root),
	}
	if err := d.tools.Shell.Execute(ctx, pre, stderr, stderr); err != nil {
		return "", zerr.With(err, "bundle", bundle.Name)
	}
	return staged, nil
}

func (d *Dispatcher) scripts(ctx context.Context, task *domain.Task, stderr io.Writer) error {
	bundle, ok := d.cfg.Scripts[task.Bundle]
	if !ok {
		return zerr.With(domain.ErrConfigInvalid, "bundle", task.Bundle)
	}

	res, err := d.tools.Scripts.Bundle(ctx, ports.BundleRequest{
		Root:     d.cfg.Root,
		Bundle:   bundle,
		Browsers: d.cfg.Browsers,
		Dev:      d.cfg.Dev,
	})
	if err != nil {
		return err
	}
	return report(res.Diagnostics, stderr)
}

func (d *Dispatcher) features(ctx context.Context) error {
	script, err := d.tools.Features.Generate(ctx, d.cfg.Shame.Features, d.cfg.Dev)
	if err != nil {
		return err
	}
	return d.tools.Files.WriteFile(d.cfg.Abs(d.cfg.Shame.FeatureOutput()), script)
}

func (d *Dispatcher) shame(stdout io.Writer) error {
	written, err := d.tools.Files.CopyTree(d.cfg.Abs(d.cfg.Shame.Src), d.cfg.Abs(d.cfg.Shame.Output))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "copied %d script(s)\n", len(written))
	return nil
}

func (d *Dispatcher) sprite(ctx context.Context) error {
	sprite, err := d.tools.Sprites.Build(ctx, d.cfg.Abs(d.cfg.Icons.Src))
	if err != nil {
		return err
	}
	return d.tools.Files.WriteFile(d.cfg.Abs(d.cfg.Icons.Output), sprite)
}

func (d *Dispatcher) images(ctx context.Context, stdout io.Writer) error {
	rep, err := d.tools.Images.Optimize(ctx, d.cfg.Abs(d.cfg.Images.Src), d.cfg.Abs(d.cfg.Images.Output))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "optimized %d image(s), %d -> %d bytes\n", rep.Files, rep.BytesBefore, rep.BytesAfter)
	return nil
}

func (d *Dispatcher) assemble(ctx context.Context, stdout io.Writer) error {
	pages, err := d.tools.Assembler.Assemble(ctx, ports.AssembleRequest{
		Root:      d.cfg.Root,
		Config:    d.cfg.Assemble,
		LogErrors: d.cfg.Dev,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "assembled %d page(s)\n", len(pages))
	return nil
}

// styleStats checks the compiled stylesheets of the configured bundles and
// prints their metrics.
func (d *Dispatcher) styleStats(ctx context.Context, stdout, stderr io.Writer) error {
	files := make([]string, 0, len(d.cfg.Test.Bundles))
	for _, name := range d.cfg.Test.Bundles {
		bundle, ok := d.cfg.Styles[name]
		if !ok {
			return zerr.With(domain.ErrConfigInvalid, "bundle", name)
		}
		files = append(files, d.cfg.Abs(bundle.Output))
	}

	res, err := d.tools.Stats.Analyze(ctx, ports.StyleStatsRequest{
		Files:     files,
		Threshold: d.cfg.Test.Threshold,
		Ignore:    d.cfg.Test.Ignore,
		Strict:    d.cfg.Test.Strict,
	})
	if err != nil {
		return err
	}
	for _, stats := range res.Stats {
		d.writeStyleStats(stdout, stats)
	}
	return report(res.Diagnostics, stderr)
}

func (d *Dispatcher) writeStyleStats(w io.Writer, s ports.StyleStats) {
	name := s.File
	if rel, err := filepath.Rel(d.cfg.Root, s.File); err == nil {
		name = filepath.ToSlash(rel)
	}
	perRule := 0.0
	if s.Rules > 0 {
		perRule = float64(s.Selectors) / float64(s.Rules)
	}

	_, _ = fmt.Fprintf(w, "%s\n", name)
	_, _ = fmt.Fprintf(w, "  Stylesheet Size: %d bytes\n", s.Size)
	_, _ = fmt.Fprintf(w, "  Total Rules: %d\n", s.Rules)
	_, _ = fmt.Fprintf(w, "  Total Selectors: %d\n", s.Selectors)
	_, _ = fmt.Fprintf(w, "  Total Declarations: %d\n", s.Declarations)
	_, _ = fmt.Fprintf(w, "  Selectors Per Rule: %.2f\n", perRule)
	_, _ = fmt.Fprintf(w, "  Identifiers Per Selector: %.2f\n", s.IdentifiersPerSelector)
	_, _ = fmt.Fprintf(w, "  Specificity Per Selector: %.2f\n", s.SpecificityPerSelector)
	_, _ = fmt.Fprintf(w, "  Top Selector Specificity: %d (%s)\n", s.TopSpecificity, s.TopSelector)
	_, _ = fmt.Fprintf(w, "  Total Id Selectors: %d\n", s.IDSelectors)
	_, _ = fmt.Fprintf(w, "  Total Important Keywords: %d\n", s.Importants)
	_, _ = fmt.Fprintf(w, "  Total Media Queries: %d\n", len(s.MediaQueries))
	_, _ = fmt.Fprintf(w, "  Unique Colors: %d %s\n", len(s.Colors), strings.Join(s.Colors, " "))
	_, _ = fmt.Fprintf(w, "  Color Collisions: %d\n", len(s.Collisions))
}

// report writes diagnostics and fails when any of them is an error.
func report(diags []domain.Diagnostic, stderr io.Writer) error {
	errs := 0
	for _, diag := range diags {
		_, _ = fmt.Fprintln(stderr, diag.String())
		if diag.Severity == domain.SeverityError {
			errs++
		}
	}
	if errs > 0 {
		return zerr.With(domain.ErrToolInvocation, "errors", errs)
	}
	return nil
}
