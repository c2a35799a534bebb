package actions_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/swatch/internal/core/ports/mocks"
	"go.trai.ch/swatch/internal/engine/actions"
	"go.uber.org/mock/gomock"
)

type toolMocks struct {
	shell     *mocks.MockExecutor
	styles    *mocks.MockStyleCompiler
	stats     *mocks.MockStyleAnalyzer
	scripts   *mocks.MockScriptBundler
	features  *mocks.MockFeatureGenerator
	sprites   *mocks.MockSpriteBuilder
	images    *mocks.MockImageOptimizer
	assembler *mocks.MockAssembler
	files     *mocks.MockFileCopier
}

func newConfig(root string) *domain.BuildConfig {
	return &domain.BuildConfig{
		Root: root,
		Dest: "dist",
		Styles: map[string]domain.StyleBundle{
			domain.BundleToolkit: {
				Name:   domain.BundleToolkit,
				Entry:  "src/assets/toolkit/styles/toolkit.scss",
				Output: "dist/assets/toolkit/styles/toolkit.css",
			},
		},
		Scripts: map[string]domain.ScriptBundle{
			domain.BundleFabricator: {
				Name:   domain.BundleFabricator,
				Entry:  "src/assets/fabricator/scripts/fabricator.js",
				Output: "dist/assets/fabricator/scripts/f.js",
			},
		},
		Shame:    domain.Shame{Src: "src/assets/toolkit/scripts", Output: "dist/assets/toolkit/scripts", Features: []string{"svg"}},
		Images:   domain.Images{Src: "src/assets/toolkit/images", Output: "dist/assets/toolkit/images"},
		Favicon:  domain.Favicon{Src: "src/favicon.ico", Output: "dist/favicon.ico"},
		Icons:    domain.Icons{Src: "src/assets/toolkit/svgIcons", Output: "dist/assets/toolkit/svgIcons/svgIcons.svg"},
		Assemble: domain.Assemble{Views: "src/views", Output: "dist"},
	}
}

func setup(t *testing.T, cfg *domain.BuildConfig) (*actions.Dispatcher, toolMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := toolMocks{
		shell:     mocks.NewMockExecutor(ctrl),
		styles:    mocks.NewMockStyleCompiler(ctrl),
		stats:     mocks.NewMockStyleAnalyzer(ctrl),
		scripts:   mocks.NewMockScriptBundler(ctrl),
		features:  mocks.NewMockFeatureGenerator(ctrl),
		sprites:   mocks.NewMockSpriteBuilder(ctrl),
		images:    mocks.NewMockImageOptimizer(ctrl),
		assembler: mocks.NewMockAssembler(ctrl),
		files:     mocks.NewMockFileCopier(ctrl),
	}
	d := actions.NewDispatcher(cfg, &actions.Tools{
		Shell:     m.shell,
		Styles:    m.styles,
		Stats:     m.stats,
		Scripts:   m.scripts,
		Features:  m.features,
		Sprites:   m.sprites,
		Images:    m.images,
		Assembler: m.assembler,
		Files:     m.files,
	})
	return d, m
}

func task(name string, action domain.Action, bundle string) *domain.Task {
	return &domain.Task{Name: domain.NewInternedString(name), Action: action, Bundle: bundle}
}

func TestDispatcher_Group(t *testing.T) {
	d, _ := setup(t, newConfig("/project"))
	require.NoError(t, d.Execute(t.Context(), task("styles", domain.ActionGroup, ""), io.Discard, io.Discard))
}

func TestDispatcher_Command(t *testing.T) {
	d, m := setup(t, newConfig("/project"))
	lint := task("lint", domain.ActionCommand, "")
	lint.Command = []string{"eslint", "src"}

	m.shell.EXPECT().Execute(gomock.Any(), lint, gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, d.Execute(t.Context(), lint, io.Discard, io.Discard))
}

func TestDispatcher_UnknownAction(t *testing.T) {
	d, _ := setup(t, newConfig("/project"))
	err := d.Execute(t.Context(), task("x", domain.Action("upload"), ""), io.Discard, io.Discard)
	require.ErrorContains(t, err, domain.ErrUnknownAction.Error())
}

func TestDispatcher_Styles(t *testing.T) {
	d, m := setup(t, newConfig("/project"))

	m.styles.EXPECT().Compile(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.StyleRequest) (*ports.StyleResult, error) {
			assert.Equal(t, "/project", req.Root)
			assert.Equal(t, domain.BundleToolkit, req.Bundle.Name)
			assert.Empty(t, req.Source)
			return &ports.StyleResult{
				Outputs: []string{"/project/dist/assets/toolkit/styles/toolkit.css"},
				Diagnostics: []domain.Diagnostic{
					{Severity: domain.SeverityWarning, Text: "unsupported property", File: "toolkit.scss", Line: 3, Column: 1},
				},
			}, nil
		})

	var stderr bytes.Buffer
	require.NoError(t, d.Execute(t.Context(), task("styles:toolkit", domain.ActionStyles, domain.BundleToolkit), io.Discard, &stderr))
	assert.Equal(t, "toolkit.scss:3:1: warning: unsupported property\n", stderr.String())
}

func TestDispatcher_Styles_ErrorDiagnostics(t *testing.T) {
	d, m := setup(t, newConfig("/project"))

	m.styles.EXPECT().Compile(gomock.Any(), gomock.Any()).Return(&ports.StyleResult{
		Diagnostics: []domain.Diagnostic{
			{Severity: domain.SeverityError, Text: "expected \"}\"", File: "toolkit.scss", Line: 12, Column: 4},
		},
	}, nil)

	var stderr bytes.Buffer
	err := d.Execute(t.Context(), task("styles:toolkit", domain.ActionStyles, domain.BundleToolkit), io.Discard, &stderr)
	require.ErrorContains(t, err, domain.ErrToolInvocation.Error())
	assert.Contains(t, stderr.String(), "toolkit.scss:12:4: error")
}

func TestDispatcher_Styles_Preprocessor(t *testing.T) {
	root := t.TempDir()
	cfg := newConfig(root)
	bundle := cfg.Styles[domain.BundleToolkit]
	bundle.Preprocessor = []string{"sass", "{in}:{out}"}
	cfg.Styles[domain.BundleToolkit] = bundle
	d, m := setup(t, cfg)

	staged := filepath.Join(root, domain.DefaultStagePath(), "toolkit.css")
	m.shell.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pre *domain.Task, _, _ io.Writer) error {
			assert.Equal(t, []string{"sass", filepath.Join(root, "src/assets/toolkit/styles/toolkit.scss") + ":" + staged}, pre.Command)
			assert.Equal(t, root, pre.WorkingDir.String())
			return nil
		})
	m.styles.EXPECT().Compile(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.StyleRequest) (*ports.StyleResult, error) {
			assert.Equal(t, staged, req.Source)
			return &ports.StyleResult{}, nil
		})

	require.NoError(t, d.Execute(t.Context(), task("styles:toolkit", domain.ActionStyles, domain.BundleToolkit), io.Discard, io.Discard))

	info, err := os.Stat(filepath.Dir(staged))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDispatcher_Styles_PreprocessorFailure(t *testing.T) {
	cfg := newConfig(t.TempDir())
	bundle := cfg.Styles[domain.BundleToolkit]
	bundle.Preprocessor = []string{"sass", "{in}", "{out}"}
	cfg.Styles[domain.BundleToolkit] = bundle
	d, m := setup(t, cfg)

	m.shell.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ErrCommandFailed)

	err := d.Execute(t.Context(), task("styles:toolkit", domain.ActionStyles, domain.BundleToolkit), io.Discard, io.Discard)
	require.ErrorContains(t, err, domain.ErrCommandFailed.Error())
}

func TestDispatcher_UnknownBundle(t *testing.T) {
	d, _ := setup(t, newConfig("/project"))

	err := d.Execute(t.Context(), task("styles:docs", domain.ActionStyles, "docs"), io.Discard, io.Discard)
	require.ErrorContains(t, err, domain.ErrConfigInvalid.Error())

	err = d.Execute(t.Context(), task("scripts:docs", domain.ActionScripts, "docs"), io.Discard, io.Discard)
	require.ErrorContains(t, err, domain.ErrConfigInvalid.Error())
}

func TestDispatcher_Scripts(t *testing.T) {
	cfg := newConfig("/project")
	cfg.Dev = true
	d, m := setup(t, cfg)

	m.scripts.EXPECT().Bundle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.BundleRequest) (*ports.BundleResult, error) {
			assert.True(t, req.Dev)
			assert.Equal(t, "dist/assets/fabricator/scripts/f.js", req.Bundle.Output)
			return &ports.BundleResult{Diagnostics: []domain.Diagnostic{
				{Severity: domain.SeverityError, Text: "Could not resolve \"./menu\"", File: "fabricator.js", Line: 1, Column: 7},
			}}, nil
		})

	var stderr bytes.Buffer
	err := d.Execute(t.Context(), task("scripts:fabricator", domain.ActionScripts, domain.BundleFabricator), io.Discard, &stderr)
	require.ErrorContains(t, err, domain.ErrToolInvocation.Error())
	assert.Contains(t, stderr.String(), "fabricator.js:1:7: error: Could not resolve")
}

func TestDispatcher_Features(t *testing.T) {
	d, m := setup(t, newConfig("/project"))

	m.features.EXPECT().Generate(gomock.Any(), []string{"svg"}, false).Return([]byte("modernizr"), nil)
	m.files.EXPECT().WriteFile("/project/dist/assets/toolkit/scripts/modernizr.js", []byte("modernizr")).Return(nil)

	require.NoError(t, d.Execute(t.Context(), task("modernizr", domain.ActionFeatures, ""), io.Discard, io.Discard))
}

func TestDispatcher_Shame(t *testing.T) {
	d, m := setup(t, newConfig("/project"))

	m.files.EXPECT().CopyTree("/project/src/assets/toolkit/scripts", "/project/dist/assets/toolkit/scripts").
		Return([]string{"a.js", "b.js"}, nil)

	var stdout bytes.Buffer
	require.NoError(t, d.Execute(t.Context(), task("scriptsShame", domain.ActionShame, ""), &stdout, io.Discard))
	assert.Equal(t, "copied 2 script(s)\n", stdout.String())
}

func TestDispatcher_Favicon(t *testing.T) {
	d, m := setup(t, newConfig("/project"))

	m.files.EXPECT().CopyFile("/project/src/favicon.ico", "/project/dist/favicon.ico").Return(nil)

	require.NoError(t, d.Execute(t.Context(), task("favicon", domain.ActionFavicon, ""), io.Discard, io.Discard))
}

func TestDispatcher_Sprite(t *testing.T) {
	d, m := setup(t, newConfig("/project"))

	m.sprites.EXPECT().Build(gomock.Any(), "/project/src/assets/toolkit/svgIcons").Return([]byte("<svg/>"), nil)
	m.files.EXPECT().WriteFile("/project/dist/assets/toolkit/svgIcons/svgIcons.svg", []byte("<svg/>")).Return(nil)

	require.NoError(t, d.Execute(t.Context(), task("svgIcons", domain.ActionSprite, ""), io.Discard, io.Discard))
}

func TestDispatcher_Sprite_Failure(t *testing.T) {
	d, m := setup(t, newConfig("/project"))

	m.sprites.EXPECT().Build(gomock.Any(), gomock.Any()).Return(nil, domain.ErrDuplicateSymbol)

	err := d.Execute(t.Context(), task("svgIcons", domain.ActionSprite, ""), io.Discard, io.Discard)
	require.ErrorContains(t, err, domain.ErrDuplicateSymbol.Error())
}

func TestDispatcher_Images(t *testing.T) {
	d, m := setup(t, newConfig("/project"))

	m.images.EXPECT().Optimize(gomock.Any(), "/project/src/assets/toolkit/images", "/project/dist/assets/toolkit/images").
		Return(&ports.ImageReport{Files: 3, BytesBefore: 3000, BytesAfter: 2100}, nil)

	var stdout bytes.Buffer
	require.NoError(t, d.Execute(t.Context(), task("images", domain.ActionImages, ""), &stdout, io.Discard))
	assert.Equal(t, "optimized 3 image(s), 3000 -> 2100 bytes\n", stdout.String())
}

func TestDispatcher_Assemble(t *testing.T) {
	tests := []struct {
		name string
		dev  bool
	}{
		{name: "production fails on first error", dev: false},
		{name: "development logs errors", dev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig("/project")
			cfg.Dev = tt.dev
			d, m := setup(t, cfg)

			m.assembler.EXPECT().Assemble(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, req ports.AssembleRequest) ([]string, error) {
					assert.Equal(t, tt.dev, req.LogErrors)
					assert.Equal(t, "src/views", req.Config.Views)
					return []string{"/project/dist/index.html"}, nil
				})

			var stdout bytes.Buffer
			require.NoError(t, d.Execute(t.Context(), task("assemble", domain.ActionAssemble, ""), &stdout, io.Discard))
			assert.Equal(t, "assembled 1 page(s)\n", stdout.String())
		})
	}
}

func TestDispatcher_StyleStats(t *testing.T) {
	cfg := newConfig("/project")
	cfg.Test = domain.StyleTest{Bundles: []string{domain.BundleToolkit}, Threshold: 3, Ignore: []string{"#ffffff"}}
	d, m := setup(t, cfg)

	m.stats.EXPECT().Analyze(gomock.Any(), ports.StyleStatsRequest{
		Files:     []string{"/project/dist/assets/toolkit/styles/toolkit.css"},
		Threshold: 3,
		Ignore:    []string{"#ffffff"},
	}).Return(&ports.StyleStatsResult{
		Stats: []ports.StyleStats{{
			File:                   "/project/dist/assets/toolkit/styles/toolkit.css",
			Size:                   120,
			Rules:                  2,
			Selectors:              3,
			Declarations:           4,
			IdentifiersPerSelector: 1.5,
			SpecificityPerSelector: 10,
			TopSpecificity:         20,
			TopSelector:            ".nav .item",
			MediaQueries:           []string{"(max-width:600px)"},
			Colors:                 []string{"#000000", "#010101"},
			Collisions:             []ports.ColorCollision{{A: "#000000", B: "#010101", Distance: 0.35}},
		}},
		Diagnostics: []domain.Diagnostic{
			{Severity: domain.SeverityWarning, Text: "#010101 collides with #000000 (0.35)", File: "toolkit.css", Line: 1, Column: 40},
		},
	}, nil)

	var stdout, stderr bytes.Buffer
	require.NoError(t, d.Execute(t.Context(), task("test", domain.ActionStyleStats, ""), &stdout, &stderr))

	out := stdout.String()
	assert.Contains(t, out, "dist/assets/toolkit/styles/toolkit.css\n")
	assert.Contains(t, out, "  Selectors Per Rule: 1.50\n")
	assert.Contains(t, out, "  Top Selector Specificity: 20 (.nav .item)\n")
	assert.Contains(t, out, "  Unique Colors: 2 #000000 #010101\n")
	assert.Contains(t, out, "  Color Collisions: 1\n")
	assert.Equal(t, "toolkit.css:1:40: warning: #010101 collides with #000000 (0.35)\n", stderr.String())
}

func TestDispatcher_StyleStats_Strict(t *testing.T) {
	cfg := newConfig("/project")
	cfg.Test = domain.StyleTest{Bundles: []string{domain.BundleToolkit}, Threshold: 3, Strict: true}
	d, m := setup(t, cfg)

	m.stats.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(&ports.StyleStatsResult{
		Diagnostics: []domain.Diagnostic{{Severity: domain.SeverityError, Text: "#010101 collides with #000000 (0.35)"}},
	}, nil)

	err := d.Execute(t.Context(), task("test", domain.ActionStyleStats, ""), io.Discard, io.Discard)
	require.ErrorContains(t, err, domain.ErrToolInvocation.Error())
}

func TestDispatcher_StyleStats_UnknownBundle(t *testing.T) {
	cfg := newConfig("/project")
	cfg.Test = domain.StyleTest{Bundles: []string{"print"}}
	d, _ := setup(t, cfg)

	err := d.Execute(t.Context(), task("test", domain.ActionStyleStats, ""), io.Discard, io.Discard)
	require.ErrorContains(t, err, domain.ErrConfigInvalid.Error())
}

func TestDispatcher_ToolErrorPassesThrough(t *testing.T) {
	d, m := setup(t, newConfig("/project"))
	boom := errors.New("disk full")

	m.images.EXPECT().Optimize(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	err := d.Execute(t.Context(), task("images", domain.ActionImages, ""), io.Discard, io.Discard)
	require.ErrorIs(t, err, boom)
}
