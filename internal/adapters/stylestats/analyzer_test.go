package stylestats_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/swatch/internal/adapters/stylestats"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
)

func writeCSS(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toolkit.css")
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

func analyze(t *testing.T, req ports.StyleStatsRequest) *ports.StyleStatsResult {
	t.Helper()
	res, err := stylestats.NewAnalyzer().Analyze(t.Context(), req)
	require.NoError(t, err)
	return res
}

func TestAnalyzer_Analyze_Metrics(t *testing.T) {
	file := writeCSS(t, `.nav .item, #main a:hover { color: #000; background: #010101 !important }
@media (max-width: 600px) { .nav { display: none } }
/* decoration */
.btn::before { content: "x" }
`)

	res := analyze(t, ports.StyleStatsRequest{Files: []string{file}, Threshold: 3})
	require.Len(t, res.Stats, 1)
	stats := res.Stats[0]

	assert.Equal(t, file, stats.File)
	assert.Equal(t, 3, stats.Rules)
	assert.Equal(t, 4, stats.Selectors)
	assert.Equal(t, 4, stats.Declarations)
	assert.Equal(t, 1, stats.Importants)
	assert.Equal(t, 1, stats.IDSelectors)
	assert.InDelta(t, 2.0, stats.IdentifiersPerSelector, 0.001)
	assert.InDelta(t, 38.0, stats.SpecificityPerSelector, 0.001)
	assert.Equal(t, 111, stats.TopSpecificity)
	assert.Equal(t, "#main a:hover", stats.TopSelector)
	assert.Equal(t, []string{"(max-width: 600px)"}, stats.MediaQueries)
	assert.Equal(t, []string{"#000000", "#010101"}, stats.Colors)
}

func TestAnalyzer_Analyze_Collisions(t *testing.T) {
	file := writeCSS(t, ".a{color:#000}\n.b{color:#fff;border-color:#fefefe}\n")

	tests := []struct {
		name      string
		req       ports.StyleStatsRequest
		wantPairs [][2]string
		severity  domain.Severity
	}{
		{
			name:      "near duplicates collide",
			req:       ports.StyleStatsRequest{Threshold: 3},
			wantPairs: [][2]string{{"#fefefe", "#ffffff"}},
			severity:  domain.SeverityWarning,
		},
		{
			name:      "strict reports errors",
			req:       ports.StyleStatsRequest{Threshold: 3, Strict: true},
			wantPairs: [][2]string{{"#fefefe", "#ffffff"}},
			severity:  domain.SeverityError,
		},
		{
			name: "lower threshold",
			req:  ports.StyleStatsRequest{Threshold: 0.1},
		},
		{
			name: "ignored color",
			req:  ports.StyleStatsRequest{Threshold: 3, Ignore: []string{"#ffffff"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Files = []string{file}
			res := analyze(t, tt.req)
			require.Len(t, res.Stats, 1)

			collisions := res.Stats[0].Collisions
			require.Len(t, collisions, len(tt.wantPairs))
			require.Len(t, res.Diagnostics, len(tt.wantPairs))
			for i, pair := range tt.wantPairs {
				assert.Equal(t, pair[0], collisions[i].A)
				assert.Equal(t, pair[1], collisions[i].B)
				assert.Greater(t, collisions[i].Distance, 0.0)
				assert.Less(t, collisions[i].Distance, 3.0)

				diag := res.Diagnostics[i]
				assert.Equal(t, tt.severity, diag.Severity)
				assert.Contains(t, diag.Text, pair[1]+" collides with "+pair[0])
				assert.Equal(t, file, diag.File)
				assert.Equal(t, 2, diag.Line)
			}
		})
	}
}

func TestAnalyzer_Analyze_ColorForms(t *testing.T) {
	file := writeCSS(t, `.a {
  color: rgb(255, 0, 0);
  background: red;
  border-color: hsl(0, 100%, 50%);
  outline-color: #FF000080;
  fill: rgba(0 0 255 / 50%);
  stroke: #00f;
  caret-color: transparent;
  text-decoration-color: currentColor;
  background-image: url(#fff);
  font-family: Tahoma;
}`)

	res := analyze(t, ports.StyleStatsRequest{Files: []string{file}, Threshold: 3})
	require.Len(t, res.Stats, 1)
	assert.Equal(t, []string{"#0000ff", "#ff0000"}, res.Stats[0].Colors)
	assert.Empty(t, res.Stats[0].Collisions)
	assert.Equal(t, 10, res.Stats[0].Declarations)
}

func TestAnalyzer_Analyze_AtRulesAndPseudoClasses(t *testing.T) {
	file := writeCSS(t, `@charset "utf-8";
@keyframes spin { from { transform: rotate(0deg) } to { transform: rotate(360deg) } }
@font-face { font-family: x; src: url(x.woff) }
@supports (display: grid) { .grid { display: grid } }
.a:not(#b, .c) {}
:where(.x) .y {}
`)

	res := analyze(t, ports.StyleStatsRequest{Files: []string{file}, Threshold: 3})
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Stats, 1)
	stats := res.Stats[0]

	assert.Equal(t, 3, stats.Rules)
	assert.Equal(t, 3, stats.Selectors)
	assert.Equal(t, 5, stats.Declarations)
	assert.Equal(t, 110, stats.TopSpecificity)
	assert.Equal(t, ".a:not(#b, .c)", stats.TopSelector)
	assert.InDelta(t, (10.0+110.0+10.0)/3, stats.SpecificityPerSelector, 0.001)
	assert.Empty(t, stats.MediaQueries)
	assert.Empty(t, stats.Colors)
}

func TestAnalyzer_Analyze_MalformedStylesheet(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unclosed block", content: ".a { color: red"},
		{name: "stray brace", content: ".a { color: red } }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := writeCSS(t, tt.content)
			res := analyze(t, ports.StyleStatsRequest{Files: []string{file}, Threshold: 3})
			assert.Empty(t, res.Stats)
			require.Len(t, res.Diagnostics, 1)
			assert.Equal(t, domain.SeverityError, res.Diagnostics[0].Severity)
			assert.Equal(t, file, res.Diagnostics[0].File)
			assert.True(t, domain.HasErrors(res.Diagnostics))
		})
	}
}

func TestAnalyzer_Analyze_MissingFile(t *testing.T) {
	_, err := stylestats.NewAnalyzer().Analyze(t.Context(), ports.StyleStatsRequest{
		Files:     []string{filepath.Join(t.TempDir(), "missing.css")},
		Threshold: 3,
	})
	require.ErrorContains(t, err, domain.ErrFileReadFailed.Error())
}

func TestAnalyzer_Analyze_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := stylestats.NewAnalyzer().Analyze(ctx, ports.StyleStatsRequest{Files: []string{writeCSS(t, ".a{}")}})
	require.ErrorIs(t, err, context.Canceled)
}
