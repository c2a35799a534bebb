package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/swatch/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger returns a logger writing to a buffer with colors disabled.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Info("serving dist on http://localhost:3000")

	g := goldie.New(t)
	g.Assert(t, "info_basic", buf.Bytes())
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Warn("src/assets/toolkit/styles/toolkit.scss:3:1: warning: unsupported property")

	g := goldie.New(t)
	g.Assert(t, "warn_basic", buf.Bytes())
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "simple error",
			err:        os.ErrPermission,
			goldenName: "error_simple",
		},
		{
			name: "task failure chain",
			err: func() error {
				inner := zerr.With(zerr.New("tool reported errors"), "file", "src/assets/toolkit/styles/toolkit.scss")
				outer := zerr.Wrap(inner, "task execution failed")
				return zerr.With(outer, "task", "styles:toolkit")
			}(),
			goldenName: "error_task_chain",
		},
		{
			name: "joined errors",
			err: errors.Join(
				errors.New("build execution failed"),
				zerr.With(zerr.Wrap(errors.New("exit status 1"), "task execution failed"), "task", "lint"),
			),
			goldenName: "error_joined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_SetJSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(zerr.With(zerr.Wrap(errors.New("exit status 2"), "command failed"), "task", "lint"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Contains(t, record["msg"], "command failed")
	assert.Equal(t, "lint", record["task"])
	assert.Equal(t, []any{"command failed", "exit status 2"}, record["causes"])
	assert.NotContains(t, buf.String(), "✗")

	buf.Reset()
	lg.SetJSON(false)
	lg.Error(errors.New("back to pretty"))
	assert.Equal(t, "✗ Error: back to pretty\n", buf.String())
}

func TestLogger_SetJSON_JoinedErrors(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(errors.Join(
		zerr.With(zerr.New("tool reported errors"), "task", "styles:toolkit"),
		zerr.With(zerr.New("tool reported errors"), "task", "scripts:fabricator"),
	))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"task":"styles:toolkit"`)
	assert.Contains(t, lines[1], `"task":"scripts:fabricator"`)
}

func TestLogger_SetLevel(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetLevel(slog.LevelWarn)

	lg.Info("hidden")
	lg.Warn("shown")
	assert.Equal(t, "! shown\n", buf.String())

	buf.Reset()
	lg.SetLevel(slog.LevelError + 4)
	lg.Error(errors.New("never dropped"))
	assert.Contains(t, buf.String(), "never dropped")
}

func TestFromEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		wantJSON bool
		wantInfo bool
	}{
		{name: "defaults", env: map[string]string{}, wantInfo: true},
		{name: "json", env: map[string]string{"SWATCH_LOG_FORMAT": " JSON "}, wantJSON: true, wantInfo: true},
		{name: "warn level", env: map[string]string{"SWATCH_LOG_LEVEL": "warn"}},
		{name: "unknown values", env: map[string]string{"SWATCH_LOG_FORMAT": "xml", "SWATCH_LOG_LEVEL": "loud"}, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")
			lg := logger.FromEnvironment(func(key string) string { return tt.env[key] }).(*logger.Logger)
			buf := &bytes.Buffer{}
			lg.SetOutput(buf)

			lg.Info("status")
			lg.Warn("careful")

			out := buf.String()
			assert.Equal(t, tt.wantJSON, strings.HasPrefix(out, "{"))
			assert.Equal(t, tt.wantInfo, strings.Contains(out, "status"))
			assert.Contains(t, out, "careful")
		})
	}
}

func TestLogger_SetOutput_Nil(t *testing.T) {
	require.NotPanics(t, func() {
		lg := logger.New().(*logger.Logger)
		lg.SetOutput(nil)
	})
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, buf := newTestLogger(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			lg.Info("info")
			lg.Warn("warn")
			lg.Error(errors.New("error"))
		})
	}
	wg.Wait()

	assert.Equal(t, 30, bytes.Count(buf.Bytes(), []byte("\n")))
}
