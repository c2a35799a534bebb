// Package logger implements a logging adapter using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
)

// Logger implements ports.Logger using log/slog.
// Build progress goes through the renderer; the logger carries warnings,
// errors and the occasional status line of development mode.
type Logger struct {
	mu       sync.RWMutex
	slog     *slog.Logger
	level    slog.LevelVar
	jsonMode bool
	out      io.Writer
}

// New creates a Logger writing pretty output to stderr at info level.
func New() ports.Logger {
	l := &Logger{out: os.Stderr}
	l.rebuildLocked()
	return l
}

// FromEnvironment creates a Logger configured by SWATCH_LOG_FORMAT and
// SWATCH_LOG_LEVEL. Unknown values keep the defaults.
func FromEnvironment(getenv func(string) string) ports.Logger {
	l := New().(*Logger)

	if strings.EqualFold(strings.TrimSpace(getenv(domain.LogFormatEnvVar)), "json") {
		l.SetJSON(true)
	}
	if level, ok := parseLevel(getenv(domain.LogLevelEnvVar)); ok {
		l.SetLevel(level)
	}
	return l
}

func parseLevel(v string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// SetOutput redirects the logger. A nil writer means stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.out = w
	l.rebuildLocked()
}

// SetJSON switches between JSON lines and pretty output.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuildLocked()
}

// SetLevel drops records below level. Errors are never dropped.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(min(level, slog.LevelError))
}

func (l *Logger) rebuildLocked() {
	opts := &slog.HandlerOptions{Level: &l.level}

	var handler slog.Handler
	if l.jsonMode {
		handler = slog.NewJSONHandler(l.out, opts)
	} else {
		handler = NewPrettyHandler(l.out, opts)
	}
	l.slog = slog.New(handler)
}

// Info logs a status line.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.slog.Info(msg)
}

// Warn logs a recoverable problem.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.slog.Warn(msg)
}

// Error logs err. Each error of a joined error is its own record. Pretty
// output renders the zerr chain as a cause list; JSON output lifts the chain
// metadata into attributes so "task" and "file" stay queryable.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err == nil {
		return
	}

	leaves := flattenJoined(err)
	if l.jsonMode {
		for _, leaf := range leaves {
			l.slog.Error(leaf.Error(), chainAttrs(collectErrorEntries(leaf))...)
		}
		return
	}

	blocks := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		blocks = append(blocks, formatErrorEntries(collectErrorEntries(leaf)))
	}
	l.slog.Error(strings.Join(blocks, "\n\n"))
}

// chainAttrs flattens chain metadata, outer links winning on key clashes,
// and lists the messages of the chain under "causes".
func chainAttrs(entries []ErrorEntry) []any {
	seen := make(map[string]bool)
	var attrs []any
	causes := make([]string, 0, len(entries))
	for _, entry := range entries {
		causes = append(causes, entry.Message)
		for key, value := range entry.Metadata {
			if seen[key] {
				continue
			}
			seen[key] = true
			attrs = append(attrs, slog.Any(key, value))
		}
	}
	return append(attrs, slog.Any("causes", causes))
}
