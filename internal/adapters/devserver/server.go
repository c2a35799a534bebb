// Package devserver serves the destination tree with live reload.
package devserver

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// EventsPath is the server-sent events endpoint.
	EventsPath = "/__swatch/livereload"
	// ScriptPath serves the live reload client.
	ScriptPath = "/__swatch/livereload.js"
	// MetricsPath serves Prometheus metrics.
	MetricsPath = "/metrics"

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

//go:embed static/livereload.js
var clientScript []byte

var _ ports.DevServer = (*Server)(nil)

// Server implements ports.DevServer.
type Server struct {
	hub     *Hub
	metrics http.Handler
	logger  ports.Logger
}

// New creates a Server. metrics may be nil to disable the metrics endpoint.
func New(logger ports.Logger, metrics http.Handler) *Server {
	return &Server{hub: NewHub(), metrics: metrics, logger: logger}
}

// Hub returns the live reload hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Reload notifies every connected browser.
func (s *Server) Reload(r domain.Reload) int {
	return s.hub.Broadcast(r)
}

// Handler returns the HTTP handler serving dir.
func (s *Server) Handler(dir string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(EventsPath, s.hub)
	mux.HandleFunc(ScriptPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(clientScript)
	})
	if s.metrics != nil {
		mux.Handle(MetricsPath, s.metrics)
	}
	mux.Handle("/", static(dir))
	return mux
}

// Serve listens on addr and serves dir until ctx is done.
func (s *Server) Serve(ctx context.Context, addr, dir string, ready func(addr string)) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrServeFailed.Error()), "addr", addr)
	}

	srv := &http.Server{
		Handler:           s.Handler(dir),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	if ready != nil {
		ready(ln.Addr().String())
	}

	select {
	case err := <-errCh:
		s.hub.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrServeFailed.Error()), "addr", addr)
	case <-ctx.Done():
	}

	// Event streams never finish on their own; drop them before the graceful shutdown.
	s.hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("development server did not shut down cleanly: " + err.Error())
		_ = srv.Close()
	}
	return nil
}

// static serves files from dir, injecting the live reload client into HTML pages.
func static(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		full := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		info, err := os.Stat(full)
		if err == nil && info.IsDir() {
			if !strings.HasSuffix(r.URL.Path, "/") {
				files.ServeHTTP(w, r)
				return
			}
			full = filepath.Join(full, "index.html")
			info, err = os.Stat(full)
		}
		if err != nil || !strings.EqualFold(filepath.Ext(full), ".html") {
			files.ServeHTTP(w, r)
			return
		}

		page, err := os.ReadFile(full) //nolint:gosec // Path is cleaned and rooted at dir
		if err != nil {
			http.Error(w, "failed to read page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader(InjectScript(page, ScriptPath)))
	})
}
