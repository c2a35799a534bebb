// Package watch reruns tasks when their sources change and tells connected
// browsers to reload.
package watch

import (
	"context"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// Runner executes tasks of a graph.
type Runner interface {
	Run(ctx context.Context, graph *domain.Graph, targets []string, parallelism int, noCache bool) error
}

// Deps are the collaborators of a Session.
type Deps struct {
	Watcher  ports.Watcher
	Bundler  ports.ScriptBundler
	Reloader ports.Reloader
	Metrics  ports.Metrics
	Logger   ports.Logger
}

type binding struct {
	domain.WatchBinding
	matcher *domain.Pattern
}

// Session watches a project and rebuilds the tasks bound to changed files.
// Rebuilds never overlap.
type Session struct {
	cfg         *domain.BuildConfig
	graph       *domain.Graph
	runner      Runner
	deps        Deps
	bindings    []binding
	window      time.Duration
	parallelism int

	mu sync.Mutex
}

// NewSession compiles the watch bindings of project.
func NewSession(project *domain.Project, runner Runner, deps Deps) (*Session, error) {
	bindings := make([]binding, 0, len(project.Config.Watch))
	for _, b := range project.Config.Watch {
		matcher, err := domain.CompilePattern(b.Pattern)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding{WatchBinding: b, matcher: matcher})
	}

	return &Session{
		cfg:      project.Config,
		graph:    project.Graph,
		runner:   runner,
		deps:     deps,
		bindings: bindings,
		window:   DefaultWindow,
	}, nil
}

// WithWindow sets the debounce window.
func (s *Session) WithWindow(d time.Duration) *Session {
	s.window = d
	return s
}

// WithParallelism limits the number of tasks a rebuild runs at once.
func (s *Session) WithParallelism(n int) *Session {
	s.parallelism = n
	return s
}

// Ignored returns the directories relative to the project root that are never watched.
func (s *Session) Ignored() []string {
	ignore := []string{".git", "node_modules", domain.SwatchDirName}
	if s.cfg.Dest != "" {
		ignore = append(ignore, path.Clean(s.cfg.Dest))
	}
	return ignore
}

// Run watches the project root until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.deps.Watcher.Start(ctx, s.cfg.Root, s.Ignored()); err != nil {
		return err
	}
	defer func() { _ = s.deps.Watcher.Stop() }()

	queue := make(chan []string)
	debouncer := NewDebouncer(s.window, func(paths []string) {
		select {
		case queue <- paths:
		case <-ctx.Done():
		}
	})
	defer debouncer.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case paths := <-queue:
				_ = s.Rebuild(ctx, paths)
			}
		}
	})
	g.Go(func() error {
		// The stream ends when the watcher stops.
		defer cancel()
		for event := range s.deps.Watcher.Events() {
			debouncer.Add(event.Path)
		}
		return nil
	})
	return g.Wait()
}

// Rebuild runs every task bound to one of the changed absolute paths in a
// single scheduler run, then sends at most one reload. A failed run is logged
// and returned, and no reload is sent.
func (s *Session) Rebuild(ctx context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	triggered := s.match(paths)
	if len(triggered) == 0 {
		return nil
	}

	s.invalidateScripts(paths, triggered)

	var tasks []string
	for _, b := range triggered {
		tasks = append(tasks, b.Task.String())
	}
	slices.Sort(tasks)
	tasks = slices.Compact(tasks)

	s.deps.Logger.Info("rebuilding " + strings.Join(tasks, ", "))
	start := time.Now()
	err := s.runner.Run(ctx, s.graph, tasks, s.parallelism, false)
	s.deps.Metrics.ObserveRebuild(tasks, time.Since(start), err)
	if err != nil {
		s.deps.Logger.Error(err)
		return err
	}

	reload := s.reloadFor(triggered)
	if reload.Kind == domain.ReloadNone {
		return nil
	}
	clients := s.deps.Reloader.Reload(reload)
	s.deps.Metrics.ObserveReload(reload.Kind, clients)
	return nil
}

// match returns the bindings triggered by paths, in configuration order.
func (s *Session) match(paths []string) []binding {
	var triggered []binding
	for _, b := range s.bindings {
		for _, p := range paths {
			if rel, ok := s.relative(p); ok && b.matcher.Match(rel) {
				triggered = append(triggered, b)
				break
			}
		}
	}
	return triggered
}

func (s *Session) relative(p string) (string, bool) {
	rel, err := filepath.Rel(s.cfg.Root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// invalidateScripts drops cached bundles containing a changed file, before
// the scripts rebuild reads them.
func (s *Session) invalidateScripts(paths []string, triggered []binding) {
	if !slices.ContainsFunc(triggered, func(b binding) bool { return b.InvalidateScripts }) {
		return
	}

	dropped := 0
	for _, p := range paths {
		rel, ok := s.relative(p)
		if !ok {
			continue
		}
		for _, b := range triggered {
			if b.InvalidateScripts && b.matcher.Match(rel) {
				dropped += s.deps.Bundler.Invalidate(p)
				break
			}
		}
	}
	s.deps.Metrics.ObserveInvalidation(dropped)
}

// reloadFor picks one reload for the triggered bindings: a page reload wins,
// otherwise the rebuilt stylesheets are injected.
func (s *Session) reloadFor(triggered []binding) domain.Reload {
	kind := domain.ReloadNone
	var styleTasks []domain.InternedString
	for _, b := range triggered {
		switch b.Reload {
		case domain.ReloadPage:
			return domain.Reload{Kind: domain.ReloadPage}
		case domain.ReloadInject:
			kind = domain.ReloadInject
			styleTasks = append(styleTasks, b.Task)
		}
	}
	if kind == domain.ReloadNone {
		return domain.Reload{Kind: domain.ReloadNone}
	}
	return domain.Reload{Kind: domain.ReloadInject, Paths: s.stylesheetURLs(styleTasks)}
}

// stylesheetURLs returns the server paths of the stylesheets written by tasks
// and their dependencies.
func (s *Session) stylesheetURLs(tasks []domain.InternedString) []string {
	var urls []string
	seen := make(map[domain.InternedString]bool)

	var visit func(name domain.InternedString)
	visit = func(name domain.InternedString) {
		if seen[name] {
			return
		}
		seen[name] = true

		task, ok := s.graph.GetTask(name)
		if !ok {
			return
		}
		if task.Action == domain.ActionStyles {
			if bundle, ok := s.cfg.Styles[task.Bundle]; ok {
				urls = append(urls, s.url(bundle.Output))
			}
		}
		for _, dep := range task.Dependencies {
			visit(dep)
		}
	}
	for _, name := range tasks {
		visit(name)
	}

	slices.Sort(urls)
	return slices.Compact(urls)
}

// url maps an output path below the destination to its server path.
func (s *Session) url(output string) string {
	rel := strings.TrimPrefix(path.Clean(output), path.Clean(s.cfg.Dest)+"/")
	return "/" + rel
}
