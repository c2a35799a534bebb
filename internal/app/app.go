// Package app implements the application layer for swatch.
package app

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/swatch/internal/engine/actions"
	"go.trai.ch/swatch/internal/engine/scheduler"
	"go.trai.ch/swatch/internal/engine/watch"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	tools        *actions.Tools
	store        ports.BuildInfoStore
	hasher       ports.Hasher
	resolver     ports.InputResolver
	tracer       ports.Tracer
	renderer     ports.Renderer
	logger       ports.Logger

	watcher ports.Watcher
	server  ports.DevServer
	metrics ports.Metrics
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	tools *actions.Tools,
	store ports.BuildInfoStore,
	hasher ports.Hasher,
	resolver ports.InputResolver,
	tracer ports.Tracer,
	renderer ports.Renderer,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		tools:        tools,
		store:        store,
		hasher:       hasher,
		resolver:     resolver,
		tracer:       tracer,
		renderer:     renderer,
		logger:       log,
	}
}

// WithDevServer sets the collaborators of development mode.
func (a *App) WithDevServer(watcher ports.Watcher, server ports.DevServer, metrics ports.Metrics) *App {
	a.watcher = watcher
	a.server = server
	a.metrics = metrics
	return a
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// ConfigPath overrides configuration discovery.
	ConfigPath string
	// Dev forces development mode.
	Dev bool
	// Tasks limits the build to the named tasks and their dependencies.
	// The destination is not cleaned and no server starts when set.
	Tasks       []string
	NoCache     bool
	NoClean     bool
	Parallelism int
}

// Build runs the default build: clean, then the build targets. In development
// mode a successful build is followed by watching and serving until ctx is done.
func (a *App) Build(ctx context.Context, cwd string, opts BuildOptions) error {
	project, err := a.configLoader.Load(cwd, ports.LoadOptions{ConfigPath: opts.ConfigPath, Dev: opts.Dev})
	if err != nil {
		return err
	}
	cfg := project.Config

	targets := opts.Tasks
	if err := checkTargets(project.Graph, targets); err != nil {
		return err
	}
	full := len(targets) == 0
	if full {
		targets = domain.BuildTargets
		if !opts.NoClean {
			if err := a.clean(cfg, false); err != nil {
				return err
			}
		}
	}

	defer a.tools.Scripts.Close()

	sched := scheduler.NewScheduler(
		actions.NewDispatcher(cfg, a.tools),
		a.store,
		a.hasher,
		a.resolver,
		a.tracer,
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.renderer.Start(ctx); err != nil {
			return err
		}
		return a.renderer.Wait()
	})

	g.Go(func() error {
		defer func() { _ = a.renderer.Stop() }()

		if err := sched.Run(ctx, project.Graph, targets, opts.Parallelism, opts.NoCache); err != nil {
			return errors.Join(domain.ErrBuildExecutionFailed, err)
		}
		if !cfg.Dev || !full {
			return nil
		}
		return a.serve(ctx, project, sched, opts.Parallelism)
	})

	return g.Wait()
}

// checkTargets rejects unknown task names before anything runs, so they are
// reported as usage errors rather than task failures.
func checkTargets(g *domain.Graph, targets []string) error {
	for _, name := range targets {
		if name == domain.TaskAll {
			continue
		}
		if _, ok := g.GetTask(domain.NewInternedString(name)); !ok {
			return zerr.With(domain.ErrTaskNotFound, "task", name)
		}
	}
	return nil
}

// serve watches sources and serves the destination until ctx is done.
func (a *App) serve(ctx context.Context, project *domain.Project, sched *scheduler.Scheduler, parallelism int) error {
	if a.watcher == nil || a.server == nil {
		return zerr.With(domain.ErrServeFailed, "reason", "development server not configured")
	}
	cfg := project.Config

	session, err := watch.NewSession(project, sched, watch.Deps{
		Watcher:  a.watcher,
		Bundler:  a.tools.Scripts,
		Reloader: a.server,
		Metrics:  a.metrics,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	session.WithParallelism(parallelism)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(ctx)
	})
	g.Go(func() error {
		return a.server.Serve(ctx, addr, cfg.Abs(cfg.Dest), func(bound string) {
			a.logger.Info("serving " + cfg.Dest + " at http://" + bound)
		})
	})
	return g.Wait()
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	ConfigPath string
	// Cache also removes the build info store and staged files.
	Cache bool
}

// Clean removes the destination tree.
func (a *App) Clean(_ context.Context, cwd string, opts CleanOptions) error {
	project, err := a.configLoader.Load(cwd, ports.LoadOptions{ConfigPath: opts.ConfigPath})
	if err != nil {
		return err
	}
	return a.clean(project.Config, opts.Cache)
}

func (a *App) clean(cfg *domain.BuildConfig, cache bool) error {
	dest := cfg.Abs(cfg.Dest)
	rel, err := filepath.Rel(cfg.Root, dest)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return zerr.With(zerr.With(domain.ErrCleanFailed, "reason", "destination must be inside the project root"), "path", dest)
	}

	remove := func(path string) error {
		a.logger.Info("removing " + path)
		if err := os.RemoveAll(path); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", path)
		}
		return nil
	}

	if err := remove(dest); err != nil {
		return err
	}
	if cache {
		return remove(filepath.Join(cfg.Root, domain.SwatchDirName))
	}
	return nil
}
