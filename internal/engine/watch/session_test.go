package watch_test

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/swatch/internal/core/ports/mocks"
	"go.trai.ch/swatch/internal/engine/watch"
	"go.uber.org/mock/gomock"
)

// fakeRunner records scheduler runs.
type fakeRunner struct {
	mu   sync.Mutex
	runs [][]string
	err  error
}

func (r *fakeRunner) Run(_ context.Context, _ *domain.Graph, targets []string, _ int, _ bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, targets)
	return r.err
}

func (r *fakeRunner) all() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

type sessionMocks struct {
	watcher  *mocks.MockWatcher
	bundler  *mocks.MockScriptBundler
	reloader *mocks.MockReloader
	metrics  *mocks.MockMetrics
	logger   *mocks.MockLogger
}

func newProject(t *testing.T) *domain.Project {
	t.Helper()
	cfg := &domain.BuildConfig{
		Root: "/project",
		Dest: "dist",
		Styles: map[string]domain.StyleBundle{
			domain.BundleFabricator: {Name: domain.BundleFabricator, Output: "dist/assets/fabricator/styles/f.css"},
			domain.BundleToolkit:    {Name: domain.BundleToolkit, Output: "dist/assets/toolkit/styles/toolkit.css"},
		},
		Watch: []domain.WatchBinding{
			{Pattern: "src/**/*.{html,md,json,yml,yaml}", Task: domain.NewInternedString(domain.TaskAssemble), Reload: domain.ReloadPage},
			{Pattern: "src/assets/fabricator/styles/**/*.{css,scss}", Task: domain.NewInternedString("styles:fabricator"), Reload: domain.ReloadInject},
			{Pattern: "src/assets/toolkit/styles/**/*.{css,scss}", Task: domain.NewInternedString("styles:toolkit"), Reload: domain.ReloadInject},
			{Pattern: "src/assets/fabricator/scripts/**/*.js", Task: domain.NewInternedString(domain.TaskScripts), Reload: domain.ReloadPage, InvalidateScripts: true},
			{Pattern: "src/assets/toolkit/scripts/**/*.js", Task: domain.NewInternedString(domain.TaskScriptsShame), Reload: domain.ReloadNone},
		},
	}

	g := domain.NewGraph()
	g.SetRoot(cfg.Root)
	for _, task := range []*domain.Task{
		{Name: domain.NewInternedString("styles:fabricator"), Action: domain.ActionStyles, Bundle: domain.BundleFabricator},
		{Name: domain.NewInternedString("styles:toolkit"), Action: domain.ActionStyles, Bundle: domain.BundleToolkit},
		{Name: domain.NewInternedString(domain.TaskStyles), Dependencies: domain.NewInternedStrings([]string{"styles:fabricator", "styles:toolkit"})},
		{Name: domain.NewInternedString(domain.TaskScripts), Action: domain.ActionGroup},
		{Name: domain.NewInternedString(domain.TaskScriptsShame), Action: domain.ActionShame},
		{Name: domain.NewInternedString(domain.TaskAssemble), Action: domain.ActionAssemble},
	} {
		require.NoError(t, g.AddTask(task))
	}
	require.NoError(t, g.Validate())

	return &domain.Project{Config: cfg, Graph: g}
}

func newSession(t *testing.T, project *domain.Project, runner watch.Runner) (*watch.Session, sessionMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := sessionMocks{
		watcher:  mocks.NewMockWatcher(ctrl),
		bundler:  mocks.NewMockScriptBundler(ctrl),
		reloader: mocks.NewMockReloader(ctrl),
		metrics:  mocks.NewMockMetrics(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
	}
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	m.metrics.EXPECT().ObserveRebuild(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	s, err := watch.NewSession(project, runner, watch.Deps{
		Watcher:  m.watcher,
		Bundler:  m.bundler,
		Reloader: m.reloader,
		Metrics:  m.metrics,
		Logger:   m.logger,
	})
	require.NoError(t, err)
	return s, m
}

func TestSession_Rebuild_InjectsStylesheets(t *testing.T) {
	runner := &fakeRunner{}
	s, m := newSession(t, newProject(t), runner)

	m.reloader.EXPECT().Reload(domain.Reload{
		Kind:  domain.ReloadInject,
		Paths: []string{"/assets/toolkit/styles/toolkit.css"},
	}).Return(2)
	m.metrics.EXPECT().ObserveReload(domain.ReloadInject, 2)

	require.NoError(t, s.Rebuild(t.Context(), []string{"/project/src/assets/toolkit/styles/components/_button.css"}))
	assert.Equal(t, [][]string{{"styles:toolkit"}}, runner.all())
}

func TestSession_Rebuild_EntryFilesMatch(t *testing.T) {
	runner := &fakeRunner{}
	s, m := newSession(t, newProject(t), runner)

	m.reloader.EXPECT().Reload(domain.Reload{
		Kind:  domain.ReloadInject,
		Paths: []string{"/assets/fabricator/styles/f.css"},
	}).Return(1)
	m.metrics.EXPECT().ObserveReload(domain.ReloadInject, 1)

	require.NoError(t, s.Rebuild(t.Context(), []string{"/project/src/assets/fabricator/styles/fabricator.css"}))
	assert.Equal(t, [][]string{{"styles:fabricator"}}, runner.all(), "files directly in a watched directory trigger their task")
}

func TestSession_Rebuild_PageReloadWins(t *testing.T) {
	runner := &fakeRunner{}
	s, m := newSession(t, newProject(t), runner)

	m.reloader.EXPECT().Reload(domain.Reload{Kind: domain.ReloadPage}).Return(1)
	m.metrics.EXPECT().ObserveReload(domain.ReloadPage, 1)

	require.NoError(t, s.Rebuild(t.Context(), []string{
		"/project/src/assets/fabricator/styles/fabricator.css",
		"/project/src/views/index.html",
		"/project/src/assets/toolkit/styles/toolkit.css",
	}))
	assert.Equal(t, [][]string{{"assemble", "styles:fabricator", "styles:toolkit"}}, runner.all(), "one run for the whole batch")
}

func TestSession_Rebuild_InvalidatesScripts(t *testing.T) {
	runner := &fakeRunner{}
	s, m := newSession(t, newProject(t), runner)

	gomock.InOrder(
		m.bundler.EXPECT().Invalidate("/project/src/assets/fabricator/scripts/menu.js").Return(1),
		m.metrics.EXPECT().ObserveInvalidation(1),
	)
	m.reloader.EXPECT().Reload(domain.Reload{Kind: domain.ReloadPage}).Return(0)
	m.metrics.EXPECT().ObserveReload(domain.ReloadPage, 0)

	require.NoError(t, s.Rebuild(t.Context(), []string{"/project/src/assets/fabricator/scripts/menu.js"}))
	assert.Equal(t, [][]string{{"scripts"}}, runner.all())
}

func TestSession_Rebuild_NoReload(t *testing.T) {
	runner := &fakeRunner{}
	s, _ := newSession(t, newProject(t), runner)

	require.NoError(t, s.Rebuild(t.Context(), []string{"/project/src/assets/toolkit/scripts/legacy.js"}))
	assert.Equal(t, [][]string{{"scriptsShame"}}, runner.all())
}

func TestSession_Rebuild_Unmatched(t *testing.T) {
	runner := &fakeRunner{}
	s, _ := newSession(t, newProject(t), runner)

	require.NoError(t, s.Rebuild(t.Context(), []string{
		"/project/README",
		"/elsewhere/src/views/index.html",
	}))
	assert.Empty(t, runner.all())
}

func TestSession_Rebuild_FailureSendsNoReload(t *testing.T) {
	boom := errors.New("toolkit.css:3:1: error: expected \"}\"")
	runner := &fakeRunner{err: boom}
	s, m := newSession(t, newProject(t), runner)

	m.logger.EXPECT().Error(boom)

	err := s.Rebuild(t.Context(), []string{"/project/src/assets/toolkit/styles/toolkit.css"})
	require.ErrorIs(t, err, boom)
}

func TestSession_Rebuild_GroupTaskInjectsEveryBundle(t *testing.T) {
	project := newProject(t)
	project.Config.Watch = []domain.WatchBinding{
		{Pattern: "src/**/*.css", Task: domain.NewInternedString(domain.TaskStyles), Reload: domain.ReloadInject},
	}
	runner := &fakeRunner{}
	s, m := newSession(t, project, runner)

	m.reloader.EXPECT().Reload(domain.Reload{
		Kind:  domain.ReloadInject,
		Paths: []string{"/assets/fabricator/styles/f.css", "/assets/toolkit/styles/toolkit.css"},
	}).Return(1)
	m.metrics.EXPECT().ObserveReload(gomock.Any(), gomock.Any())

	require.NoError(t, s.Rebuild(t.Context(), []string{"/project/src/assets/a.css"}))
}

func TestNewSession_InvalidGlob(t *testing.T) {
	project := newProject(t)
	project.Config.Watch = []domain.WatchBinding{{Pattern: "src/[", Task: domain.NewInternedString(domain.TaskAssemble)}}

	_, err := watch.NewSession(project, &fakeRunner{}, watch.Deps{})
	require.ErrorContains(t, err, domain.ErrInvalidGlob.Error())
}

func TestSession_Ignored(t *testing.T) {
	s, _ := newSession(t, newProject(t), &fakeRunner{})
	assert.Equal(t, []string{".git", "node_modules", ".swatch", "dist"}, s.Ignored())
}

func TestSession_Run(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		runner := &fakeRunner{}
		s, m := newSession(t, newProject(t), runner)

		events := make(chan ports.WatchEvent)
		m.watcher.EXPECT().Start(gomock.Any(), "/project", s.Ignored()).Return(nil)
		m.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
			for ev := range events {
				if !yield(ev) {
					return
				}
			}
		}))
		m.watcher.EXPECT().Stop().Return(nil)
		m.reloader.EXPECT().Reload(gomock.Any()).Return(1)
		m.metrics.EXPECT().ObserveReload(domain.ReloadPage, 1)

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error)
		go func() { done <- s.Run(ctx) }()

		events <- ports.WatchEvent{Path: "/project/src/views/index.html", Operation: ports.OpWrite}
		events <- ports.WatchEvent{Path: "/project/src/data/site.yml", Operation: ports.OpWrite}
		time.Sleep(time.Second)
		synctest.Wait()

		assert.Equal(t, [][]string{{"assemble"}}, runner.all(), "events within the window share one run")

		cancel()
		close(events)
		require.NoError(t, <-done)
	})
}

func TestSession_Run_StartFailure(t *testing.T) {
	s, m := newSession(t, newProject(t), &fakeRunner{})
	m.watcher.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ErrWatchFailed)

	err := s.Run(t.Context())
	require.ErrorIs(t, err, domain.ErrWatchFailed)
}
