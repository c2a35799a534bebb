// Package scheduler runs the tasks of a graph in dependency order.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/zerr"
)

// TaskStatus represents the status of a task within one run.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting for its dependencies.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task has finished successfully.
	StatusCompleted TaskStatus = "Completed"
	// StatusCached indicates the task was skipped because nothing changed.
	StatusCached TaskStatus = "Cached"
	// StatusFailed indicates the task execution failed.
	StatusFailed TaskStatus = "Failed"
)

// Scheduler executes a task graph. Independent tasks run in parallel, a task
// starts only after all of its dependencies completed, and each task runs at
// most once per Run.
type Scheduler struct {
	executor ports.Executor
	store    ports.BuildInfoStore
	hasher   ports.Hasher
	resolver ports.InputResolver
	tracer   ports.Tracer
	logger   ports.Logger

	mu         sync.RWMutex
	taskStatus map[domain.InternedString]TaskStatus
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	executor ports.Executor,
	store ports.BuildInfoStore,
	hasher ports.Hasher,
	resolver ports.InputResolver,
	tracer ports.Tracer,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		executor:   executor,
		store:      store,
		hasher:     hasher,
		resolver:   resolver,
		tracer:     tracer,
		logger:     logger,
		taskStatus: make(map[domain.InternedString]TaskStatus),
	}
}

// Status returns the status of a task in the most recent run.
func (s *Scheduler) Status(name string) TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskStatus[domain.NewInternedString(name)]
}

func (s *Scheduler) resetStatuses(tasks []domain.InternedString) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.taskStatus)
	for _, task := range tasks {
		s.taskStatus[task] = StatusPending
	}
}

func (s *Scheduler) updateStatus(name domain.InternedString, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// Run executes targetNames and their transitive dependencies.
// An empty target list or one containing "all" runs every task.
// Failures are collected: the dependents of a failed task never start, while
// independent tasks keep running. The returned error joins every task failure.
// If noCache is true, unchanged tasks are executed anyway.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *domain.Graph,
	targetNames []string,
	parallelism int,
	noCache bool,
) error {
	if err := graph.Validate(); err != nil {
		return err
	}
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	state, err := s.newRunState(ctx, graph, targetNames, parallelism, noCache)
	if err != nil {
		return err
	}

	plan := make([]string, 0, len(state.tasks))
	deps := make(map[string][]string, len(state.tasks))
	for _, name := range state.order {
		plan = append(plan, name.String())
		deps[name.String()] = domain.Strings(state.tasks[name].Dependencies)
	}
	s.tracer.EmitPlan(ctx, plan, deps, targetNames)

	s.resetStatuses(state.order)
	return state.loop()
}

type result struct {
	task        domain.InternedString
	err         error
	skipped     bool
	inputHash   string
	taskOutputs []string
}

type runState struct {
	s           *Scheduler
	ctx         context.Context
	graph       *domain.Graph
	tasks       map[domain.InternedString]domain.Task
	order       []domain.InternedString
	inDegree    map[domain.InternedString]int
	ready       []domain.InternedString
	active      int
	resultsCh   chan result
	errs        error
	parallelism int
	noCache     bool
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	graph *domain.Graph,
	targetNames []string,
	parallelism int,
	noCache bool,
) (*runState, error) {
	selected, err := selectTasks(graph, targetNames)
	if err != nil {
		return nil, err
	}

	state := &runState{
		s:           s,
		ctx:         ctx,
		graph:       graph,
		tasks:       make(map[domain.InternedString]domain.Task, len(selected)),
		inDegree:    make(map[domain.InternedString]int, len(selected)),
		resultsCh:   make(chan result, parallelism),
		parallelism: parallelism,
		noCache:     noCache,
	}

	// Walk yields dependencies first, so order is a valid plan.
	for task := range graph.Walk() {
		if !selected[task.Name] {
			continue
		}
		state.tasks[task.Name] = task
		state.order = append(state.order, task.Name)

		degree := 0
		for _, dep := range task.Dependencies {
			if selected[dep] {
				degree++
			}
		}
		state.inDegree[task.Name] = degree
		if degree == 0 {
			state.ready = append(state.ready, task.Name)
		}
	}
	return state, nil
}

// selectTasks returns the targets and their transitive dependencies.
func selectTasks(graph *domain.Graph, targetNames []string) (map[domain.InternedString]bool, error) {
	selected := make(map[domain.InternedString]bool)

	if len(targetNames) == 0 || slices.Contains(targetNames, domain.TaskAll) {
		for task := range graph.Walk() {
			selected[task.Name] = true
		}
		return selected, nil
	}

	queue := make([]domain.InternedString, 0, len(targetNames))
	for _, nameStr := range targetNames {
		name := domain.NewInternedString(nameStr)
		if _, ok := graph.GetTask(name); !ok {
			return nil, zerr.With(domain.ErrTaskNotFound, "task", nameStr)
		}
		queue = append(queue, name)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if selected[current] {
			continue
		}
		selected[current] = true

		task, _ := graph.GetTask(current)
		queue = append(queue, task.Dependencies...)
	}
	return selected, nil
}

func (state *runState) loop() error {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		// Once cancelled, drain the tasks in flight without starting new ones.
		if state.ctx.Err() != nil {
			if state.active == 0 {
				break
			}
			state.handleResult(<-state.resultsCh)
			continue
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}
	return state.errs
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		name := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(name, StatusRunning)

		t := state.tasks[name]
		go state.executeTask(&t)
	}
}

// executeTask runs one task inside its span. The span ends before the result
// is reported so renderers observe completion before the run finishes.
func (state *runState) executeTask(t *domain.Task) {
	res := func() (res result) {
		ctx, span := state.s.tracer.Start(state.ctx, t.Name.String())
		defer span.End()

		res.task = t.Name
		defer func() {
			if r := recover(); r != nil {
				res.err = zerr.With(zerr.With(domain.ErrTaskPanicked, "panic", fmt.Sprint(r)), "stack", firstFrames(debug.Stack()))
				span.RecordError(res.err)
			}
		}()

		if t.Cacheable() {
			skipped, hash, err := state.checkCache(t)
			if err != nil {
				span.RecordError(err)
				res.err = err
				return res
			}
			res.inputHash = hash
			if skipped {
				span.SetAttribute(ports.CachedAttribute, true)
				res.skipped = true
				return res
			}
			res.taskOutputs = domain.Strings(t.Outputs)
		}

		if err := state.s.executor.Execute(ctx, t, span, span); err != nil {
			span.RecordError(err)
			res.err = err
		}
		return res
	}()

	state.resultsCh <- res
}

// checkCache hashes the task's inputs and reports whether the stored record
// matches both the inputs and the outputs currently on disk.
func (state *runState) checkCache(t *domain.Task) (skipped bool, hash string, err error) {
	root := state.graph.Root()

	resolved, err := state.s.resolver.ResolveInputs(domain.Strings(t.Inputs), root)
	if err != nil {
		return false, "", zerr.Wrap(err, domain.ErrInputResolutionFailed.Error())
	}

	hash, err = state.s.hasher.ComputeInputHash(t, t.Environment, resolved)
	if err != nil {
		return false, "", zerr.Wrap(err, domain.ErrInputHashComputationFailed.Error())
	}

	if state.noCache {
		return false, hash, nil
	}

	info, err := state.s.store.Get(root, t.Name.String())
	if err != nil {
		return false, hash, err
	}
	if info == nil || info.InputHash != hash {
		return false, hash, nil
	}

	outputHash, err := state.s.hasher.ComputeOutputHash(domain.Strings(t.Outputs), root)
	if err != nil || outputHash != info.OutputHash {
		return false, hash, nil
	}
	return true, hash, nil
}

func (state *runState) handleResult(res result) {
	state.active--

	if res.err != nil {
		err := zerr.With(zerr.Wrap(res.err, domain.ErrTaskExecutionFailed.Error()), "task", res.task.String())
		state.errs = errors.Join(state.errs, err)
		state.s.updateStatus(res.task, StatusFailed)
		return
	}

	if res.skipped {
		state.s.updateStatus(res.task, StatusCached)
	} else {
		state.s.updateStatus(res.task, StatusCompleted)
		state.record(res)
	}

	for _, dep := range state.graph.Dependents(res.task) {
		if _, ok := state.tasks[dep]; !ok {
			continue
		}
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}

// record stores the build info of a cacheable task. A failure only costs a
// rebuild next time, so it is logged rather than failing the task.
func (state *runState) record(res result) {
	if len(res.taskOutputs) == 0 {
		return
	}

	root := state.graph.Root()
	outputHash, err := state.s.hasher.ComputeOutputHash(res.taskOutputs, root)
	if err != nil {
		state.s.logger.Warn("not caching " + res.task.String() + ": " + err.Error())
		return
	}

	err = state.s.store.Put(root, domain.BuildInfo{
		TaskName:   res.task.String(),
		InputHash:  res.inputHash,
		OutputHash: outputHash,
		Timestamp:  time.Now(),
	})
	if err != nil {
		state.s.logger.Warn("not caching " + res.task.String() + ": " + err.Error())
	}
}

// firstFrames trims a stack trace to the frames nearest the panic.
func firstFrames(stack []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stack)), "\n")
	const maxLines = 12
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}
