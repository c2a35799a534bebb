// Package domain contains the core domain models and business logic for the task dependency graph.
package domain

import (
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph represents a dependency graph of tasks.
type Graph struct {
	root           string
	tasks          map[InternedString]Task
	executionOrder []InternedString
	dependents     map[InternedString][]InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks:      make(map[InternedString]Task),
		dependents: make(map[InternedString][]InternedString),
	}
}

// SetRoot sets the project root that task inputs and outputs are relative to.
func (g *Graph) SetRoot(root string) {
	g.root = root
}

// Root returns the project root.
func (g *Graph) Root() string {
	return g.root
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name.String())
	}
	g.tasks[t.Name] = *t
	return nil
}

// GetTask returns the task with the given name.
func (g *Graph) GetTask(name InternedString) (Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// Dependents returns the tasks that directly depend on name.
// It is populated by Validate.
func (g *Graph) Dependents(name InternedString) []InternedString {
	return g.dependents[name]
}

// Validate checks for missing dependencies, cycles and overlapping outputs.
// It populates the execution order and the reverse dependency index if successful.
// Tasks are visited in name order so the execution order is deterministic.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.tasks))
	g.dependents = make(map[InternedString][]InternedString, len(g.tasks))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		task := g.tasks[u]
		for _, dep := range task.Dependencies {
			if _, exists := g.tasks[dep]; !exists {
				err := zerr.With(ErrMissingDependency, "dependency", dep.String())
				return zerr.With(err, "task", u.String())
			}
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	for _, name := range g.sortedNames() {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	for _, name := range g.executionOrder {
		for _, dep := range g.tasks[name].Dependencies {
			g.dependents[dep] = append(g.dependents[dep], name)
		}
	}

	return g.validateOutputs()
}

func (g *Graph) sortedNames() []InternedString {
	names := make([]InternedString, 0, len(g.tasks))
	for name := range g.tasks {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b InternedString) int {
		return strings.Compare(a.String(), b.String())
	})
	return names
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	startIdx := slices.Index(path, dep)
	parts := make([]string, 0, len(path)-startIdx+1)
	for _, node := range path[startIdx:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(parts, " -> "))
}

// validateOutputs rejects graphs where two tasks would write the same path,
// or where one task writes inside a directory owned by a task it is not ordered with.
// A task may merge files into a directory owned by one of its transitive dependencies.
func (g *Graph) validateOutputs() error {
	type owned struct {
		path string
		task InternedString
	}

	var outputs []owned
	for _, name := range g.executionOrder {
		for _, out := range g.tasks[name].Outputs {
			outputs = append(outputs, owned{path: filepath.ToSlash(filepath.Clean(out.String())), task: name})
		}
	}

	for i := range outputs {
		for j := i + 1; j < len(outputs); j++ {
			a, b := outputs[i], outputs[j]
			if a.task == b.task {
				continue
			}
			nested := strings.HasPrefix(b.path, a.path+"/") || strings.HasPrefix(a.path, b.path+"/")
			if nested && (g.dependsOn(a.task, b.task) || g.dependsOn(b.task, a.task)) {
				continue
			}
			if nested || a.path == b.path {
				err := zerr.With(ErrOverlappingOutputs, "first", a.task.String()+": "+a.path)
				return zerr.With(err, "second", b.task.String()+": "+b.path)
			}
		}
	}
	return nil
}

// dependsOn reports whether task a transitively depends on task b.
func (g *Graph) dependsOn(a, b InternedString) bool {
	seen := make(map[InternedString]bool)
	stack := []InternedString{a}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range g.tasks[cur].Dependencies {
			if dep == b {
				return true
			}
			if !seen[dep] {
				seen[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	return false
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}
