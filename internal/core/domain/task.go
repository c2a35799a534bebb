package domain

// Task represents a unit of work in the build system.
// It uses InternedString for fields that are frequently repeated to save memory.
type Task struct {
	Name   InternedString
	Action Action
	// Bundle names the configuration entry an action reads its settings from,
	// e.g. "toolkit" for the styles:toolkit task.
	Bundle       string
	Inputs       []InternedString
	Outputs      []InternedString
	Dependencies []InternedString
	Command      []string
	Environment  map[string]string
	WorkingDir   InternedString
}

// Cacheable reports whether the task can be skipped based on its input hash.
// Tasks without declared inputs and outputs always run.
func (t *Task) Cacheable() bool {
	return len(t.Inputs) > 0 && len(t.Outputs) > 0
}
