package domain

import "time"

// BuildInfo is the cache record of a task's last successful run. A task is
// skipped when both hashes still match.
type BuildInfo struct {
	TaskName string `json:"task_name,omitzero"`
	// InputHash covers the resolved input files, the task's command and environment.
	InputHash string `json:"input_hash,omitzero"`
	// OutputHash covers the declared outputs as they were written.
	OutputHash string    `json:"output_hash,omitzero"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
}
