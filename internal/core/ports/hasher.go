package ports

import "go.trai.ch/swatch/internal/core/domain"

// Hasher defines the interface for computing hashes.
//
//go:generate mockgen -destination=mocks/mock_hasher.go -package=mocks -source=hasher.go
type Hasher interface {
	// ComputeInputHash computes the input hash for a task over its definition
	// and the resolved input files.
	ComputeInputHash(task *domain.Task, env map[string]string, inputs []string) (string, error)

	// ComputeOutputHash computes a hash over the output paths relative to root.
	// Directories are hashed recursively.
	ComputeOutputHash(outputs []string, root string) (string, error)
}
