// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/swatch/internal/core/domain"
)

// Executor defines the interface for executing tasks.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute performs the given task.
	//
	// Tool output and diagnostics are written to stdout and stderr.
	// It returns an error if the task execution fails.
	Execute(ctx context.Context, task *domain.Task, stdout, stderr io.Writer) error
}
