package ports

import (
	"time"

	"go.trai.ch/swatch/internal/core/domain"
)

// Metrics records watch mode activity.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveRebuild records one debounced rebuild.
	ObserveRebuild(tasks []string, d time.Duration, err error)
	// ObserveReload records one reload notification.
	ObserveReload(kind domain.ReloadKind, clients int)
	// ObserveInvalidation records dropped script bundle cache entries.
	ObserveInvalidation(entries int)
}
