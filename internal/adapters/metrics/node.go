package metrics

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/swatch/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the Prometheus collector Graft node.
	NodeID graft.ID = "adapter.metrics"
	// PortNodeID exposes the collector as ports.Metrics.
	PortNodeID graft.ID = "adapter.metrics.port"
)

func init() {
	graft.Register(graft.Node[*Prometheus]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Prometheus, error) {
			return New(), nil
		},
	})

	graft.Register(graft.Node[ports.Metrics]{
		ID:        PortNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{NodeID},
		Run: func(ctx context.Context) (ports.Metrics, error) {
			return graft.Dep[*Prometheus](ctx)
		},
	})
}
