package stylestats

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/swatch/internal/core/ports"
)

// NodeID is the unique identifier for the stylesheet analyzer Graft node.
const NodeID graft.ID = "adapter.stylestats"

func init() {
	graft.Register(graft.Node[ports.StyleAnalyzer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.StyleAnalyzer, error) {
			return NewAnalyzer(), nil
		},
	})
}
