package scripts

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/swatch/internal/core/ports"
)

const (
	// BundlerNodeID is the unique identifier for the script bundler Graft node.
	BundlerNodeID graft.ID = "adapter.scripts.bundler"
	// FeaturesNodeID is the unique identifier for the feature generator Graft node.
	FeaturesNodeID graft.ID = "adapter.scripts.features"
)

func init() {
	graft.Register(graft.Node[ports.ScriptBundler]{
		ID:        BundlerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ScriptBundler, error) {
			return NewBundler(), nil
		},
	})

	graft.Register(graft.Node[ports.FeatureGenerator]{
		ID:        FeaturesNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.FeatureGenerator, error) {
			return NewFeatureGenerator(), nil
		},
	})
}
