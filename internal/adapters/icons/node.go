package icons

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/swatch/internal/adapters/fs"
	"go.trai.ch/swatch/internal/core/ports"
)

// NodeID is the unique identifier for the sprite builder Graft node.
const NodeID graft.ID = "adapter.icons"

func init() {
	graft.Register(graft.Node[ports.SpriteBuilder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.WalkerNodeID},
		Run: func(ctx context.Context) (ports.SpriteBuilder, error) {
			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewSpriteBuilder(walker), nil
		},
	})
}
