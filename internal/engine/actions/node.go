package actions

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/swatch/internal/adapters/assembler"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/swatch/internal/adapters/fs"         //nolint:depguard // Wired in engine wiring
	"go.trai.ch/swatch/internal/adapters/icons"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/swatch/internal/adapters/images"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/swatch/internal/adapters/scripts"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/swatch/internal/adapters/shell"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/swatch/internal/adapters/styles"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/swatch/internal/adapters/stylestats" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/swatch/internal/core/ports"
)

// NodeID is the unique identifier for the action tools Graft node.
const NodeID graft.ID = "engine.actions"

func init() {
	graft.Register(graft.Node[*Tools]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			styles.NodeID,
			stylestats.NodeID,
			scripts.BundlerNodeID,
			scripts.FeaturesNodeID,
			icons.NodeID,
			images.NodeID,
			assembler.NodeID,
			fs.CopierNodeID,
		},
		Run: func(ctx context.Context) (*Tools, error) {
			var (
				tools Tools
				err   error
			)
			if tools.Shell, err = graft.Dep[ports.Executor](ctx); err != nil {
				return nil, err
			}
			if tools.Styles, err = graft.Dep[ports.StyleCompiler](ctx); err != nil {
				return nil, err
			}
			if tools.Stats, err = graft.Dep[ports.StyleAnalyzer](ctx); err != nil {
				return nil, err
			}
			if tools.Scripts, err = graft.Dep[ports.ScriptBundler](ctx); err != nil {
				return nil, err
			}
			if tools.Features, err = graft.Dep[ports.FeatureGenerator](ctx); err != nil {
				return nil, err
			}
			if tools.Sprites, err = graft.Dep[ports.SpriteBuilder](ctx); err != nil {
				return nil, err
			}
			if tools.Images, err = graft.Dep[ports.ImageOptimizer](ctx); err != nil {
				return nil, err
			}
			if tools.Assembler, err = graft.Dep[ports.Assembler](ctx); err != nil {
				return nil, err
			}
			if tools.Files, err = graft.Dep[ports.FileCopier](ctx); err != nil {
				return nil, err
			}
			return &tools, nil
		},
	})
}
