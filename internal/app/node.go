package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/swatch/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/swatch/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/swatch/internal/adapters/devserver" //nolint:depguard // Wired in app layer
	"go.trai.ch/swatch/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/swatch/internal/adapters/linear"    //nolint:depguard // Wired in app layer
	"go.trai.ch/swatch/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/swatch/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/swatch/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/swatch/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/swatch/internal/core/ports"
	"go.trai.ch/swatch/internal/engine/actions"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			actions.NodeID,
			cas.NodeID,
			fs.HasherNodeID,
			fs.ResolverNodeID,
			telemetry.TracerNodeID,
			linear.NodeID,
			logger.NodeID,
			watcher.NodeID,
			devserver.NodeID,
			metrics.PortNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	tools, err := graft.Dep[*actions.Tools](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.BuildInfoStore](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	renderer, err := graft.Dep[ports.Renderer](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	server, err := graft.Dep[ports.DevServer](ctx)
	if err != nil {
		return nil, err
	}
	m, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, tools, store, hasher, resolver, tracer, renderer, log).
		WithDevServer(w, server, m), nil
}
