package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lpm/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/lpm/internal/adapters/lockfile" //nolint:depguard // Wired in app layer
	"go.trai.ch/lpm/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/lpm/internal/adapters/registry" //nolint:depguard // Wired in app layer
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/lpm/internal/engine/installer"
	"go.trai.ch/lpm/internal/engine/planner"
	"go.trai.ch/lpm/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			config.RootNodeID,
			registry.NodeID,
			resolver.NodeID,
			planner.NodeID,
			installer.NodeID,
			lockfile.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{
				App:    app,
				Logger: log,
			}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	client, err := graft.Dep[ports.RegistryClient](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	plan, err := graft.Dep[*planner.Planner](ctx)
	if err != nil {
		return nil, err
	}

	inst, err := graft.Dep[*installer.Installer](ctx)
	if err != nil {
		return nil, err
	}

	lockfiles, err := graft.Dep[ports.LockfileStore](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	root, err := graft.Dep[config.Root](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, client, res, plan, inst, lockfiles, log).WithRoot(string(root)), nil
}
