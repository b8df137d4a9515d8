package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lpm/internal/adapters/logger"
	"go.trai.ch/lpm/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the config loader Graft node.
	NodeID graft.ID = "adapter.config_loader"
	// RootNodeID is the unique identifier for the project root Graft node.
	RootNodeID graft.ID = "adapter.project_root"
)

// Root is the project directory holding package.json, lpm.lock and .lpmrc.yaml.
// Every node that reads settings loads them from this directory.
type Root string

func init() {
	graft.Register(graft.Node[Root]{
		ID:        RootNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (Root, error) {
			return Root("."), nil
		},
	})

	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})
}
