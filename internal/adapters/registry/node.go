package registry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lpm/internal/adapters/config"
	"go.trai.ch/lpm/internal/core/ports"
)

// NodeID is the unique identifier for the registry client Graft node.
const NodeID graft.ID = "adapter.registry"

func init() {
	graft.Register(graft.Node[ports.RegistryClient]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, config.RootNodeID},
		Run: func(ctx context.Context) (ports.RegistryClient, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			root, err := graft.Dep[config.Root](ctx)
			if err != nil {
				return nil, err
			}

			settings, err := loader.LoadSettings(string(root))
			if err != nil {
				return nil, err
			}

			return New(settings), nil
		},
	})
}
