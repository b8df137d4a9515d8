package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lpm/internal/adapters/config"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lpm/internal/adapters/logger"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lpm/internal/adapters/registry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lpm/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			registry.NodeID,
			logger.NodeID,
			config.NodeID,
			config.RootNodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			client, err := graft.Dep[ports.RegistryClient](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

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

			return New(client, log,
				WithMaxPasses(settings.MaxPasses),
				WithCallTimeout(settings.RequestTimeout),
			), nil
		},
	})
}
