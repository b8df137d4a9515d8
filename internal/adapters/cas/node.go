package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lpm/internal/adapters/config"   //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/lpm/internal/adapters/registry" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/lpm/internal/core/ports"
)

const NodeID graft.ID = "adapter.tarball_store"

func init() {
	graft.Register(graft.Node[ports.TarballStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			config.RootNodeID,
			registry.NodeID,
		},
		Run: func(ctx context.Context) (ports.TarballStore, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			client, err := graft.Dep[ports.RegistryClient](ctx)
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

			return NewStore(settings.StoreDir, client), nil
		},
	})
}
