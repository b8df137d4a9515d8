package installer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lpm/internal/adapters/archive" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lpm/internal/adapters/cas"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lpm/internal/adapters/fs"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lpm/internal/core/ports"
)

// NodeID is the unique identifier for the installer Graft node.
const NodeID graft.ID = "engine.installer"

func init() {
	graft.Register(graft.Node[*Installer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cas.NodeID,
			archive.NodeID,
			fs.HasherNodeID,
		},
		Run: func(ctx context.Context) (*Installer, error) {
			store, err := graft.Dep[ports.TarballStore](ctx)
			if err != nil {
				return nil, err
			}

			extractor, err := graft.Dep[ports.Extractor](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}

			return New(store, extractor, hasher), nil
		},
	})
}
