package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lpm/internal/core/ports"
)

const (
	WalkerNodeID graft.ID = "adapter.fs.walker"
	HasherNodeID graft.ID = "adapter.fs.hasher"
)

func init() {
	// Walker Node (Concrete implementation needed by Hasher)
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	// Hasher Node
	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.Hasher, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewHasher(walker), nil
		},
	})
}
