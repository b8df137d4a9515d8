package ports

import "go.trai.ch/lpm/internal/core/domain"

// LockfileStore reads and writes the lockfile.
//
//go:generate mockgen -source=lockfile.go -destination=mocks/mock_lockfile.go -package=mocks
type LockfileStore interface {
	// Load decodes the lockfile at path. A missing file yields nil, nil.
	// Malformed content fails with domain.ErrCorruptLockfile.
	Load(path string) (*domain.ResolutionGraph, error)

	// Save writes the canonical encoding of g to path atomically.
	Save(path string, g *domain.ResolutionGraph) error
}
