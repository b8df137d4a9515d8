package ports

import (
	"context"

	"go.trai.ch/lpm/internal/core/domain"
)

// RegistryClient answers package lookups against a registry.
// Implementations own retry, backoff and circuit breaking.
//
//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type RegistryClient interface {
	// ListVersions returns every published version of name.
	// It returns domain.ErrNotFound when the package does not exist.
	ListVersions(ctx context.Context, name string) ([]domain.Version, error)

	// GetMetadata returns the metadata of one published version.
	GetMetadata(ctx context.Context, name string, version domain.Version) (*domain.PackageMetadata, error)

	// DistTags returns the package's dist-tags, such as "latest".
	DistTags(ctx context.Context, name string) (map[string]domain.Version, error)

	// FetchTarball opens the archive stream. The caller must close the body.
	FetchTarball(ctx context.Context, ref domain.TarballRef) (*domain.Tarball, error)
}
