package ports

import (
	"context"

	"go.trai.ch/lpm/internal/core/domain"
)

// TarballStore is the content-addressed store of package archives.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type TarballStore interface {
	// EnsureFetched returns the local path of the archive for ref, downloading
	// it first when absent. Concurrent calls for one digest share a single download.
	// A stored or downloaded archive whose digest differs fails with domain.ErrIntegrityMismatch.
	EnsureFetched(ctx context.Context, ref domain.TarballRef) (string, error)
}
