package ports

import "go.trai.ch/lpm/internal/core/domain"

// ConfigLoader reads the project manifest and user settings.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// LoadManifest reads package.json from the project root.
	LoadManifest(root string) (*domain.Manifest, error)

	// AddDependencies merges deps into package.json's dependencies, preserving other fields.
	AddDependencies(root string, deps map[string]string) error

	// LoadSettings reads .lpmrc.yaml and environment overrides. A missing file yields defaults.
	LoadSettings(root string) (domain.Settings, error)
}
