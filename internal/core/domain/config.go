package domain

import (
	"runtime"
	"time"
)

const (
	// DefaultRegistry is the public npm registry.
	DefaultRegistry = "https://registry.npmjs.org"

	// DefaultMaxPasses bounds the resolver's fixed-point iteration.
	DefaultMaxPasses = 1000

	// DefaultRequestTimeout bounds a single registry request.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultRetries is the number of retries for a failed registry request.
	DefaultRetries = 3
)

// Settings holds user configuration loaded from .lpmrc.yaml and the environment.
type Settings struct {
	Registry       string
	Concurrency    int
	MaxPasses      int
	StoreDir       string
	CacheDir       string
	InstallDir     string
	RequestTimeout time.Duration
	Retries        int
}

// DefaultSettings returns the settings used when no config file is present.
func DefaultSettings() Settings {
	return Settings{
		Registry:       DefaultRegistry,
		Concurrency:    runtime.NumCPU(),
		MaxPasses:      DefaultMaxPasses,
		StoreDir:       DefaultStorePath(),
		CacheDir:       DefaultMetadataCachePath(),
		InstallDir:     InstallDirName,
		RequestTimeout: DefaultRequestTimeout,
		Retries:        DefaultRetries,
	}
}
