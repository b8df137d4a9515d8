package config

import "time"

// Lpmrc represents the structure of the .lpmrc.yaml configuration file.
// Zero values leave the corresponding default in place.
type Lpmrc struct {
	Registry       string        `yaml:"registry"`
	Concurrency    int           `yaml:"concurrency"`
	MaxPasses      int           `yaml:"maxPasses"`
	StoreDir       string        `yaml:"storeDir"`
	CacheDir       string        `yaml:"cacheDir"`
	InstallDir     string        `yaml:"installDir"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	Retries        *int          `yaml:"retries"`
}

// PackageJSON is the subset of package.json lpm reads.
type PackageJSON struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}
