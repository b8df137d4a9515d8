// Package config loads the project manifest and lpm settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// RegistryEnvVar overrides the registry configured in .lpmrc.yaml.
const RegistryEnvVar = "LPM_REGISTRY"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader on the local filesystem.
type Loader struct {
	Logger ports.Logger
	// Getenv looks up environment overrides. Defaults to os.Getenv.
	Getenv func(string) string
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, Getenv: os.Getenv}
}

// LoadSettings reads .lpmrc.yaml from root and applies environment overrides.
// Relative paths in the file are resolved against root.
func (l *Loader) LoadSettings(root string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	var rc Lpmrc
	configPath := filepath.Join(root, domain.ConfigFileName)
	found, err := readAndUnmarshalYAML(configPath, &rc)
	if err != nil {
		return domain.Settings{}, err
	}
	if found {
		if err := validate(&rc); err != nil {
			return domain.Settings{}, zerr.With(err, "path", configPath)
		}
		apply(&settings, &rc)
	}

	if registry := l.Getenv(RegistryEnvVar); registry != "" {
		settings.Registry = registry
	}
	if u, err := url.Parse(settings.Registry); err != nil || u.Host == "" {
		return domain.Settings{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "invalid registry url"), "registry", settings.Registry)
	} else if u.Scheme != "https" {
		l.Logger.Warn(fmt.Sprintf("registry %s is not using https", settings.Registry))
	}

	settings.StoreDir = resolvePath(root, settings.StoreDir)
	settings.CacheDir = resolvePath(root, settings.CacheDir)
	settings.InstallDir = resolvePath(root, settings.InstallDir)
	return settings, nil
}

func validate(rc *Lpmrc) error {
	switch {
	case rc.Concurrency < 0:
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "concurrency must not be negative"), "concurrency", rc.Concurrency)
	case rc.MaxPasses < 0:
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "maxPasses must not be negative"), "maxPasses", rc.MaxPasses)
	case rc.RequestTimeout < 0:
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "requestTimeout must not be negative"), "requestTimeout", rc.RequestTimeout)
	case rc.Retries != nil && *rc.Retries < 0:
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "retries must not be negative"), "retries", *rc.Retries)
	}
	return nil
}

func apply(settings *domain.Settings, rc *Lpmrc) {
	if rc.Registry != "" {
		settings.Registry = rc.Registry
	}
	if rc.Concurrency > 0 {
		settings.Concurrency = rc.Concurrency
	}
	if rc.MaxPasses > 0 {
		settings.MaxPasses = rc.MaxPasses
	}
	if rc.StoreDir != "" {
		settings.StoreDir = rc.StoreDir
	}
	if rc.CacheDir != "" {
		settings.CacheDir = rc.CacheDir
	}
	if rc.InstallDir != "" {
		settings.InstallDir = rc.InstallDir
	}
	if rc.RequestTimeout > 0 {
		settings.RequestTimeout = rc.RequestTimeout
	}
	if rc.Retries != nil {
		settings.Retries = *rc.Retries
	}
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
// A missing file reports found == false.
func readAndUnmarshalYAML[T any](configPath string, target *T) (bool, error) {
	// #nosec G304 -- configPath is built from the project root
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", configPath)
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return false, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, parseErr.Error()), "path", configPath)
	}
	return true, nil
}
