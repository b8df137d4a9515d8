package domain

import (
	"path/filepath"
	"strings"
)

const (
	// LpmDirName is the name of the per-project metadata directory.
	LpmDirName = ".lpm"

	// StoreDirName is the name of the content addressable tarball store.
	StoreDirName = "store"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// MetadataDirName is the name of the registry metadata cache directory.
	MetadataDirName = "metadata"

	// ManifestFileName is the name of the project manifest.
	ManifestFileName = "package.json"

	// LockfileName is the name of the lockfile.
	LockfileName = "lpm.lock"

	// ConfigFileName is the name of the optional settings file.
	ConfigFileName = ".lpmrc.yaml"

	// InstallDirName is the directory packages are materialized under.
	InstallDirName = "node_modules"

	// VirtualStoreDirName holds one directory per installed name@version inside InstallDirName.
	VirtualStoreDirName = ".lpm"

	// StampFileName marks a fully materialized package directory.
	StampFileName = ".lpm-stamp.json"

	// DependencyDirName holds the dependency links inside a materialized package.
	DependencyDirName = "node_modules"

	// RootName labels the root manifest in requirement traces.
	RootName = "root"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultLpmPath returns the default root directory for lpm metadata.
func DefaultLpmPath() string {
	return LpmDirName
}

// DefaultStorePath returns the default path for the tarball store.
// It joins .lpm and store.
func DefaultStorePath() string {
	return filepath.Join(LpmDirName, StoreDirName)
}

// DefaultMetadataCachePath returns the default path for cached registry documents.
// It joins .lpm, cache, and metadata.
func DefaultMetadataCachePath() string {
	return filepath.Join(LpmDirName, CacheDirName, MetadataDirName)
}

// EscapeName turns a package name into a single path component.
// "@scope/pkg" becomes "@scope+pkg".
func EscapeName(name string) string {
	return strings.ReplaceAll(name, "/", "+")
}

// ValidatePackageName rejects names that cannot be laid out on disk safely.
func ValidatePackageName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.HasPrefix(name, ".") || strings.ContainsAny(name, "\\\x00") {
		return Annotate(ErrInvalidPackageName, "name", name)
	}
	scope, rest, scoped := strings.Cut(name, "/")
	if scoped {
		if !strings.HasPrefix(scope, "@") || len(scope) < 2 || rest == "" ||
			strings.Contains(rest, "/") || rest == "." || rest == ".." {
			return Annotate(ErrInvalidPackageName, "name", name)
		}
	} else if strings.HasPrefix(name, "@") {
		return Annotate(ErrInvalidPackageName, "name", name)
	}
	return nil
}

// PackageDir returns the install-root-relative directory of name@version.
func PackageDir(name string, version Version) string {
	return filepath.Join(VirtualStoreDirName, EscapeName(name)+"@"+version.String())
}

// LinkPath returns where a dependency named name is linked inside dir.
// Scoped names nest under their scope directory, as Node resolution expects.
func LinkPath(dir, name string) string {
	return filepath.Join(dir, filepath.FromSlash(name))
}
