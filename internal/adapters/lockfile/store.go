package lockfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.LockfileStore = (*Store)(nil)

// Store implements ports.LockfileStore on the local filesystem.
type Store struct{}

// NewStore creates a new lockfile store.
func NewStore() *Store {
	return &Store{}
}

// Load reads and decodes the lockfile at path. A missing file yields nil, nil.
func (s *Store) Load(path string) (*domain.ResolutionGraph, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the project root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil //nolint:nilnil // a missing lockfile is not an error
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrLockfileReadFailed, err.Error()), "path", path)
	}

	g, err := Decode(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return g, nil
}

// Save encodes g and replaces the file at path atomically.
func (s *Store) Save(path string, g *domain.ResolutionGraph) error {
	data, err := Encode(g)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error()), "path", path)
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error()), "path", path)
	}
	tmpName := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.With(zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error()), "path", path)
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error()), "path", path)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error()), "path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error()), "path", path)
	}
	return nil
}
