// Package cas implements the content-addressed tarball store.
package cas

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.TarballStore = (*Store)(nil)

// Store keeps package archives on disk keyed by their integrity digest.
// Archives are immutable once written; a stored file that no longer matches
// its digest is reported, never replaced.
type Store struct {
	root     string
	registry ports.RegistryClient
	group    singleflight.Group
}

// NewStore creates a Store rooted at root, downloading through registry.
// Directories are created on first download.
func NewStore(root string, registry ports.RegistryClient) *Store {
	return &Store{root: filepath.Clean(root), registry: registry}
}

// Path returns where the archive with the given integrity lives.
func (s *Store) Path(integrity domain.Integrity) string {
	hex := integrity.Hex()
	return filepath.Join(s.root, integrity.Algorithm, hex[:2], hex+".tgz")
}

// EnsureFetched returns the path of the verified archive for ref.
func (s *Store) EnsureFetched(ctx context.Context, ref domain.TarballRef) (string, error) {
	if ref.Integrity.IsZero() {
		return "", domain.Annotate(domain.ErrInvalidIntegrity, "url", ref.URL)
	}

	path := s.Path(ref.Integrity)
	present, err := s.verify(path, ref.Integrity)
	if err != nil {
		return "", err
	}
	if present {
		return path, nil
	}

	_, err, _ = s.group.Do(ref.Integrity.String(), func() (any, error) {
		// Another caller may have finished the download while we waited.
		present, err := s.verify(path, ref.Integrity)
		if err != nil || present {
			return nil, err
		}
		return nil, s.download(ctx, ref, path)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// verify reports whether path holds an archive matching want.
func (s *Store) verify(path string, want domain.Integrity) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // Path is derived from a digest
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(domain.ErrStoreReadFailed, err.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	got, err := domain.ComputeIntegrity(want.Algorithm, f)
	if err != nil {
		return false, zerr.With(zerr.Wrap(domain.ErrStoreReadFailed, err.Error()), "path", path)
	}
	if !got.Equal(want) {
		return false, mismatch(want, got, "path", path)
	}
	return true, nil
}

func (s *Store) download(ctx context.Context, ref domain.TarballRef, path string) error {
	tarball, err := s.registry.FetchTarball(ctx, ref)
	if err != nil {
		return err
	}
	defer tarball.Body.Close() //nolint:errcheck // Body is fully consumed or abandoned

	if !tarball.Digest.IsZero() && tarball.Digest.Algorithm == ref.Integrity.Algorithm &&
		!tarball.Digest.Equal(ref.Integrity) {
		return mismatch(ref.Integrity, tarball.Digest, "url", ref.URL, "source", "server digest")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreCreateFailed, err.Error()), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", dir)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	h, err := domain.NewHash(ref.Integrity.Algorithm)
	if err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := io.Copy(io.MultiWriter(tmp, h), tarball.Body); err != nil {
		_ = tmp.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zerr.Wrap(ctxErr, "download canceled")
		}
		return zerr.With(zerr.Wrap(domain.ErrNetwork, err.Error()), "url", ref.URL)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", tmpName)
	}

	got := domain.Integrity{Algorithm: ref.Integrity.Algorithm, Digest: h.Sum(nil)}
	if !got.Equal(ref.Integrity) {
		return mismatch(ref.Integrity, got, "url", ref.URL)
	}

	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWriteFailed, err.Error()), "path", path)
	}
	committed = true
	return nil
}

func mismatch(want, got domain.Integrity, kv ...any) error {
	return domain.Annotate(domain.ErrIntegrityMismatch,
		append([]any{"expected", want.String(), "actual", got.String()}, kv...)...)
}
