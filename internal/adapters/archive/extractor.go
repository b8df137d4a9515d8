// Package archive unpacks gzipped package tarballs.
package archive

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Extractor = (*Extractor)(nil)

// Extractor unpacks .tgz archives laid out the way registries publish them:
// every entry sits under a single top-level directory, usually "package/".
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks archivePath into dest, stripping the top-level directory.
// Regular files and directories are written; links and device entries are
// ignored. An entry resolving outside dest fails with domain.ErrUnsafeArchivePath.
func (e *Extractor) Extract(archivePath, dest string) error {
	f, err := os.Open(archivePath) //nolint:gosec // Path comes from the content-addressed store
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrExtractFailed, err.Error()), "archive", archivePath)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	gz, err := gzip.NewReader(f)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrExtractFailed, "not a gzip stream"), "archive", archivePath)
	}
	defer gz.Close() //nolint:errcheck // Nothing to flush on read

	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrExtractFailed, err.Error()), "dest", dest)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return zerr.With(zerr.Wrap(domain.ErrExtractFailed, err.Error()), "archive", archivePath)
		}

		rel, err := entryPath(hdr.Name)
		if err != nil {
			return zerr.With(err, "archive", archivePath)
		}
		if rel == "" {
			continue
		}
		target := filepath.Join(dest, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return zerr.With(zerr.Wrap(domain.ErrExtractFailed, err.Error()), "path", target)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		}
	}
}

// entryPath strips the first path component and rejects names that escape
// the destination. It returns "" for the top-level directory itself.
func entryPath(name string) (string, error) {
	name = strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "./")
	if path.IsAbs(name) {
		return "", domain.Annotate(domain.ErrUnsafeArchivePath, "entry", name)
	}

	_, rest, _ := strings.Cut(name, "/")
	if rest == "" {
		return "", nil
	}

	cleaned := path.Clean(rest)
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", domain.Annotate(domain.ErrUnsafeArchivePath, "entry", name)
	}
	return filepath.FromSlash(cleaned), nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrExtractFailed, err.Error()), "path", target)
	}

	perm := os.FileMode(domain.FilePerm)
	if mode&0o111 != 0 {
		perm = 0o755
	}

	//nolint:gosec // Target is confined to dest by entryPath
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrExtractFailed, err.Error()), "path", target)
	}
	if _, err := io.Copy(f, r); err != nil { //nolint:gosec // Registry tarballs are bounded by the store
		_ = f.Close()
		return zerr.With(zerr.Wrap(domain.ErrExtractFailed, err.Error()), "path", target)
	}
	if err := f.Close(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrExtractFailed, err.Error()), "path", target)
	}
	return nil
}
