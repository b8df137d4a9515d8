package installer

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/zerr"
)

// stamp records what was materialized into a destination directory.
type stamp struct {
	Integrity   string            `json:"integrity"`
	Links       map[string]string `json:"links,omitempty"`
	Fingerprint string            `json:"fingerprint"`
}

// materialize places entry at its destination under root, unless a
// destination with a matching stamp is already there.
func (i *Installer) materialize(ctx context.Context, root string, entry domain.PlanEntry) (domain.EntryStatus, error) {
	dest := filepath.Join(root, entry.Destination)
	links, err := relativeLinks(root, dest, entry.Links)
	if err != nil {
		return domain.EntryStatusFailed, err
	}

	if i.isCurrent(dest, entry.Tarball.Integrity, links) {
		return domain.EntryStatusCached, nil
	}

	archivePath, err := i.store.EnsureFetched(ctx, entry.Tarball)
	if err != nil {
		return domain.EntryStatusFailed, err
	}

	parent := filepath.Dir(dest)
	tmp, err := os.MkdirTemp(parent, ".tmp-"+filepath.Base(dest)+"-")
	if err != nil {
		return domain.EntryStatusFailed, zerr.With(zerr.Wrap(domain.ErrMaterializeFailed, err.Error()), "path", parent)
	}
	defer os.RemoveAll(tmp) //nolint:errcheck // Best effort cleanup; empty after a successful swap

	staging := filepath.Join(tmp, "package")
	if err := i.extractor.Extract(archivePath, staging); err != nil {
		return domain.EntryStatusFailed, err
	}

	fingerprint, err := i.hasher.HashTree(staging, domain.StampFileName, domain.DependencyDirName)
	if err != nil {
		return domain.EntryStatusFailed, zerr.Wrap(err, domain.ErrMaterializeFailed.Error())
	}

	for _, name := range slices.Sorted(maps.Keys(links)) {
		if err := symlink(links[name], domain.LinkPath(filepath.Join(staging, domain.DependencyDirName), name)); err != nil {
			return domain.EntryStatusFailed, err
		}
	}

	if err := writeStamp(staging, stamp{
		Integrity:   entry.Tarball.Integrity.String(),
		Links:       links,
		Fingerprint: fingerprint,
	}); err != nil {
		return domain.EntryStatusFailed, err
	}

	if err := swap(staging, dest, tmp); err != nil {
		return domain.EntryStatusFailed, err
	}
	return domain.EntryStatusInstalled, nil
}

// isCurrent reports whether dest already holds the tree described by its stamp
// and that stamp matches integrity and links.
func (i *Installer) isCurrent(dest string, integrity domain.Integrity, links map[string]string) bool {
	data, err := os.ReadFile(filepath.Join(dest, domain.StampFileName)) //nolint:gosec // Path is under the install root
	if err != nil {
		return false
	}
	var st stamp
	if err := json.Unmarshal(data, &st); err != nil {
		return false
	}
	if st.Integrity != integrity.String() || !maps.Equal(st.Links, links) {
		return false
	}

	for name, target := range links {
		got, err := os.Readlink(domain.LinkPath(filepath.Join(dest, domain.DependencyDirName), name))
		if err != nil || got != target {
			return false
		}
	}

	fingerprint, err := i.hasher.HashTree(dest, domain.StampFileName, domain.DependencyDirName)
	return err == nil && fingerprint == st.Fingerprint
}

// relativeLinks converts root-relative link targets into targets relative to
// the directory each link will live in under dest.
func relativeLinks(root, dest string, links map[string]string) (map[string]string, error) {
	if len(links) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(links))
	for name, target := range links {
		linkDir := filepath.Dir(domain.LinkPath(filepath.Join(dest, domain.DependencyDirName), name))
		rel, err := filepath.Rel(linkDir, filepath.Join(root, target))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrLinkFailed, err.Error()), "dependency", name)
		}
		out[name] = rel
	}
	return out, nil
}

func writeStamp(dir string, st stamp) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return zerr.Wrap(domain.ErrMaterializeFailed, err.Error())
	}
	path := filepath.Join(dir, domain.StampFileName)
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil { //nolint:gosec // Stamp is not secret
		return zerr.With(zerr.Wrap(domain.ErrMaterializeFailed, err.Error()), "path", path)
	}
	return nil
}

// swap moves staging to dest. A previous dest is moved into trash first so
// that dest never holds a half-written tree.
func swap(staging, dest, trash string) error {
	if _, err := os.Lstat(dest); err == nil {
		if err := os.Rename(dest, filepath.Join(trash, "previous")); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrMaterializeFailed, err.Error()), "path", dest)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(domain.ErrMaterializeFailed, err.Error()), "path", dest)
	}

	if err := os.Rename(staging, dest); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrMaterializeFailed, err.Error()), "path", dest)
	}
	return nil
}

// link creates or replaces a symlink at path pointing to target, which is
// given as an absolute or cwd-relative path.
func link(path, target string) error {
	rel, err := filepath.Rel(filepath.Dir(path), target)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLinkFailed, err.Error()), "path", path)
	}
	return symlink(rel, path)
}

func symlink(target, path string) error {
	if current, err := os.Readlink(path); err == nil && current == target {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLinkFailed, err.Error()), "path", path)
	}
	if err := os.RemoveAll(path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLinkFailed, err.Error()), "path", path)
	}
	if err := os.Symlink(target, path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLinkFailed, err.Error()), "path", path)
	}
	return nil
}
