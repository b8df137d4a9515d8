package registry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/zerr"
)

// maxPackumentSize caps a single metadata document.
const maxPackumentSize = 64 << 20

// packument is the subset of a registry package document lpm reads.
type packument struct {
	Name     string                `json:"name"`
	DistTags map[string]string     `json:"dist-tags"`
	Versions map[string]versionDoc `json:"versions"`
}

type versionDoc struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Dist         distDoc           `json:"dist"`
}

type distDoc struct {
	Shasum    string `json:"shasum,omitempty"`
	Tarball   string `json:"tarball"`
	Integrity string `json:"integrity,omitempty"`
}

// cacheEntry is the on-disk form of a cached packument.
type cacheEntry struct {
	ETag      string     `json:"etag,omitempty"`
	Packument *packument `json:"packument"`
}

// packument returns the document for name, fetching it at most once per client.
func (c *Client) packument(ctx context.Context, name string) (*packument, error) {
	c.mu.RLock()
	doc, ok := c.packuments[name]
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		c.mu.RLock()
		doc, ok := c.packuments[name]
		c.mu.RUnlock()
		if ok {
			return doc, nil
		}

		doc, err := c.fetchPackument(ctx, name)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.packuments[name] = doc
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*packument), nil //nolint:forcetypeassert // group only stores *packument
}

func (c *Client) fetchPackument(ctx context.Context, name string) (*packument, error) {
	if err := domain.ValidatePackageName(name); err != nil {
		return nil, err
	}

	cached := c.readCache(name)

	header := http.Header{}
	header.Set("Accept", acceptPackument)
	if cached != nil && cached.ETag != "" {
		header.Set("If-None-Match", cached.ETag)
	}

	resp, err := c.get(ctx, c.packumentURL(name), header)
	if err != nil {
		if cached != nil && errors.Is(err, domain.ErrNetwork) {
			return cached.Packument, nil
		}
		return nil, zerr.With(err, "package", name)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		if cached != nil {
			return cached.Packument, nil
		}
		return nil, domain.Annotate(domain.ErrRegistryResponseInvalid, "package", name, "status", resp.StatusCode)
	case http.StatusNotFound:
		return nil, domain.Annotate(domain.ErrNotFound, "package", name)
	default:
		return nil, domain.Annotate(domain.ErrNetwork, "package", name, "status", resp.StatusCode)
	}

	var doc packument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPackumentSize)).Decode(&doc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrRegistryResponseInvalid, err.Error()), "package", name)
	}
	if doc.Versions == nil {
		doc.Versions = map[string]versionDoc{}
	}

	// A failed cache write only costs a refetch next time.
	_ = c.writeCache(name, &cacheEntry{ETag: resp.Header.Get("ETag"), Packument: &doc})
	return &doc, nil
}

func (c *Client) cachePath(name string) string {
	return filepath.Join(c.cacheDir, domain.EscapeName(name)+".json")
}

// readCache returns the cached document for name, or nil when absent or unreadable.
func (c *Client) readCache(name string) *cacheEntry {
	if c.cacheDir == "" {
		return nil
	}
	data, err := os.ReadFile(c.cachePath(name))
	if err != nil {
		return nil
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Packument == nil {
		return nil
	}
	return &entry
}

func (c *Client) writeCache(name string, entry *cacheEntry) error {
	if c.cacheDir == "" {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRegistryCacheWriteFailed, err.Error()), "package", name)
	}
	return atomicWriteFile(c.cachePath(name), data)
}

// atomicWriteFile writes data to a temporary file and renames it into place.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRegistryCacheWriteFailed, err.Error()), "path", dir)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRegistryCacheWriteFailed, err.Error()), "path", dir)
	}
	tmpName := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.With(zerr.Wrap(domain.ErrRegistryCacheWriteFailed, err.Error()), "path", path)
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRegistryCacheWriteFailed, err.Error()), "path", path)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRegistryCacheWriteFailed, err.Error()), "path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRegistryCacheWriteFailed, err.Error()), "path", path)
	}
	return nil
}

// versionList returns the valid SemVer keys of the document in ascending order.
func (p *packument) versionList() []domain.Version {
	versions := make([]domain.Version, 0, len(p.Versions))
	for raw := range p.Versions {
		v, err := domain.ParseVersion(raw)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	domain.SortVersions(versions)
	return versions
}

func (p *packument) distTags() map[string]domain.Version {
	tags := make(map[string]domain.Version, len(p.DistTags))
	for tag, raw := range p.DistTags {
		v, err := domain.ParseVersion(raw)
		if err != nil {
			continue
		}
		tags[tag] = v
	}
	return tags
}

// metadata converts one version entry. A dependency specifier that is not
// a SemVer range fails the lookup.
func (p *packument) metadata(name string, version domain.Version) (*domain.PackageMetadata, error) {
	doc, ok := p.lookup(version)
	if !ok {
		return nil, domain.Annotate(domain.ErrNotFound, "package", name, "version", version.String())
	}

	names := make([]string, 0, len(doc.Dependencies))
	for dep := range doc.Dependencies {
		names = append(names, dep)
	}
	sort.Strings(names)

	deps := make(map[string]domain.Constraint, len(names))
	for _, dep := range names {
		c, err := domain.ParseConstraint(doc.Dependencies[dep])
		if err != nil {
			return nil, zerr.With(zerr.With(err, "package", name+"@"+version.String()), "dependency", dep)
		}
		deps[dep] = c
	}

	integrity, err := doc.Dist.integrity()
	if err != nil {
		return nil, zerr.With(err, "package", name+"@"+version.String())
	}
	if doc.Dist.Tarball == "" {
		return nil, domain.Annotate(domain.ErrRegistryResponseInvalid,
			"package", name+"@"+version.String(), "reason", "missing dist.tarball")
	}

	return &domain.PackageMetadata{
		Name:         name,
		Version:      version,
		Dependencies: deps,
		Tarball:      domain.TarballRef{URL: doc.Dist.Tarball, Integrity: integrity},
	}, nil
}

// lookup finds the entry for version. Keys are matched exactly first and
// then by parsed equality, so "1.0.0+build" still finds "1.0.0".
func (p *packument) lookup(version domain.Version) (versionDoc, bool) {
	if doc, ok := p.Versions[version.String()]; ok {
		return doc, true
	}
	for raw, doc := range p.Versions {
		v, err := domain.ParseVersion(raw)
		if err == nil && v.Equal(version) {
			return doc, true
		}
	}
	return versionDoc{}, false
}

// integrity prefers the SRI string and falls back to the legacy hex shasum.
func (d distDoc) integrity() (domain.Integrity, error) {
	if d.Integrity != "" {
		return domain.ParseIntegrity(d.Integrity)
	}
	if d.Shasum != "" {
		return domain.IntegrityFromHex(domain.AlgoSHA1, d.Shasum)
	}
	return domain.Integrity{}, domain.Annotate(domain.ErrInvalidIntegrity, "reason", "missing dist.integrity and dist.shasum")
}
