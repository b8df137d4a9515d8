// Package lockfile reads and writes lpm.lock.
package lockfile

import (
	"bytes"
	"maps"
	"slices"

	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Encode renders g in canonical form: packages sorted by name, map keys
// sorted, two-space indentation. Encoding the same graph twice yields
// identical bytes.
func Encode(g *domain.ResolutionGraph) ([]byte, error) {
	doc := domain.Lockfile{
		Version:  domain.LockfileVersion,
		Roots:    make(map[string]string),
		Packages: make([]domain.LockedPackage, 0, g.Len()),
	}

	for _, name := range g.Roots() {
		c, _ := g.RootConstraint(name)
		doc.Roots[name] = c.String()
	}

	for node := range g.Walk() {
		pkg := domain.LockedPackage{
			Name:      node.Name,
			Version:   node.Version.String(),
			Resolved:  node.Tarball.URL,
			Integrity: node.Tarball.Integrity.String(),
		}
		if len(node.Dependencies) > 0 {
			pkg.Dependencies = make(map[string]string, len(node.Dependencies))
			for dep, c := range node.Dependencies {
				pkg.Dependencies[dep] = c.String()
			}
		}
		doc.Packages = append(doc.Packages, pkg)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, zerr.Wrap(err, "failed to encode lockfile")
	}
	if err := enc.Close(); err != nil {
		return nil, zerr.Wrap(err, "failed to encode lockfile")
	}
	return buf.Bytes(), nil
}

// Decode parses data into a graph and validates it. Any defect, from a YAML
// syntax error to a version that violates its requirements, fails with
// domain.ErrCorruptLockfile.
func Decode(data []byte) (*domain.ResolutionGraph, error) {
	var doc domain.Lockfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, corrupt(err.Error())
	}

	if doc.Version != domain.LockfileVersion {
		return nil, zerr.With(corrupt("unsupported lockfile version"), "lockfileVersion", doc.Version)
	}

	g := domain.NewResolutionGraph()
	for _, name := range slices.Sorted(maps.Keys(doc.Roots)) {
		c, err := domain.ParseConstraint(doc.Roots[name])
		if err != nil {
			return nil, zerr.With(corrupt("invalid root constraint"), "dependency", name)
		}
		g.AddRoot(name, c)
	}

	for i, pkg := range doc.Packages {
		node, err := decodePackage(pkg)
		if err != nil {
			return nil, zerr.With(err, "index", i)
		}
		if err := g.AddNode(node); err != nil {
			return nil, zerr.With(corrupt(err.Error()), "package", pkg.Name)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, corrupt(err.Error())
	}
	return g, nil
}

func decodePackage(pkg domain.LockedPackage) (*domain.DependencyNode, error) {
	if err := domain.ValidatePackageName(pkg.Name); err != nil {
		return nil, zerr.With(corrupt("invalid package name"), "package", pkg.Name)
	}

	version, err := domain.ParseVersion(pkg.Version)
	if err != nil {
		return nil, zerr.With(corrupt("invalid version"), "package", pkg.Name)
	}

	integrity, err := domain.ParseIntegrity(pkg.Integrity)
	if err != nil {
		return nil, zerr.With(corrupt("invalid integrity"), "package", pkg.Name)
	}

	if pkg.Resolved == "" {
		return nil, zerr.With(corrupt("missing resolved url"), "package", pkg.Name)
	}

	deps := make(map[string]domain.Constraint, len(pkg.Dependencies))
	for dep, raw := range pkg.Dependencies {
		c, err := domain.ParseConstraint(raw)
		if err != nil {
			wrapped := zerr.With(corrupt("invalid dependency constraint"), "package", pkg.Name)
			return nil, zerr.With(wrapped, "dependency", dep)
		}
		deps[dep] = c
	}

	return &domain.DependencyNode{
		Name:         pkg.Name,
		Version:      version,
		Tarball:      domain.TarballRef{URL: pkg.Resolved, Integrity: integrity},
		Dependencies: deps,
	}, nil
}

func corrupt(msg string) error {
	return zerr.Wrap(domain.ErrCorruptLockfile, msg)
}
