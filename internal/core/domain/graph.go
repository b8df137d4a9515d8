// Package domain contains the core domain models for dependency resolution and installation.
package domain

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// DependencyNode is one resolved package in a ResolutionGraph.
type DependencyNode struct {
	Name         string
	Version      Version
	Tarball      TarballRef
	Dependencies map[string]Constraint
}

// Requirement is one incoming constraint on a node.
type Requirement struct {
	// Parent is the requiring package, empty for the root manifest.
	Parent     string
	Constraint Constraint
}

// ResolutionGraph holds exactly one version per package name together with the
// root constraints that pulled the packages in. Declared cycles are allowed.
type ResolutionGraph struct {
	roots map[string]Constraint
	nodes map[string]*DependencyNode
}

// NewResolutionGraph creates an empty graph.
func NewResolutionGraph() *ResolutionGraph {
	return &ResolutionGraph{
		roots: make(map[string]Constraint),
		nodes: make(map[string]*DependencyNode),
	}
}

// AddRoot records a direct dependency of the root manifest.
func (g *ResolutionGraph) AddRoot(name string, c Constraint) {
	g.roots[name] = c
}

// AddNode adds a resolved package. It returns an error if the name is already present.
func (g *ResolutionGraph) AddNode(n *DependencyNode) error {
	if _, exists := g.nodes[n.Name]; exists {
		return zerr.With(zerr.Wrap(ErrDuplicatePackage, "package already in graph"), "package", n.Name)
	}
	if n.Dependencies == nil {
		n.Dependencies = make(map[string]Constraint)
	}
	g.nodes[n.Name] = n
	return nil
}

// Node returns the node for name.
func (g *ResolutionGraph) Node(name string) (*DependencyNode, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Len returns the number of resolved packages.
func (g *ResolutionGraph) Len() int {
	return len(g.nodes)
}

// Roots returns the root dependency names in lexicographic order.
func (g *ResolutionGraph) Roots() []string {
	return slices.Sorted(maps.Keys(g.roots))
}

// RootConstraint returns the root manifest's constraint on name.
func (g *ResolutionGraph) RootConstraint(name string) (Constraint, bool) {
	c, ok := g.roots[name]
	return c, ok
}

// Walk yields nodes in lexicographic name order.
func (g *ResolutionGraph) Walk() iter.Seq[*DependencyNode] {
	return func(yield func(*DependencyNode) bool) {
		for _, name := range slices.Sorted(maps.Keys(g.nodes)) {
			if !yield(g.nodes[name]) {
				return
			}
		}
	}
}

// Requirements returns every constraint placed on name: the root's first,
// then each parent's in name order.
func (g *ResolutionGraph) Requirements(name string) []Requirement {
	var reqs []Requirement
	if c, ok := g.roots[name]; ok {
		reqs = append(reqs, Requirement{Constraint: c})
	}
	for n := range g.Walk() {
		if c, ok := n.Dependencies[name]; ok {
			reqs = append(reqs, Requirement{Parent: n.Name, Constraint: c})
		}
	}
	return reqs
}

// Validate checks that every edge endpoint exists and that every node's
// version satisfies all of its incoming constraints.
func (g *ResolutionGraph) Validate() error {
	for _, name := range g.Roots() {
		if _, ok := g.nodes[name]; !ok {
			return zerr.With(zerr.Wrap(ErrMissingDependency, "root dependency not resolved"), "dependency", name)
		}
	}
	for n := range g.Walk() {
		for _, dep := range slices.Sorted(maps.Keys(n.Dependencies)) {
			if _, ok := g.nodes[dep]; !ok {
				err := zerr.With(zerr.Wrap(ErrMissingDependency, "dependency not resolved"), "dependency", dep)
				return zerr.With(err, "parent", n.Name)
			}
		}
	}
	for n := range g.Walk() {
		for _, req := range g.Requirements(n.Name) {
			if !req.Constraint.Satisfies(n.Version) {
				parent := req.Parent
				if parent == "" {
					parent = RootName
				}
				err := zerr.With(zerr.Wrap(ErrUnsatisfiableConstraint, "version violates requirement"), "package", n.Name)
				err = zerr.With(err, "version", n.Version.String())
				err = zerr.With(err, "parent", parent)
				return zerr.With(err, "constraint", req.Constraint.String())
			}
		}
	}
	return nil
}

// Equal reports whether both graphs have the same roots and the same nodes.
func (g *ResolutionGraph) Equal(o *ResolutionGraph) bool {
	if g == nil || o == nil {
		return g == o
	}
	if !maps.EqualFunc(g.roots, o.roots, Constraint.Equal) {
		return false
	}
	return maps.EqualFunc(g.nodes, o.nodes, func(a, b *DependencyNode) bool {
		return a.Name == b.Name &&
			a.Version.Equal(b.Version) &&
			a.Version.Build == b.Version.Build &&
			a.Tarball.URL == b.Tarball.URL &&
			a.Tarball.Integrity.Equal(b.Tarball.Integrity) &&
			maps.EqualFunc(a.Dependencies, b.Dependencies, Constraint.Equal)
	})
}

// Cycles returns each dependency cycle found by a depth-first walk, as the
// chain of names starting and ending at the same package.
func (g *ResolutionGraph) Cycles() [][]string {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(g.nodes))
	var path []string
	var cycles [][]string

	var visit func(name string)
	visit = func(name string) {
		state[name] = visiting
		path = append(path, name)

		n := g.nodes[name]
		for _, dep := range slices.Sorted(maps.Keys(n.Dependencies)) {
			if _, ok := g.nodes[dep]; !ok {
				continue
			}
			switch state[dep] {
			case visiting:
				cycles = append(cycles, cycleFrom(path, dep))
			case unvisited:
				visit(dep)
			}
		}

		state[name] = visited
		path = path[:len(path)-1]
	}

	for n := range g.Walk() {
		if state[n.Name] == unvisited {
			visit(n.Name)
		}
	}
	return cycles
}

func cycleFrom(path []string, dep string) []string {
	start := slices.Index(path, dep)
	cycle := slices.Clone(path[start:])
	return append(cycle, dep)
}

// FormatCycle renders a cycle as "a -> b -> a".
func FormatCycle(cycle []string) string {
	return strings.Join(cycle, " -> ")
}
