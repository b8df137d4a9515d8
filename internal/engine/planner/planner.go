// Package planner turns a resolution graph into an ordered install plan.
package planner

import (
	"go.trai.ch/lpm/internal/core/domain"
)

// Planner builds install plans. It holds no state and is safe for concurrent use.
type Planner struct{}

// New creates a Planner.
func New() *Planner {
	return &Planner{}
}

// Plan returns one entry per package in g, ordered by name then version.
// Destinations and links are relative to the install root.
func (p *Planner) Plan(g *domain.ResolutionGraph) *domain.InstallPlan {
	plan := &domain.InstallPlan{
		Entries:   make([]domain.PlanEntry, 0, g.Len()),
		RootLinks: make(map[string]string),
	}

	for node := range g.Walk() {
		entry := domain.PlanEntry{
			Name:        node.Name,
			Version:     node.Version,
			Tarball:     node.Tarball,
			Destination: domain.PackageDir(node.Name, node.Version),
			Links:       make(map[string]string, len(node.Dependencies)),
		}
		for dep := range node.Dependencies {
			if target, ok := g.Node(dep); ok {
				entry.Links[dep] = domain.PackageDir(target.Name, target.Version)
			}
		}
		plan.Entries = append(plan.Entries, entry)
	}

	for _, name := range g.Roots() {
		if node, ok := g.Node(name); ok {
			plan.RootLinks[name] = domain.PackageDir(node.Name, node.Version)
		}
	}
	return plan
}
