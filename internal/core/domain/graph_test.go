package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lpm/internal/core/domain"
)

func node(name, version string, deps map[string]string) *domain.DependencyNode {
	n := &domain.DependencyNode{
		Name:         name,
		Version:      domain.MustParseVersion(version),
		Dependencies: make(map[string]domain.Constraint, len(deps)),
	}
	for dep, c := range deps {
		n.Dependencies[dep] = domain.MustParseConstraint(c)
	}
	return n
}

func TestResolutionGraph_Validate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*domain.ResolutionGraph)
		wantErr error
	}{
		{
			name: "valid diamond",
			setup: func(g *domain.ResolutionGraph) {
				g.AddRoot("a", domain.MustParseConstraint("^1.0.0"))
				g.AddRoot("b", domain.MustParseConstraint("^1.0.0"))
				_ = g.AddNode(node("a", "1.0.0", map[string]string{"c": "^1.0.0"}))
				_ = g.AddNode(node("b", "1.1.0", map[string]string{"c": "^1.2.0"}))
				_ = g.AddNode(node("c", "1.3.0", nil))
			},
		},
		{
			name: "cycle is allowed",
			setup: func(g *domain.ResolutionGraph) {
				g.AddRoot("a", domain.AnyConstraint())
				_ = g.AddNode(node("a", "1.0.0", map[string]string{"b": "*"}))
				_ = g.AddNode(node("b", "1.0.0", map[string]string{"a": "*"}))
			},
		},
		{
			name: "missing root",
			setup: func(g *domain.ResolutionGraph) {
				g.AddRoot("a", domain.AnyConstraint())
			},
			wantErr: domain.ErrMissingDependency,
		},
		{
			name: "dangling edge",
			setup: func(g *domain.ResolutionGraph) {
				g.AddRoot("a", domain.AnyConstraint())
				_ = g.AddNode(node("a", "1.0.0", map[string]string{"ghost": "*"}))
			},
			wantErr: domain.ErrMissingDependency,
		},
		{
			name: "version violates parent constraint",
			setup: func(g *domain.ResolutionGraph) {
				g.AddRoot("a", domain.AnyConstraint())
				_ = g.AddNode(node("a", "1.0.0", map[string]string{"b": "^2.0.0"}))
				_ = g.AddNode(node("b", "1.0.0", nil))
			},
			wantErr: domain.ErrUnsatisfiableConstraint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewResolutionGraph()
			tt.setup(g)
			err := g.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestResolutionGraph_AddNodeDuplicate(t *testing.T) {
	g := domain.NewResolutionGraph()
	require.NoError(t, g.AddNode(node("a", "1.0.0", nil)))

	err := g.AddNode(node("a", "2.0.0", nil))
	require.ErrorIs(t, err, domain.ErrDuplicatePackage)
}

func TestResolutionGraph_WalkAndRequirements(t *testing.T) {
	g := domain.NewResolutionGraph()
	g.AddRoot("c", domain.MustParseConstraint("^1.0.0"))
	_ = g.AddNode(node("c", "1.3.0", nil))
	_ = g.AddNode(node("b", "1.0.0", map[string]string{"c": "^1.2.0"}))
	_ = g.AddNode(node("a", "1.0.0", map[string]string{"c": "~1.3.0"}))

	var names []string
	for n := range g.Walk() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)

	reqs := g.Requirements("c")
	require.Len(t, reqs, 3)
	assert.Empty(t, reqs[0].Parent)
	assert.Equal(t, "a", reqs[1].Parent)
	assert.Equal(t, "~1.3.0", reqs[1].Constraint.String())
	assert.Equal(t, "b", reqs[2].Parent)
}

func TestResolutionGraph_Cycles(t *testing.T) {
	g := domain.NewResolutionGraph()
	_ = g.AddNode(node("a", "1.0.0", map[string]string{"b": "*"}))
	_ = g.AddNode(node("b", "1.0.0", map[string]string{"c": "*"}))
	_ = g.AddNode(node("c", "1.0.0", map[string]string{"a": "*"}))
	_ = g.AddNode(node("d", "1.0.0", map[string]string{"d": "*"}))

	cycles := g.Cycles()
	require.Len(t, cycles, 2)
	assert.Equal(t, "a -> b -> c -> a", domain.FormatCycle(cycles[0]))
	assert.Equal(t, "d -> d", domain.FormatCycle(cycles[1]))
}

func TestResolutionGraph_Equal(t *testing.T) {
	build := func(cVersion string) *domain.ResolutionGraph {
		g := domain.NewResolutionGraph()
		g.AddRoot("a", domain.MustParseConstraint("^1.0.0"))
		_ = g.AddNode(node("a", "1.0.0", map[string]string{"c": "^1.0.0"}))
		_ = g.AddNode(node("c", cVersion, nil))
		return g
	}

	assert.True(t, build("1.0.0").Equal(build("1.0.0")))
	assert.False(t, build("1.0.0").Equal(build("1.1.0")))
	assert.False(t, build("1.0.0").Equal(domain.NewResolutionGraph()))
}
