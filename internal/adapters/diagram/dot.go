// Package diagram renders resolution graphs as node-link diagrams.
package diagram

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-graphviz"
	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/zerr"
)

// Format is an output format of the graph command.
type Format string

const (
	// FormatDOT is Graphviz source text.
	FormatDOT Format = "dot"
	// FormatSVG is a rendered SVG image.
	FormatSVG Format = "svg"
)

// ErrRenderFailed is returned when Graphviz cannot lay out or render a graph.
var ErrRenderFailed = zerr.New("failed to render graph")

// ToDOT converts g to Graphviz DOT format. The root manifest is drawn as a
// separate node and every edge is labelled with its constraint.
func ToDOT(g *domain.ResolutionGraph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [shape=oval, fillcolor=lightgrey];\n", domain.RootName)
	for node := range g.Walk() {
		fmt.Fprintf(&buf, "  %q;\n", nodeID(node))
	}

	buf.WriteString("\n")
	for _, name := range g.Roots() {
		c, _ := g.RootConstraint(name)
		if node, ok := g.Node(name); ok {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", domain.RootName, nodeID(node), c.String())
		}
	}
	for node := range g.Walk() {
		for _, dep := range slices.Sorted(maps.Keys(node.Dependencies)) {
			child, ok := g.Node(dep)
			if !ok {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", nodeID(node), nodeID(child), node.Dependencies[dep].String())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(n *domain.DependencyNode) string {
	return n.Name + "@" + n.Version.String()
}

// RenderSVG lays out a DOT graph and renders it to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, zerr.Wrap(ErrRenderFailed, err.Error())
	}
	defer gv.Close() //nolint:errcheck // Closing the wasm runtime cannot lose output

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrRenderFailed, err.Error()), "stage", "parse")
	}
	defer g.Close() //nolint:errcheck // The graph is discarded after rendering

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, zerr.With(zerr.Wrap(ErrRenderFailed, err.Error()), "stage", "render")
	}
	return buf.Bytes(), nil
}

// Render produces g in the requested format.
func Render(ctx context.Context, g *domain.ResolutionGraph, format Format) ([]byte, error) {
	dot := ToDOT(g)
	switch format {
	case FormatDOT, "":
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	default:
		return nil, domain.Annotate(ErrRenderFailed, "format", string(format))
	}
}
