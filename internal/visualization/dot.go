// Package visualization renders morphology graphs in various output formats.
package visualization

import (
	"fmt"
	"strings"

	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/morphology"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// sectionColors maps well-known section name prefixes to DOT colors.
var sectionColors = map[string]string{
	"soma": "steelblue",
	"dend": "mediumseagreen",
	"axon": "goldenrod",
	"apic": "tomato",
}

// RenderDOT produces a Graphviz DOT representation of a morphology
// graph. Nodes carry geometry tooltips; edges carry the attachment
// locations of the connection that created them.
func RenderDOT(doc *document.Document, g *morphology.Graph) string {
	var b strings.Builder
	b.WriteString("digraph morphology {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	sections := doc.Model.Morphology.Sections
	for _, name := range g.Order {
		sec := sections[name]
		b.WriteString(fmt.Sprintf("  %q [fillcolor=%q, tooltip=\"L=%g diam=%g nseg=%d\"];\n",
			name, colorFor(name), sec.L, sec.Diam, sec.Nseg))
	}
	b.WriteString("\n")

	for _, conn := range doc.Model.Morphology.Connections {
		b.WriteString(fmt.Sprintf("  %q -> %q [label=\"%g:%g\"];\n",
			conn.Parent, conn.Child, conn.ParentLoc, conn.ChildLoc))
	}

	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a JSON-ready graph representation with nodes and
// edges arrays. Node order follows the graph's deterministic build
// order (parents before children).
func RenderJSON(doc *document.Document, g *morphology.Graph) map[string]interface{} {
	sections := doc.Model.Morphology.Sections

	nodes := make([]map[string]interface{}, 0, len(g.Order))
	for _, name := range g.Order {
		sec := sections[name]
		nodes = append(nodes, map[string]interface{}{
			"name": name,
			"L":    sec.L,
			"diam": sec.Diam,
			"nseg": sec.Nseg,
			"root": name == g.Root,
		})
	}

	edges := make([]map[string]interface{}, 0, len(doc.Model.Morphology.Connections))
	for _, conn := range doc.Model.Morphology.Connections {
		edges = append(edges, map[string]interface{}{
			"parent":     conn.Parent,
			"child":      conn.Child,
			"parent_loc": conn.ParentLoc,
			"child_loc":  conn.ChildLoc,
		})
	}

	return map[string]interface{}{
		"root":       g.Root,
		"nodes":      nodes,
		"edges":      edges,
		"node_count": len(nodes),
		"edge_count": len(edges),
	}
}

// colorFor picks a node color from the section name prefix.
func colorFor(name string) string {
	for prefix, color := range sectionColors {
		if strings.HasPrefix(name, prefix) {
			return color
		}
	}
	return "lightgray"
}
