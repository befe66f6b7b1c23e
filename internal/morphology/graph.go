// Package morphology builds the rooted section tree from a validated
// morphology declaration. Connections are directed parent-to-child
// edges; the builder finds the root by in-degree, walks the tree, and
// reports no-root, multiple-roots, cycle, multi-parent, and
// disconnected defects as distinct diagnostics. The traversal order it
// records is authoritative for build ordering: a section always
// precedes its children.
package morphology

import (
	"fmt"
	"sort"

	"github.com/reprosim/nrnexp/internal/diag"
	"github.com/reprosim/nrnexp/internal/document"
)

// Graph is the rooted tree derived from a morphology declaration. It
// is computed once per validated document and never mutated afterward.
type Graph struct {
	// Root is the single section with no incoming connection.
	Root string

	// Order is the traversal order, root first, every parent strictly
	// before its children.
	Order []string

	// Children maps a section to its child sections in declaration
	// order of their connections.
	Children map[string][]string

	// Parent maps a section to its parent; the root has no entry.
	Parent map[string]string
}

// Build derives the rooted tree for a morphology. On success the
// diagnostics slice is empty; any diagnostic means no graph is
// produced and building must not proceed.
func Build(m document.Morphology) (*Graph, []diag.Diagnostic) {
	if m.Type == document.MorphologySingleCompartment {
		return buildSingle(m)
	}
	return buildTree(m)
}

func buildSingle(m document.Morphology) (*Graph, []diag.Diagnostic) {
	// Cross-reference validation already enforced the one-section,
	// zero-connection pairing; a violation here is still a hard stop.
	if len(m.Sections) != 1 || len(m.Connections) != 0 {
		return nil, []diag.Diagnostic{graphDiag(diag.CodeGraphNoRoot, "model.morphology",
			"single_compartment morphology is not a single unconnected section")}
	}
	var root string
	for name := range m.Sections {
		root = name
	}
	return &Graph{
		Root:     root,
		Order:    []string{root},
		Children: map[string][]string{},
		Parent:   map[string]string{},
	}, nil
}

func buildTree(m document.Morphology) (*Graph, []diag.Diagnostic) {
	var ds []diag.Diagnostic

	inDegree := make(map[string]int, len(m.Sections))
	children := make(map[string][]string, len(m.Sections))
	parent := make(map[string]string, len(m.Sections))
	for name := range m.Sections {
		inDegree[name] = 0
	}
	for _, c := range m.Connections {
		inDegree[c.Child]++
		children[c.Parent] = append(children[c.Parent], c.Child)
		if _, taken := parent[c.Child]; !taken {
			parent[c.Child] = c.Parent
		}
	}

	// Multiple incoming edges violate the tree shape regardless of
	// whether traversal reaches the section.
	for _, name := range sortedNames(m.Sections) {
		if inDegree[name] > 1 {
			ds = append(ds, graphDiag(diag.CodeGraphMultiParent,
				"model.morphology.sections."+name,
				fmt.Sprintf("section %q has %d incoming connections; a section can have only one parent",
					name, inDegree[name])))
		}
	}

	var roots []string
	for _, name := range sortedNames(m.Sections) {
		if inDegree[name] == 0 {
			roots = append(roots, name)
		}
	}
	switch {
	case len(roots) == 0:
		ds = append(ds, graphDiag(diag.CodeGraphNoRoot, "model.morphology.connections",
			"no root section: every section has an incoming connection"))
		return nil, ds
	case len(roots) > 1:
		ds = append(ds, graphDiag(diag.CodeGraphMultipleRoots, "model.morphology.connections",
			fmt.Sprintf("multiple root sections: %v; exactly one section may have no parent", roots)))
	}

	root := roots[0]
	visited := make(map[string]bool, len(m.Sections))
	onPath := make(map[string]bool, len(m.Sections))
	var order []string

	var walk func(name string)
	walk = func(name string) {
		visited[name] = true
		onPath[name] = true
		order = append(order, name)
		for _, child := range children[name] {
			if onPath[child] {
				ds = append(ds, graphDiag(diag.CodeGraphCycle,
					"model.morphology.sections."+child,
					fmt.Sprintf("cycle detected: section %q connects back to its ancestor %q", name, child)))
				continue
			}
			if visited[child] {
				// Reached twice via distinct parents; already reported
				// as a multi-parent violation above.
				continue
			}
			walk(child)
		}
		onPath[name] = false
	}
	walk(root)

	for _, name := range sortedNames(m.Sections) {
		if !visited[name] {
			ds = append(ds, graphDiag(diag.CodeGraphDisconnected,
				"model.morphology.sections."+name,
				fmt.Sprintf("section %q is not reachable from root %q", name, root)))
		}
	}

	if len(ds) > 0 {
		return nil, ds
	}
	return &Graph{Root: root, Order: order, Children: children, Parent: parent}, nil
}

func graphDiag(code diag.Code, path, msg string) diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageGraph,
		Path:     path,
		Code:     code,
		Severity: diag.SeverityFatal,
		Message:  msg,
	}
}

func sortedNames(sections map[string]document.Section) []string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
