package visualization

import (
	"strings"
	"testing"

	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/morphology"
)

func treeDocument(t *testing.T) (*document.Document, *morphology.Graph) {
	t.Helper()
	doc := &document.Document{
		Model: document.Model{
			Morphology: document.Morphology{
				Type: document.MorphologyMultiSection,
				Sections: map[string]document.Section{
					"soma": {L: 20, Diam: 20, Nseg: 1},
					"dend": {L: 200, Diam: 2, Nseg: 5},
				},
				Connections: []document.Connection{
					{Parent: "soma", Child: "dend", ParentLoc: 1, ChildLoc: 0},
				},
			},
		},
	}
	g, diags := morphology.Build(doc.Model.Morphology)
	if len(diags) != 0 {
		t.Fatalf("Build() diagnostics = %v", diags)
	}
	return doc, g
}

func TestRenderDOT(t *testing.T) {
	doc, g := treeDocument(t)
	out := RenderDOT(doc, g)

	if !strings.HasPrefix(out, "digraph morphology {") {
		t.Errorf("RenderDOT() missing digraph header:\n%s", out)
	}
	for _, want := range []string{`"soma"`, `"dend"`, `"soma" -> "dend"`, "L=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderDOT() missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Errorf("RenderDOT() not terminated:\n%s", out)
	}
}

func TestRenderDOT_NodesInBuildOrder(t *testing.T) {
	doc, g := treeDocument(t)
	out := RenderDOT(doc, g)

	somaIdx := strings.Index(out, `"soma" [`)
	dendIdx := strings.Index(out, `"dend" [`)
	if somaIdx < 0 || dendIdx < 0 || somaIdx > dendIdx {
		t.Errorf("RenderDOT() root should be declared before children:\n%s", out)
	}
}

func TestRenderJSON(t *testing.T) {
	doc, g := treeDocument(t)
	out := RenderJSON(doc, g)

	if out["root"] != "soma" {
		t.Errorf("RenderJSON() root = %v, want soma", out["root"])
	}
	if out["node_count"] != 2 || out["edge_count"] != 1 {
		t.Errorf("RenderJSON() counts = %v nodes, %v edges",
			out["node_count"], out["edge_count"])
	}

	nodes := out["nodes"].([]map[string]interface{})
	if nodes[0]["name"] != "soma" || nodes[0]["root"] != true {
		t.Errorf("RenderJSON() first node = %v, want root soma", nodes[0])
	}
	edges := out["edges"].([]map[string]interface{})
	if edges[0]["parent"] != "soma" || edges[0]["child"] != "dend" {
		t.Errorf("RenderJSON() edge = %v", edges[0])
	}
}
