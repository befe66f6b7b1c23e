package document

import (
	"os"
	"path/filepath"
	"testing"
)

const twoSectionDoc = `
metadata:
  name: two-section
  description: soma with attached axon
environment:
  temperature_celsius: 35.0
model:
  morphology:
    type: multi_section
    sections:
      soma: {L: 20, diam: 20, nseg: 1}
      axon: {L: 300, diam: 1, nseg: 9}
    connections:
      - {parent: soma, child: axon}
  biophysics:
    soma:
      mechanisms:
        hh: {}
stimuli:
  - name: pulse
    section: soma
    delay_ms: 5
    duration_ms: 50
    amplitude_nA: 0.2
recordings:
  - name: soma_v
    variable: v
    section: soma
simulation:
  tstop_ms: 100
`

func decodeTestDoc(t *testing.T, text string) *Document {
	t.Helper()
	root, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	doc, err := Decode(root)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func TestDecode_AppliesDefaults(t *testing.T) {
	doc := decodeTestDoc(t, twoSectionDoc)

	if doc.Metadata.Version != "1.0.0" {
		t.Errorf("metadata.version = %q, want default 1.0.0", doc.Metadata.Version)
	}
	if doc.Environment.TemperatureCelsius != 35.0 {
		t.Errorf("temperature = %v, want declared 35.0", doc.Environment.TemperatureCelsius)
	}
	if doc.Simulation.DtMs != 0.025 {
		t.Errorf("dt_ms = %v, want default 0.025", doc.Simulation.DtMs)
	}

	conn := doc.Model.Morphology.Connections[0]
	if conn.ParentLoc != 1.0 || conn.ChildLoc != 0.0 {
		t.Errorf("connection locs = (%v,%v), want defaults (1.0,0.0)", conn.ParentLoc, conn.ChildLoc)
	}

	stim := doc.Stimuli[0]
	if stim.Type != "IClamp" || stim.Loc != 0.5 {
		t.Errorf("stimulus defaults = (%q,%v), want (IClamp,0.5)", stim.Type, stim.Loc)
	}
	if doc.Recordings[0].Loc != 0.5 {
		t.Errorf("recording loc = %v, want default 0.5", doc.Recordings[0].Loc)
	}

	bio := doc.Model.Biophysics["soma"]
	if bio.Ra != 100.0 || bio.Cm != 1.0 {
		t.Errorf("biophysics defaults = (Ra=%v,cm=%v), want (100,1)", bio.Ra, bio.Cm)
	}

	// outputs omitted entirely: whole-object defaults apply.
	if doc.Outputs.Directory != "results" {
		t.Errorf("outputs.directory = %q, want default results", doc.Outputs.Directory)
	}
	if doc.Outputs.SaveTraces.Format != TraceFormatCSV {
		t.Errorf("trace format = %q, want csv", doc.Outputs.SaveTraces.Format)
	}
}

func TestDecode_ExplicitZeroTemperatureSurvives(t *testing.T) {
	doc := decodeTestDoc(t, `
metadata: {name: cold}
environment: {temperature_celsius: 0}
model:
  morphology:
    type: single_compartment
    sections:
      soma: {L: 20, diam: 20}
stimuli: []
recordings: []
simulation: {tstop_ms: 10}
`)
	if doc.Environment.TemperatureCelsius != 0 {
		t.Errorf("explicit 0 temperature overwritten to %v", doc.Environment.TemperatureCelsius)
	}
	if doc.Model.Morphology.Sections["soma"].Nseg != 1 {
		t.Errorf("nseg default = %d, want 1", doc.Model.Morphology.Sections["soma"].Nseg)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	if _, err := Parse([]byte("")); err == nil {
		t.Error("expected error for empty document")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	if err := os.WriteFile(path, []byte(twoSectionDoc), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	root, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	doc, err := Decode(root)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Metadata.Name != "two-section" {
		t.Errorf("metadata.name = %q, want two-section", doc.Metadata.Name)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHash_StableAcrossRuns(t *testing.T) {
	a := decodeTestDoc(t, twoSectionDoc)
	b := decodeTestDoc(t, twoSectionDoc)

	ha, err := Hash(a)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hb, err := Hash(b)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ha != hb {
		t.Errorf("hashes differ across identical documents: %s vs %s", ha, hb)
	}

	c := decodeTestDoc(t, twoSectionDoc)
	c.Simulation.TstopMs = 200
	hc, _ := Hash(c)
	if hc == ha {
		t.Error("hash unchanged after modifying the document")
	}
}

func TestSectionNames_Sorted(t *testing.T) {
	doc := decodeTestDoc(t, twoSectionDoc)
	names := doc.Model.Morphology.SectionNames()
	if len(names) != 2 || names[0] != "axon" || names[1] != "soma" {
		t.Errorf("SectionNames() = %v, want [axon soma]", names)
	}
}
