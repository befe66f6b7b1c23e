package plan

import (
	"errors"
	"reflect"
	"testing"

	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/mechanism"
	"github.com/reprosim/nrnexp/internal/morphology"
)

const twoSectionDoc = `
metadata: {name: two-section}
model:
  morphology:
    type: multi_section
    sections:
      soma: {L: 20, diam: 20, nseg: 1}
      axon: {L: 300, diam: 1, nseg: 9}
    connections:
      - {parent: soma, child: axon, parent_loc: 1.0, child_loc: 0.0}
  biophysics:
    soma:
      mechanisms:
        hh: {}
stimuli:
  - {name: soma_pulse, section: soma, delay_ms: 5, duration_ms: 50, amplitude_nA: 0.2}
  - {name: axon_pulse, section: axon, delay_ms: 60, duration_ms: 20, amplitude_nA: 0.1}
recordings:
  - {name: soma_v, variable: v, section: soma}
  - {name: axon_v, variable: v, section: axon, loc: 1.0}
simulation: {tstop_ms: 100}
`

func assembleDoc(t *testing.T, text string) *BuildPlan {
	t.Helper()
	root, err := document.Parse([]byte(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	doc, err := document.Decode(root)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	graph, ds := morphology.Build(doc.Model.Morphology)
	if len(ds) != 0 {
		t.Fatalf("graph diagnostics: %v", ds)
	}
	p, err := Assemble(doc, graph, mechanism.Builtin())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return p
}

func TestAssemble_TwoSectionScenario(t *testing.T) {
	p := assembleDoc(t, twoSectionDoc)

	if p.Steps[0].Kind != StepCreateSection || p.Steps[0].Section != "soma" {
		t.Errorf("step 0 = %+v, want create-section soma", p.Steps[0])
	}
	if p.Steps[1].Kind != StepSetGeometry || p.Steps[1].Section != "soma" {
		t.Errorf("step 1 = %+v, want set-geometry soma", p.Steps[1])
	}
	if p.Steps[2].Kind != StepCreateSection || p.Steps[2].Section != "axon" {
		t.Errorf("step 2 = %+v, want create-section axon", p.Steps[2])
	}

	createIdx := map[string]int{}
	connectIdx := -1
	var stimuli, recorders []string
	for i, s := range p.Steps {
		switch s.Kind {
		case StepCreateSection:
			createIdx[s.Section] = i
		case StepConnect:
			connectIdx = i
		case StepCreateStimulus:
			stimuli = append(stimuli, s.Stimulus.Name)
		case StepCreateRecorder:
			recorders = append(recorders, s.Recorder.Name)
		}
	}
	if connectIdx < createIdx["soma"] || connectIdx < createIdx["axon"] {
		t.Error("connect step emitted before both endpoint creations")
	}
	if !reflect.DeepEqual(stimuli, []string{"soma_pulse", "axon_pulse"}) {
		t.Errorf("stimulus order = %v, want declared order", stimuli)
	}
	if !reflect.DeepEqual(recorders, []string{"soma_v", "axon_v"}) {
		t.Errorf("recorder order = %v, want declared order", recorders)
	}

	if p.Experiment != "two-section" {
		t.Errorf("experiment = %q, want two-section", p.Experiment)
	}
	if p.Simulation.TstopMs != 100 || p.Simulation.DtMs != 0.025 {
		t.Errorf("simulation settings not carried: %+v", p.Simulation)
	}
}

func TestAssemble_HHDefaultLaw(t *testing.T) {
	p := assembleDoc(t, twoSectionDoc)
	got := p.ResolvedParameters("soma", "hh")
	want := map[string]float64{
		"gnabar": 0.12,
		"gkbar":  0.036,
		"gl":     0.0003,
		"el":     -54.3,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("resolved hh parameters = %v, want exact defaults %v", got, want)
	}
}

func TestAssemble_OverrideLaw(t *testing.T) {
	p := assembleDoc(t, `
metadata: {name: override}
model:
  morphology:
    type: single_compartment
    sections:
      soma: {L: 20, diam: 20}
  biophysics:
    soma:
      mechanisms:
        hh: {gnabar: 0.2}
stimuli: []
recordings: []
simulation: {tstop_ms: 100}
`)
	got := p.ResolvedParameters("soma", "hh")
	want := map[string]float64{
		"gnabar": 0.2,
		"gkbar":  0.036,
		"gl":     0.0003,
		"el":     -54.3,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("resolved hh parameters = %v, want defaults with gnabar overridden: %v", got, want)
	}

	// The default write must still precede the override write.
	var defaultIdx, overrideIdx int
	for i, s := range p.Steps {
		if s.Kind == StepSetParameter && s.Parameter.Mechanism == "hh" && s.Parameter.Name == "gnabar" {
			if s.Parameter.Value == 0.12 {
				defaultIdx = i
			} else {
				overrideIdx = i
			}
		}
	}
	if defaultIdx == 0 || overrideIdx == 0 || defaultIdx > overrideIdx {
		t.Errorf("default write (step %d) must precede override write (step %d)", defaultIdx, overrideIdx)
	}
}

func TestAssemble_SectionLevelParameters(t *testing.T) {
	p := assembleDoc(t, `
metadata: {name: ra-cm}
model:
  morphology:
    type: single_compartment
    sections:
      soma: {L: 20, diam: 20}
  biophysics:
    soma:
      Ra: 150
      cm: 2
stimuli: []
recordings: []
simulation: {tstop_ms: 100}
`)
	got := p.ResolvedParameters("soma", "")
	if got["Ra"] != 150 || got["cm"] != 2 {
		t.Errorf("section-level parameters = %v, want Ra=150 cm=2", got)
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	a := assembleDoc(t, twoSectionDoc)
	b := assembleDoc(t, twoSectionDoc)

	if !reflect.DeepEqual(a, b) {
		t.Error("two assemblies of the same document differ")
	}
	fa, err := a.Fingerprint()
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	fb, _ := b.Fingerprint()
	if fa != fb {
		t.Errorf("fingerprints differ: %s vs %s", fa, fb)
	}
}

func TestAssemble_InternalInconsistency(t *testing.T) {
	doc := &document.Document{
		Metadata: document.Metadata{Name: "broken"},
		Model: document.Model{Morphology: document.Morphology{
			Type:     document.MorphologyMultiSection,
			Sections: map[string]document.Section{"soma": {L: 20, Diam: 20, Nseg: 1}},
		}},
	}
	graph := &morphology.Graph{Root: "soma", Order: []string{"soma", "ghost"}}

	_, err := Assemble(doc, graph, mechanism.Builtin())
	if err == nil {
		t.Fatal("expected AssemblyError for traversal naming an undeclared section")
	}
	var asmErr *AssemblyError
	if !errors.As(err, &asmErr) {
		t.Errorf("error type = %T, want *AssemblyError", err)
	}
}
