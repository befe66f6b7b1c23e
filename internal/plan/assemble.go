package plan

import (
	"fmt"
	"sort"

	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/mechanism"
	"github.com/reprosim/nrnexp/internal/morphology"
)

// AssemblyError reports an internal inconsistency detected while
// ordering build steps. If the earlier validation stages passed, this
// is unreachable; seeing one means the pipeline itself is defective,
// not the user's document.
type AssemblyError struct {
	Reason string
}

func (e *AssemblyError) Error() string {
	return "assembly: internal inconsistency: " + e.Reason
}

// Assemble derives the build plan from a validated document and its
// morphology graph. Emission order is strict: sections created in
// traversal order with geometry immediately after, connections only
// once both endpoints exist, mechanisms with registry defaults before
// user overrides, then stimuli and recorders in declared order.
func Assemble(doc *document.Document, graph *morphology.Graph, reg *mechanism.Registry) (*BuildPlan, error) {
	m := doc.Model.Morphology
	created := make(map[string]bool, len(m.Sections))
	steps := make([]Step, 0, 4*len(m.Sections)+len(doc.Stimuli)+len(doc.Recordings))

	for _, name := range graph.Order {
		sec, ok := m.Sections[name]
		if !ok {
			return nil, &AssemblyError{Reason: fmt.Sprintf("traversal order names undeclared section %q", name)}
		}
		steps = append(steps,
			Step{Kind: StepCreateSection, Section: name},
			Step{Kind: StepSetGeometry, Section: name, Geometry: &GeometrySpec{
				L:    sec.L,
				Diam: sec.Diam,
				Nseg: sec.Nseg,
			}},
		)
		created[name] = true
	}

	for _, c := range m.Connections {
		if !created[c.Parent] || !created[c.Child] {
			return nil, &AssemblyError{Reason: fmt.Sprintf(
				"connection %s->%s references a section with no creation step", c.Parent, c.Child)}
		}
		steps = append(steps, Step{Kind: StepConnect, Section: c.Child, Connect: &ConnectSpec{
			Parent:    c.Parent,
			ParentLoc: c.ParentLoc,
			ChildLoc:  c.ChildLoc,
		}})
	}

	bioSteps, err := assembleBiophysics(doc, graph, reg, created)
	if err != nil {
		return nil, err
	}
	steps = append(steps, bioSteps...)

	for _, s := range doc.Stimuli {
		if !created[s.Section] {
			return nil, &AssemblyError{Reason: fmt.Sprintf(
				"stimulus %q targets section %q with no creation step", s.Name, s.Section)}
		}
		steps = append(steps, Step{Kind: StepCreateStimulus, Section: s.Section, Stimulus: &StimulusSpec{
			Name:        s.Name,
			Type:        s.Type,
			Loc:         s.Loc,
			DelayMs:     s.DelayMs,
			DurationMs:  s.DurationMs,
			AmplitudeNA: s.AmplitudeNA,
		}})
	}

	for _, r := range doc.Recordings {
		if !created[r.Section] {
			return nil, &AssemblyError{Reason: fmt.Sprintf(
				"recording %q targets section %q with no creation step", r.Name, r.Section)}
		}
		steps = append(steps, Step{Kind: StepCreateRecorder, Section: r.Section, Recorder: &RecorderSpec{
			Name:     r.Name,
			Variable: r.Variable,
			Loc:      r.Loc,
		}})
	}

	return &BuildPlan{
		Experiment:  doc.Metadata.Name,
		Environment: doc.Environment,
		Steps:       steps,
		Simulation:  doc.Simulation,
		Outputs:     doc.Outputs,
	}, nil
}

// assembleBiophysics emits per-section membrane steps in graph
// traversal order: section-level Ra and cm writes, then each mechanism
// sorted by name with registry defaults first and user overrides after,
// so later writes win per parameter.
func assembleBiophysics(doc *document.Document, graph *morphology.Graph, reg *mechanism.Registry, created map[string]bool) ([]Step, error) {
	var steps []Step
	for _, name := range graph.Order {
		entry, ok := doc.Model.Biophysics[name]
		if !ok {
			continue
		}
		if !created[name] {
			return nil, &AssemblyError{Reason: fmt.Sprintf(
				"biophysics entry for section %q with no creation step", name)}
		}

		steps = append(steps,
			Step{Kind: StepSetParameter, Section: name, Parameter: &ParameterSpec{Name: "Ra", Value: entry.Ra}},
			Step{Kind: StepSetParameter, Section: name, Parameter: &ParameterSpec{Name: "cm", Value: entry.Cm}},
		)

		mechNames := make([]string, 0, len(entry.Mechanisms))
		for mech := range entry.Mechanisms {
			mechNames = append(mechNames, mech)
		}
		sort.Strings(mechNames)

		for _, mech := range mechNames {
			def, ok := reg.Lookup(mech)
			if !ok {
				return nil, &AssemblyError{Reason: fmt.Sprintf(
					"mechanism %q on section %q passed validation but is not registered", mech, name)}
			}
			steps = append(steps, Step{Kind: StepInsertMechanism, Section: name,
				Mechanism: &MechanismSpec{Name: mech}})

			for _, param := range def.ParamNames() {
				steps = append(steps, Step{Kind: StepSetParameter, Section: name,
					Parameter: &ParameterSpec{Mechanism: mech, Name: param, Value: def.Defaults[param]}})
			}

			overrides := make([]string, 0, len(entry.Mechanisms[mech]))
			for param := range entry.Mechanisms[mech] {
				overrides = append(overrides, param)
			}
			sort.Strings(overrides)
			for _, param := range overrides {
				steps = append(steps, Step{Kind: StepSetParameter, Section: name,
					Parameter: &ParameterSpec{Mechanism: mech, Name: param, Value: entry.Mechanisms[mech][param]}})
			}
		}
	}
	return steps, nil
}

// ResolvedParameters replays the plan's parameter writes for one
// mechanism on one section, returning the final value per parameter
// (later writes win).
func (p *BuildPlan) ResolvedParameters(section, mech string) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range p.Steps {
		if s.Kind == StepSetParameter && s.Section == section &&
			s.Parameter != nil && s.Parameter.Mechanism == mech {
			out[s.Parameter.Name] = s.Parameter.Value
		}
	}
	return out
}
