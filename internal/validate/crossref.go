// Package validate performs cross-reference validation over a
// structurally valid semantic model: every name used by biophysics,
// connections, stimuli, recordings, and plot settings must resolve to a
// declared entity, and derived structural constraints must hold. All
// checks run independently and accumulate diagnostics, so a single pass
// surfaces every defect class at once. The validator is pure: it never
// mutates the document.
package validate

import (
	"fmt"
	"sort"

	"github.com/reprosim/nrnexp/internal/diag"
	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/mechanism"
)

// Options controls validation behavior.
type Options struct {
	// Strict promotes advisory diagnostics (e.g. a stimulus window
	// exceeding tstop_ms) to fatal.
	Strict bool
}

// Check validates cross-field consistency of a document. The registry
// supplies the recognized mechanisms; names listed in
// environment.mechanisms are forward-declared as passthrough on a copy,
// so the caller's registry is never mutated.
func Check(doc *document.Document, reg *mechanism.Registry, opts Options) []diag.Diagnostic {
	reg = reg.WithDeclared(doc.Environment.Mechanisms)

	var ds []diag.Diagnostic
	ds = append(ds, checkMorphologyInvariants(doc)...)
	ds = append(ds, checkConnections(doc)...)
	ds = append(ds, checkBiophysics(doc, reg)...)
	ds = append(ds, checkStimuli(doc, opts)...)
	ds = append(ds, checkRecordings(doc, reg)...)
	ds = append(ds, checkPlot(doc)...)
	return ds
}

func refError(path, name, collection string) diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageCrossRef,
		Path:     path,
		Code:     diag.CodeReferenceUnknown,
		Severity: diag.SeverityFatal,
		Message:  fmt.Sprintf("%q does not name a declared %s", name, collection),
	}
}

// checkMorphologyInvariants enforces the compartment-count and
// connection-count pairing declared by the morphology type.
func checkMorphologyInvariants(doc *document.Document) []diag.Diagnostic {
	m := doc.Model.Morphology
	var ds []diag.Diagnostic
	if m.Type == document.MorphologySingleCompartment {
		if len(m.Sections) != 1 {
			ds = append(ds, diag.Diagnostic{
				Stage:    diag.StageCrossRef,
				Path:     "model.morphology.sections",
				Code:     diag.CodeReferenceInvariant,
				Severity: diag.SeverityFatal,
				Message: fmt.Sprintf("single_compartment morphology requires exactly one section, found %d",
					len(m.Sections)),
			})
		}
		if len(m.Connections) != 0 {
			ds = append(ds, diag.Diagnostic{
				Stage:    diag.StageCrossRef,
				Path:     "model.morphology.connections",
				Code:     diag.CodeReferenceInvariant,
				Severity: diag.SeverityFatal,
				Message: fmt.Sprintf("single_compartment morphology must declare no connections, found %d",
					len(m.Connections)),
			})
		}
	}
	if len(m.Sections) == 0 {
		ds = append(ds, diag.Diagnostic{
			Stage:    diag.StageCrossRef,
			Path:     "model.morphology.sections",
			Code:     diag.CodeReferenceInvariant,
			Severity: diag.SeverityFatal,
			Message:  "morphology declares no sections",
		})
	}
	return ds
}

func checkConnections(doc *document.Document) []diag.Diagnostic {
	sections := doc.Model.Morphology.Sections
	var ds []diag.Diagnostic
	for i, c := range doc.Model.Morphology.Connections {
		if _, ok := sections[c.Parent]; !ok {
			ds = append(ds, refError(
				fmt.Sprintf("model.morphology.connections[%d].parent", i), c.Parent, "section"))
		}
		if _, ok := sections[c.Child]; !ok {
			ds = append(ds, refError(
				fmt.Sprintf("model.morphology.connections[%d].child", i), c.Child, "section"))
		}
	}
	return ds
}

func checkBiophysics(doc *document.Document, reg *mechanism.Registry) []diag.Diagnostic {
	sections := doc.Model.Morphology.Sections
	var ds []diag.Diagnostic

	// Map iteration order is not deterministic; sort for stable output.
	names := make([]string, 0, len(doc.Model.Biophysics))
	for name := range doc.Model.Biophysics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, secName := range names {
		entry := doc.Model.Biophysics[secName]
		if _, ok := sections[secName]; !ok {
			ds = append(ds, refError("model.biophysics."+secName, secName, "section"))
		}

		mechNames := make([]string, 0, len(entry.Mechanisms))
		for m := range entry.Mechanisms {
			mechNames = append(mechNames, m)
		}
		sort.Strings(mechNames)

		for _, mechName := range mechNames {
			base := fmt.Sprintf("model.biophysics.%s.mechanisms.%s", secName, mechName)
			def, ok := reg.Lookup(mechName)
			if !ok {
				ds = append(ds, diag.Diagnostic{
					Stage:    diag.StageCrossRef,
					Path:     base,
					Code:     diag.CodeMechanismUnknown,
					Severity: diag.SeverityFatal,
					Message:  fmt.Sprintf("unrecognized mechanism %q", mechName),
				})
				continue
			}
			params := make([]string, 0, len(entry.Mechanisms[mechName]))
			for p := range entry.Mechanisms[mechName] {
				params = append(params, p)
			}
			sort.Strings(params)
			for _, param := range params {
				if !def.Recognizes(param) {
					ds = append(ds, diag.Diagnostic{
						Stage:    diag.StageCrossRef,
						Path:     base + "." + param,
						Code:     diag.CodeMechanismParam,
						Severity: diag.SeverityFatal,
						Message: fmt.Sprintf("mechanism %q has no parameter %q (recognized: %v)",
							mechName, param, def.ParamNames()),
					})
				}
			}
		}
	}
	return ds
}

func checkStimuli(doc *document.Document, opts Options) []diag.Diagnostic {
	sections := doc.Model.Morphology.Sections
	var ds []diag.Diagnostic
	seen := make(map[string]int)
	for i, s := range doc.Stimuli {
		if _, ok := sections[s.Section]; !ok {
			ds = append(ds, refError(fmt.Sprintf("stimuli[%d].section", i), s.Section, "section"))
		}
		if prev, dup := seen[s.Name]; dup {
			ds = append(ds, diag.Diagnostic{
				Stage:    diag.StageCrossRef,
				Path:     fmt.Sprintf("stimuli[%d].name", i),
				Code:     diag.CodeReferenceDuplicate,
				Severity: diag.SeverityFatal,
				Message:  fmt.Sprintf("stimulus name %q already declared at stimuli[%d]", s.Name, prev),
			})
		} else {
			seen[s.Name] = i
		}

		if s.DelayMs+s.DurationMs > doc.Simulation.TstopMs {
			sev := diag.SeverityAdvisory
			if opts.Strict {
				sev = diag.SeverityFatal
			}
			ds = append(ds, diag.Diagnostic{
				Stage:    diag.StageCrossRef,
				Path:     fmt.Sprintf("stimuli[%d]", i),
				Code:     diag.CodeReferenceTiming,
				Severity: sev,
				Message: fmt.Sprintf("stimulus window %v+%v ms extends past tstop_ms %v",
					s.DelayMs, s.DurationMs, doc.Simulation.TstopMs),
			})
		}
	}
	return ds
}

func checkRecordings(doc *document.Document, reg *mechanism.Registry) []diag.Diagnostic {
	sections := doc.Model.Morphology.Sections
	var ds []diag.Diagnostic
	seen := make(map[string]int)
	for i, r := range doc.Recordings {
		if _, ok := sections[r.Section]; !ok {
			ds = append(ds, refError(fmt.Sprintf("recordings[%d].section", i), r.Section, "section"))
		}
		if prev, dup := seen[r.Name]; dup {
			ds = append(ds, diag.Diagnostic{
				Stage:    diag.StageCrossRef,
				Path:     fmt.Sprintf("recordings[%d].name", i),
				Code:     diag.CodeReferenceDuplicate,
				Severity: diag.SeverityFatal,
				Message:  fmt.Sprintf("recording name %q already declared at recordings[%d]", r.Name, prev),
			})
		} else {
			seen[r.Name] = i
		}

		if !recordableVariable(r.Variable, reg) {
			ds = append(ds, diag.Diagnostic{
				Stage:    diag.StageCrossRef,
				Path:     fmt.Sprintf("recordings[%d].variable", i),
				Code:     diag.CodeMechanismUnknown,
				Severity: diag.SeverityFatal,
				Message: fmt.Sprintf("variable %q is not recordable; allowed: v, i, or a declared custom mechanism variable",
					r.Variable),
			})
		}
	}
	return ds
}

// recordableVariable reports whether a recording variable is membrane
// voltage, membrane current, or a custom variable explicitly allowed by
// a forward-declared mechanism.
func recordableVariable(v string, reg *mechanism.Registry) bool {
	if v == document.VariableVoltage || v == document.VariableCurrent {
		return true
	}
	_, ok := reg.Lookup(v)
	return ok
}

func checkPlot(doc *document.Document) []diag.Diagnostic {
	plot := doc.Outputs.Plot
	if plot == nil {
		return nil
	}
	declared := make(map[string]bool, len(doc.Recordings))
	for _, r := range doc.Recordings {
		declared[r.Name] = true
	}
	var ds []diag.Diagnostic
	for i, v := range plot.Variables {
		if !declared[v] {
			ds = append(ds, refError(fmt.Sprintf("outputs.plot.variables[%d]", i), v, "recording"))
		}
	}
	return ds
}
