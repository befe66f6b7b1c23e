// Package pipeline wires the validation and build stages into the two
// operations front ends consume: Validate (schema + cross-reference,
// diagnostics only) and Build (additionally graph construction and
// plan assembly). A stage is entered only when every previous stage
// produced zero fatal diagnostics, because later stages assume earlier
// invariants hold.
package pipeline

import (
	"gopkg.in/yaml.v3"

	"github.com/reprosim/nrnexp/internal/diag"
	"github.com/reprosim/nrnexp/internal/document"
	"github.com/reprosim/nrnexp/internal/mechanism"
	"github.com/reprosim/nrnexp/internal/morphology"
	"github.com/reprosim/nrnexp/internal/plan"
	"github.com/reprosim/nrnexp/internal/schema"
	"github.com/reprosim/nrnexp/internal/validate"
)

// Options configures a pipeline invocation.
type Options struct {
	// Strict promotes advisory diagnostics to fatal.
	Strict bool

	// Registry supplies the recognized mechanisms. Nil means the
	// builtin registry.
	Registry *mechanism.Registry
}

// Result carries the outcome of a pipeline invocation. Document is
// populated once schema validation passes; Graph and Plan only for a
// Build call over a fully valid document.
type Result struct {
	Report   diag.Report
	Document *document.Document
	Graph    *morphology.Graph
	Plan     *plan.BuildPlan
}

// Valid reports whether the invocation found no fatal diagnostics.
func (r *Result) Valid() bool {
	return !r.Report.HasFatal()
}

// Validate runs schema and cross-reference validation over a parsed
// document tree and reports every diagnostic found. It never produces
// a plan and never fails for user-caused problems.
func Validate(root *yaml.Node, opts Options) (*Result, error) {
	res := &Result{}
	res.Report.Add(schema.Validate(root)...)
	if res.Report.HasFatal() {
		return res, nil
	}

	doc, err := document.Decode(root)
	if err != nil {
		// Schema validation passed, so a decode failure is a pipeline
		// defect, not user input.
		return nil, &plan.AssemblyError{Reason: err.Error()}
	}
	res.Document = doc

	res.Report.Add(validate.Check(doc, registry(opts), validate.Options{Strict: opts.Strict})...)
	return res, nil
}

// Build runs the full pipeline: validation, graph construction, and
// plan assembly. The returned error is non-nil only for an internal
// AssemblyError; user-caused defects appear as diagnostics in the
// result, with no plan produced.
func Build(root *yaml.Node, opts Options) (*Result, error) {
	res, err := Validate(root, opts)
	if err != nil || res.Report.HasFatal() {
		return res, err
	}

	graph, ds := morphology.Build(res.Document.Model.Morphology)
	res.Report.Add(ds...)
	if res.Report.HasFatal() {
		return res, nil
	}
	res.Graph = graph

	// The assembler must see the same mechanism set the validator
	// accepted, including custom names from environment.mechanisms.
	reg := registry(opts).WithDeclared(res.Document.Environment.Mechanisms)
	p, err := plan.Assemble(res.Document, graph, reg)
	if err != nil {
		res.Report.Add(diag.Diagnostic{
			Stage:    diag.StageAssembly,
			Code:     diag.CodeAssembly,
			Severity: diag.SeverityFatal,
			Message:  err.Error(),
		})
		return res, err
	}
	res.Plan = p
	return res, nil
}

func registry(opts Options) *mechanism.Registry {
	if opts.Registry != nil {
		return opts.Registry
	}
	return mechanism.Builtin()
}
