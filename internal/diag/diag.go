// Package diag defines the structured diagnostics emitted by the
// validation pipeline. Every defect found while checking an experiment
// document becomes one Diagnostic; stages accumulate diagnostics into a
// Report instead of aborting on the first problem.
package diag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage identifies which pipeline stage produced a diagnostic.
type Stage string

// Pipeline stages, in execution order.
const (
	StageSchema   Stage = "schema"
	StageCrossRef Stage = "cross-reference"
	StageGraph    Stage = "graph"
	StageAssembly Stage = "assembly"
)

// Code classifies a diagnostic. The leading segment names the error
// class; an optional dotted suffix narrows it (e.g. "graph.cycle").
type Code string

// Schema codes: structural, type, and range violations at a single path.
const (
	CodeSchemaRequired Code = "schema.required"
	CodeSchemaType     Code = "schema.type"
	CodeSchemaRange    Code = "schema.range"
	CodeSchemaEnum     Code = "schema.enum"
)

// Cross-reference codes: names that do not resolve, or collide.
const (
	CodeReferenceUnknown   Code = "reference.unknown"
	CodeReferenceDuplicate Code = "reference.duplicate"
	CodeReferenceInvariant Code = "reference.invariant"
	CodeReferenceTiming    Code = "reference.timing"
)

// Graph codes: the morphology is not a well-formed rooted tree.
const (
	CodeGraphNoRoot        Code = "graph.no_root"
	CodeGraphMultipleRoots Code = "graph.multiple_roots"
	CodeGraphCycle         Code = "graph.cycle"
	CodeGraphDisconnected  Code = "graph.disconnected"
	CodeGraphMultiParent   Code = "graph.multi_parent"
)

// Mechanism codes: unrecognized mechanisms or parameters on a section.
const (
	CodeMechanismUnknown Code = "mechanism.unknown"
	CodeMechanismParam   Code = "mechanism.param"
)

// CodeAssembly marks an internal inconsistency detected while ordering
// build steps. It indicates a defect in the pipeline itself, not in the
// user's document.
const CodeAssembly Code = "assembly"

// Class returns the leading error-class segment of the code, e.g.
// "graph" for CodeGraphCycle.
func (c Code) Class() string {
	s := string(c)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Severity distinguishes defects that block building from advisories.
type Severity string

// SeverityFatal and SeverityAdvisory are the two severity levels.
// Advisory diagnostics are reported but do not block building unless
// strict mode promotes them.
const (
	SeverityFatal    Severity = "fatal"
	SeverityAdvisory Severity = "advisory"
)

// Diagnostic describes one defect found during validation.
type Diagnostic struct {
	Stage    Stage    `json:"stage"`
	Path     string   `json:"path"`
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// String returns a single-line human-readable rendering.
func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Stage, d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (%s)", d.Stage, d.Path, d.Message, d.Code)
}

// Report accumulates diagnostics across pipeline stages.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Add appends diagnostics to the report.
func (r *Report) Add(ds ...Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, ds...)
}

// Len returns the total number of diagnostics.
func (r *Report) Len() int {
	return len(r.Diagnostics)
}

// HasFatal reports whether any diagnostic is fatal. A stage is only
// entered when the previous stage produced zero fatal diagnostics.
func (r *Report) HasFatal() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics with the given severity.
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// ByStage returns the diagnostics produced by one stage.
func (r *Report) ByStage(stage Stage) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Stage == stage {
			out = append(out, d)
		}
	}
	return out
}

// Render returns a multi-line human-readable listing, one diagnostic
// per line. Returns the empty string for a clean report.
func (r *Report) Render() string {
	if len(r.Diagnostics) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range r.Diagnostics {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.String())
	}
	return b.String()
}

// MarshalJSON emits an empty array rather than null for a clean report.
func (r Report) MarshalJSON() ([]byte, error) {
	ds := r.Diagnostics
	if ds == nil {
		ds = []Diagnostic{}
	}
	return json.Marshal(struct {
		Diagnostics []Diagnostic `json:"diagnostics"`
	}{ds})
}
