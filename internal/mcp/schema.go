package mcp

import (
	"time"

	"github.com/reprosim/nrnexp/internal/diag"
)

// ValidateInput defines the input for the validate_experiment tool.
type ValidateInput struct {
	Path   string `json:"path" jsonschema:"Path to the experiment YAML document (relative to project root)"`
	Strict bool   `json:"strict,omitempty" jsonschema:"Treat advisory diagnostics as fatal (default: false)"`
}

// ValidateOutput defines the output for the validate_experiment tool.
type ValidateOutput struct {
	Valid       bool              `json:"valid" jsonschema:"Whether the document has zero fatal diagnostics"`
	Fatal       int               `json:"fatal" jsonschema:"Number of fatal diagnostics"`
	Advisory    int               `json:"advisory" jsonschema:"Number of advisory diagnostics"`
	Diagnostics []diag.Diagnostic `json:"diagnostics" jsonschema:"Every diagnostic found, in stage order"`
	Message     string            `json:"message" jsonschema:"Human-readable result summary"`
}

// BuildInput defines the input for the build_experiment tool.
type BuildInput struct {
	Path   string `json:"path" jsonschema:"Path to the experiment YAML document (relative to project root)"`
	Strict bool   `json:"strict,omitempty" jsonschema:"Treat advisory diagnostics as fatal (default: false)"`
}

// BuildOutput defines the output for the build_experiment tool.
type BuildOutput struct {
	Valid       bool              `json:"valid" jsonschema:"Whether a plan was assembled"`
	Fingerprint string            `json:"fingerprint,omitempty" jsonschema:"SHA-256 fingerprint of the assembled plan"`
	StepCount   int               `json:"step_count,omitempty" jsonschema:"Number of steps in the assembled plan"`
	Plan        string            `json:"plan,omitempty" jsonschema:"The assembled build plan as indented JSON"`
	Diagnostics []diag.Diagnostic `json:"diagnostics" jsonschema:"Every diagnostic found, in stage order"`
	Message     string            `json:"message" jsonschema:"Human-readable result summary"`
}

// HistoryInput defines the input for the experiment_history tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs to return (default: 20)"`
}

// HistoryOutput defines the output for the experiment_history tool.
type HistoryOutput struct {
	Runs  []RunListItem `json:"runs" jsonschema:"Recorded runs, newest first"`
	Count int           `json:"count" jsonschema:"Number of runs returned"`
}

// RunListItem provides a list view of a recorded run.
type RunListItem struct {
	ID              string    `json:"id"`
	Operation       string    `json:"operation"`
	Document        string    `json:"document"`
	DocumentHash    string    `json:"document_hash"`
	Outcome         string    `json:"outcome"`
	FatalCount      int       `json:"fatal_count"`
	AdvisoryCount   int       `json:"advisory_count"`
	PlanFingerprint string    `json:"plan_fingerprint,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
