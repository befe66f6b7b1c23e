// Package plan assembles the ordered build plan for a validated
// experiment document. A BuildPlan is a value: the fully resolved
// sequence of primitive construction steps an external engine adapter
// executes, with no remaining references left to resolve. It is derived
// once and never modified.
package plan

// StepKind enumerates the primitive construction steps.
type StepKind string

// Step kinds, in the order they may legally appear for a given target.
const (
	StepCreateSection   StepKind = "create-section"
	StepSetGeometry     StepKind = "set-geometry"
	StepConnect         StepKind = "connect"
	StepInsertMechanism StepKind = "insert-mechanism"
	StepSetParameter    StepKind = "set-parameter"
	StepCreateStimulus  StepKind = "create-stimulus"
	StepCreateRecorder  StepKind = "create-recorder"
)

// Step is one primitive construction step. Exactly one of the payload
// fields is populated, matching Kind; Section names the target section
// for every kind.
type Step struct {
	Kind    StepKind `json:"kind" yaml:"kind"`
	Section string   `json:"section" yaml:"section"`

	Geometry  *GeometrySpec  `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	Connect   *ConnectSpec   `json:"connect,omitempty" yaml:"connect,omitempty"`
	Mechanism *MechanismSpec `json:"mechanism,omitempty" yaml:"mechanism,omitempty"`
	Parameter *ParameterSpec `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	Stimulus  *StimulusSpec  `json:"stimulus,omitempty" yaml:"stimulus,omitempty"`
	Recorder  *RecorderSpec  `json:"recorder,omitempty" yaml:"recorder,omitempty"`
}

// GeometrySpec carries the resolved geometry for a set-geometry step.
type GeometrySpec struct {
	L    float64 `json:"L" yaml:"L"`
	Diam float64 `json:"diam" yaml:"diam"`
	Nseg int     `json:"nseg" yaml:"nseg"`
}

// ConnectSpec attaches the step's section (the child) to its parent.
type ConnectSpec struct {
	Parent    string  `json:"parent" yaml:"parent"`
	ParentLoc float64 `json:"parent_loc" yaml:"parent_loc"`
	ChildLoc  float64 `json:"child_loc" yaml:"child_loc"`
}

// MechanismSpec names the mechanism for an insert-mechanism step.
type MechanismSpec struct {
	Name string `json:"name" yaml:"name"`
}

// ParameterSpec carries one resolved parameter write. Mechanism is
// empty for section-level parameters (Ra, cm).
type ParameterSpec struct {
	Mechanism string  `json:"mechanism,omitempty" yaml:"mechanism,omitempty"`
	Name      string  `json:"name" yaml:"name"`
	Value     float64 `json:"value" yaml:"value"`
}

// StimulusSpec carries a fully resolved current-clamp stimulus.
type StimulusSpec struct {
	Name        string  `json:"name" yaml:"name"`
	Type        string  `json:"type" yaml:"type"`
	Loc         float64 `json:"loc" yaml:"loc"`
	DelayMs     float64 `json:"delay_ms" yaml:"delay_ms"`
	DurationMs  float64 `json:"duration_ms" yaml:"duration_ms"`
	AmplitudeNA float64 `json:"amplitude_nA" yaml:"amplitude_nA"`
}

// RecorderSpec carries a fully resolved recording attachment.
type RecorderSpec struct {
	Name     string  `json:"name" yaml:"name"`
	Variable string  `json:"variable" yaml:"variable"`
	Loc      float64 `json:"loc" yaml:"loc"`
}
