// Package document defines the typed semantic model of an experiment
// document, plus loading and decoding from YAML. A Document is only
// constructed from a tree that already passed schema validation; it is
// treated as immutable once cross-reference validation accepts it.
package document

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Document is the root of the semantic model.
type Document struct {
	Metadata    Metadata    `yaml:"metadata" json:"metadata"`
	Environment Environment `yaml:"environment" json:"environment"`
	Model       Model       `yaml:"model" json:"model"`
	Stimuli     []Stimulus  `yaml:"stimuli" json:"stimuli"`
	Recordings  []Recording `yaml:"recordings" json:"recordings"`
	Simulation  Simulation  `yaml:"simulation" json:"simulation"`
	Outputs     Outputs     `yaml:"outputs" json:"outputs"`
}

// UnmarshalYAML pre-fills defaults for sub-documents that may be
// omitted entirely; a present key re-decodes over them.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	type raw Document
	r := raw{
		Metadata:    Metadata{Version: "1.0.0"},
		Environment: Environment{TemperatureCelsius: 36.0},
		Simulation:  Simulation{DtMs: 0.025},
		Outputs:     Outputs{Directory: "results", SaveTraces: SaveTraces{Format: TraceFormatCSV}},
	}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*d = Document(r)
	return nil
}

// Metadata identifies the experiment.
type Metadata struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Version     string `yaml:"version" json:"version"`
}

// UnmarshalYAML applies the default version.
func (m *Metadata) UnmarshalYAML(value *yaml.Node) error {
	type raw Metadata
	r := raw{Version: "1.0.0"}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*m = Metadata(r)
	return nil
}

// Environment holds global simulation environment settings.
type Environment struct {
	TemperatureCelsius float64  `yaml:"temperature_celsius" json:"temperature_celsius"`
	RandomSeed         *int64   `yaml:"random_seed" json:"random_seed,omitempty"`
	Mechanisms         []string `yaml:"mechanisms" json:"mechanisms,omitempty"`
}

// UnmarshalYAML applies the default temperature.
func (e *Environment) UnmarshalYAML(value *yaml.Node) error {
	type raw Environment
	r := raw{TemperatureCelsius: 36.0}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*e = Environment(r)
	return nil
}

// Model groups the morphology and per-section biophysics.
type Model struct {
	Morphology Morphology            `yaml:"morphology" json:"morphology"`
	Biophysics map[string]Biophysics `yaml:"biophysics" json:"biophysics,omitempty"`
}

// Morphology type values.
const (
	MorphologySingleCompartment = "single_compartment"
	MorphologyMultiSection      = "multi_section"
)

// Morphology declares the anatomical sections and how they connect.
type Morphology struct {
	Type        string             `yaml:"type" json:"type"`
	Sections    map[string]Section `yaml:"sections" json:"sections"`
	Connections []Connection       `yaml:"connections" json:"connections,omitempty"`
}

// Section is a cylindrical compartment.
type Section struct {
	L    float64 `yaml:"L" json:"L"`
	Diam float64 `yaml:"diam" json:"diam"`
	Nseg int     `yaml:"nseg" json:"nseg"`
}

// UnmarshalYAML applies the default segment count.
func (s *Section) UnmarshalYAML(value *yaml.Node) error {
	type raw Section
	r := raw{Nseg: 1}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*s = Section(r)
	return nil
}

// Connection is a directed parent-to-child attachment between sections.
type Connection struct {
	Parent    string  `yaml:"parent" json:"parent"`
	Child     string  `yaml:"child" json:"child"`
	ParentLoc float64 `yaml:"parent_loc" json:"parent_loc"`
	ChildLoc  float64 `yaml:"child_loc" json:"child_loc"`
}

// UnmarshalYAML applies the default attachment locations: distal end of
// the parent, proximal end of the child.
func (c *Connection) UnmarshalYAML(value *yaml.Node) error {
	type raw Connection
	r := raw{ParentLoc: 1.0, ChildLoc: 0.0}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*c = Connection(r)
	return nil
}

// Biophysics holds per-section passive properties and mechanism settings.
type Biophysics struct {
	Ra         float64                       `yaml:"Ra" json:"Ra"`
	Cm         float64                       `yaml:"cm" json:"cm"`
	Mechanisms map[string]map[string]float64 `yaml:"mechanisms" json:"mechanisms,omitempty"`
}

// UnmarshalYAML applies the default axial resistance and capacitance.
func (b *Biophysics) UnmarshalYAML(value *yaml.Node) error {
	type raw Biophysics
	r := raw{Ra: 100.0, Cm: 1.0}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*b = Biophysics(r)
	return nil
}

// Stimulus is a current injection at a location on a section.
type Stimulus struct {
	Name        string  `yaml:"name" json:"name"`
	Type        string  `yaml:"type" json:"type"`
	Section     string  `yaml:"section" json:"section"`
	Loc         float64 `yaml:"loc" json:"loc"`
	DelayMs     float64 `yaml:"delay_ms" json:"delay_ms"`
	DurationMs  float64 `yaml:"duration_ms" json:"duration_ms"`
	AmplitudeNA float64 `yaml:"amplitude_nA" json:"amplitude_nA"`
}

// UnmarshalYAML applies the default type and midpoint location.
func (s *Stimulus) UnmarshalYAML(value *yaml.Node) error {
	type raw Stimulus
	r := raw{Type: "IClamp", Loc: 0.5}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*s = Stimulus(r)
	return nil
}

// Recording variable enumeration: membrane voltage and membrane
// current are always recordable; any other variable must be explicitly
// allowed by the document's environment.mechanisms declarations.
const (
	VariableVoltage = "v"
	VariableCurrent = "i"
)

// Recording declares a sample point captured over simulated time.
type Recording struct {
	Name     string  `yaml:"name" json:"name"`
	Variable string  `yaml:"variable" json:"variable"`
	Section  string  `yaml:"section" json:"section"`
	Loc      float64 `yaml:"loc" json:"loc"`
}

// UnmarshalYAML applies the default midpoint location.
func (r *Recording) UnmarshalYAML(value *yaml.Node) error {
	type raw Recording
	rr := raw{Loc: 0.5}
	if err := value.Decode(&rr); err != nil {
		return err
	}
	*r = Recording(rr)
	return nil
}

// Simulation holds user-declared integration timing. The pipeline
// passes these through; it never chooses step sizes itself.
type Simulation struct {
	TstopMs float64 `yaml:"tstop_ms" json:"tstop_ms"`
	DtMs    float64 `yaml:"dt_ms" json:"dt_ms"`
}

// UnmarshalYAML applies the default time step.
func (s *Simulation) UnmarshalYAML(value *yaml.Node) error {
	type raw Simulation
	r := raw{DtMs: 0.025}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*s = Simulation(r)
	return nil
}

// TraceFormatCSV is the only built-in trace export format.
const TraceFormatCSV = "csv"

// SaveTraces configures trace export.
type SaveTraces struct {
	Format string `yaml:"format" json:"format"`
}

// UnmarshalYAML applies the default export format.
func (s *SaveTraces) UnmarshalYAML(value *yaml.Node) error {
	type raw SaveTraces
	r := raw{Format: TraceFormatCSV}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*s = SaveTraces(r)
	return nil
}

// Plot configures optional plotting of recorded variables.
type Plot struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Variables []string `yaml:"variables" json:"variables"`
	SaveAs    string   `yaml:"save_as" json:"save_as"`
}

// UnmarshalYAML applies the plot defaults.
func (p *Plot) UnmarshalYAML(value *yaml.Node) error {
	type raw Plot
	r := raw{Enabled: true, SaveAs: "voltage.png"}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*p = Plot(r)
	return nil
}

// Outputs configures where and how artifacts are written.
type Outputs struct {
	Directory  string     `yaml:"directory" json:"directory"`
	SaveTraces SaveTraces `yaml:"save_traces" json:"save_traces"`
	Plot       *Plot      `yaml:"plot" json:"plot,omitempty"`
}

// UnmarshalYAML applies the default output directory.
func (o *Outputs) UnmarshalYAML(value *yaml.Node) error {
	type raw Outputs
	r := raw{Directory: "results", SaveTraces: SaveTraces{Format: TraceFormatCSV}}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*o = Outputs(r)
	return nil
}

// SectionNames returns the declared section names in sorted order.
func (m Morphology) SectionNames() []string {
	names := make([]string, 0, len(m.Sections))
	for name := range m.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
