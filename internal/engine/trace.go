package engine

import (
	"context"
	"fmt"

	"github.com/reprosim/nrnexp/internal/plan"
)

// TraceAdapter replays a plan into an in-memory model, enforcing the
// ordering guarantees the assembler promises: no step may reference a
// section before its creation step, and no section is created twice.
type TraceAdapter struct {
	// Applied lists every step applied, in order, rendered as
	// "kind section" strings.
	Applied []string

	sections map[string]bool
}

// NewTraceAdapter returns an empty trace adapter.
func NewTraceAdapter() *TraceAdapter {
	return &TraceAdapter{sections: make(map[string]bool)}
}

func (t *TraceAdapter) record(kind plan.StepKind, section string) {
	t.Applied = append(t.Applied, fmt.Sprintf("%s %s", kind, section))
}

func (t *TraceAdapter) requireSection(name string) error {
	if !t.sections[name] {
		return fmt.Errorf("section %q referenced before creation", name)
	}
	return nil
}

// CreateSection registers a new section.
func (t *TraceAdapter) CreateSection(_ context.Context, name string) error {
	if t.sections[name] {
		return fmt.Errorf("section %q created twice", name)
	}
	t.sections[name] = true
	t.record(plan.StepCreateSection, name)
	return nil
}

// SetGeometry applies geometry to an existing section.
func (t *TraceAdapter) SetGeometry(_ context.Context, section string, _ plan.GeometrySpec) error {
	if err := t.requireSection(section); err != nil {
		return err
	}
	t.record(plan.StepSetGeometry, section)
	return nil
}

// Connect attaches a child to its parent; both must exist.
func (t *TraceAdapter) Connect(_ context.Context, child string, c plan.ConnectSpec) error {
	if err := t.requireSection(child); err != nil {
		return err
	}
	if err := t.requireSection(c.Parent); err != nil {
		return err
	}
	t.record(plan.StepConnect, child)
	return nil
}

// InsertMechanism inserts a mechanism into an existing section.
func (t *TraceAdapter) InsertMechanism(_ context.Context, section, _ string) error {
	if err := t.requireSection(section); err != nil {
		return err
	}
	t.record(plan.StepInsertMechanism, section)
	return nil
}

// SetParameter writes a parameter on an existing section.
func (t *TraceAdapter) SetParameter(_ context.Context, section string, _ plan.ParameterSpec) error {
	if err := t.requireSection(section); err != nil {
		return err
	}
	t.record(plan.StepSetParameter, section)
	return nil
}

// CreateStimulus attaches a stimulus to an existing section.
func (t *TraceAdapter) CreateStimulus(_ context.Context, section string, _ plan.StimulusSpec) error {
	if err := t.requireSection(section); err != nil {
		return err
	}
	t.record(plan.StepCreateStimulus, section)
	return nil
}

// CreateRecorder attaches a recorder to an existing section.
func (t *TraceAdapter) CreateRecorder(_ context.Context, section string, _ plan.RecorderSpec) error {
	if err := t.requireSection(section); err != nil {
		return err
	}
	t.record(plan.StepCreateRecorder, section)
	return nil
}
