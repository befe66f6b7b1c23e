// Package engine defines the seam between the pipeline and the
// external simulation engine. The core never integrates a model over
// time; it hands a BuildPlan to an Adapter implementation. The trace
// adapter included here replays a plan without an engine present, which
// is how the pipeline proves a plan is executable.
package engine

import (
	"context"
	"fmt"

	"github.com/reprosim/nrnexp/internal/plan"
)

// Adapter executes primitive build steps against a simulation engine.
// Execute calls the methods in plan order; implementations may assume a
// section has been created before any other step references it.
type Adapter interface {
	CreateSection(ctx context.Context, name string) error
	SetGeometry(ctx context.Context, section string, g plan.GeometrySpec) error
	Connect(ctx context.Context, child string, c plan.ConnectSpec) error
	InsertMechanism(ctx context.Context, section, mechanism string) error
	SetParameter(ctx context.Context, section string, p plan.ParameterSpec) error
	CreateStimulus(ctx context.Context, section string, s plan.StimulusSpec) error
	CreateRecorder(ctx context.Context, section string, r plan.RecorderSpec) error
}

// Execute dispatches every step of the plan to the adapter, in order.
// It stops at the first adapter error.
func Execute(ctx context.Context, p *plan.BuildPlan, a Adapter) error {
	for i, step := range p.Steps {
		var err error
		switch step.Kind {
		case plan.StepCreateSection:
			err = a.CreateSection(ctx, step.Section)
		case plan.StepSetGeometry:
			err = a.SetGeometry(ctx, step.Section, *step.Geometry)
		case plan.StepConnect:
			err = a.Connect(ctx, step.Section, *step.Connect)
		case plan.StepInsertMechanism:
			err = a.InsertMechanism(ctx, step.Section, step.Mechanism.Name)
		case plan.StepSetParameter:
			err = a.SetParameter(ctx, step.Section, *step.Parameter)
		case plan.StepCreateStimulus:
			err = a.CreateStimulus(ctx, step.Section, *step.Stimulus)
		case plan.StepCreateRecorder:
			err = a.CreateRecorder(ctx, step.Section, *step.Recorder)
		default:
			err = fmt.Errorf("unknown step kind %q", step.Kind)
		}
		if err != nil {
			return fmt.Errorf("step %d (%s %s): %w", i, step.Kind, step.Section, err)
		}
	}
	return nil
}
