// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/opsforge/internal/history"
	"github.com/jeranaias/opsforge/internal/logging"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/tools"
)

// =============================================================================
// ERRORS AND STATUS
// =============================================================================

// ErrInvalidDependency is returned when a step's depends_on references
// itself, a later step, or an index outside the plan.
var ErrInvalidDependency = errors.New("invalid dependency")

// Overall run status values.
const (
	// RunCompleted means every step in the plan was attempted,
	// regardless of individual step outcomes.
	RunCompleted = "completed"

	// RunFailedToStart means validation rejected the plan and no step
	// executed.
	RunFailedToStart = "failed-to-start"
)

// =============================================================================
// STEP RUNNER SEAM
// =============================================================================

// StepRunner executes a single plan step. *tools.Executor satisfies it;
// callers wanting retry semantics can wrap an executor in a retrying
// decorator and inject that instead. The Runner itself never retries.
type StepRunner interface {
	ExecuteStep(ctx context.Context, step plan.Step) tools.StepResult
}

// =============================================================================
// RUN RESULT
// =============================================================================

// StepReport pairs a step's tool name with its execution result.
type StepReport struct {
	Tool   string           `json:"tool"`
	Result tools.StepResult `json:"result"`
}

// RunResult is the outcome of running one plan.
type RunResult struct {
	// Status is RunCompleted when every step was attempted.
	Status string `json:"status"`

	// Steps holds one report per plan step, in execution order.
	Steps []StepReport `json:"steps"`
}

// Succeeded reports whether every step in the run completed with a
// success status.
func (r *RunResult) Succeeded() bool {
	if r.Status != RunCompleted {
		return false
	}
	for _, s := range r.Steps {
		if !s.Result.OK() {
			return false
		}
	}
	return true
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner validates plans and drives their steps through a StepRunner.
type Runner struct {
	registry *tools.Registry
	steps    StepRunner
	log      *logging.Logger
}

// NewRunner creates a plan runner. A nil logger discards output.
func NewRunner(registry *tools.Registry, steps StepRunner, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{
		registry: registry,
		steps:    steps,
		log:      log,
	}
}

// Validate checks that every step's tool is registered and that every
// dependency index references a strictly earlier step. A nil return
// means the plan may execute.
func (r *Runner) Validate(p *plan.Plan) error {
	for i, step := range p.Steps {
		if !r.registry.Has(step.Tool) {
			return fmt.Errorf("step %d: %w: %s", i, tools.ErrUnknownTool, step.Tool)
		}
		for _, dep := range step.DependsOn {
			if dep < 0 || dep >= i {
				return fmt.Errorf("step %d: %w: depends_on %d", i, ErrInvalidDependency, dep)
			}
		}
	}
	return nil
}

// Run validates the plan and executes its steps in array order. Array
// order is already a valid execution order because dependencies only
// point backward; no topological sort is performed.
//
// A rejected plan returns a nil result and the validation error with
// nothing executed. Once execution begins every step is attempted: a
// failed or timed-out step is reported and the run moves on. A failure
// of the event recording tool is additionally logged as a warning
// since lifecycle telemetry is never fatal to a plan.
func (r *Runner) Run(ctx context.Context, p *plan.Plan) (*RunResult, error) {
	if err := r.Validate(p); err != nil {
		r.log.Warn("plan rejected", "plan_id", p.ID, "error", err.Error())
		return nil, err
	}

	r.log.Info("executing plan", "plan_id", p.ID, "steps", len(p.Steps))

	reports := make([]StepReport, 0, len(p.Steps))
	for i, step := range p.Steps {
		result := r.steps.ExecuteStep(ctx, step)
		reports = append(reports, StepReport{Tool: step.Tool, Result: result})

		if result.Status == history.StatusError && step.Tool == plan.ToolRecordEvent {
			r.log.Warn("critical step failed, continuing anyway",
				"step", i, "tool", step.Tool, "error", result.Error)
		}
	}

	return &RunResult{Status: RunCompleted, Steps: reports}, nil
}
