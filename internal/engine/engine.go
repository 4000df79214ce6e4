// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/opsforge/internal/history"
	"github.com/jeranaias/opsforge/internal/logging"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/tools"
)

// =============================================================================
// LIFECYCLE EVENTS
// =============================================================================

// Task lifecycle event types recorded against the event sink.
const (
	EventTaskStart    = "TASK_START"
	EventTaskComplete = "TASK_COMPLETE"
	EventTaskError    = "TASK_ERROR"
)

// =============================================================================
// TASK RESULT
// =============================================================================

// TaskResult is the caller-facing outcome of one executed task.
type TaskResult struct {
	// Status is RunCompleted when every plan step was attempted.
	Status string `json:"status"`

	// Goal is the natural-language objective that was executed.
	Goal string `json:"goal"`

	// Plan is the plan generated for the goal.
	Plan *plan.Plan `json:"plan"`

	// Results holds one report per executed step, in order.
	Results []StepReport `json:"results"`

	// DurationSeconds is the wall-clock time spent planning and
	// executing.
	DurationSeconds float64 `json:"duration_seconds"`

	// Message is a human-readable completion summary.
	Message string `json:"message"`
}

// StepsCompleted counts the steps that finished with a success status.
func (t *TaskResult) StepsCompleted() int {
	n := 0
	for _, r := range t.Results {
		if r.Result.OK() {
			n++
		}
	}
	return n
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine turns goals into plans and drives them to completion,
// recording task lifecycle events along the way.
type Engine struct {
	planner *plan.Planner
	runner  *Runner
	steps   StepRunner
	history *history.History
	events  tools.EventRecorder
	log     *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlanner replaces the default keyword planner.
func WithPlanner(p *plan.Planner) Option {
	return func(e *Engine) { e.planner = p }
}

// WithStepRunner replaces the default step executor. This is the hook
// for wrapping step execution in retry or instrumentation decorators.
func WithStepRunner(steps StepRunner) Option {
	return func(e *Engine) { e.steps = steps }
}

// WithEventRecorder sets the sink for task lifecycle events. Without
// one, lifecycle events are skipped.
func WithEventRecorder(events tools.EventRecorder) Option {
	return func(e *Engine) { e.events = events }
}

// WithLogger sets the engine logger.
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine around an injected registry and history. The
// history receives every executed step outcome and backs Summary. A
// nil history gets a fresh log.
func New(registry *tools.Registry, hist *history.History, opts ...Option) *Engine {
	if hist == nil {
		hist = history.New()
	}
	e := &Engine{
		planner: plan.NewPlanner(nil),
		history: hist,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.steps == nil {
		e.steps = tools.NewExecutor(registry, hist, e.log)
	}
	e.runner = NewRunner(registry, e.steps, e.log)
	return e
}

// Plan generates the plan for a goal without executing it.
func (e *Engine) Plan(goal string) *plan.Plan {
	return e.planner.Plan(goal)
}

// ExecuteTask plans and executes a goal end to end.
//
// A TASK_START event is recorded before planning and a TASK_COMPLETE
// event after execution; a rejected plan records TASK_ERROR instead
// and returns the validation error. Event recording is best-effort
// and never affects the task outcome.
func (e *Engine) ExecuteTask(ctx context.Context, goal string) (*TaskResult, error) {
	start := time.Now()
	e.log.Info("starting task", "goal", goal)

	e.recordEvent(ctx, EventTaskStart, map[string]interface{}{
		"goal":      goal,
		"timestamp": start.UTC().Format(time.RFC3339Nano),
	})

	p := e.planner.Plan(goal)
	e.log.Info("plan created", "plan_id", p.ID, "steps", len(p.Steps))

	run, err := e.runner.Run(ctx, p)
	if err != nil {
		e.recordEvent(ctx, EventTaskError, map[string]interface{}{
			"goal":      goal,
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
		return nil, err
	}

	duration := time.Since(start)
	e.recordEvent(ctx, EventTaskComplete, map[string]interface{}{
		"goal":             goal,
		"duration_seconds": duration.Seconds(),
		"steps_completed":  len(run.Steps),
		"timestamp":        time.Now().UTC().Format(time.RFC3339Nano),
	})
	e.log.Info("task completed", "goal", goal,
		"steps", len(run.Steps), "duration", duration.String())

	return &TaskResult{
		Status:          run.Status,
		Goal:            goal,
		Plan:            p,
		Results:         run.Steps,
		DurationSeconds: duration.Seconds(),
		Message:         fmt.Sprintf("Successfully executed %d steps", len(run.Steps)),
	}, nil
}

// Summary aggregates the execution history.
func (e *Engine) Summary() history.Summary {
	return e.history.Summarize()
}

// History returns the execution history backing this engine.
func (e *Engine) History() *history.History {
	return e.history
}

// Runner returns the plan runner, mainly for validating externally
// supplied plans.
func (e *Engine) Runner() *Runner {
	return e.runner
}

// recordEvent writes a lifecycle event, logging and swallowing any
// sink failure.
func (e *Engine) recordEvent(ctx context.Context, eventType string, details map[string]interface{}) {
	if e.events == nil {
		return
	}
	if _, err := e.events.Record(ctx, eventType, details); err != nil {
		e.log.Warn("failed to record event", "event_type", eventType, "error", err.Error())
	}
}
