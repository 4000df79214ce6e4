// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/opsforge/internal/history"
	"github.com/jeranaias/opsforge/internal/logging"
	"github.com/jeranaias/opsforge/internal/plan"
)

// =============================================================================
// STEP RESULT
// =============================================================================

// StepResult is the outcome of executing a single plan step.
type StepResult struct {
	// Status is history.StatusSuccess, StatusTimeout, or StatusError.
	Status string `json:"status"`

	// Tool is the registry name of the invoked tool.
	Tool string `json:"tool"`

	// Result is the tool's return value on success.
	Result map[string]interface{} `json:"result,omitempty"`

	// Error describes the failure when Status is not success.
	Error string `json:"error,omitempty"`
}

// OK reports whether the step succeeded.
func (r StepResult) OK() bool {
	return r.Status == history.StatusSuccess
}

// =============================================================================
// EXECUTOR
// =============================================================================

// Executor runs plan steps against a registry and records completed
// outcomes in the execution history.
type Executor struct {
	registry *Registry
	history  *history.History
	log      *logging.Logger
}

// NewExecutor creates a step executor. A nil history gets a fresh log;
// a nil logger discards output.
func NewExecutor(registry *Registry, hist *history.History, log *logging.Logger) *Executor {
	if hist == nil {
		hist = history.New()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Executor{
		registry: registry,
		history:  hist,
		log:      log,
	}
}

// History returns the execution history backing this executor.
func (e *Executor) History() *history.History {
	return e.history
}

// Registry returns the tool registry.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// ExecuteStep runs one step, bounded by the step's timeout (or the
// default when the step carries none).
//
// Completed executions are appended to the history as success or
// failed. A step that exceeds its timeout returns a timeout result and
// leaves no history record: the worker goroutine is abandoned and its
// eventual outcome discarded. The step's advisory retry_count is not
// consulted; re-running failed steps is left to callers.
func (e *Executor) ExecuteStep(ctx context.Context, step plan.Step) StepResult {
	tool, err := e.registry.Resolve(step.Tool)
	if err != nil {
		return StepResult{
			Status: history.StatusError,
			Tool:   step.Tool,
			Error:  err.Error(),
		}
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = plan.DefaultStepTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e.log.Debug("executing step", "tool", step.Tool, "timeout", timeout.String())
	start := time.Now()

	resultCh := make(chan map[string]interface{}, 1)
	errCh := make(chan error, 1)

	go func() {
		result, err := tool.Runner.Run(ctx, step.Args)
		if err != nil {
			errCh <- err
		} else {
			resultCh <- result
		}
	}()

	select {
	case result := <-resultCh:
		e.history.Append(history.Record{
			Tool:      step.Tool,
			Args:      step.Args,
			Result:    result,
			Status:    history.StatusSuccess,
			Timestamp: time.Now(),
		})
		e.log.Debug("step succeeded", "tool", step.Tool, "duration", time.Since(start).String())
		return StepResult{
			Status: history.StatusSuccess,
			Tool:   step.Tool,
			Result: result,
		}

	case err := <-errCh:
		e.history.Append(history.Record{
			Tool:      step.Tool,
			Args:      step.Args,
			Error:     err.Error(),
			Status:    history.StatusFailed,
			Timestamp: time.Now(),
		})
		e.log.Warn("step failed", "tool", step.Tool, "error", err.Error())
		return StepResult{
			Status: history.StatusError,
			Tool:   step.Tool,
			Error:  err.Error(),
		}

	case <-ctx.Done():
		e.log.Warn("step timed out", "tool", step.Tool, "timeout", timeout.String())
		return StepResult{
			Status: history.StatusTimeout,
			Tool:   step.Tool,
			Error:  fmt.Sprintf("Step timed out after %g seconds", timeout.Seconds()),
		}
	}
}
