// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/jeranaias/opsforge/internal/engine"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// Status represents the current state of a submitted task.
// Transitions: accepted -> running -> completed/failed, and canceled
// from any non-terminal state.
type Status string

const (
	// StatusAccepted means the task is waiting for a worker slot.
	StatusAccepted Status = "accepted"

	// StatusRunning means the task is currently executing.
	StatusRunning Status = "running"

	// StatusCompleted means execution finished and a result is stored.
	StatusCompleted Status = "completed"

	// StatusFailed means execution returned an error.
	StatusFailed Status = "failed"

	// StatusCanceled means the task was canceled before finishing.
	StatusCanceled Status = "canceled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// =============================================================================
// TASK
// =============================================================================

// Task is one asynchronously submitted goal execution.
type Task struct {
	// ID identifies the task in API responses.
	ID string `json:"task_id"`

	// Goal is the submitted objective.
	Goal string `json:"goal"`

	// Status is the task's current state.
	Status Status `json:"status"`

	// SubmittedAt is when the task was accepted.
	SubmittedAt time.Time `json:"submitted_at"`

	// StartedAt is when execution began.
	StartedAt time.Time `json:"started_at,omitzero"`

	// FinishedAt is when the task reached a terminal state.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Result holds the execution outcome once completed.
	Result *engine.TaskResult `json:"result,omitempty"`

	// Error describes the failure when Status is failed.
	Error string `json:"error,omitempty"`

	// cancel stops the running execution.
	cancel context.CancelFunc

	// mu protects concurrent access to the task.
	mu sync.RWMutex
}

// newTask creates an accepted task for a goal.
func newTask(id, goal string, now time.Time) *Task {
	return &Task{
		ID:          id,
		Goal:        goal,
		Status:      StatusAccepted,
		SubmittedAt: now,
	}
}

// GetStatus returns the current status.
func (t *Task) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// markStarted moves an accepted task to running. Returns false when
// the task was canceled before it could start.
func (t *Task) markStarted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status != StatusAccepted {
		return false
	}
	t.Status = StatusRunning
	t.StartedAt = time.Now()
	return true
}

// finish moves the task to a terminal state, storing the result or
// error. The first terminal transition wins; later calls are ignored,
// so a cancellation racing a completion keeps whichever landed first.
func (t *Task) finish(status Status, result *engine.TaskResult, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status.Terminal() {
		return false
	}
	t.Status = status
	t.Result = result
	if err != nil {
		t.Error = err.Error()
	}
	t.FinishedAt = time.Now()
	return true
}

// setCancelFunc stores the cancel function. Called once when execution
// begins.
func (t *Task) setCancelFunc(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
}

// Cancel cancels the task if it has not finished. Returns true when
// this call moved the task to canceled.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	cancel := t.cancel
	if t.Status.Terminal() {
		t.mu.Unlock()
		return false
	}
	t.Status = StatusCanceled
	t.FinishedAt = time.Now()
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

// Duration returns how long the task has been running, or took to run.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StartedAt.IsZero() {
		return 0
	}
	if t.FinishedAt.IsZero() {
		return time.Since(t.StartedAt)
	}
	return t.FinishedAt.Sub(t.StartedAt)
}

// Done reports whether the task reached a terminal state.
func (t *Task) Done() bool {
	return t.GetStatus().Terminal()
}

// Clone returns a read-only copy safe to hand to callers. The Result
// pointer is shared; results are never mutated after completion.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return &Task{
		ID:          t.ID,
		Goal:        t.Goal,
		Status:      t.Status,
		SubmittedAt: t.SubmittedAt,
		StartedAt:   t.StartedAt,
		FinishedAt:  t.FinishedAt,
		Result:      t.Result,
		Error:       t.Error,
	}
}
