// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/logging"
)

// =============================================================================
// EXECUTOR SEAM
// =============================================================================

// Executor runs one goal to completion. *engine.Engine satisfies it.
type Executor interface {
	ExecuteTask(ctx context.Context, goal string) (*engine.TaskResult, error)
}

// =============================================================================
// MANAGER
// =============================================================================

const (
	// DefaultMaxConcurrent bounds simultaneously executing tasks.
	DefaultMaxConcurrent = 5

	// DefaultTaskTimeout bounds one task end to end.
	DefaultTaskTimeout = 30 * time.Minute

	// DefaultMaxHistory is how many finished tasks are kept for status
	// queries before the oldest are dropped.
	DefaultMaxHistory = 100
)

// ErrStopped is returned by Submit after the manager has been stopped.
var ErrStopped = errors.New("task manager stopped")

// Manager accepts goals for background execution, bounding concurrency
// with a semaphore and trimming finished tasks beyond the history cap.
type Manager struct {
	executor Executor
	log      *logging.Logger

	maxConcurrent int
	taskTimeout   time.Duration
	maxHistory    int

	semaphore chan struct{}
	wg        sync.WaitGroup
	stop      chan struct{}
	stopped   atomic.Bool

	// mu protects tasks and order.
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxConcurrent sets how many tasks may execute at once.
func WithMaxConcurrent(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxConcurrent = n
		}
	}
}

// WithTaskTimeout bounds each task's execution. Zero disables the
// timeout.
func WithTaskTimeout(d time.Duration) Option {
	return func(m *Manager) { m.taskTimeout = d }
}

// WithMaxHistory sets how many finished tasks to retain. Zero retains
// everything.
func WithMaxHistory(n int) Option {
	return func(m *Manager) { m.maxHistory = n }
}

// NewManager creates a task manager executing goals through executor.
// A nil logger discards output.
func NewManager(executor Executor, log *logging.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	m := &Manager{
		executor:      executor,
		log:           log,
		maxConcurrent: DefaultMaxConcurrent,
		taskTimeout:   DefaultTaskTimeout,
		maxHistory:    DefaultMaxHistory,
		stop:          make(chan struct{}),
		tasks:         make(map[string]*Task),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.semaphore = make(chan struct{}, m.maxConcurrent)
	return m
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit accepts a goal for background execution and returns a
// snapshot of the accepted task. The returned task's ID is stable for
// later Get and Cancel calls.
func (m *Manager) Submit(goal string) (*Task, error) {
	if m.stopped.Load() {
		return nil, ErrStopped
	}

	m.mu.Lock()
	now := time.Now()
	task := newTask(m.uniqueIDLocked(now), goal, now)
	m.tasks[task.ID] = task
	m.order = append(m.order, task.ID)
	m.mu.Unlock()

	m.log.Info("task accepted", "task_id", task.ID, "goal", goal)

	m.wg.Add(1)
	go m.run(task)

	return task.Clone(), nil
}

// uniqueIDLocked derives a task id from the submission time, bumping a
// suffix when several tasks land in the same second. Must be called
// with mu held.
func (m *Manager) uniqueIDLocked(now time.Time) string {
	id := fmt.Sprintf("task_%d", now.Unix())
	if _, taken := m.tasks[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", id, n)
		if _, taken := m.tasks[candidate]; !taken {
			return candidate
		}
	}
}

// run drives one task through the semaphore and the executor.
func (m *Manager) run(task *Task) {
	defer m.wg.Done()

	select {
	case m.semaphore <- struct{}{}:
	case <-m.stop:
		task.finish(StatusCanceled, nil, nil)
		return
	}
	defer func() { <-m.semaphore }()

	if m.stopped.Load() {
		task.finish(StatusCanceled, nil, nil)
		return
	}

	// Canceled while waiting for a slot.
	if !task.markStarted() {
		return
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if m.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.taskTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	task.setCancelFunc(cancel)
	defer cancel()

	m.log.Info("task started", "task_id", task.ID, "goal", task.Goal)

	result, err := m.executor.ExecuteTask(ctx, task.Goal)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("task timeout after %v: %w", m.taskTimeout, err)
		}
		if task.finish(StatusFailed, nil, err) {
			m.log.Warn("task failed", "task_id", task.ID, "error", err.Error())
		}
	} else {
		if task.finish(StatusCompleted, result, nil) {
			m.log.Info("task completed", "task_id", task.ID,
				"status", result.Status, "duration", task.Duration().String())
		}
	}

	m.trim()
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns a snapshot of the task with the given id.
func (m *Manager) Get(id string) (*Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, false
	}
	return task.Clone(), true
}

// List returns snapshots of all tracked tasks, newest first.
func (m *Manager) List() []*Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Task, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if task, ok := m.tasks[m.order[i]]; ok {
			result = append(result, task.Clone())
		}
	}
	return result
}

// Cancel cancels the task with the given id. Returns false when the
// task is unknown or already finished.
func (m *Manager) Cancel(id string) bool {
	m.mu.RLock()
	task, ok := m.tasks[id]
	m.mu.RUnlock()

	if !ok {
		return false
	}
	if task.Cancel() {
		m.log.Info("task canceled", "task_id", id)
		return true
	}
	return false
}

// Stats summarizes tracked tasks by status.
type Stats struct {
	Total     int `json:"total"`
	Accepted  int `json:"accepted"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Canceled  int `json:"canceled"`
}

// Stats counts tracked tasks by status.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Stats
	for _, task := range m.tasks {
		s.Total++
		switch task.GetStatus() {
		case StatusAccepted:
			s.Accepted++
		case StatusRunning:
			s.Running++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		case StatusCanceled:
			s.Canceled++
		}
	}
	return s
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Stop rejects new submissions and waits for in-flight tasks to
// finish. Tasks still waiting for a worker slot are canceled.
func (m *Manager) Stop() {
	if m.stopped.Swap(true) {
		return
	}
	close(m.stop)
	m.wg.Wait()
}

// trim drops the oldest finished tasks beyond the history cap. Running
// and accepted tasks are never dropped.
func (m *Manager) trim() {
	if m.maxHistory <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	finished := 0
	for _, id := range m.order {
		if m.tasks[id].Done() {
			finished++
		}
	}

	toDrop := finished - m.maxHistory
	if toDrop <= 0 {
		return
	}

	kept := make([]string, 0, len(m.order)-toDrop)
	for _, id := range m.order {
		if toDrop > 0 && m.tasks[id].Done() {
			delete(m.tasks, id)
			toDrop--
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}
