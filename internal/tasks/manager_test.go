// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeranaias/opsforge/internal/engine"
)

// stubExecutor returns canned results, optionally blocking until
// released or the context ends.
type stubExecutor struct {
	err     error
	release chan struct{}

	active  int32
	maxSeen int32
}

func (s *stubExecutor) ExecuteTask(ctx context.Context, goal string) (*engine.TaskResult, error) {
	cur := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)
	for {
		seen := atomic.LoadInt32(&s.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&s.maxSeen, seen, cur) {
			break
		}
	}

	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &engine.TaskResult{Status: engine.RunCompleted, Goal: goal}, nil
}

func waitDone(t *testing.T, m *Manager, id string) *Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if task, ok := m.Get(id); ok && task.Status.Terminal() {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	task, _ := m.Get(id)
	t.Fatalf("task %s never finished (last: %+v)", id, task)
	return nil
}

func waitRunning(t *testing.T, m *Manager, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if task, ok := m.Get(id); ok && task.Status == StatusRunning {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never started", id)
}

func TestSubmitAndComplete(t *testing.T) {
	m := NewManager(&stubExecutor{}, nil)
	defer m.Stop()

	task, err := m.Submit("Run ETL pipeline")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !strings.HasPrefix(task.ID, "task_") {
		t.Errorf("ID = %q, want task_ prefix", task.ID)
	}
	if task.Goal != "Run ETL pipeline" {
		t.Errorf("Goal = %q", task.Goal)
	}

	done := waitDone(t, m, task.ID)
	if done.Status != StatusCompleted {
		t.Errorf("Status = %s, want %s", done.Status, StatusCompleted)
	}
	if done.Result == nil || done.Result.Status != engine.RunCompleted {
		t.Errorf("Result = %+v, want completed run", done.Result)
	}
	if done.StartedAt.IsZero() || done.FinishedAt.IsZero() {
		t.Error("terminal task missing start or finish time")
	}
}

func TestSubmitAssignsUniqueIDs(t *testing.T) {
	m := NewManager(&stubExecutor{}, nil)
	defer m.Stop()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		task, err := m.Submit("goal")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if seen[task.ID] {
			t.Fatalf("duplicate task id %q", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestTaskFailure(t *testing.T) {
	m := NewManager(&stubExecutor{err: errors.New("engine broke")}, nil)
	defer m.Stop()

	task, err := m.Submit("goal")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	done := waitDone(t, m, task.ID)
	if done.Status != StatusFailed {
		t.Errorf("Status = %s, want %s", done.Status, StatusFailed)
	}
	if !strings.Contains(done.Error, "engine broke") {
		t.Errorf("Error = %q, want executor error", done.Error)
	}
	if done.Result != nil {
		t.Errorf("Result = %+v, want nil on failure", done.Result)
	}
}

func TestTaskTimeout(t *testing.T) {
	stub := &stubExecutor{release: make(chan struct{})}
	m := NewManager(stub, nil, WithTaskTimeout(20*time.Millisecond))
	defer m.Stop()

	task, err := m.Submit("goal")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	done := waitDone(t, m, task.ID)
	if done.Status != StatusFailed {
		t.Errorf("Status = %s, want %s", done.Status, StatusFailed)
	}
	if !strings.Contains(done.Error, "task timeout after") {
		t.Errorf("Error = %q, want timeout message", done.Error)
	}
}

func TestCancelRunningTask(t *testing.T) {
	stub := &stubExecutor{release: make(chan struct{})}
	m := NewManager(stub, nil)
	defer m.Stop()

	task, err := m.Submit("goal")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitRunning(t, m, task.ID)

	if !m.Cancel(task.ID) {
		t.Fatal("Cancel() = false for running task")
	}

	done := waitDone(t, m, task.ID)
	if done.Status != StatusCanceled {
		t.Errorf("Status = %s, want %s", done.Status, StatusCanceled)
	}

	// A second cancel is a no-op.
	if m.Cancel(task.ID) {
		t.Error("Cancel() = true for already canceled task")
	}
}

func TestCancelWaitingTask(t *testing.T) {
	stub := &stubExecutor{release: make(chan struct{})}
	m := NewManager(stub, nil, WithMaxConcurrent(1))
	defer m.Stop()

	first, err := m.Submit("first")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitRunning(t, m, first.ID)

	second, err := m.Submit("second")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// The second task is stuck behind the single worker slot.
	if !m.Cancel(second.ID) {
		t.Fatal("Cancel() = false for waiting task")
	}

	close(stub.release)

	if done := waitDone(t, m, first.ID); done.Status != StatusCompleted {
		t.Errorf("first task status = %s, want %s", done.Status, StatusCompleted)
	}
	done := waitDone(t, m, second.ID)
	if done.Status != StatusCanceled {
		t.Errorf("second task status = %s, want %s", done.Status, StatusCanceled)
	}
	if !done.StartedAt.IsZero() {
		t.Error("canceled waiting task should never start")
	}
}

func TestConcurrencyLimit(t *testing.T) {
	stub := &stubExecutor{release: make(chan struct{})}
	m := NewManager(stub, nil, WithMaxConcurrent(2))
	defer m.Stop()

	ids := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		task, err := m.Submit("goal")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		ids = append(ids, task.ID)
	}

	// Wait until both worker slots are busy.
	deadline := time.Now().Add(2 * time.Second)
	for m.Stats().Running < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("running = %d, want 2", m.Stats().Running)
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(stub.release)
	for _, id := range ids {
		waitDone(t, m, id)
	}

	if max := atomic.LoadInt32(&stub.maxSeen); max > 2 {
		t.Errorf("observed %d concurrent executions, want at most 2", max)
	}
	stats := m.Stats()
	if stats.Completed != 4 {
		t.Errorf("Stats = %+v, want 4 completed", stats)
	}
}

func TestHistoryTrim(t *testing.T) {
	m := NewManager(&stubExecutor{}, nil, WithMaxHistory(2))
	defer m.Stop()

	var last string
	for i := 0; i < 5; i++ {
		task, err := m.Submit("goal")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		waitDone(t, m, task.ID)
		last = task.ID
	}

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("List() kept %d tasks, want 2", len(list))
	}
	// Newest first, and the newest survives trimming.
	if list[0].ID != last {
		t.Errorf("List()[0].ID = %q, want newest %q", list[0].ID, last)
	}
	if _, ok := m.Get(last); !ok {
		t.Error("newest task missing after trim")
	}
}

func TestStopRejectsNewSubmissions(t *testing.T) {
	m := NewManager(&stubExecutor{}, nil)
	m.Stop()

	if _, err := m.Submit("goal"); !errors.Is(err, ErrStopped) {
		t.Errorf("Submit after Stop: error = %v, want ErrStopped", err)
	}
}

func TestGetUnknownTask(t *testing.T) {
	m := NewManager(&stubExecutor{}, nil)
	defer m.Stop()

	if _, ok := m.Get("task_0"); ok {
		t.Error("Get() = true for unknown task")
	}
	if m.Cancel("task_0") {
		t.Error("Cancel() = true for unknown task")
	}
}

func TestStatusTerminal(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusAccepted:  false,
		StatusRunning:   false,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCanceled:  true,
	} {
		if status.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, status.Terminal(), want)
		}
	}
}
