// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine sequences plan execution and tracks task lifecycles.
//
// The package has two layers. Runner validates a plan (every tool
// registered, every dependency pointing strictly backward) and then
// executes its steps in array order, collecting one report per step.
// Step failures do not halt the run; every step is attempted and the
// caller receives the full report sequence.
//
// Engine wraps a Runner with goal-to-plan translation and records
// TASK_START, TASK_COMPLETE, and TASK_ERROR lifecycle events against
// an event sink. Lifecycle recording is best-effort: a failing sink is
// logged and never aborts the task.
//
// # Key Types
//
//   - Runner: validates and executes plans step by step
//   - StepRunner: the step execution seam, satisfied by tools.Executor
//   - RunResult: overall status plus ordered per-step reports
//   - Engine: goal in, executed task out
//   - TaskResult: the caller-facing outcome of one task
//
// # Usage
//
//	registry := tools.NewDefaultRegistry(events, store, svc)
//	eng := engine.New(registry, history.New(), engine.WithLogger(log))
//	result, err := eng.ExecuteTask(ctx, "Run ETL pipeline for sales data")
package engine
