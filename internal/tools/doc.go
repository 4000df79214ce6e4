// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the orchestrator's tool system: the registry
// of invokable capabilities and the executor that runs plan steps
// against it.
//
// Five capabilities are built in:
//
//   - runs_record_event: append a lifecycle event to the event log
//   - artifacts_write_text: store a text artifact
//   - etl_run_job: run a (simulated) pipeline job
//   - train_model: submit a (simulated) training job
//   - deploy_agent: roll out a (simulated) agent deployment
//
// Tools receive keyword arguments as a map and return a JSON-shaped
// result map. The executor bounds every invocation with the step's
// timeout and appends completed outcomes to the execution history;
// timed-out steps are abandoned and never recorded.
//
// # Usage
//
//	registry := tools.NewDefaultRegistry(eventStore, artifactStore, jobService)
//	executor := tools.NewExecutor(registry, hist, log)
//	result := executor.ExecuteStep(ctx, step)
package tools
