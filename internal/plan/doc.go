// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plan turns natural-language goals into executable plans.
//
// A goal is classified into a workflow kind by keyword matching, then
// expanded into an ordered list of tool steps. Every plan opens with a
// step that records a PLAN lifecycle event and closes with a DONE
// record, so executed plans leave an audit trail even when no domain
// step succeeds.
//
// # Key Types
//
//   - Plan: ordered steps plus planner metadata for one goal
//   - Step: single tool invocation with dependencies and timeout
//   - Classifier: maps a goal to a workflow kind
//   - Planner: instantiates the step template for a goal
//
// # Usage
//
//	planner := plan.NewPlanner(plan.NewKeywordClassifier())
//	p := planner.Plan("run the nightly ETL pipeline")
//	for i, step := range p.Steps {
//	    fmt.Printf("%d: %s\n", i, step.Tool)
//	}
//
// Plans are inert data: execution, validation, and history live in the
// engine and tools packages.
package plan
