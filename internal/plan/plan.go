// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"encoding/json"
	"time"
)

// =============================================================================
// TOOL NAMES
// =============================================================================

// Tool names the planner emits. Every step in a generated plan invokes
// one of these capabilities.
const (
	ToolRecordEvent   = "runs_record_event"
	ToolWriteArtifact = "artifacts_write_text"
	ToolRunJob        = "etl_run_job"
	ToolTrainModel    = "train_model"
	ToolDeployAgent   = "deploy_agent"
)

// Lifecycle event types recorded by generated plans.
const (
	EventPlan = "PLAN"
	EventDone = "DONE"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultStepTimeout bounds the execution of a single step.
	DefaultStepTimeout = 300 * time.Second

	// DefaultRetryCount is recorded on every generated step. The
	// executor itself never retries; the field is advisory for
	// wrappers that re-run failed steps.
	DefaultRetryCount = 3

	// PlannerVersion is stamped into plan metadata.
	PlannerVersion = "1.0.0"

	// stepEstimateSeconds is the per-step contribution to the coarse
	// duration estimate in plan metadata.
	stepEstimateSeconds = 5
)

// Metadata keys written by the planner.
const (
	MetaPlannerVersion    = "planner_version"
	MetaEstimatedDuration = "estimated_duration_seconds"
)

// =============================================================================
// STEP
// =============================================================================

// Step is a single tool invocation within a Plan.
type Step struct {
	// Tool is the registry name of the capability to invoke.
	Tool string `json:"tool"`

	// Args are the keyword arguments passed to the tool.
	Args map[string]interface{} `json:"args"`

	// DependsOn lists indices of steps that must run before this one.
	// Dependencies always point strictly backward in the plan.
	DependsOn []int `json:"depends_on"`

	// Timeout bounds the execution of this step.
	Timeout time.Duration `json:"timeout"`

	// RetryCount is the advisory retry budget for this step.
	RetryCount int `json:"retry_count"`
}

// stepJSON is the wire form of Step. Timeouts travel as whole seconds.
type stepJSON struct {
	Tool       string                 `json:"tool"`
	Args       map[string]interface{} `json:"args"`
	DependsOn  []int                  `json:"depends_on"`
	Timeout    int64                  `json:"timeout"`
	RetryCount int                    `json:"retry_count"`
}

// MarshalJSON encodes the step with its timeout in seconds.
func (s Step) MarshalJSON() ([]byte, error) {
	deps := s.DependsOn
	if deps == nil {
		deps = []int{}
	}
	return json.Marshal(stepJSON{
		Tool:       s.Tool,
		Args:       s.Args,
		DependsOn:  deps,
		Timeout:    int64(s.Timeout / time.Second),
		RetryCount: s.RetryCount,
	})
}

// UnmarshalJSON decodes a step, interpreting the timeout as seconds.
func (s *Step) UnmarshalJSON(data []byte) error {
	var w stepJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Tool = w.Tool
	s.Args = w.Args
	s.DependsOn = w.DependsOn
	s.Timeout = time.Duration(w.Timeout) * time.Second
	s.RetryCount = w.RetryCount
	return nil
}

// =============================================================================
// PLAN
// =============================================================================

// Plan is an ordered sequence of steps produced for a goal.
type Plan struct {
	// ID uniquely identifies the plan.
	ID string `json:"id"`

	// Goal is the natural-language objective the plan was built for.
	Goal string `json:"goal"`

	// Steps are executed in array order. Index 0 always records the
	// PLAN lifecycle event and the final step records DONE.
	Steps []Step `json:"steps"`

	// Metadata carries planner provenance such as the planner version
	// and a coarse duration estimate.
	Metadata map[string]interface{} `json:"metadata"`

	// CreatedAt is when the plan was generated.
	CreatedAt time.Time `json:"created_at"`
}

// EstimatedDuration returns the duration estimate recorded in the plan
// metadata, or zero when absent.
func (p *Plan) EstimatedDuration() time.Duration {
	switch n := p.Metadata[MetaEstimatedDuration].(type) {
	case int:
		return time.Duration(n) * time.Second
	case int64:
		return time.Duration(n) * time.Second
	case float64:
		return time.Duration(n) * time.Second
	default:
		return 0
	}
}
