// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// PLANNER
// =============================================================================

// Planner turns a goal into an executable Plan by instantiating the step
// template for the goal's workflow kind. Planning is pure: it touches no
// external system, and for a fixed clock the same goal always produces
// the same steps.
type Planner struct {
	// classifier selects the workflow template for a goal.
	classifier Classifier

	// now supplies timestamps for plan and artifact naming.
	now func() time.Time

	// stepTimeout bounds each planned step's execution.
	stepTimeout time.Duration

	// retryCount is the advisory retry budget stamped on each step.
	retryCount int
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithStepTimeout sets the timeout applied to each planned step.
// Non-positive values keep the default.
func WithStepTimeout(d time.Duration) PlannerOption {
	return func(p *Planner) {
		if d > 0 {
			p.stepTimeout = d
		}
	}
}

// WithRetryCount sets the advisory retry budget stamped on each planned
// step. Negative values keep the default.
func WithRetryCount(n int) PlannerOption {
	return func(p *Planner) {
		if n >= 0 {
			p.retryCount = n
		}
	}
}

// NewPlanner creates a planner backed by the given classifier. A nil
// classifier falls back to the built-in keyword classifier.
func NewPlanner(classifier Classifier, opts ...PlannerOption) *Planner {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	p := &Planner{
		classifier:  classifier,
		now:         time.Now,
		stepTimeout: DefaultStepTimeout,
		retryCount:  DefaultRetryCount,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan builds the plan for goal. The returned plan always opens with a
// PLAN lifecycle record and closes with a DONE record; domain steps sit
// between the two and chain linearly via depends_on.
func (p *Planner) Plan(goal string) *Plan {
	now := p.now()

	steps := []Step{p.recordStep(EventPlan, goal, nil)}
	steps = p.appendDomainSteps(steps, goal, now)

	done := p.recordStep(EventDone, goal, nil)
	if len(steps) > 1 {
		done.DependsOn = []int{len(steps) - 1}
	}
	steps = append(steps, done)

	return &Plan{
		ID:    uuid.New().String(),
		Goal:  goal,
		Steps: steps,
		Metadata: map[string]interface{}{
			MetaPlannerVersion:    PlannerVersion,
			MetaEstimatedDuration: len(steps) * stepEstimateSeconds,
		},
		CreatedAt: now,
	}
}

// appendDomainSteps instantiates the workflow template for goal and
// appends its steps, each chained onto the step before it.
func (p *Planner) appendDomainSteps(steps []Step, goal string, now time.Time) []Step {
	ts := now.Unix()

	switch p.classifier.Classify(goal) {
	case WorkflowETL:
		steps = append(steps, p.domainStep(ToolRunJob, map[string]interface{}{
			"payload": map[string]interface{}{"goal": goal, "pipeline": "default"},
		}, len(steps)-1))
		steps = append(steps, p.domainStep(ToolWriteArtifact, map[string]interface{}{
			"path":    fmt.Sprintf("etl/results/%d.json", ts),
			"content": etlResultContent(goal),
		}, len(steps)-1))

	case WorkflowTraining:
		steps = append(steps, p.domainStep(ToolTrainModel, map[string]interface{}{
			"model_name": "orchestrator-model",
			"config":     map[string]interface{}{"epochs": 10, "batch_size": 32},
		}, len(steps)-1))
		steps = append(steps, p.domainStep(ToolWriteArtifact, map[string]interface{}{
			"path":    fmt.Sprintf("training/logs/%d.txt", ts),
			"content": "Training initiated for goal: " + goal,
		}, len(steps)-1))

	case WorkflowDeployment:
		steps = append(steps, p.domainStep(ToolDeployAgent, map[string]interface{}{
			"agent_name": "orchestrator-nova",
			"version":    "v1.0.0",
			"config":     map[string]interface{}{"replicas": 1, "memory": "2Gi"},
		}, len(steps)-1))

	default:
		steps = append(steps, p.domainStep(ToolRunJob, map[string]interface{}{
			"payload": map[string]interface{}{"goal": goal, "type": "generic"},
		}, len(steps)-1))
		steps = append(steps, p.domainStep(ToolWriteArtifact, map[string]interface{}{
			"path":    fmt.Sprintf("runs/%d.txt", ts),
			"content": fmt.Sprintf("Goal: %s\nStatus: Processing", goal),
		}, len(steps)-1))
	}

	return steps
}

// recordStep builds a lifecycle event step.
func (p *Planner) recordStep(eventType, goal string, dependsOn []int) Step {
	if dependsOn == nil {
		dependsOn = []int{}
	}
	return Step{
		Tool: ToolRecordEvent,
		Args: map[string]interface{}{
			"event_type": eventType,
			"details":    map[string]interface{}{"goal": goal},
		},
		DependsOn:  dependsOn,
		Timeout:    p.stepTimeout,
		RetryCount: p.retryCount,
	}
}

// domainStep builds a workflow step depending on the step at index dep.
func (p *Planner) domainStep(tool string, args map[string]interface{}, dep int) Step {
	return Step{
		Tool:       tool,
		Args:       args,
		DependsOn:  []int{dep},
		Timeout:    p.stepTimeout,
		RetryCount: p.retryCount,
	}
}

// etlResultContent renders the JSON body written by the ETL template's
// artifact step.
func etlResultContent(goal string) string {
	body, _ := json.Marshal(map[string]string{"goal": goal, "status": "completed"})
	return string(body)
}
