// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package jobs simulates the execution backends behind the pipeline,
// training, and deployment tools. Each method stands in for a real
// submission to an external system and returns the handle a caller
// would use to track it.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/opsforge/internal/logging"
)

// DefaultETLDelay is how long a simulated pipeline run takes.
const DefaultETLDelay = 1 * time.Second

// Service simulates job submission backends.
type Service struct {
	etlDelay time.Duration
	now      func() time.Time
	log      *logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithETLDelay overrides the simulated pipeline duration.
func WithETLDelay(d time.Duration) Option {
	return func(s *Service) {
		s.etlDelay = d
	}
}

// NewService creates a job service. A nil logger discards output.
func NewService(log *logging.Logger, opts ...Option) *Service {
	if log == nil {
		log = logging.Nop()
	}
	s := &Service{
		etlDelay: DefaultETLDelay,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunJob executes a simulated pipeline run and echoes the payload back
// with timing information. The run respects context cancellation.
func (s *Service) RunJob(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	start := s.now().UTC()
	jobID := fmt.Sprintf("etl_%d", start.Unix())

	s.log.Info("starting etl job", "job_id", jobID)

	select {
	case <-time.After(s.etlDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	end := s.now().UTC()
	s.log.Info("etl job completed", "job_id", jobID, "duration_ms", end.Sub(start).Milliseconds())

	return map[string]interface{}{
		"status":      "success",
		"job_id":      jobID,
		"echo":        payload,
		"duration_ms": end.Sub(start).Milliseconds(),
		"start_time":  start.Format(time.RFC3339Nano),
		"end_time":    end.Format(time.RFC3339Nano),
	}, nil
}

// SubmitTraining registers a simulated training job and returns its
// handle.
func (s *Service) SubmitTraining(ctx context.Context, modelName string, config map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jobID := fmt.Sprintf("train_%s_%d", modelName, s.now().Unix())
	s.log.Info("submitting training job", "job_id", jobID, "model_name", modelName)

	return map[string]interface{}{
		"status":                     "submitted",
		"job_id":                     jobID,
		"model_name":                 modelName,
		"config":                     config,
		"estimated_duration_minutes": 30,
		"timestamp":                  s.now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// Deploy registers a simulated agent deployment and returns its handle
// and endpoint.
func (s *Service) Deploy(ctx context.Context, agentName, version string, config map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deploymentID := fmt.Sprintf("deploy_%s_%s_%d", agentName, version, s.now().Unix())
	s.log.Info("deploying agent", "deployment_id", deploymentID, "agent_name", agentName, "version", version)

	return map[string]interface{}{
		"status":        "deployed",
		"deployment_id": deploymentID,
		"agent_name":    agentName,
		"version":       version,
		"endpoint":      fmt.Sprintf("https://agents.opsforge.dev/v1/%s/%s", agentName, deploymentID),
		"timestamp":     s.now().UTC().Format(time.RFC3339Nano),
	}, nil
}
