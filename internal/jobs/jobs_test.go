// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package jobs

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunJobEchoesPayload(t *testing.T) {
	svc := NewService(nil, WithETLDelay(0))
	payload := map[string]interface{}{"goal": "run etl", "pipeline": "default"}

	result, err := svc.RunJob(context.Background(), payload)
	if err != nil {
		t.Fatalf("RunJob: %v", err)
	}

	if result["status"] != "success" {
		t.Errorf("status = %v", result["status"])
	}
	jobID, _ := result["job_id"].(string)
	if !strings.HasPrefix(jobID, "etl_") {
		t.Errorf("job_id = %q, want etl_ prefix", jobID)
	}
	echo, ok := result["echo"].(map[string]interface{})
	if !ok || echo["pipeline"] != "default" {
		t.Errorf("echo = %v", result["echo"])
	}
	if _, ok := result["duration_ms"].(int64); !ok {
		t.Errorf("duration_ms = %T, want int64", result["duration_ms"])
	}
}

func TestRunJobHonorsCancellation(t *testing.T) {
	svc := NewService(nil, WithETLDelay(10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		_, err := svc.RunJob(ctx, nil)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("RunJob should fail on canceled context")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunJob did not return after cancellation")
	}
}

func TestSubmitTraining(t *testing.T) {
	svc := NewService(nil)

	result, err := svc.SubmitTraining(context.Background(), "orchestrator-model", map[string]interface{}{"epochs": 10})
	if err != nil {
		t.Fatalf("SubmitTraining: %v", err)
	}

	if result["status"] != "submitted" {
		t.Errorf("status = %v", result["status"])
	}
	jobID, _ := result["job_id"].(string)
	if !strings.HasPrefix(jobID, "train_orchestrator-model_") {
		t.Errorf("job_id = %q", jobID)
	}
	if result["estimated_duration_minutes"] != 30 {
		t.Errorf("estimated_duration_minutes = %v", result["estimated_duration_minutes"])
	}
	if result["model_name"] != "orchestrator-model" {
		t.Errorf("model_name = %v", result["model_name"])
	}
}

func TestDeploy(t *testing.T) {
	svc := NewService(nil)

	result, err := svc.Deploy(context.Background(), "orchestrator-nova", "v1.0.0", map[string]interface{}{"replicas": 1})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	if result["status"] != "deployed" {
		t.Errorf("status = %v", result["status"])
	}
	depID, _ := result["deployment_id"].(string)
	if !strings.HasPrefix(depID, "deploy_orchestrator-nova_v1.0.0_") {
		t.Errorf("deployment_id = %q", depID)
	}
	endpoint, _ := result["endpoint"].(string)
	if !strings.Contains(endpoint, "orchestrator-nova") || !strings.Contains(endpoint, depID) {
		t.Errorf("endpoint = %q", endpoint)
	}
}
