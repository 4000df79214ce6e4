// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"

	"github.com/jeranaias/opsforge/internal/plan"
)

// NewRunJobTool returns the etl_run_job tool backed by the given job
// service.
//
// Arguments:
//   - payload: job configuration, echoed back in the result (object)
//
// Returns {status, job_id, echo, duration_ms, start_time, end_time}.
func NewRunJobTool(svc JobService) *Tool {
	return &Tool{
		Name:        plan.ToolRunJob,
		Description: "Run a pipeline job with the given payload",
		Runner: RunnerFunc(func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			payload, err := objectArg(args, "payload")
			if err != nil {
				return nil, err
			}
			return svc.RunJob(ctx, payload)
		}),
	}
}
