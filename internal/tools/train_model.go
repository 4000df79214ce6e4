// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"

	"github.com/jeranaias/opsforge/internal/plan"
)

// NewTrainModelTool returns the train_model tool backed by the given
// job service.
//
// Arguments:
//   - model_name: name of the model to train (string)
//   - config: training configuration (object)
//
// Returns {status, job_id, model_name, config, estimated_duration_minutes, timestamp}.
func NewTrainModelTool(svc JobService) *Tool {
	return &Tool{
		Name:        plan.ToolTrainModel,
		Description: "Submit a model training job",
		Runner: RunnerFunc(func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			modelName, err := stringArg(args, "model_name")
			if err != nil {
				return nil, err
			}
			config, err := objectArg(args, "config")
			if err != nil {
				return nil, err
			}
			return svc.SubmitTraining(ctx, modelName, config)
		}),
	}
}
