// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"

	"github.com/jeranaias/opsforge/internal/plan"
)

// NewDeployAgentTool returns the deploy_agent tool backed by the given
// job service.
//
// Arguments:
//   - agent_name: name of the agent to roll out (string)
//   - version: version to deploy (string)
//   - config: deployment configuration (object)
//
// Returns {status, deployment_id, agent_name, version, endpoint, timestamp}.
func NewDeployAgentTool(svc JobService) *Tool {
	return &Tool{
		Name:        plan.ToolDeployAgent,
		Description: "Deploy an agent version to the serving endpoint",
		Runner: RunnerFunc(func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			agentName, err := stringArg(args, "agent_name")
			if err != nil {
				return nil, err
			}
			version, err := stringArg(args, "version")
			if err != nil {
				return nil, err
			}
			config, err := objectArg(args, "config")
			if err != nil {
				return nil, err
			}
			return svc.Deploy(ctx, agentName, version, config)
		}),
	}
}
