// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"time"

	"github.com/jeranaias/opsforge/internal/plan"
)

// NewRecordEventTool returns the runs_record_event tool backed by the
// given event log.
//
// Arguments:
//   - event_type: lifecycle marker such as PLAN or DONE (string)
//   - details: free-form payload attached to the event (object)
//
// Returns {status, run_event_id, timestamp}.
func NewRecordEventTool(events EventRecorder) *Tool {
	return &Tool{
		Name:        plan.ToolRecordEvent,
		Description: "Record a lifecycle event in the run event log",
		Runner: RunnerFunc(func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			eventType, err := stringArg(args, "event_type")
			if err != nil {
				return nil, err
			}
			details, err := objectArg(args, "details")
			if err != nil {
				return nil, err
			}

			id, err := events.Record(ctx, eventType, details)
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"status":       "success",
				"run_event_id": id,
				"timestamp":    time.Now().UTC().Format(time.RFC3339Nano),
			}, nil
		}),
	}
}
