// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"time"

	"github.com/jeranaias/opsforge/internal/plan"
)

// NewWriteArtifactTool returns the artifacts_write_text tool backed by
// the given artifact store.
//
// Arguments:
//   - path: artifact location relative to the store root (string)
//   - content: text to write (string)
//
// Returns {status, uri, size_bytes, timestamp}.
func NewWriteArtifactTool(store ArtifactWriter) *Tool {
	return &Tool{
		Name:        plan.ToolWriteArtifact,
		Description: "Write a text artifact to the artifact store",
		Runner: RunnerFunc(func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			path, err := stringArg(args, "path")
			if err != nil {
				return nil, err
			}
			content, err := stringArg(args, "content")
			if err != nil {
				return nil, err
			}

			uri, err := store.WriteText(path, content)
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"status":     "success",
				"uri":        uri,
				"size_bytes": len(content),
				"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
			}, nil
		}),
	}
}
