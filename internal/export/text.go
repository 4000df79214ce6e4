// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/opsforge/internal/storage"
)

// =============================================================================
// TEXT EXPORTER
// =============================================================================

// TextExporter exports run reports to plain text, one step per line.
// Suitable for logs, pipes, and terminals without markdown rendering.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new plain text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export renders a stored run to plain text format.
func (e *TextExporter) Export(run *storage.StoredRun) ([]byte, error) {
	// Validate run data
	if run == nil {
		return nil, fmt.Errorf("run is nil")
	}
	if run.CreatedAt.IsZero() {
		return nil, fmt.Errorf("run has invalid creation timestamp")
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run: %s\n", run.Goal))

	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("ID:       %s\n", run.ID))
		sb.WriteString(fmt.Sprintf("Status:   %s\n", run.Status))
		sb.WriteString(fmt.Sprintf("Created:  %s\n", formatTimestamp(run.CreatedAt)))
		sb.WriteString(fmt.Sprintf("Duration: %s\n", formatDuration(run.DurationSeconds)))
		sb.WriteString(fmt.Sprintf("Steps:    %d/%d succeeded\n", run.StepsSucceeded, run.StepsTotal))
	}

	sb.WriteString("\n")

	for i, report := range run.Results {
		sb.WriteString(fmt.Sprintf("  %2d. %-9s %s\n",
			i+1, statusLabel(report.Result.Status), report.Tool))
		if report.Result.Error != "" {
			sb.WriteString(fmt.Sprintf("      error: %s\n", report.Result.Error))
		}
	}

	if len(run.Results) == 0 {
		sb.WriteString("  (no steps were executed)\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}
