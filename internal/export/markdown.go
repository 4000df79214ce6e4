// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/storage"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports run reports to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders a stored run to Markdown format.
func (e *MarkdownExporter) Export(run *storage.StoredRun) ([]byte, error) {
	// Validate run data
	if run == nil {
		return nil, fmt.Errorf("run is nil")
	}
	if run.CreatedAt.IsZero() {
		return nil, fmt.Errorf("run has invalid creation timestamp")
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("goal: %s\n", escapeYAML(run.Goal)))
		sb.WriteString(fmt.Sprintf("run_id: %s\n", run.ID))
		sb.WriteString(fmt.Sprintf("status: %s\n", run.Status))
		sb.WriteString(fmt.Sprintf("date: %s\n", run.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("steps: %d\n", run.StepsTotal))
		sb.WriteString(fmt.Sprintf("succeeded: %d\n", run.StepsSucceeded))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: opsforge\n")
		sb.WriteString("---\n\n")
	}

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(run.Goal)))

	// Metadata section
	if e.options.IncludeMetadata {
		sb.WriteString("## Run Information\n\n")
		sb.WriteString(fmt.Sprintf("- **Run ID**: %s\n", run.ID))
		sb.WriteString(fmt.Sprintf("- **Status**: %s\n", run.Status))
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(run.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **Duration**: %s\n", formatDuration(run.DurationSeconds)))
		sb.WriteString(fmt.Sprintf("- **Steps**: %d/%d succeeded\n", run.StepsSucceeded, run.StepsTotal))
		sb.WriteString("\n---\n\n")
	}

	// Step reports
	sb.WriteString("## Steps\n\n")

	for i, report := range run.Results {
		sb.WriteString(fmt.Sprintf("### Step %d: `%s` %s\n\n",
			i+1, report.Tool, statusLabel(report.Result.Status)))

		if e.options.IncludeArgs {
			if step := planStep(run.Plan, i); step != nil && len(step.Args) > 0 {
				sb.WriteString(e.formatArgs(step))
			}
		}

		sb.WriteString(e.formatOutcome(&report))

		// Add separator between steps (except last)
		if i < len(run.Results)-1 {
			sb.WriteString("---\n\n")
		}
	}

	if len(run.Results) == 0 {
		sb.WriteString("*No steps were executed.*\n\n")
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from opsforge on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatArgs renders the planned arguments of a step as a fenced JSON block.
func (e *MarkdownExporter) formatArgs(step *plan.Step) string {
	data, err := json.MarshalIndent(step.Args, "", "  ")
	if err != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("**Arguments**:\n```json\n")
	sb.Write(data)
	sb.WriteString("\n```\n\n")
	return sb.String()
}

// formatOutcome renders the result or error of a step report.
func (e *MarkdownExporter) formatOutcome(report *engine.StepReport) string {
	var sb strings.Builder

	if report.Result.Error != "" {
		sb.WriteString("**Error**:\n```\n")
		sb.WriteString(report.Result.Error)
		sb.WriteString("\n```\n\n")
		return sb.String()
	}

	if len(report.Result.Result) > 0 {
		data, err := json.MarshalIndent(report.Result.Result, "", "  ")
		if err == nil {
			sb.WriteString("**Result**:\n```json\n")
			sb.Write(data)
			sb.WriteString("\n```\n\n")
		}
	}

	return sb.String()
}

// planStep returns the planned step at index i, or nil when the run record
// carries no plan or the index is out of range.
func planStep(p *plan.Plan, i int) *plan.Step {
	if p == nil || i < 0 || i >= len(p.Steps) {
		return nil
	}
	return &p.Steps[i]
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	// Quote if contains special characters (including backslash)
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		// Escape special characters including newlines and backslashes
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
