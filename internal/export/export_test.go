// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/history"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/storage"
	"github.com/jeranaias/opsforge/internal/tools"
)

// sampleRun builds a stored run with one successful and one failed step.
func sampleRun() *storage.StoredRun {
	p := &plan.Plan{
		ID:   "plan_test",
		Goal: "Run the nightly ETL pipeline",
		Steps: []plan.Step{
			{Tool: plan.ToolRecordEvent, Args: map[string]interface{}{"event_type": plan.EventPlan}},
			{Tool: plan.ToolRunJob, Args: map[string]interface{}{"pipeline": "default"}},
		},
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	return &storage.StoredRun{
		ID:     "run_ab12cd34",
		Goal:   "Run the nightly ETL pipeline",
		Status: "completed",
		Plan:   p,
		Results: []engine.StepReport{
			{
				Tool: plan.ToolRecordEvent,
				Result: tools.StepResult{
					Status: history.StatusSuccess,
					Tool:   plan.ToolRecordEvent,
					Result: map[string]interface{}{"recorded": true},
				},
			},
			{
				Tool: plan.ToolRunJob,
				Result: tools.StepResult{
					Status: history.StatusError,
					Tool:   plan.ToolRunJob,
					Error:  "job exploded",
				},
			},
		},
		StepsTotal:      2,
		StepsSucceeded:  1,
		DurationSeconds: 1.25,
		CreatedAt:       time.Date(2026, 3, 14, 9, 30, 1, 0, time.UTC),
	}
}

// TestMarkdownExportIncludesRunInformation verifies the metadata header.
func TestMarkdownExportIncludesRunInformation(t *testing.T) {
	output, err := NewMarkdownExporter(nil).Export(sampleRun())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	result := string(output)
	for _, want := range []string{
		"# Run the nightly ETL pipeline",
		"- **Run ID**: run_ab12cd34",
		"- **Status**: completed",
		"- **Duration**: 1.25s",
		"- **Steps**: 1/2 succeeded",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

// TestMarkdownExportStepSections verifies per-step headings and outcomes.
func TestMarkdownExportStepSections(t *testing.T) {
	output, err := NewMarkdownExporter(nil).Export(sampleRun())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	result := string(output)
	if !strings.Contains(result, "### Step 1: `runs_record_event` [OK]") {
		t.Error("missing heading for successful step")
	}
	if !strings.Contains(result, "### Step 2: `etl_run_job` [FAIL]") {
		t.Error("missing heading for failed step")
	}
	if !strings.Contains(result, "job exploded") {
		t.Error("missing error detail for failed step")
	}
	if !strings.Contains(result, "\"recorded\": true") {
		t.Error("missing result payload for successful step")
	}
}

// TestMarkdownExportArgsRequirePlan verifies argument blocks come from the plan.
func TestMarkdownExportArgsRequirePlan(t *testing.T) {
	run := sampleRun()
	output, err := NewMarkdownExporter(nil).Export(run)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(string(output), "**Arguments**") {
		t.Error("expected argument blocks when the run carries its plan")
	}

	run.Plan = nil
	output, err = NewMarkdownExporter(nil).Export(run)
	if err != nil {
		t.Fatalf("Export without plan failed: %v", err)
	}
	if strings.Contains(string(output), "**Arguments**") {
		t.Error("argument blocks should be omitted when the plan is absent")
	}
}

// TestMarkdownYAMLNewlineEscaped verifies newlines cannot break the frontmatter.
func TestMarkdownYAMLNewlineEscaped(t *testing.T) {
	run := sampleRun()
	run.Goal = "Test\nInjection: malicious"

	output, err := NewMarkdownExporter(nil).Export(run)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	lines := strings.Split(string(output), "\n")
	for i, line := range lines {
		if i > 0 && i < 10 {
			if strings.HasPrefix(line, "Injection:") {
				t.Error("newline not escaped in goal frontmatter value")
			}
		}
	}
}

// TestMarkdownExportRejectsBadRuns verifies validation of the input record.
func TestMarkdownExportRejectsBadRuns(t *testing.T) {
	exporter := NewMarkdownExporter(nil)

	if _, err := exporter.Export(nil); err == nil {
		t.Error("expected error for nil run")
	}

	run := sampleRun()
	run.CreatedAt = time.Time{}
	if _, err := exporter.Export(run); err == nil {
		t.Error("expected error for zero creation timestamp")
	}
}

// TestJSONExportRoundTrip verifies the JSON export can be re-ingested.
func TestJSONExportRoundTrip(t *testing.T) {
	run := sampleRun()
	output, err := NewJSONExporter(nil).Export(run)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var decoded storage.StoredRun
	if err := json.Unmarshal(output, &decoded); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if decoded.ID != run.ID || decoded.Goal != run.Goal {
		t.Errorf("round trip lost identity: got %q/%q", decoded.ID, decoded.Goal)
	}
	if len(decoded.Results) != len(run.Results) {
		t.Errorf("round trip lost steps: got %d, want %d", len(decoded.Results), len(run.Results))
	}
}

// TestTextExportListsSteps verifies the plain text step listing.
func TestTextExportListsSteps(t *testing.T) {
	output, err := NewTextExporter(nil).Export(sampleRun())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	result := string(output)
	if !strings.Contains(result, "Run: Run the nightly ETL pipeline") {
		t.Error("missing run title line")
	}
	if !strings.Contains(result, "[OK]") || !strings.Contains(result, "[FAIL]") {
		t.Error("missing step status markers")
	}
	if !strings.Contains(result, "error: job exploded") {
		t.Error("missing error line for failed step")
	}
}

// TestExportToFileWritesNamedFile verifies file naming and on-disk content.
func TestExportToFileWritesNamedFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportToFile(sampleRun(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "run_Run_the_nightly_ETL_pipeline_") {
		t.Errorf("unexpected filename %q", name)
	}
	if !strings.HasSuffix(name, ".md") {
		t.Errorf("expected .md extension, got %q", name)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	if !strings.Contains(string(content), "# Run the nightly ETL pipeline") {
		t.Error("exported file missing report content")
	}
}

// TestForFormat verifies format name resolution.
func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"markdown", ".md"},
		{"md", ".md"},
		{"json", ".json"},
		{"text", ".txt"},
		{"txt", ".txt"},
	}

	for _, tt := range tests {
		exporter, err := ForFormat(tt.format, nil)
		if err != nil {
			t.Errorf("ForFormat(%q) failed: %v", tt.format, err)
			continue
		}
		if got := exporter.FileExtension(); got != tt.ext {
			t.Errorf("ForFormat(%q) extension = %q, want %q", tt.format, got, tt.ext)
		}
	}

	if _, err := ForFormat("xml", nil); err == nil {
		t.Error("expected error for unsupported format")
	}
}

// TestSanitizeFilename verifies problematic characters are replaced.
func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"has spaces here", "has_spaces_here"},
		{"path/to\\file", "path-to-file"},
		{"quo\"te<>|", "quo-te---"},
		{"", "run"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("a", 80)
	if got := sanitizeFilename(long); len(got) != 50 {
		t.Errorf("long name not truncated: got %d runes", len(got))
	}
}

// TestFormatDuration verifies duration rendering across magnitudes.
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0.25, "250ms"},
		{1.25, "1.25s"},
		{59.9, "59.90s"},
		{61, "1m 1s"},
		{150, "2m 30s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
