// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/storage"
)

// =============================================================================
// JSON RESPONSE ENVELOPE
// =============================================================================

// JSONResponse is the envelope every command emits in --json mode, so
// scripts can parse output uniformly regardless of command.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Command   string      `json:"command"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewSuccessResponse creates a success envelope for a command.
func NewSuccessResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Command:   command,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewErrorResponse creates a failure envelope for a command.
func NewErrorResponse(command string, err error) *JSONResponse {
	return &JSONResponse{
		Success:   false,
		Command:   command,
		Error:     err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Print writes the response to stdout as indented JSON.
func (r *JSONResponse) Print() {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON response: %v\n", err)
	}
}

// String returns the response as an indented JSON string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"encoding failed: %v"}`, err)
	}
	return string(data)
}

// =============================================================================
// COMMAND DATA PAYLOADS
// =============================================================================

// VersionData is the payload for version --json.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// RunData is the payload for run --json.
type RunData struct {
	RunID           string              `json:"run_id,omitempty"`
	Goal            string              `json:"goal"`
	Status          string              `json:"status"`
	DryRun          bool                `json:"dry_run,omitempty"`
	StepsTotal      int                 `json:"steps_total"`
	StepsSucceeded  int                 `json:"steps_succeeded"`
	DurationSeconds float64             `json:"duration_seconds"`
	Plan            *plan.Plan          `json:"plan,omitempty"`
	Results         []engine.StepReport `json:"results,omitempty"`
}

// PlanData is the payload for plan --json.
type PlanData struct {
	Goal      string     `json:"goal"`
	StepCount int        `json:"step_count"`
	Plan      *plan.Plan `json:"plan"`
}

// StatusData is the payload for status --json.
type StatusData struct {
	Version     string         `json:"version"`
	Environment string         `json:"environment"`
	ConfigPath  string         `json:"config_path"`
	Engine      EngineStatus   `json:"engine"`
	Events      EventsStatus   `json:"events"`
	Runs        RunsStatus     `json:"runs"`
	Artifacts   ArtifactStatus `json:"artifacts"`
}

// EngineStatus describes the planner and tool registry.
type EngineStatus struct {
	PlannerVersion  string   `json:"planner_version"`
	Tools           []string `json:"tools"`
	StepTimeoutSecs int      `json:"step_timeout_secs"`
}

// EventsStatus describes the event store.
type EventsStatus struct {
	Path   string         `json:"path"`
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type,omitempty"`
}

// RunsStatus summarizes the stored run history.
type RunsStatus struct {
	Total          int     `json:"total"`
	StepsTotal     int     `json:"steps_total"`
	StepsSucceeded int     `json:"steps_succeeded"`
	SuccessRate    float64 `json:"success_rate"`
	LastRunAt      string  `json:"last_run_at,omitempty"`
	LastRunStatus  string  `json:"last_run_status,omitempty"`
}

// ArtifactStatus describes the artifact store.
type ArtifactStatus struct {
	Root  string `json:"root"`
	Files int    `json:"files"`
}

// RunsListData is the payload for runs list --json.
type RunsListData struct {
	Runs  []storage.RunMeta `json:"runs"`
	Total int               `json:"total"`
}

// DoctorCheck is one health check result in doctor --json output.
type DoctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// DoctorSummary aggregates doctor check results.
type DoctorSummary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Failed   int `json:"failed"`
}

// DoctorData is the payload for doctor --json.
type DoctorData struct {
	Checks  []DoctorCheck `json:"checks"`
	Summary DoctorSummary `json:"summary"`
}
