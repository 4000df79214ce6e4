// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/storage"
	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// RUN COMMAND
// =============================================================================

// HandleRun plans and executes a goal, storing the outcome in the run
// store.
//
// Usage:
//
//	opsforge run "GOAL" [--dry-run] [--no-save] [--json]
func HandleRun(args Args) error {
	parser := NewArgParser(args.Rest)

	goal := strings.TrimSpace(parser.Rest(0))
	if goal == "" {
		return NewValidationError("goal",
			`provide a goal to execute, e.g. opsforge run "ingest the daily orders data"`)
	}

	s, err := buildStack(args)
	if err != nil {
		return err
	}
	defer s.Close()

	if parser.Bool("dry-run") {
		return runDryRun(s, goal, args)
	}

	ctx := context.Background()

	var result *engine.TaskResult
	if !args.JSON && IsStdoutTTY() {
		result, err = runWithProgress(ctx, s, goal)
	} else {
		result, err = s.engine.ExecuteTask(ctx, goal)
	}
	if err != nil {
		return WrapError("run", err)
	}

	runID := ""
	if !parser.Bool("no-save") {
		id, saveErr := s.runs.Save(storage.NewStoredRun(result))
		if saveErr != nil {
			s.log.Warn("failed to store run", "error", saveErr.Error())
		} else {
			runID = id
		}
	}

	if args.JSON {
		NewSuccessResponse("run", runData(runID, result)).Print()
		return nil
	}

	printRunResult(runID, result)
	return nil
}

// runDryRun validates the plan for a goal without executing anything.
func runDryRun(s *stack, goal string, args Args) error {
	p := s.engine.Plan(goal)
	if err := s.engine.Runner().Validate(p); err != nil {
		return WrapError("run", err)
	}

	if args.JSON {
		NewSuccessResponse("run", RunData{
			Goal:       goal,
			Status:     "validated",
			DryRun:     true,
			StepsTotal: len(p.Steps),
			Plan:       p,
		}).Print()
		return nil
	}

	fmt.Println(TitleStyle.Render("Dry run: " + util.TruncateRunes(goal, 60)))
	fmt.Println()
	printPlanTable(p)
	fmt.Printf("\n%s %d steps validated, nothing executed\n",
		SuccessStyle.Render("[OK]"), len(p.Steps))
	return nil
}

// runData assembles the run command's JSON payload.
func runData(runID string, result *engine.TaskResult) RunData {
	return RunData{
		RunID:           runID,
		Goal:            result.Goal,
		Status:          result.Status,
		StepsTotal:      len(result.Results),
		StepsSucceeded:  result.StepsCompleted(),
		DurationSeconds: result.DurationSeconds,
		Results:         result.Results,
	}
}

// printRunResult renders the executed run as a step table plus a
// summary line.
func printRunResult(runID string, result *engine.TaskResult) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("Goal: " + util.TruncateRunes(result.Goal, 70)))
	fmt.Println()

	detailWidth := TerminalWidth() - 40
	if detailWidth < 20 {
		detailWidth = 20
	}

	table := NewTable("#", "TOOL", "STATUS", "DETAIL")
	for i, report := range result.Results {
		table.AddRow(
			util.IntToString(i+1),
			report.Tool,
			RenderStatus(report.Result.Status),
			util.TruncateWidth(stepResultDetail(report.Result), detailWidth),
		)
	}
	fmt.Print(table.Render())
	fmt.Println()

	succeeded := result.StepsCompleted()
	total := len(result.Results)
	summary := fmt.Sprintf("Completed %d/%d steps in %s",
		succeeded, total, formatSeconds(result.DurationSeconds))
	if succeeded == total {
		fmt.Println(SuccessStyle.Render(summary))
	} else {
		fmt.Println(WarningStyle.Render(
			fmt.Sprintf("%s (%d failed)", summary, total-succeeded)))
	}

	if runID != "" {
		fmt.Println(DimStyle.Render(
			fmt.Sprintf("Stored as %s (opsforge runs show %s)", runID, runID)))
	}
}
