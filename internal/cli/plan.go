// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// PLAN COMMAND
// =============================================================================

// HandlePlan previews and validates the plan for a goal without
// executing it.
//
// Usage:
//
//	opsforge plan "GOAL" [--full] [--json]
func HandlePlan(args Args) error {
	parser := NewArgParser(args.Rest)

	goal := strings.TrimSpace(parser.Rest(0))
	if goal == "" {
		return NewValidationError("goal",
			`provide a goal to plan, e.g. opsforge plan "train the fraud model"`)
	}

	s, err := buildStack(args)
	if err != nil {
		return err
	}
	defer s.Close()

	p := s.engine.Plan(goal)
	if err := s.engine.Runner().Validate(p); err != nil {
		return WrapError("plan", err)
	}

	if args.JSON {
		NewSuccessResponse("plan", PlanData{
			Goal:      goal,
			StepCount: len(p.Steps),
			Plan:      p,
		}).Print()
		return nil
	}

	fmt.Println(TitleStyle.Render("Plan: " + util.TruncateRunes(goal, 70)))
	fmt.Println(DimStyle.Render(fmt.Sprintf("ID: %s  estimated: %s", p.ID, p.EstimatedDuration())))
	fmt.Println()
	printPlanTable(p)

	if parser.Bool("full") || args.Verbose {
		fmt.Println()
		fmt.Println(RenderJSON(p))
	} else {
		fmt.Println()
		fmt.Println(DimStyle.Render(fmt.Sprintf("Run it: opsforge run %q", goal)))
	}
	return nil
}

// printPlanTable renders the plan's steps as an aligned table.
func printPlanTable(p *plan.Plan) {
	argsWidth := TerminalWidth() - 45
	if argsWidth < 20 {
		argsWidth = 20
	}

	table := NewTable("#", "TOOL", "AFTER", "TIMEOUT", "ARGS")
	for i, step := range p.Steps {
		table.AddRow(
			util.IntToString(i+1),
			step.Tool,
			renderDependsOn(step.DependsOn),
			step.Timeout.String(),
			util.TruncateWidth(compactResult(step.Args), argsWidth),
		)
	}
	fmt.Print(table.Render())
}

// renderDependsOn renders a step's dependencies as 1-based step
// numbers, matching the table's # column.
func renderDependsOn(deps []int) string {
	if len(deps) == 0 {
		return "-"
	}
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = util.IntToString(d + 1)
	}
	return strings.Join(parts, ",")
}
