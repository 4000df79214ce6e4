// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/opsforge/internal/config"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/storage"
	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// STATUS COMMAND
// =============================================================================

// statusQueryTimeout bounds the store queries behind the status
// command so a wedged database cannot hang it.
const statusQueryTimeout = 5 * time.Second

// HandleStatus shows the engine, event store, run history, and
// artifact store at a glance.
//
// Usage:
//
//	opsforge status [--json]
func HandleStatus(args Args) error {
	s, err := buildStack(args)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := collectStatusData(s, args)
	if err != nil {
		return WrapError("status", err)
	}

	if args.JSON {
		NewSuccessResponse("status", data).Print()
		return nil
	}

	printStatus(data)
	return nil
}

// collectStatusData gathers everything the status command shows.
func collectStatusData(s *stack, args Args) (StatusData, error) {
	ctx, cancel := context.WithTimeout(context.Background(), statusQueryTimeout)
	defer cancel()

	data := StatusData{
		Version:     Version,
		Environment: s.cfg.Environment,
		ConfigPath:  describeConfigPath(args),
		Engine: EngineStatus{
			PlannerVersion:  plan.PlannerVersion,
			Tools:           s.registry.Names(),
			StepTimeoutSecs: s.cfg.Engine.StepTimeoutSecs,
		},
	}

	data.Events.Path = s.events.Path()
	total, err := s.events.Total(ctx)
	if err != nil {
		return data, fmt.Errorf("querying event store: %w", err)
	}
	data.Events.Total = total

	byType, err := s.events.CountByType(ctx)
	if err != nil {
		return data, fmt.Errorf("querying event types: %w", err)
	}
	data.Events.ByType = byType

	metas, err := s.runs.List()
	if err != nil {
		return data, fmt.Errorf("listing runs: %w", err)
	}
	data.Runs = summarizeRuns(metas)

	data.Artifacts.Root = s.store.Root()
	files, err := s.store.List()
	if err != nil {
		return data, fmt.Errorf("listing artifacts: %w", err)
	}
	data.Artifacts.Files = len(files)

	return data, nil
}

// describeConfigPath reports which config file is in effect.
func describeConfigPath(args Args) string {
	if args.ConfigPath != "" {
		return args.ConfigPath
	}
	if path, err := config.ConfigPathTOML(); err == nil {
		return path
	}
	return "defaults"
}

// summarizeRuns aggregates stored run metadata. List returns newest
// first, so the first entry is the latest run.
func summarizeRuns(metas []storage.RunMeta) RunsStatus {
	rs := RunsStatus{Total: len(metas)}

	for _, m := range metas {
		rs.StepsTotal += m.StepsTotal
		rs.StepsSucceeded += m.StepsSucceeded
	}
	if rs.StepsTotal > 0 {
		rs.SuccessRate = float64(rs.StepsSucceeded) / float64(rs.StepsTotal) * 100
	}
	if len(metas) > 0 {
		rs.LastRunAt = metas[0].CreatedAt.Format(time.RFC3339)
		rs.LastRunStatus = metas[0].Status
	}
	return rs
}

// printStatus renders the status sections for the terminal.
func printStatus(data StatusData) {
	line := func(label, value string) {
		fmt.Printf("  %s%s\n", LabelStyle.Render(label), value)
	}

	fmt.Println(TitleStyle.Render("opsforge status"))
	fmt.Println(RenderSeparator(41))

	fmt.Println(SectionStyle.Render("System"))
	line("Version:", data.Version)
	line("Environment:", data.Environment)
	line("Config:", data.ConfigPath)
	fmt.Println()

	fmt.Println(SectionStyle.Render("Engine"))
	line("Planner:", data.Engine.PlannerVersion)
	line("Tools:", fmt.Sprintf("%d registered", len(data.Engine.Tools)))
	line("", DimStyle.Render(strings.Join(data.Engine.Tools, ", ")))
	line("Step timeout:", util.IntToString(data.Engine.StepTimeoutSecs)+"s")
	fmt.Println()

	fmt.Println(SectionStyle.Render("Events"))
	line("Database:", data.Events.Path)
	line("Recorded:", util.IntToString(data.Events.Total))
	for _, tc := range topEventTypes(data.Events.ByType, 4) {
		line("", DimStyle.Render(tc))
	}
	fmt.Println()

	fmt.Println(SectionStyle.Render("Runs"))
	line("Stored:", util.IntToString(data.Runs.Total))
	if data.Runs.StepsTotal > 0 {
		line("Steps:", fmt.Sprintf("%d/%d succeeded (%.1f%%)",
			data.Runs.StepsSucceeded, data.Runs.StepsTotal, data.Runs.SuccessRate))
	}
	if data.Runs.LastRunAt != "" {
		last, err := time.Parse(time.RFC3339, data.Runs.LastRunAt)
		if err == nil {
			line("Last run:", fmt.Sprintf("%s (%s)", relativeTime(last),
				RenderStatus(data.Runs.LastRunStatus)))
		}
	}
	fmt.Println()

	fmt.Println(SectionStyle.Render("Artifacts"))
	line("Root:", data.Artifacts.Root)
	line("Files:", util.IntToString(data.Artifacts.Files))
	fmt.Println(RenderSeparator(41))
}

// topEventTypes renders the most frequent event types as "TYPE: n"
// lines, largest first.
func topEventTypes(byType map[string]int, limit int) []string {
	type typeCount struct {
		name  string
		count int
	}

	counts := make([]typeCount, 0, len(byType))
	for name, count := range byType {
		counts = append(counts, typeCount{name, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}
	lines := make([]string, len(counts))
	for i, tc := range counts {
		lines[i] = fmt.Sprintf("%s: %d", tc.name, tc.count)
	}
	return lines
}
