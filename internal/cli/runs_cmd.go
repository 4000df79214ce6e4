// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/opsforge/internal/export"
	"github.com/jeranaias/opsforge/internal/storage"
	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// RUNS COMMAND
// =============================================================================

// HandleRuns manages the stored run history.
//
// Usage:
//
//	opsforge runs [list] [--limit N]
//	opsforge runs show ID
//	opsforge runs export ID [--format md|json|txt] [--output DIR]
//	opsforge runs search QUERY
//	opsforge runs delete ID [--confirm]
//	opsforge runs clear [--confirm]
//
// IDs may be given as run IDs or as 1-based list positions, so
// "opsforge runs show 1" shows the most recent run.
func HandleRuns(args Args) error {
	parser := NewArgParser(args.Rest)

	store, err := storage.NewRunStore()
	if err != nil {
		return WrapError("runs", err)
	}

	switch parser.Subcommand() {
	case "", "list":
		return runsList(store, parser, args)
	case "show":
		return runsShow(store, parser, args)
	case "export":
		return runsExport(store, parser, args)
	case "search":
		return runsSearch(store, parser, args)
	case "delete":
		return runsDelete(store, parser, args)
	case "clear":
		return runsClear(store, parser, args)
	default:
		return NewValidationError("subcommand", fmt.Sprintf(
			"unknown runs subcommand %q (expected list, show, export, search, delete, or clear)",
			parser.Subcommand()))
	}
}

// resolveRun loads a run by ID, or by 1-based list position when ref
// is a small number.
func resolveRun(store *storage.RunStore, ref string) (*storage.StoredRun, error) {
	if n, err := strconv.Atoi(ref); err == nil && n > 0 {
		return store.LoadByIndex(n - 1)
	}
	return store.Load(ref)
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func runsList(store *storage.RunStore, parser *ArgParser, args Args) error {
	metas, err := store.List()
	if err != nil {
		return WrapError("runs", err)
	}

	limit := 20
	if raw, ok := parser.Flag("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return NewValidationError("limit", "must be a positive number")
		}
		limit = n
	}
	if len(metas) > limit {
		metas = metas[:limit]
	}

	if args.JSON {
		NewSuccessResponse("runs", RunsListData{Runs: metas, Total: len(metas)}).Print()
		return nil
	}

	if len(metas) == 0 {
		fmt.Println(DimStyle.Render(`No stored runs yet. Execute one with: opsforge run "GOAL"`))
		return nil
	}

	printRunsTable(metas)
	return nil
}

func runsShow(store *storage.RunStore, parser *ArgParser, args Args) error {
	ref := parser.Arg(1)
	if ref == "" {
		return NewValidationError("id", "usage: opsforge runs show ID")
	}

	run, err := resolveRun(store, ref)
	if err != nil {
		return WrapError("runs", err)
	}

	if args.JSON {
		NewSuccessResponse("runs", run).Print()
		return nil
	}

	md, err := export.NewMarkdownExporter(export.DefaultOptions()).Export(run)
	if err != nil {
		return WrapError("runs", err)
	}
	fmt.Print(RenderMarkdown(string(md)))
	return nil
}

func runsExport(store *storage.RunStore, parser *ArgParser, args Args) error {
	ref := parser.Arg(1)
	if ref == "" {
		return NewValidationError("id", "usage: opsforge runs export ID [--format md|json|txt]")
	}

	run, err := resolveRun(store, ref)
	if err != nil {
		return WrapError("runs", err)
	}

	format := parser.FlagOr("format", "md")
	opts := export.DefaultOptions()
	opts.OutputDir = parser.FlagOr("output", ".")

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	path, err := export.ExportToFile(run, exporter, opts)
	if err != nil {
		return WrapError("runs", err)
	}

	if args.JSON {
		NewSuccessResponse("runs", map[string]string{
			"run_id": run.ID,
			"format": format,
			"path":   path,
		}).Print()
		return nil
	}

	fmt.Printf("%s Exported %s to %s\n", SuccessStyle.Render("[OK]"), run.ID, path)
	return nil
}

func runsSearch(store *storage.RunStore, parser *ArgParser, args Args) error {
	query := strings.TrimSpace(parser.Rest(1))
	if query == "" {
		return NewValidationError("query", "usage: opsforge runs search QUERY")
	}

	metas, err := store.Search(query)
	if err != nil {
		return WrapError("runs", err)
	}

	if args.JSON {
		NewSuccessResponse("runs", RunsListData{Runs: metas, Total: len(metas)}).Print()
		return nil
	}

	if len(metas) == 0 {
		fmt.Println(DimStyle.Render(fmt.Sprintf("No runs matching %q", query)))
		return nil
	}

	printRunsTable(metas)
	return nil
}

func runsDelete(store *storage.RunStore, parser *ArgParser, args Args) error {
	ref := parser.Arg(1)
	if ref == "" {
		return NewValidationError("id", "usage: opsforge runs delete ID [--confirm]")
	}

	run, err := resolveRun(store, ref)
	if err != nil {
		return WrapError("runs", err)
	}

	if !args.JSON && !confirmed(parser, fmt.Sprintf("Delete run %s?", run.ID)) {
		fmt.Println("Canceled.")
		return nil
	}
	if args.JSON && !parser.Bool("confirm") {
		return NewValidationError("confirm", "pass --confirm to delete in JSON mode")
	}

	if err := store.Delete(run.ID); err != nil {
		return WrapError("runs", err)
	}

	if args.JSON {
		NewSuccessResponse("runs", map[string]string{"deleted": run.ID}).Print()
		return nil
	}
	fmt.Printf("%s Deleted %s\n", SuccessStyle.Render("[OK]"), run.ID)
	return nil
}

func runsClear(store *storage.RunStore, parser *ArgParser, args Args) error {
	metas, err := store.List()
	if err != nil {
		return WrapError("runs", err)
	}
	if len(metas) == 0 {
		if args.JSON {
			NewSuccessResponse("runs", map[string]int{"deleted": 0}).Print()
		} else {
			fmt.Println(DimStyle.Render("No stored runs to clear."))
		}
		return nil
	}

	prompt := fmt.Sprintf("Delete all %d stored runs?", len(metas))
	if !args.JSON && !confirmed(parser, prompt) {
		fmt.Println("Canceled.")
		return nil
	}
	if args.JSON && !parser.Bool("confirm") {
		return NewValidationError("confirm", "pass --confirm to clear in JSON mode")
	}

	if err := store.Clear(); err != nil {
		return WrapError("runs", err)
	}

	if args.JSON {
		NewSuccessResponse("runs", map[string]int{"deleted": len(metas)}).Print()
		return nil
	}
	fmt.Printf("%s Deleted %d runs\n", SuccessStyle.Render("[OK]"), len(metas))
	return nil
}

// =============================================================================
// RENDERING
// =============================================================================

// printRunsTable renders run metadata as the standard list table.
func printRunsTable(metas []storage.RunMeta) {
	goalWidth := TerminalWidth() - 52
	if goalWidth < 20 {
		goalWidth = 20
	}

	table := NewTable("#", "ID", "WHEN", "STATUS", "STEPS", "GOAL")
	for i, m := range metas {
		table.AddRow(
			util.IntToString(i+1),
			m.ID,
			relativeTime(m.CreatedAt),
			RenderStatus(m.Status),
			fmt.Sprintf("%d/%d", m.StepsSucceeded, m.StepsTotal),
			util.TruncateWidth(m.Goal, goalWidth),
		)
	}
	fmt.Print(table.Render())
	fmt.Println(DimStyle.Render(fmt.Sprintf("%d runs (opsforge runs show ID for details)", len(metas))))
}
