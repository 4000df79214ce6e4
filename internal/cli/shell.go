// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/opsforge/internal/config"
	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/storage"
	"github.com/jeranaias/opsforge/internal/tools"
	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// SHELL COMMAND
// =============================================================================

// shellHistoryFile sits next to the config in the opsforge directory.
const shellHistoryFile = "shell_history"

// HandleShell starts an interactive shell. Anything typed that is not
// a shell command executes as a goal, sharing one engine and history
// across the session.
//
// Usage:
//
//	opsforge shell
func HandleShell(args Args) error {
	if err := RequiresTTY("run the interactive shell"); err != nil {
		return err
	}

	s, err := buildStack(args)
	if err != nil {
		return err
	}
	defer s.Close()

	// Steps print as they complete, so the session engine wraps the
	// executor in a printing decorator instead of the progress view.
	eng := s.newEngine(engine.WithStepRunner(&printingRunner{inner: s.stepExecutor()}))

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(shellCompleter)

	histPath := shellHistoryPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer saveShellHistory(line, histPath)

	fmt.Println(TitleStyle.Render("opsforge shell"))
	fmt.Println(DimStyle.Render("Type a goal to execute it, 'help' for commands, 'exit' to quit."))
	fmt.Println()

	for {
		input, err := line.Prompt("opsforge> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println(DimStyle.Render("(interrupted, type 'exit' to quit)"))
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return WrapError("shell", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if quit := dispatchShellInput(s, eng, input); quit {
			return nil
		}
	}
}

// shellCompleter completes the leading shell command word.
func shellCompleter(line string) []string {
	if strings.Contains(line, " ") {
		return nil
	}
	words := []string{"help", "status", "plan ", "runs", "exit", "quit"}
	var out []string
	for _, w := range words {
		if strings.HasPrefix(w, strings.ToLower(line)) {
			out = append(out, w)
		}
	}
	return out
}

// dispatchShellInput handles one line of input. Returns true when the
// shell should exit.
func dispatchShellInput(s *stack, eng *engine.Engine, input string) bool {
	fields := strings.Fields(input)

	switch strings.ToLower(fields[0]) {
	case "exit", "quit":
		return true

	case "help":
		printShellHelp()

	case "status":
		printShellStatus(s, eng)

	case "plan":
		goal := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
		if goal == "" {
			fmt.Println(WarningStyle.Render("Usage: plan GOAL"))
			return false
		}
		p := eng.Plan(goal)
		if err := eng.Runner().Validate(p); err != nil {
			DisplayError(err)
			return false
		}
		printPlanTable(p)

	case "runs":
		printShellRuns(s)

	default:
		shellExecute(s, eng, input)
	}
	return false
}

// printShellHelp lists the shell commands.
func printShellHelp() {
	fmt.Println(SectionStyle.Render("Shell commands"))
	fmt.Println("  help        Show this help")
	fmt.Println("  status      Session and store status")
	fmt.Println("  plan GOAL   Preview the plan for a goal")
	fmt.Println("  runs        List recent stored runs")
	fmt.Println("  exit        Leave the shell")
	fmt.Println()
	fmt.Println(DimStyle.Render("Anything else executes as a goal."))
}

// printShellStatus shows session history plus store counters.
func printShellStatus(s *stack, eng *engine.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), statusQueryTimeout)
	defer cancel()

	summary := eng.Summary()
	fmt.Printf("  %s%d executions, %d successful, %d failed\n",
		LabelStyle.Render("This session:"),
		summary.TotalExecutions, summary.Successful, summary.Failed)

	if total, err := s.events.Total(ctx); err == nil {
		fmt.Printf("  %s%d recorded\n", LabelStyle.Render("Events:"), total)
	}
	if metas, err := s.runs.List(); err == nil {
		fmt.Printf("  %s%d stored\n", LabelStyle.Render("Runs:"), len(metas))
	}
	fmt.Printf("  %s%d registered\n", LabelStyle.Render("Tools:"), s.registry.Len())
}

// printShellRuns lists the five most recent stored runs.
func printShellRuns(s *stack) {
	metas, err := s.runs.List()
	if err != nil {
		DisplayError(err)
		return
	}
	if len(metas) == 0 {
		fmt.Println(DimStyle.Render("No stored runs yet."))
		return
	}
	if len(metas) > 5 {
		metas = metas[:5]
	}
	for _, m := range metas {
		fmt.Printf("  %s  %s  %s\n",
			m.ID, RenderStatus(m.Status), util.TruncateWidth(m.Goal, 50))
	}
}

// shellExecute runs input as a goal and stores the outcome.
func shellExecute(s *stack, eng *engine.Engine, goal string) {
	result, err := eng.ExecuteTask(context.Background(), goal)
	if err != nil {
		DisplayError(err)
		return
	}

	succeeded := result.StepsCompleted()
	total := len(result.Results)
	summary := fmt.Sprintf("Completed %d/%d steps in %s",
		succeeded, total, formatSeconds(result.DurationSeconds))
	if succeeded == total {
		fmt.Println(SuccessStyle.Render(summary))
	} else {
		fmt.Println(WarningStyle.Render(fmt.Sprintf("%s (%d failed)", summary, total-succeeded)))
	}

	if id, err := s.runs.Save(storage.NewStoredRun(result)); err == nil {
		fmt.Println(DimStyle.Render("Stored as " + id))
	} else {
		s.log.Warn("failed to store run", "error", err.Error())
	}
	fmt.Println()
}

// printingRunner decorates a step executor, printing each step outcome
// as it lands. Suits the shell, where bubbletea would fight liner for
// the terminal.
type printingRunner struct {
	inner engine.StepRunner
}

func (r *printingRunner) ExecuteStep(ctx context.Context, step plan.Step) tools.StepResult {
	start := time.Now()
	result := r.inner.ExecuteStep(ctx, step)

	detail := util.TruncateWidth(stepResultDetail(result), 50)
	fmt.Printf("  %s %-22s %s %s\n",
		stepSymbol(result.Status, ""),
		step.Tool,
		DimStyle.Render(formatSeconds(time.Since(start).Seconds())),
		DimStyle.Render(detail))
	return result
}

// =============================================================================
// SHELL HISTORY
// =============================================================================

// shellHistoryPath returns the history file path, or "" when the
// config directory is unavailable.
func shellHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, shellHistoryFile)
}

// saveShellHistory persists the session's input history.
func saveShellHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
