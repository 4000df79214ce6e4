// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// =============================================================================
// BUILD METADATA
// =============================================================================

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/jeranaias/opsforge/internal/cli.Version=1.0.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies which subcommand was requested.
type Command int

const (
	// CmdHelp shows usage information.
	CmdHelp Command = iota

	// CmdRun plans and executes a goal.
	CmdRun

	// CmdPlan previews the plan for a goal without executing.
	CmdPlan

	// CmdStatus shows engine and store status.
	CmdStatus

	// CmdServe starts the HTTP API server.
	CmdServe

	// CmdShell starts the interactive shell.
	CmdShell

	// CmdRuns lists, inspects, and exports stored runs.
	CmdRuns

	// CmdTest runs the built-in self tests.
	CmdTest

	// CmdConfig shows or changes configuration.
	CmdConfig

	// CmdDoctor diagnoses common problems.
	CmdDoctor

	// CmdVersion shows version information.
	CmdVersion

	// CmdUnknown is an unrecognized command word.
	CmdUnknown
)

// String returns the canonical command word.
func (c Command) String() string {
	switch c {
	case CmdHelp:
		return "help"
	case CmdRun:
		return "run"
	case CmdPlan:
		return "plan"
	case CmdStatus:
		return "status"
	case CmdServe:
		return "serve"
	case CmdShell:
		return "shell"
	case CmdRuns:
		return "runs"
	case CmdTest:
		return "test"
	case CmdConfig:
		return "config"
	case CmdDoctor:
		return "doctor"
	case CmdVersion:
		return "version"
	default:
		return "unknown"
	}
}

// =============================================================================
// PARSED ARGUMENTS
// =============================================================================

// Args carries global flags plus the remaining arguments for the
// selected command.
type Args struct {
	// JSON requests machine-readable envelope output.
	JSON bool

	// Verbose enables debug logging.
	Verbose bool

	// Quiet limits logging to errors.
	Quiet bool

	// ConfigPath is an alternate config file from --config.
	ConfigPath string

	// Command is the raw command word as typed, for error messages.
	Command string

	// Rest is everything after the command word, in order.
	Rest []string
}

// =============================================================================
// PARSING
// =============================================================================

// Parse inspects os.Args and returns the requested command with its
// arguments. Global flags are recognized anywhere on the command line;
// everything else is passed through to the command in order.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

// parseArgs is Parse without the os.Args dependency, for tests.
func parseArgs(argv []string) (Command, Args) {
	var args Args
	var rest []string

	for i := 0; i < len(argv); i++ {
		switch arg := argv[i]; arg {
		case "--json":
			args.JSON = true
		case "--verbose", "-v":
			args.Verbose = true
		case "--quiet", "-q":
			args.Quiet = true
		case "--config":
			if i+1 < len(argv) {
				args.ConfigPath = argv[i+1]
				i++
			}
		default:
			if strings.HasPrefix(arg, "--config=") {
				args.ConfigPath = strings.TrimPrefix(arg, "--config=")
				continue
			}
			rest = append(rest, arg)
		}
	}

	if len(rest) == 0 {
		return CmdHelp, args
	}

	args.Command = rest[0]
	args.Rest = rest[1:]

	switch strings.ToLower(rest[0]) {
	case "run", "exec", "execute":
		return CmdRun, args
	case "plan", "preview":
		return CmdPlan, args
	case "status", "stat", "info":
		return CmdStatus, args
	case "serve", "server", "daemon":
		return CmdServe, args
	case "shell", "repl":
		return CmdShell, args
	case "runs", "history":
		return CmdRuns, args
	case "test", "selftest", "self-test":
		return CmdTest, args
	case "config", "cfg":
		return CmdConfig, args
	case "doctor", "diagnose", "diag":
		return CmdDoctor, args
	case "version", "ver", "--version", "-version":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		return CmdUnknown, args
	}
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `opsforge - rule-based ops automation agent

Usage:
  opsforge <command> [arguments]

Commands:
  run GOAL        Plan and execute a goal
  plan GOAL       Preview the plan for a goal without executing
  status          Show engine, event store, and run history status
  serve           Start the HTTP API server
  shell           Interactive shell for running goals
  runs            List, inspect, and export stored runs
  test            Run built-in self tests against the configured stores
  config          Show or change configuration
  doctor          Diagnose common problems
  version         Show version information
  help            Show this help

Run Flags:
  --dry-run       Validate the plan without executing
  --no-save       Do not record the run in the run store

Global Flags:
  --json          Machine-readable JSON output
  --verbose, -v   Debug logging
  --quiet, -q     Errors only
  --config PATH   Use an alternate config file

Examples:
  opsforge run "ingest the daily orders data and generate a report"
  opsforge plan "train the fraud model" --json
  opsforge runs export run_a1b2c3d4 --format md
  opsforge serve --addr 0.0.0.0:8000

Version: %s
`

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// HandleHelp handles the help command.
func HandleHelp(args Args) error {
	if args.JSON {
		NewSuccessResponse("help", map[string]interface{}{
			"commands": validCommands,
			"version":  Version,
		}).Print()
		return nil
	}
	PrintUsage()
	return nil
}

// HandleUnknown reports an unrecognized command, suggesting the
// closest valid one.
func HandleUnknown(args Args) error {
	msg := fmt.Sprintf("unknown command %q", args.Command)
	if suggestion := SuggestCommand(args.Command); suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return NewCommandError("opsforge", msg, ExitUsageError, nil)
}

// =============================================================================
// VERSION
// =============================================================================

// versionData collects build metadata for display.
func versionData() VersionData {
	return VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// HandleVersion handles the version command.
func HandleVersion(args Args) error {
	if args.JSON {
		NewSuccessResponse("version", versionData()).Print()
		return nil
	}

	v := versionData()
	fmt.Printf("opsforge %s\n", HighlightStyle.Render(v.Version))
	fmt.Printf("%s%s\n", LabelStyle.Render("Commit:"), v.GitCommit)
	fmt.Printf("%s%s\n", LabelStyle.Render("Built:"), v.BuildDate)
	fmt.Printf("%s%s\n", LabelStyle.Render("Go:"), v.GoVersion)
	fmt.Printf("%s%s\n", LabelStyle.Render("Platform:"), v.Platform)
	return nil
}
