// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for opsforge.
//
// This package implements all CLI commands for the opsforge task engine,
// covering one-shot execution, planning, the interactive shell, the HTTP
// server, run history management, and diagnostics.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed global arguments (--json, --verbose, --quiet, --config)
//   - ArgParser: Per-command flag and positional argument parsing
//   - JSONResponse: Machine-readable envelope used by every --json command
//
// # Usage
//
// Parse and dispatch commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdRun:
//	    err = cli.HandleRun(args)
//	case cli.CmdPlan:
//	    err = cli.HandlePlan(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
// Core Commands:
//   - run: Plan and execute a goal end to end
//   - plan: Preview the plan for a goal without executing
//   - status: Engine, event store, and run history overview
//   - serve: HTTP API server with config hot-reload
//   - shell: Interactive REPL with line editing and completion
//
// Management Commands:
//   - runs: List, show, export, search, and delete stored runs
//   - test: Built-in self tests against live stores
//   - config: Show, get, set, and reset configuration
//   - doctor: Environment health checks with suggested fixes
//
// All commands support --json for machine-readable output. Interactive
// features (progress view, prompts, the shell) require a terminal and
// degrade to plain output when stdout is redirected.
package cli
