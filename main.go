// opsforge - an autonomous task execution engine for ops workflows.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"github.com/jeranaias/opsforge/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdRun:
		err = cli.HandleRun(args)
	case cli.CmdPlan:
		err = cli.HandlePlan(args)
	case cli.CmdStatus:
		err = cli.HandleStatus(args)
	case cli.CmdServe:
		err = cli.HandleServe(args)
	case cli.CmdShell:
		err = cli.HandleShell(args)
	case cli.CmdRuns:
		err = cli.HandleRuns(args)
	case cli.CmdTest:
		err = cli.HandleTest(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdDoctor:
		err = cli.HandleDoctor(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	case cli.CmdHelp:
		err = cli.HandleHelp(args)
	case cli.CmdUnknown:
		err = cli.HandleUnknown(args)
	default:
		err = cli.HandleHelp(args)
	}

	if err != nil {
		cli.HandleErrorAndExit(cmd.String(), err, args.JSON)
	}
}
