// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/opsforge/internal/artifacts"
	"github.com/jeranaias/opsforge/internal/config"
	"github.com/jeranaias/opsforge/internal/events"
	"github.com/jeranaias/opsforge/internal/storage"
)

// =============================================================================
// DOCTOR COMMAND
// =============================================================================

// CheckStatus is the outcome of one health check.
type CheckStatus int

const (
	// CheckOK means the check passed.
	CheckOK CheckStatus = iota

	// CheckWarn means the check found something degraded but workable.
	CheckWarn

	// CheckFail means the check found a real problem.
	CheckFail
)

// Symbol returns the terminal marker for the status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckOK:
		return SuccessStyle.Render("[OK]")
	case CheckWarn:
		return WarningStyle.Render("[!!]")
	default:
		return ErrorStyle.Render("[FAIL]")
	}
}

// String returns the wire form of the status.
func (s CheckStatus) String() string {
	switch s {
	case CheckOK:
		return "ok"
	case CheckWarn:
		return "warning"
	default:
		return "failed"
	}
}

// HealthCheck is one diagnostic result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string
}

// HandleDoctor diagnoses the local deployment: config, directories,
// stores, and the server address.
//
// Usage:
//
//	opsforge doctor [--json]
func HandleDoctor(args Args) error {
	checks := runHealthChecks(args)

	failed, warned := 0, 0
	for _, c := range checks {
		switch c.Status {
		case CheckFail:
			failed++
		case CheckWarn:
			warned++
		}
	}

	if args.JSON {
		data := DoctorData{
			Summary: DoctorSummary{
				Total:    len(checks),
				Passed:   len(checks) - failed - warned,
				Warnings: warned,
				Failed:   failed,
			},
		}
		for _, c := range checks {
			data.Checks = append(data.Checks, DoctorCheck{
				Name:    c.Name,
				Status:  c.Status.String(),
				Message: c.Message,
				Fix:     c.Fix,
			})
		}
		resp := NewSuccessResponse("doctor", data)
		if failed > 0 {
			resp.Success = false
			resp.Error = fmt.Sprintf("%d of %d checks failed", failed, len(checks))
		}
		resp.Print()
		if failed > 0 {
			os.Exit(ExitGeneralError)
		}
		return nil
	}

	printHealthChecks(checks, failed, warned)

	if failed > 0 {
		return NewCommandError("doctor",
			fmt.Sprintf("%d of %d checks failed", failed, len(checks)),
			ExitGeneralError, nil)
	}
	return nil
}

// printHealthChecks renders check results with fix hints.
func printHealthChecks(checks []HealthCheck, failed, warned int) {
	fmt.Println(TitleStyle.Render("opsforge doctor"))
	fmt.Println()

	for _, c := range checks {
		fmt.Printf("  %-16s %-18s %s\n", c.Status.Symbol(), SectionStyle.Render(c.Name), c.Message)
		if c.Fix != "" && c.Status != CheckOK {
			fmt.Printf("  %-16s %-18s %s\n", "", "", DimStyle.Render("Fix: "+c.Fix))
		}
	}

	fmt.Println()
	summary := fmt.Sprintf("%d ok, %d warnings, %d failed",
		len(checks)-failed-warned, warned, failed)
	switch {
	case failed > 0:
		fmt.Println(ErrorStyle.Render(summary))
	case warned > 0:
		fmt.Println(WarningStyle.Render(summary))
	default:
		fmt.Println(SuccessStyle.Render(summary))
	}
}

// runHealthChecks executes every diagnostic in order.
func runHealthChecks(args Args) []HealthCheck {
	cfg, cfgErr := loadConfig(args)
	if cfgErr != nil {
		// Later checks need a config to probe paths with.
		cfg = config.Default()
	}

	return []HealthCheck{
		checkConfig(cfg, cfgErr),
		checkConfigDir(),
		checkEventStore(cfg),
		checkArtifactStore(cfg),
		checkRunStore(),
		checkServerAddr(cfg),
	}
}

func checkConfig(cfg *config.Config, loadErr error) HealthCheck {
	check := HealthCheck{Name: "Config"}
	if loadErr != nil {
		check.Status = CheckFail
		check.Message = loadErr.Error()
		check.Fix = "opsforge config reset --confirm"
		return check
	}
	if err := cfg.Validate(); err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "opsforge config reset --confirm"
		return check
	}
	check.Status = CheckOK
	check.Message = fmt.Sprintf("valid (%s)", cfg.Environment)
	return check
}

func checkConfigDir() HealthCheck {
	check := HealthCheck{Name: "Config directory"}

	dir, err := config.ConfigDir()
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		return check
	}
	if err := config.EnsureConfigDir(); err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "check permissions on " + dir
		return check
	}

	probe := filepath.Join(dir, ".doctor_probe")
	if err := os.WriteFile(probe, []byte("probe"), 0600); err != nil {
		check.Status = CheckFail
		check.Message = "not writable: " + err.Error()
		check.Fix = "check permissions on " + dir
		return check
	}
	os.Remove(probe)

	check.Status = CheckOK
	check.Message = dir
	return check
}

func checkEventStore(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Event store"}

	dbPath, err := cfg.EventsDBPath()
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "check the events.db_path setting"
		return check
	}

	store, err := events.Open(dbPath)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "check the events.db_path setting"
		return check
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	total, err := store.Total(ctx)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "the database may be corrupt, check " + dbPath
		return check
	}

	size := ""
	if info, err := os.Stat(dbPath); err == nil {
		size = ", " + formatBytes(info.Size())
	}

	check.Status = CheckOK
	check.Message = fmt.Sprintf("%d events%s", total, size)
	return check
}

func checkArtifactStore(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Artifact store"}

	root, err := cfg.ArtifactsRoot()
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "check the artifacts.root_dir setting"
		return check
	}

	store, err := artifacts.NewStore(root)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "check the artifacts.root_dir setting"
		return check
	}

	path, err := store.WriteText(".doctor_probe.txt", "probe")
	if err != nil {
		check.Status = CheckFail
		check.Message = "not writable: " + err.Error()
		check.Fix = "check permissions on " + store.Root()
		return check
	}
	os.Remove(path)

	check.Status = CheckOK
	check.Message = store.Root()
	return check
}

func checkRunStore() HealthCheck {
	check := HealthCheck{Name: "Run store"}

	store, err := storage.NewRunStore()
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		return check
	}

	metas, err := store.List()
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "check permissions on " + store.BaseDir
		return check
	}

	check.Status = CheckOK
	check.Message = fmt.Sprintf("%d stored runs", len(metas))
	return check
}

func checkServerAddr(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Server address"}

	host, port, err := net.SplitHostPort(cfg.Server.Addr)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("invalid address %q", cfg.Server.Addr)
		check.Fix = "opsforge config set server.addr 127.0.0.1:8000"
		return check
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("%s in use (server already running?)", cfg.Server.Addr)
		return check
	}
	ln.Close()

	check.Status = CheckOK
	check.Message = cfg.Server.Addr + " available"
	return check
}
