// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/opsforge/internal/artifacts"
	"github.com/jeranaias/opsforge/internal/config"
	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/events"
	"github.com/jeranaias/opsforge/internal/history"
	"github.com/jeranaias/opsforge/internal/jobs"
	"github.com/jeranaias/opsforge/internal/logging"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/storage"
	"github.com/jeranaias/opsforge/internal/tools"
)

// =============================================================================
// DEPENDENCY WIRING
// =============================================================================

// stack bundles the wired execution dependencies shared by commands:
// config, logging, the three stores, the tool registry, and the engine.
type stack struct {
	cfg      *config.Config
	log      *logging.Logger
	events   *events.Store
	store    *artifacts.Store
	jobs     *jobs.Service
	registry *tools.Registry
	hist     *history.History
	engine   *engine.Engine
	runs     *storage.RunStore
}

// loadConfig loads the configuration, honoring --config.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", args.ConfigPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the CLI logger from the config, with --verbose and
// --quiet overriding the configured level. Logs go to stderr so stdout
// stays clean for command output.
func newLogger(cfg *config.Config, args Args) *logging.Logger {
	logCfg := logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: logging.ParseFormat(cfg.Logging.Format),
		Output: os.Stderr,
	}
	if args.Verbose {
		logCfg.Level = logging.LevelDebug
	}
	if args.Quiet {
		logCfg.Level = logging.LevelError
	}
	return logging.New(logCfg)
}

// buildStack wires the full execution stack from configuration. Extra
// engine options are applied on top of the defaults, which is how the
// run command injects its progress decorator.
func buildStack(args Args, opts ...engine.Option) (*stack, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	log := newLogger(cfg, args)

	eventsPath, err := cfg.EventsDBPath()
	if err != nil {
		return nil, fmt.Errorf("opening event store: %w", err)
	}
	eventStore, err := events.Open(eventsPath)
	if err != nil {
		return nil, fmt.Errorf("opening event store: %w", err)
	}

	artifactsRoot, err := cfg.ArtifactsRoot()
	if err != nil {
		eventStore.Close()
		return nil, fmt.Errorf("opening artifact store: %w", err)
	}
	artifactStore, err := artifacts.NewStore(artifactsRoot)
	if err != nil {
		eventStore.Close()
		return nil, fmt.Errorf("opening artifact store: %w", err)
	}

	jobSvc := jobs.NewService(log,
		jobs.WithETLDelay(time.Duration(cfg.Jobs.SimulatedDelayMs)*time.Millisecond))

	runStore, err := storage.NewRunStore()
	if err != nil {
		eventStore.Close()
		return nil, fmt.Errorf("opening run store: %w", err)
	}

	s := &stack{
		cfg:      cfg,
		log:      log,
		events:   eventStore,
		store:    artifactStore,
		jobs:     jobSvc,
		registry: tools.NewDefaultRegistry(eventStore, artifactStore, jobSvc),
		hist:     history.New(),
		runs:     runStore,
	}
	s.engine = s.newEngine(opts...)
	return s, nil
}

// newEngine builds an engine sharing the stack's registry, history,
// and sinks. The planner picks up the configured step timeout and
// retry budget.
func (s *stack) newEngine(opts ...engine.Option) *engine.Engine {
	base := []engine.Option{
		engine.WithPlanner(plan.NewPlanner(nil,
			plan.WithStepTimeout(time.Duration(s.cfg.Engine.StepTimeoutSecs)*time.Second),
			plan.WithRetryCount(s.cfg.Engine.RetryCount))),
		engine.WithEventRecorder(s.events),
		engine.WithLogger(s.log),
	}
	return engine.New(s.registry, s.hist, append(base, opts...)...)
}

// stepExecutor builds the default step executor against the stack's
// registry and history, for commands that wrap it in a decorator.
func (s *stack) stepExecutor() engine.StepRunner {
	return tools.NewExecutor(s.registry, s.hist, s.log)
}

// Close releases the stack's resources.
func (s *stack) Close() {
	if s.events != nil {
		s.events.Close()
	}
}
