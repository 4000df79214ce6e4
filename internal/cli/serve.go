// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/opsforge/internal/config"
	"github.com/jeranaias/opsforge/internal/logging"
	"github.com/jeranaias/opsforge/internal/server"
)

// =============================================================================
// SERVE COMMAND
// =============================================================================

// HandleServe starts the HTTP API server and runs until interrupted.
//
// Usage:
//
//	opsforge serve [--addr HOST:PORT]
func HandleServe(args Args) error {
	parser := NewArgParser(args.Rest)

	s, err := buildStack(args)
	if err != nil {
		return err
	}
	defer s.Close()

	if addr, ok := parser.Flag("addr"); ok {
		s.cfg.Server.Addr = addr
	}

	srv := server.New(s.cfg, s.engine, s.log).WithEventStore(s.events)

	if watcher := watchConfig(s, srv, args); watcher != nil {
		defer watcher.Close()
	}

	if !args.JSON && IsStdoutTTY() {
		fmt.Println(TitleStyle.Render("opsforge server"))
		fmt.Printf("%s%s\n", LabelStyle.Render("Address:"), srv.Addr())
		fmt.Printf("%s%s\n", LabelStyle.Render("Environment:"), s.cfg.Environment)
		fmt.Println(DimStyle.Render("Press ctrl+c to stop"))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return NewCommandError("serve", "server failed", ExitNetworkError, err)
		}
		return nil

	case <-ctx.Done():
		stop()

		timeout := time.Duration(s.cfg.Server.ShutdownTimeoutSecs) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return WrapError("serve", err)
		}
		<-errCh
		return nil
	}
}

// =============================================================================
// CONFIG HOT RELOAD
// =============================================================================

// watchConfig starts a config file watcher for the running server.
// Returns nil when there is no config file to watch or the watcher
// cannot start; the server runs fine without one.
func watchConfig(s *stack, srv *server.Server, args Args) *config.Watcher {
	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return nil
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	w, err := config.NewWatcher(path, func(next *config.Config) {
		applyConfigChange(s, srv, next)
	}, s.log)
	if err != nil {
		s.log.Warn("config watch unavailable", "error", err.Error())
		return nil
	}
	if err := w.Watch(); err != nil {
		s.log.Warn("config watch unavailable", "error", err.Error())
		w.Close()
		return nil
	}

	s.log.Info("watching config for changes", "path", path)
	return w
}

// applyConfigChange hot-applies the settings that can change at
// runtime and flags the ones that need a restart.
func applyConfigChange(s *stack, srv *server.Server, next *config.Config) {
	if next.Logging.Level != s.cfg.Logging.Level {
		s.log.SetLevel(logging.ParseLevel(next.Logging.Level))
		s.cfg.Logging.Level = next.Logging.Level
		s.log.Info("log level updated", "level", next.Logging.Level)
	}

	if next.Server.RatePerSecond != s.cfg.Server.RatePerSecond ||
		next.Server.RateBurst != s.cfg.Server.RateBurst {
		srv.SetRateLimit(next.Server.RatePerSecond, next.Server.RateBurst)
		s.cfg.Server.RatePerSecond = next.Server.RatePerSecond
		s.cfg.Server.RateBurst = next.Server.RateBurst
		s.log.Info("rate limit updated",
			"per_second", next.Server.RatePerSecond,
			"burst", next.Server.RateBurst)
	}

	if next.Server.Addr != s.cfg.Server.Addr {
		s.log.Warn("server.addr changed on disk, restart to apply",
			"current", s.cfg.Server.Addr, "new", next.Server.Addr)
	}
	if next.Engine.StepTimeoutSecs != s.cfg.Engine.StepTimeoutSecs {
		s.log.Warn("engine.step_timeout_secs changed on disk, restart to apply",
			"current", s.cfg.Engine.StepTimeoutSecs, "new", next.Engine.StepTimeoutSecs)
	}
}
