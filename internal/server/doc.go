// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP API for goal execution.
//
// This package exposes the execution engine over REST so external
// schedulers and dashboards can submit goals, preview plans, and poll
// async task state.
//
// # Endpoints
//
//   - GET  /           - Service banner with endpoint listing
//   - GET  /health     - Health check with event store probe
//   - GET  /status     - Execution summary and service statistics
//   - GET  /tasks      - List tracked async tasks
//   - GET  /tasks/{id} - State of one async task
//   - POST /execute    - Execute a goal (sync, or async with 202)
//   - POST /plan       - Preview the plan for a goal without executing
//
// # Middleware
//
//   - Panic recovery with stack trace logging
//   - Security headers (X-Content-Type-Options, X-Frame-Options, etc.)
//   - Request IDs (UUID, echoed in X-Request-Id)
//   - Structured request logging
//   - Per-client token bucket rate limiting
//
// # Key Types
//
//   - Server: HTTP server wiring the engine, task manager, and event store
//   - RateLimiter: per-IP token bucket dispenser
//   - ServerStats: atomic request counters surfaced by GET /status
//
// # Usage
//
//	eng := engine.New(registry, nil, engine.WithEventRecorder(store))
//	srv := server.New(cfg, eng, log).WithEventStore(store)
//	go srv.Start()
//	...
//	srv.Shutdown(ctx)
package server
