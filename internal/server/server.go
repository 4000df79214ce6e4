// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/opsforge/internal/config"
	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/events"
	"github.com/jeranaias/opsforge/internal/history"
	"github.com/jeranaias/opsforge/internal/logging"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/tasks"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// ServiceName identifies the service in banners and health output.
	ServiceName = "opsforge"

	// Version is the API version reported by the server.
	Version = "1.0.0"

	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = "127.0.0.1:8000"

	// MaxRequestBodySize is the maximum size for request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxGoalLength is the maximum accepted goal length in bytes.
	MaxGoalLength = 10000

	// healthProbeTimeout bounds the event store probe in GET /health.
	healthProbeTimeout = 2 * time.Second

	// startupEventTimeout bounds the STARTUP event write on boot.
	startupEventTimeout = 5 * time.Second
)

// Server lifecycle event types recorded against the event store.
const (
	// EventStartup is recorded once when the server boots.
	EventStartup = "STARTUP"

	// EventHealthCheck is recorded by each health probe's store check.
	EventHealthCheck = "HEALTH_CHECK"
)

// =============================================================================
// SERVER STATS
// =============================================================================

// ServerStats tracks request counts served by the API.
type ServerStats struct {
	TotalRequests   int64     `json:"total_requests"`
	ExecuteRequests int64     `json:"execute_requests"`
	PlanRequests    int64     `json:"plan_requests"`
	StartTime       time.Time `json:"start_time"`
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{
		StartTime: time.Now(),
	}
}

// RecordRequest counts one incoming request.
func (s *ServerStats) RecordRequest() {
	atomic.AddInt64(&s.TotalRequests, 1)
}

// RecordExecute counts one POST /execute request.
func (s *ServerStats) RecordExecute() {
	atomic.AddInt64(&s.ExecuteRequests, 1)
}

// RecordPlan counts one POST /plan request.
func (s *ServerStats) RecordPlan() {
	atomic.AddInt64(&s.PlanRequests, 1)
}

// GetStats returns a copy of the current stats.
func (s *ServerStats) GetStats() ServerStats {
	return ServerStats{
		TotalRequests:   atomic.LoadInt64(&s.TotalRequests),
		ExecuteRequests: atomic.LoadInt64(&s.ExecuteRequests),
		PlanRequests:    atomic.LoadInt64(&s.PlanRequests),
		StartTime:       s.StartTime,
	}
}

// Uptime returns the server uptime duration.
func (s *ServerStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// StatsMiddleware returns HTTP middleware that counts every request in
// the given stats.
func StatsMiddleware(stats *ServerStats) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			stats.RecordRequest()
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// SERVER
// =============================================================================

// Server is the HTTP API server for goal execution.
type Server struct {
	cfg     *config.Config
	router  *http.ServeMux
	server  *http.Server
	limiter *RateLimiter

	engine *engine.Engine
	tasks  *tasks.Manager
	events *events.Store
	stats  *ServerStats
	log    *logging.Logger

	mu sync.RWMutex
}

// New creates a Server around an engine. The engine must be non-nil;
// a nil cfg falls back to defaults and a nil log discards output.
//
// The server owns a task manager for async execution, sized from the
// server configuration. Use WithEventStore to enable the health probe
// and the STARTUP boot event.
func New(cfg *config.Config, eng *engine.Engine, log *logging.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.Nop()
	}

	s := &Server{
		cfg:     cfg,
		router:  http.NewServeMux(),
		limiter: NewRateLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst),
		engine:  eng,
		stats:   NewServerStats(),
		log:     log,
	}

	s.tasks = tasks.NewManager(eng, log,
		tasks.WithMaxConcurrent(cfg.Server.MaxConcurrentTasks),
		tasks.WithTaskTimeout(time.Duration(cfg.Server.TaskTimeoutMins)*time.Minute))

	s.setupRoutes()
	return s
}

// WithEventStore sets the event store used for the health probe and
// boot event. Call before Start.
func (s *Server) WithEventStore(store *events.Store) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = store
	return s
}

// WithTaskManager replaces the default task manager. Call before Start.
func (s *Server) WithTaskManager(m *tasks.Manager) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = m
	return s
}

// Addr returns the address the server binds to.
func (s *Server) Addr() string {
	if s.cfg.Server.Addr == "" {
		return DefaultAddr
	}
	return s.cfg.Server.Addr
}

// Tasks returns the async task manager.
func (s *Server) Tasks() *tasks.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks
}

// SetRateLimit applies a new per-client rate limit without a restart.
// Used by the config hot-reload path.
func (s *Server) SetRateLimit(perSecond float64, burst int) {
	s.limiter.SetRate(perSecond, burst)
}

// =============================================================================
// ROUTES
// =============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleRoot)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /status", s.handleStatus)

	s.router.HandleFunc("POST /execute", s.handleExecute)
	s.router.HandleFunc("POST /plan", s.handlePlan)

	s.router.HandleFunc("GET /tasks", s.handleTasks)
	s.router.HandleFunc("GET /tasks/{id}", s.handleTask)
}

// =============================================================================
// API TYPES
// =============================================================================

// ExecuteRequest is the request body for POST /execute and POST /plan.
type ExecuteRequest struct {
	// Goal is the natural-language objective to execute.
	Goal string `json:"goal"`

	// Verbose includes per-step results in the sync response.
	Verbose bool `json:"verbose"`

	// Async queues the goal for background execution instead of
	// running it in the request.
	Async bool `json:"async"`
}

// ExecuteResponse is the response body for POST /execute.
type ExecuteResponse struct {
	Status          string              `json:"status"`
	TaskID          string              `json:"task_id,omitempty"`
	Goal            string              `json:"goal"`
	Message         string              `json:"message"`
	Results         []engine.StepReport `json:"results,omitempty"`
	DurationSeconds float64             `json:"duration_seconds,omitempty"`
}

// PlanResponse is the response body for POST /plan.
type PlanResponse struct {
	Status     string     `json:"status"`
	Goal       string     `json:"goal"`
	Plan       *plan.Plan `json:"plan"`
	StepsCount int        `json:"steps_count"`
	Message    string     `json:"message"`
}

// BannerResponse is the response body for GET /.
type BannerResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// StatusResponse is the response body for GET /status.
type StatusResponse struct {
	Status           string          `json:"status"`
	Service          string          `json:"service"`
	Version          string          `json:"version"`
	UptimeSeconds    int64           `json:"uptime_seconds"`
	ExecutionSummary history.Summary `json:"execution_summary"`
	Tasks            tasks.Stats     `json:"tasks"`
	Requests         ServerStats     `json:"requests"`
	Timestamp        string          `json:"timestamp"`
}

// TaskListResponse is the response body for GET /tasks.
type TaskListResponse struct {
	Tasks []*tasks.Task `json:"tasks"`
	Stats tasks.Stats   `json:"stats"`
}

// =============================================================================
// BANNER AND HEALTH HANDLERS
// =============================================================================

// handleRoot handles GET /.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, BannerResponse{
		Service: ServiceName,
		Version: Version,
		Status:  "operational",
		Endpoints: []string{
			"GET /",
			"GET /health",
			"GET /status",
			"GET /tasks",
			"GET /tasks/{id}",
			"POST /execute",
			"POST /plan",
		},
	})
}

// handleHealth handles GET /health.
//
// The event store check records a HEALTH_CHECK event; a failed write
// marks the store unhealthy and degrades the overall status. The
// response is always 200 so probes can read the body for detail.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	store := s.events
	s.mu.RUnlock()

	health := HealthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Version:   Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks: map[string]string{
			"engine": "healthy",
		},
	}

	if store == nil {
		health.Checks["events"] = "not_configured"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		_, err := store.Record(ctx, EventHealthCheck, map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			health.Checks["events"] = "unhealthy"
			health.Status = "degraded"
		} else {
			health.Checks["events"] = "healthy"
		}
	}

	s.writeJSON(w, http.StatusOK, health)
}

// handleStatus handles GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	manager := s.tasks
	s.mu.RUnlock()

	s.writeJSON(w, http.StatusOK, StatusResponse{
		Status:           "operational",
		Service:          ServiceName,
		Version:          Version,
		UptimeSeconds:    int64(s.stats.Uptime().Seconds()),
		ExecutionSummary: s.engine.Summary(),
		Tasks:            manager.Stats(),
		Requests:         s.stats.GetStats(),
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// EXECUTE HANDLER
// =============================================================================

// handleExecute handles POST /execute.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordExecute()

	req, ok := s.decodeGoalRequest(w, r)
	if !ok {
		return
	}

	if req.Async {
		s.handleExecuteAsync(w, req)
		return
	}
	s.handleExecuteSync(w, r, req)
}

// handleExecuteSync runs the goal inside the request and reports the
// outcome.
func (s *Server) handleExecuteSync(w http.ResponseWriter, r *http.Request, req ExecuteRequest) {
	result, err := s.engine.ExecuteTask(r.Context(), req.Goal)
	if err != nil {
		s.log.Error("task execution failed", "goal", req.Goal, "error", err.Error())
		s.writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("Task execution failed: %s", err))
		return
	}

	resp := ExecuteResponse{
		Status:          "success",
		Goal:            req.Goal,
		Message:         result.Message,
		DurationSeconds: result.DurationSeconds,
	}
	if req.Verbose {
		resp.Results = result.Results
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleExecuteAsync queues the goal and returns 202 with the task id.
func (s *Server) handleExecuteAsync(w http.ResponseWriter, req ExecuteRequest) {
	s.mu.RLock()
	manager := s.tasks
	s.mu.RUnlock()

	task, err := manager.Submit(req.Goal)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "Server is not accepting new tasks")
		return
	}

	s.writeJSON(w, http.StatusAccepted, ExecuteResponse{
		Status:  "accepted",
		TaskID:  task.ID,
		Goal:    req.Goal,
		Message: fmt.Sprintf("Task '%s' accepted for async execution", req.Goal),
	})
}

// =============================================================================
// PLAN HANDLER
// =============================================================================

// handlePlan handles POST /plan.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	s.stats.RecordPlan()

	req, ok := s.decodeGoalRequest(w, r)
	if !ok {
		return
	}

	p := s.engine.Plan(req.Goal)

	s.writeJSON(w, http.StatusOK, PlanResponse{
		Status:     "success",
		Goal:       req.Goal,
		Plan:       p,
		StepsCount: len(p.Steps),
		Message:    "Plan created successfully",
	})
}

// =============================================================================
// TASK HANDLERS
// =============================================================================

// handleTasks handles GET /tasks.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	manager := s.tasks
	s.mu.RUnlock()

	s.writeJSON(w, http.StatusOK, TaskListResponse{
		Tasks: manager.List(),
		Stats: manager.Stats(),
	})
}

// handleTask handles GET /tasks/{id}.
func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.RLock()
	manager := s.tasks
	s.mu.RUnlock()

	task, ok := manager.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("Task %q not found", id))
		return
	}

	s.writeJSON(w, http.StatusOK, task)
}

// =============================================================================
// SERVER LIFECYCLE
// =============================================================================

// Start builds the middleware chain, records the STARTUP event, and
// serves until Shutdown or a listener error.
func (s *Server) Start() error {
	handler := Chain(
		RecoveryMiddleware(s.log),
		SecurityHeadersMiddleware(),
		RequestIDMiddleware(),
		LoggingMiddleware(s.log),
		StatsMiddleware(s.stats),
		RateLimitMiddleware(s.limiter, s.log),
	)(s.router)

	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      handler,
		ReadTimeout:  secondsOr(s.cfg.Server.ReadTimeoutSecs, 30*time.Second),
		WriteTimeout: secondsOr(s.cfg.Server.WriteTimeoutSecs, 15*time.Minute),
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupEventTimeout)
	s.recordStartup(ctx)
	cancel()

	s.log.Info("server listening",
		"addr", s.Addr(),
		"version", Version,
		"environment", s.cfg.Environment)

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server: in-flight requests drain
// within ctx, then the task manager stops, waiting for running async
// tasks up to their own timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.log.Info("server shutting down")

	err := s.server.Shutdown(ctx)

	s.mu.RLock()
	manager := s.tasks
	s.mu.RUnlock()
	manager.Stop()

	return err
}

// recordStartup writes the boot event so operators can see restarts in
// the event log. Best-effort: a failed write only logs a warning.
func (s *Server) recordStartup(ctx context.Context) {
	s.mu.RLock()
	store := s.events
	s.mu.RUnlock()

	if store == nil {
		return
	}

	_, err := store.Record(ctx, EventStartup, map[string]interface{}{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"version":     Version,
		"environment": s.cfg.Environment,
	})
	if err != nil {
		s.log.Warn("event store connection failed on startup", "error", err.Error())
		return
	}

	s.log.Info("event store connection verified")
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeGoalRequest parses and validates a goal-bearing request body,
// writing the error response itself when the body is unusable.
func (s *Server) decodeGoalRequest(w http.ResponseWriter, r *http.Request) (ExecuteRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return ExecuteRequest{}, false
		}

		s.log.Warn("invalid request body", "error", err.Error())
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return ExecuteRequest{}, false
	}

	if err := validateGoal(req.Goal); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return ExecuteRequest{}, false
	}

	return req, true
}

// validateGoal checks that a goal is present and within bounds.
func validateGoal(goal string) error {
	if strings.TrimSpace(goal) == "" {
		return fmt.Errorf("goal must not be empty")
	}
	if len(goal) > MaxGoalLength {
		return fmt.Errorf("goal exceeds maximum length of %d bytes", MaxGoalLength)
	}
	return nil
}

// ErrorResponse is the envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one API error.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// errorType maps an HTTP status to the error type label.
func errorType(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= http.StatusInternalServerError:
		return "internal_error"
	default:
		return "invalid_request"
	}
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to encode response", "error", err.Error())
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType(status),
			Code:    status,
		},
	})
}

// secondsOr converts a configured second count to a duration, falling
// back when the value is unset.
func secondsOr(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
