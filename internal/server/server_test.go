// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/opsforge/internal/config"
	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/events"
	"github.com/jeranaias/opsforge/internal/jobs"
	"github.com/jeranaias/opsforge/internal/logging"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/tasks"
	"github.com/jeranaias/opsforge/internal/tools"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

// captureEvents is an in-memory EventRecorder. Async tasks record from
// worker goroutines, so access is locked.
type captureEvents struct {
	mu    sync.Mutex
	types []string
}

func (c *captureEvents) Record(ctx context.Context, eventType string, details map[string]interface{}) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, eventType)
	return int64(len(c.types)), nil
}

// captureArtifacts is an in-memory ArtifactWriter.
type captureArtifacts struct {
	mu      sync.Mutex
	written map[string]string
}

func (c *captureArtifacts) WriteText(path, content string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.written == nil {
		c.written = make(map[string]string)
	}
	c.written[path] = content
	return "/artifacts/" + path, nil
}

func testRegistry() *tools.Registry {
	return tools.NewDefaultRegistry(&captureEvents{}, &captureArtifacts{},
		jobs.NewService(nil, jobs.WithETLDelay(0)))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng := engine.New(testRegistry(), nil)
	return New(nil, eng, logging.Nop())
}

// postJSON builds a POST request carrying a JSON body.
func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// waitForTask polls until the task reaches a terminal state.
func waitForTask(t *testing.T, m *tasks.Manager, id string) *tasks.Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if task, ok := m.Get(id); ok && task.Status.Terminal() {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s did not reach a terminal state in time", id)
	return nil
}

// =============================================================================
// SERVER CONSTRUCTION TESTS
// =============================================================================

func TestNewServer(t *testing.T) {
	s := newTestServer(t)

	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.Addr() != DefaultAddr {
		t.Errorf("Addr() = %q, want %q", s.Addr(), DefaultAddr)
	}
	if s.Tasks() == nil {
		t.Error("Tasks() should return the default manager")
	}
}

func TestNewServer_ConfiguredAddr(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:9999"

	s := New(cfg, engine.New(testRegistry(), nil), logging.Nop())

	if s.Addr() != "127.0.0.1:9999" {
		t.Errorf("Addr() = %q, want 127.0.0.1:9999", s.Addr())
	}
}

func TestServer_WithMethods(t *testing.T) {
	s := newTestServer(t)

	if s.WithEventStore(nil) != s {
		t.Error("WithEventStore should return same server")
	}
	if s.WithTaskManager(s.Tasks()) != s {
		t.Error("WithTaskManager should return same server")
	}
}

// =============================================================================
// BANNER AND HEALTH TESTS
// =============================================================================

func TestHandleRoot(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp BannerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Service != ServiceName {
		t.Errorf("Service = %q, want %q", resp.Service, ServiceName)
	}
	if resp.Version != Version {
		t.Errorf("Version = %q, want %q", resp.Version, Version)
	}
	if len(resp.Endpoints) != 7 {
		t.Errorf("Endpoints length = %d, want 7", len(resp.Endpoints))
	}
}

func TestRouterUnknownPath(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandleHealth_NoStore(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}
	if resp.Checks["events"] != "not_configured" {
		t.Errorf("Checks[events] = %q, want not_configured", resp.Checks["events"])
	}
	if resp.Checks["engine"] != "healthy" {
		t.Errorf("Checks[engine] = %q, want healthy", resp.Checks["engine"])
	}
}

func TestHandleHealth_WithStore(t *testing.T) {
	store, err := events.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	s := newTestServer(t).WithEventStore(store)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}
	if resp.Checks["events"] != "healthy" {
		t.Errorf("Checks[events] = %q, want healthy", resp.Checks["events"])
	}

	// The probe itself should have landed in the store.
	counts, err := store.CountByType(context.Background())
	if err != nil {
		t.Fatalf("CountByType: %v", err)
	}
	if counts[EventHealthCheck] != 1 {
		t.Errorf("HEALTH_CHECK count = %d, want 1", counts[EventHealthCheck])
	}
}

func TestHandleHealth_ClosedStoreDegrades(t *testing.T) {
	store, err := events.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	s := newTestServer(t).WithEventStore(store)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", resp.Status)
	}
	if resp.Checks["events"] != "unhealthy" {
		t.Errorf("Checks[events] = %q, want unhealthy", resp.Checks["events"])
	}
}

// =============================================================================
// EXECUTE TESTS
// =============================================================================

func TestHandleExecute_Sync(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handleExecute(w, postJSON("/execute", `{"goal": "Run ETL pipeline for sales data"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp ExecuteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "success" {
		t.Errorf("Status = %q, want success", resp.Status)
	}
	if resp.Message != "Successfully executed 4 steps" {
		t.Errorf("Message = %q", resp.Message)
	}
	if resp.Results != nil {
		t.Error("Results should be omitted without verbose")
	}
	if resp.DurationSeconds < 0 {
		t.Errorf("DurationSeconds = %v, want >= 0", resp.DurationSeconds)
	}
}

func TestHandleExecute_Verbose(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handleExecute(w, postJSON("/execute",
		`{"goal": "Run ETL pipeline for sales data", "verbose": true}`))

	var resp ExecuteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Results) != 4 {
		t.Errorf("Results length = %d, want 4", len(resp.Results))
	}
	for i, r := range resp.Results {
		if r.Tool == "" {
			t.Errorf("Results[%d].Tool is empty", i)
		}
	}
}

func TestHandleExecute_EmptyGoal(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handleExecute(w, postJSON("/execute", `{"goal": "   "}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Type != "invalid_request" {
		t.Errorf("Error.Type = %q, want invalid_request", resp.Error.Type)
	}
}

func TestHandleExecute_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handleExecute(w, postJSON("/execute", `{invalid json}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleExecute_GoalTooLong(t *testing.T) {
	s := newTestServer(t)

	body := `{"goal": "` + strings.Repeat("a", MaxGoalLength+1) + `"}`
	w := httptest.NewRecorder()
	s.handleExecute(w, postJSON("/execute", body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleExecute_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)

	body := `{"goal": "` + strings.Repeat("a", MaxRequestBodySize) + `"}`
	w := httptest.NewRecorder()
	s.handleExecute(w, postJSON("/execute", body))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestHandleExecute_Async(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handleExecute(w, postJSON("/execute",
		`{"goal": "Run ETL pipeline for sales data", "async": true}`))

	if w.Code != http.StatusAccepted {
		t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	var resp ExecuteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "accepted" {
		t.Errorf("Status = %q, want accepted", resp.Status)
	}
	if resp.TaskID == "" {
		t.Fatal("TaskID should be set")
	}
	if !strings.Contains(resp.Message, "accepted for async execution") {
		t.Errorf("Message = %q", resp.Message)
	}

	task := waitForTask(t, s.Tasks(), resp.TaskID)
	if task.Status != tasks.StatusCompleted {
		t.Errorf("final task status = %q, want %q", task.Status, tasks.StatusCompleted)
	}
	if task.Result == nil || len(task.Result.Results) != 4 {
		t.Errorf("task result = %+v, want 4 step reports", task.Result)
	}
}

func TestHandleExecute_AsyncAfterStop(t *testing.T) {
	s := newTestServer(t)
	s.Tasks().Stop()

	w := httptest.NewRecorder()
	s.handleExecute(w, postJSON("/execute", `{"goal": "anything", "async": true}`))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

// =============================================================================
// PLAN TESTS
// =============================================================================

func TestHandlePlan(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handlePlan(w, postJSON("/plan", `{"goal": "Deploy the billing agent"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp PlanResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "success" {
		t.Errorf("Status = %q, want success", resp.Status)
	}
	if resp.Message != "Plan created successfully" {
		t.Errorf("Message = %q", resp.Message)
	}
	if resp.Plan == nil {
		t.Fatal("Plan should be set")
	}
	if resp.StepsCount != len(resp.Plan.Steps) {
		t.Errorf("StepsCount = %d, want %d", resp.StepsCount, len(resp.Plan.Steps))
	}
	if resp.StepsCount < 3 {
		t.Errorf("StepsCount = %d, want >= 3", resp.StepsCount)
	}
	if resp.Plan.Steps[0].Tool != plan.ToolRecordEvent {
		t.Errorf("first step tool = %q, want %q", resp.Plan.Steps[0].Tool, plan.ToolRecordEvent)
	}
}

func TestHandlePlan_EmptyGoal(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handlePlan(w, postJSON("/plan", `{}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// =============================================================================
// TASK ENDPOINT TESTS
// =============================================================================

func TestHandleTask(t *testing.T) {
	s := newTestServer(t)

	task, err := s.Tasks().Submit("Run ETL pipeline for sales data")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitForTask(t, s.Tasks(), task.ID)

	req := httptest.NewRequest("GET", "/tasks/"+task.ID, nil)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp tasks.Task
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.ID != task.ID {
		t.Errorf("ID = %q, want %q", resp.ID, task.ID)
	}
	if resp.Status != tasks.StatusCompleted {
		t.Errorf("Status = %q, want %q", resp.Status, tasks.StatusCompleted)
	}
}

func TestHandleTask_NotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/tasks/task_does_not_exist", nil)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Type != "not_found" {
		t.Errorf("Error.Type = %q, want not_found", resp.Error.Type)
	}
}

func TestHandleTasks(t *testing.T) {
	s := newTestServer(t)

	task, err := s.Tasks().Submit("Train the recommendation model")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitForTask(t, s.Tasks(), task.ID)

	req := httptest.NewRequest("GET", "/tasks", nil)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp TaskListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Tasks) != 1 {
		t.Errorf("Tasks length = %d, want 1", len(resp.Tasks))
	}
	if resp.Stats.Total != 1 || resp.Stats.Completed != 1 {
		t.Errorf("Stats = %+v, want 1 total, 1 completed", resp.Stats)
	}
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t)

	if _, err := s.engine.ExecuteTask(context.Background(), "Run ETL pipeline for sales data"); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}

	req := httptest.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()

	s.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "operational" {
		t.Errorf("Status = %q, want operational", resp.Status)
	}
	if resp.ExecutionSummary.TotalExecutions != 4 {
		t.Errorf("TotalExecutions = %d, want 4", resp.ExecutionSummary.TotalExecutions)
	}
	if resp.ExecutionSummary.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", resp.ExecutionSummary.SuccessRate)
	}
	if resp.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %d, want >= 0", resp.UptimeSeconds)
	}
}

// =============================================================================
// SERVER STATS TESTS
// =============================================================================

func TestNewServerStats(t *testing.T) {
	stats := NewServerStats()

	if stats == nil {
		t.Fatal("NewServerStats() returned nil")
	}
	if stats.TotalRequests != 0 {
		t.Errorf("TotalRequests = %d, want 0", stats.TotalRequests)
	}
	if stats.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
}

func TestServerStats_Record(t *testing.T) {
	stats := NewServerStats()

	stats.RecordRequest()
	stats.RecordRequest()
	stats.RecordExecute()
	stats.RecordPlan()

	got := stats.GetStats()
	if got.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", got.TotalRequests)
	}
	if got.ExecuteRequests != 1 {
		t.Errorf("ExecuteRequests = %d, want 1", got.ExecuteRequests)
	}
	if got.PlanRequests != 1 {
		t.Errorf("PlanRequests = %d, want 1", got.PlanRequests)
	}
}

func TestServerStats_Uptime(t *testing.T) {
	stats := NewServerStats()

	time.Sleep(10 * time.Millisecond)

	if uptime := stats.Uptime(); uptime < 10*time.Millisecond {
		t.Errorf("Uptime = %v, expected >= 10ms", uptime)
	}
}

func TestStatsMiddleware(t *testing.T) {
	stats := NewServerStats()
	handler := StatsMiddleware(stats)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	}

	if got := stats.GetStats().TotalRequests; got != 3 {
		t.Errorf("TotalRequests = %d, want 3", got)
	}
}

// =============================================================================
// VALIDATION AND HELPER TESTS
// =============================================================================

func TestValidateGoal(t *testing.T) {
	tests := []struct {
		name    string
		goal    string
		wantErr bool
	}{
		{"empty", "", true},
		{"whitespace only", "   \t ", true},
		{"valid", "Run ETL pipeline", false},
		{"at limit", strings.Repeat("a", MaxGoalLength), false},
		{"over limit", strings.Repeat("a", MaxGoalLength+1), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateGoal(tc.goal)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateGoal() error = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "invalid_request"},
		{http.StatusRequestEntityTooLarge, "invalid_request"},
		{http.StatusNotFound, "not_found"},
		{http.StatusTooManyRequests, "rate_limited"},
		{http.StatusInternalServerError, "internal_error"},
		{http.StatusServiceUnavailable, "internal_error"},
	}

	for _, tc := range tests {
		if got := errorType(tc.status); got != tc.want {
			t.Errorf("errorType(%d) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	if !rl.Allow("192.0.2.1") {
		t.Error("first request should be allowed")
	}
	if !rl.Allow("192.0.2.1") {
		t.Error("second request should fit in the burst")
	}
	if rl.Allow("192.0.2.1") {
		t.Error("third request should be limited")
	}

	// A different client gets its own bucket.
	if !rl.Allow("192.0.2.2") {
		t.Error("other client should be allowed")
	}

	if rl.Clients() != 2 {
		t.Errorf("Clients() = %d, want 2", rl.Clients())
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)

	if rl.limit != rate.Limit(DefaultRatePerSecond) {
		t.Errorf("limit = %v, want %v", rl.limit, rate.Limit(DefaultRatePerSecond))
	}
	if rl.burst != DefaultRateBurst {
		t.Errorf("burst = %d, want %d", rl.burst, DefaultRateBurst)
	}
}

func TestRateLimiter_SetRate(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if !rl.Allow("192.0.2.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("192.0.2.1") {
		t.Fatal("second request should be limited at burst 1")
	}

	rl.SetRate(100, 3)

	if per, burst := rl.Rate(); per != 100 || burst != 3 {
		t.Errorf("Rate() = (%v, %d), want (100, 3)", per, burst)
	}

	// Existing buckets pick up the new settings.
	rl.mu.Lock()
	existing := rl.clients["192.0.2.1"].limiter
	rl.mu.Unlock()
	if existing.Limit() != rate.Limit(100) {
		t.Errorf("existing client limit = %v, want 100", existing.Limit())
	}
	if existing.Burst() != 3 {
		t.Errorf("existing client burst = %d, want 3", existing.Burst())
	}

	// A new client starts with the raised burst.
	for i := 0; i < 3; i++ {
		if !rl.Allow("192.0.2.9") {
			t.Errorf("request %d from new client should fit in the burst", i+1)
		}
	}
	if rl.Allow("192.0.2.9") {
		t.Error("burst-exceeding request should be limited")
	}

	rl.SetRate(0, 0)
	if per, burst := rl.Rate(); per != DefaultRatePerSecond || burst != DefaultRateBurst {
		t.Errorf("Rate() = (%v, %d), want defaults (%d, %d)",
			per, burst, DefaultRatePerSecond, DefaultRateBurst)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	handler := RateLimitMiddleware(limiter, logging.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("first request status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", w.Header().Get("Retry-After"))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	id := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Request-Id %q is not a UUID: %v", id, err)
	}
	if seen != id {
		t.Errorf("context id = %q, header id = %q", seen, id)
	}
}

func TestRequestIDMiddleware_KeepsValidIncoming(t *testing.T) {
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	incoming := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, incoming)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != incoming {
		t.Errorf("X-Request-Id = %q, want incoming %q preserved", got, incoming)
	}
}

func TestRequestIDMiddleware_ReplacesInvalidIncoming(t *testing.T) {
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	got := w.Header().Get(RequestIDHeader)
	if got == "not-a-uuid" {
		t.Error("invalid incoming id should be replaced")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("replacement id %q is not a UUID: %v", got, err)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'self'",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(logging.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestLoggingMiddleware_PassesStatusThrough(t *testing.T) {
	handler := LoggingMiddleware(logging.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusTeapot)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mark("first"), mark("second"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := "first,second,handler"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("execution order = %s, want %s", got, want)
	}
}

// =============================================================================
// CLIENT IP TESTS
// =============================================================================

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{
			name:       "direct untrusted connection",
			remoteAddr: "203.0.113.7:1234",
			want:       "203.0.113.7",
		},
		{
			name:       "untrusted connection ignores forwarded header",
			remoteAddr: "203.0.113.7:1234",
			xff:        "198.51.100.9",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy honors forwarded header",
			remoteAddr: "127.0.0.1:9999",
			xff:        "198.51.100.9",
			want:       "198.51.100.9",
		},
		{
			name:       "forwarded list uses first entry",
			remoteAddr: "127.0.0.1:9999",
			xff:        "198.51.100.9, 10.0.0.1",
			want:       "198.51.100.9",
		},
		{
			name:       "invalid forwarded entry falls through to real ip",
			remoteAddr: "127.0.0.1:9999",
			xff:        "not-an-ip",
			realIP:     "198.51.100.77",
			want:       "198.51.100.77",
		},
		{
			name:       "trusted proxy without headers",
			remoteAddr: "127.0.0.1:9999",
			want:       "127.0.0.1",
		},
		{
			name:       "private network is trusted",
			remoteAddr: "192.168.1.50:4321",
			xff:        "198.51.100.9",
			want:       "198.51.100.9",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}

			if got := GetClientIP(req); got != tc.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}
