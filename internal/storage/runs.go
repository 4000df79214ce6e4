// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// STORED RUN TYPE
// =============================================================================

// StoredRun is a persisted record of one executed task.
type StoredRun struct {
	// ID identifies the stored run.
	ID string `json:"id"`

	// Goal is the objective that was executed.
	Goal string `json:"goal"`

	// Status is the overall run status.
	Status string `json:"status"`

	// Plan is the plan that was executed.
	Plan *plan.Plan `json:"plan,omitempty"`

	// Results holds the per-step reports in execution order.
	Results []engine.StepReport `json:"results"`

	// StepsTotal and StepsSucceeded summarize the run for listings.
	StepsTotal     int `json:"steps_total"`
	StepsSucceeded int `json:"steps_succeeded"`

	// DurationSeconds is the wall-clock execution time.
	DurationSeconds float64 `json:"duration_seconds"`

	// CreatedAt is when the run was persisted.
	CreatedAt time.Time `json:"created_at"`
}

// NewStoredRun builds a storable record from a task result.
func NewStoredRun(result *engine.TaskResult) *StoredRun {
	return &StoredRun{
		Goal:            result.Goal,
		Status:          result.Status,
		Plan:            result.Plan,
		Results:         result.Results,
		StepsTotal:      len(result.Results),
		StepsSucceeded:  result.StepsCompleted(),
		DurationSeconds: result.DurationSeconds,
	}
}

// Preview returns the goal truncated for table display.
func (r *StoredRun) Preview() string {
	return util.TruncateRunes(strings.ReplaceAll(r.Goal, "\n", " "), 80)
}

// RunMeta is the listing view of a stored run.
type RunMeta struct {
	ID              string    `json:"id"`
	Goal            string    `json:"goal"`
	Status          string    `json:"status"`
	StepsTotal      int       `json:"steps_total"`
	StepsSucceeded  int       `json:"steps_succeeded"`
	DurationSeconds float64   `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// =============================================================================
// RUN STORE
// =============================================================================

// RunStore persists runs as one JSON file each.
type RunStore struct {
	// BaseDir is the directory holding run files.
	// Default: ~/.opsforge/runs/
	BaseDir string

	// MaxRuns limits stored runs (0 = unlimited).
	MaxRuns int
}

// NewRunStore creates a run store under the user's home directory.
func NewRunStore() (*RunStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewRunStoreWithDir(filepath.Join(homeDir, ".opsforge", "runs"))
}

// NewRunStoreWithDir creates a run store in a custom directory.
func NewRunStoreWithDir(baseDir string) (*RunStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &RunStore{
		BaseDir: baseDir,
		MaxRuns: 100,
	}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a run and returns its ID.
func (s *RunStore) Save(run *StoredRun) (string, error) {
	if run.ID == "" {
		run.ID = generateRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", err
	}

	if err := util.AtomicWriteFile(s.filePath(run.ID), data, 0644); err != nil {
		return "", err
	}

	if s.MaxRuns > 0 {
		s.enforceLimit()
	}

	return run.ID, nil
}

// enforceLimit removes the oldest runs when over the cap.
func (s *RunStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxRuns {
		return
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.Before(metas[j].CreatedAt)
	})

	excess := len(metas) - s.MaxRuns
	for i := 0; i < excess; i++ {
		s.Delete(metas[i].ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a run by ID.
func (s *RunStore) Load(id string) (*StoredRun, error) {
	if strings.ContainsAny(id, `/\`) {
		return nil, ErrRunNotFound
	}

	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	var run StoredRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// LoadByIndex loads a run by its position in the listing (0 = most
// recent).
func (s *RunStore) LoadByIndex(index int) (*StoredRun, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(metas) {
		return nil, ErrRunNotFound
	}
	return s.Load(metas[index].ID)
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns all stored runs, most recent first.
func (s *RunStore) List() ([]RunMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMeta{}, nil
		}
		return nil, err
	}

	var metas []RunMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		run, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip corrupted files.
			continue
		}

		metas = append(metas, RunMeta{
			ID:              run.ID,
			Goal:            run.Preview(),
			Status:          run.Status,
			StepsTotal:      run.StepsTotal,
			StepsSucceeded:  run.StepsSucceeded,
			DurationSeconds: run.DurationSeconds,
			CreatedAt:       run.CreatedAt,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})

	return metas, nil
}

// Search finds runs whose goal or status contains the query
// (case-insensitive).
func (s *RunStore) Search(query string) ([]RunMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []RunMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Goal), query) ||
			strings.Contains(strings.ToLower(meta.Status), query) {
			results = append(results, meta)
		}
	}
	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a run by ID.
func (s *RunStore) Delete(id string) error {
	if strings.ContainsAny(id, `/\`) {
		return ErrRunNotFound
	}
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrRunNotFound
		}
		return err
	}
	return nil
}

// Clear removes all stored runs.
func (s *RunStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// filePath returns the file path for a run ID.
func (s *RunStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// generateRunID creates a unique run ID.
func generateRunID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "run_" + hex.EncodeToString(bytes)
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrRunNotFound is returned when a run doesn't exist.
// Use errors.Is(err, ErrRunNotFound) to check for this error.
var ErrRunNotFound = &RunError{Message: "run not found"}

// RunError represents a run-storage error.
type RunError struct {
	Message string
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing run errors.
func (e *RunError) Is(target error) bool {
	t, ok := target.(*RunError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
