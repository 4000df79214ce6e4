// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events persists run lifecycle events to a local SQLite
// database. Events are the durable audit trail of the orchestrator:
// plan creation, run completion, and server startup all land here.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// EVENT
// =============================================================================

// Event is one row of the run event log.
type Event struct {
	// ID is the database-assigned identifier, ascending with time.
	ID int64 `json:"id"`

	// Timestamp is when the event was recorded.
	Timestamp time.Time `json:"timestamp"`

	// EventType is the lifecycle marker, e.g. PLAN or DONE.
	EventType string `json:"event_type"`

	// Details is the free-form payload attached to the event.
	Details map[string]interface{} `json:"details"`
}

// =============================================================================
// STORE
// =============================================================================

// Store is a SQLite-backed event log.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the event database at path, applying pragmas
// and the schema. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create event database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event database: %w", err)
	}

	// SQLite supports one writer at a time, so keep the pool at a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize event schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends an event and returns its assigned id.
func (s *Store) Record(ctx context.Context, eventType string, details map[string]interface{}) (int64, error) {
	if details == nil {
		details = map[string]interface{}{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return 0, fmt.Errorf("failed to encode event details: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO run_events (timestamp, event_type, details) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339Nano), eventType, string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read event id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, event_type, details FROM run_events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev      Event
			ts      string
			details string
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.EventType, &details); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.Timestamp = parsed
		}
		if err := json.Unmarshal([]byte(details), &ev.Details); err != nil {
			ev.Details = map[string]interface{}{}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountByType returns event counts grouped by event type.
func (s *Store) CountByType(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT event_type, COUNT(*) FROM run_events GROUP BY event_type",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			eventType string
			n         int
		)
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[eventType] = n
	}
	return counts, rows.Err()
}

// Total returns the number of recorded events.
func (s *Store) Total(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM run_events").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}
