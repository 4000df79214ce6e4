// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history keeps an in-memory, append-only log of tool
// executions and aggregates it into run summaries.
//
// The log records completed executions only: a step that times out
// never reaches the history because its worker is abandoned mid-flight
// and its outcome is unknown. Records are never mutated or removed once
// appended.
package history

import (
	"encoding/json"
	"sync"
	"time"
)

// =============================================================================
// STATUSES
// =============================================================================

// Execution statuses shared by step results and history records.
// History records only ever carry StatusSuccess or StatusFailed; the
// timeout and error statuses appear on step results.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
	StatusError   = "error"
)

// NoHistoryMessage is the summary marker used before any execution has
// been recorded.
const NoHistoryMessage = "No execution history"

// =============================================================================
// RECORD
// =============================================================================

// Record is one completed tool execution.
type Record struct {
	// Tool is the registry name of the executed tool.
	Tool string `json:"tool"`

	// Args are the arguments the tool ran with.
	Args map[string]interface{} `json:"args"`

	// Result holds the tool's return value when the execution
	// succeeded.
	Result map[string]interface{} `json:"result,omitempty"`

	// Error holds the failure message when the execution failed.
	Error string `json:"error,omitempty"`

	// Status is StatusSuccess or StatusFailed.
	Status string `json:"status"`

	// Timestamp is when the outcome was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// =============================================================================
// HISTORY
// =============================================================================

// History is a concurrency-safe, append-only execution log.
type History struct {
	mu      sync.Mutex
	records []Record
}

// New creates an empty history.
func New() *History {
	return &History{
		records: make([]Record, 0),
	}
}

// Append adds a record to the log.
func (h *History) Append(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
}

// Records returns a copy of the log in append order.
func (h *History) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// Len returns the number of recorded executions.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Summarize aggregates the log into a Summary. Calling it does not
// change the log, so repeated calls over an unchanged history return
// identical summaries.
func (h *History) Summarize() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := len(h.records)
	if total == 0 {
		return Summary{}
	}

	successful := 0
	failed := 0
	for _, r := range h.records {
		switch r.Status {
		case StatusSuccess:
			successful++
		case StatusFailed:
			failed++
		}
	}

	last := h.records[total-1]
	return Summary{
		TotalExecutions: total,
		Successful:      successful,
		Failed:          failed,
		SuccessRate:     float64(successful) / float64(total),
		LastExecution:   &last,
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is an aggregate view of the execution history. The zero value
// represents an empty history.
type Summary struct {
	// TotalExecutions is the number of recorded executions.
	TotalExecutions int

	// Successful counts records with StatusSuccess.
	Successful int

	// Failed counts records with StatusFailed.
	Failed int

	// SuccessRate is Successful over TotalExecutions, in [0, 1].
	SuccessRate float64

	// LastExecution is the most recent record.
	LastExecution *Record
}

// summaryJSON is the wire form of a non-empty summary.
type summaryJSON struct {
	TotalExecutions int     `json:"total_executions"`
	Successful      int     `json:"successful"`
	Failed          int     `json:"failed"`
	SuccessRate     float64 `json:"success_rate"`
	LastExecution   *Record `json:"last_execution"`
}

// MarshalJSON renders an empty summary as the no-history marker and a
// populated one as the full aggregate.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.TotalExecutions == 0 {
		return json.Marshal(map[string]string{"message": NoHistoryMessage})
	}
	return json.Marshal(summaryJSON{
		TotalExecutions: s.TotalExecutions,
		Successful:      s.Successful,
		Failed:          s.Failed,
		SuccessRate:     s.SuccessRate,
		LastExecution:   s.LastExecution,
	})
}

// Empty reports whether the summary was taken over an empty history.
func (s Summary) Empty() bool {
	return s.TotalExecutions == 0
}
