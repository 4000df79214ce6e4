// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.Info("plan built", "goal", "deploy the agent", "steps", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "plan built" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["goal"] != "deploy the agent" {
		t.Errorf("goal = %v", entry["goal"])
	}
	if entry["steps"] != float64(3) {
		t.Errorf("steps = %v", entry["steps"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	log.Debug("dropped")
	log.Info("dropped too")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("below-level entries leaked: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn entry missing: %q", out)
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.WithError(nil).Info("no error attached")
	if strings.Contains(buf.String(), "\"error\"") {
		t.Error("nil error should not add an error attribute")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})

	log.Debug("before")
	if strings.Contains(buf.String(), "before") {
		t.Fatal("debug entry leaked at info level")
	}

	log.SetLevel(LevelDebug)
	log.Debug("after")
	if !strings.Contains(buf.String(), "after") {
		t.Error("debug entry missing after SetLevel")
	}
	if log.Config().Level != LevelDebug {
		t.Errorf("Config().Level = %v, want LevelDebug", log.Config().Level)
	}
}

func TestSetLevelAppliesToDerived(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})
	derived := log.With("component", "runner")

	log.SetLevel(LevelError)
	derived.Info("dropped")
	if strings.Contains(buf.String(), "dropped") {
		t.Error("derived logger ignored SetLevel on parent")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("text") != FormatText {
		t.Error("text should parse to FormatText")
	}
	if ParseFormat("json") != FormatJSON {
		t.Error("json should parse to FormatJSON")
	}
	if ParseFormat("") != FormatJSON {
		t.Error("empty should fall back to FormatJSON")
	}
}
