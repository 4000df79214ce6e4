// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package artifacts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAndReadText(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	uri, err := store.WriteText("etl/results/1700000000.json", `{"goal":"g","status":"completed"}`)
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.HasPrefix(uri, store.Root()) {
		t.Errorf("uri %q not under root %q", uri, store.Root())
	}

	got, err := store.ReadText("etl/results/1700000000.json")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != `{"goal":"g","status":"completed"}` {
		t.Errorf("content = %q", got)
	}
}

func TestWriteCreatesNestedDirectories(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if _, err := store.WriteText("training/logs/123.txt", "Training initiated"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	if _, err := os.Stat(filepath.Join(store.Root(), "training", "logs", "123.txt")); err != nil {
		t.Errorf("artifact file missing: %v", err)
	}
}

func TestWriteOverwrites(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if _, err := store.WriteText("runs/1.txt", "first"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if _, err := store.WriteText("runs/1.txt", "second"); err != nil {
		t.Fatalf("WriteText overwrite: %v", err)
	}

	got, err := store.ReadText("runs/1.txt")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "second" {
		t.Errorf("content = %q, want second", got)
	}
}

func TestRejectsEscapingPaths(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, path := range []string{
		"../outside.txt",
		"a/../../outside.txt",
		"/etc/passwd",
		"",
	} {
		if _, err := store.WriteText(path, "x"); err == nil {
			t.Errorf("WriteText(%q) should fail", path)
		}
	}

	// Interior traversal that stays under the root is fine.
	if _, err := store.WriteText("a/../b.txt", "ok"); err != nil {
		t.Errorf("WriteText(a/../b.txt) = %v, want success", err)
	}
}

func TestList(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, p := range []string{"runs/2.txt", "etl/results/1.json", "runs/1.txt"} {
		if _, err := store.WriteText(p, "x"); err != nil {
			t.Fatalf("WriteText(%s): %v", p, err)
		}
	}

	paths, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"etl/results/1.json", "runs/1.txt", "runs/2.txt"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}
