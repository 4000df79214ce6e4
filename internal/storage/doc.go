// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists executed runs as JSON files.
//
// Each run is one file under the store directory (default
// ~/.opsforge/runs/), written atomically so a crash never leaves a
// truncated record. The store trims the oldest runs beyond its cap.
//
// # Key Types
//
//   - StoredRun: one persisted run with its plan and step reports
//   - RunMeta: lightweight listing entry
//   - RunStore: Save/Load/List/Search/Delete over the run directory
package storage
