// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across opsforge packages.
//
// It covers three concerns that keep recurring in the rest of the tree:
//
// Display text:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: terminal-column aware truncation
//
// Number formatting:
//   - IntToString, Int64ToString, FloatToString: display formatting
//
// File operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate long goals safely for display
//	preview := util.TruncateRunes(goal, 80)
//
//	// Write state files atomically to prevent corruption
//	err := util.AtomicWriteFile(path, data, 0644)
package util
