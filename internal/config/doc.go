// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for opsforge.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.opsforge/config.toml
//   - ~/.opsforge/config.json
//   - Built-in defaults
//
// # Key Types
//
//   - Config: the complete configuration tree
//   - ValidationError, ValidateErrors: field-level validation failures
//   - Watcher: fsnotify-based hot reload for running servers
//
// # Usage
//
// Load with defaults, file values, and OPSFORGE_* overrides applied:
//
//	cfg, err := config.Load()
//
// Update a single value from the CLI:
//
//	err := cfg.Set("logging.level", "debug")
//	err = config.Save(cfg)
package config
