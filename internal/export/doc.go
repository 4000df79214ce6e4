// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders stored run records into shareable report formats.
//
// Reports are built from storage.StoredRun records and can be written to
// disk or fed to a terminal renderer.
//
// # Key Types
//
//   - Exporter: report generation interface
//   - Options: export configuration options
//   - MarkdownExporter, JSONExporter, TextExporter: format implementations
//
// # Supported Formats
//
//   - JSON: machine-readable, complete record for re-ingestion
//   - Markdown: human-readable, suitable for terminal rendering
//   - Text: plain summary for logs and pipes
//
// # Usage
//
// Render a run report to Markdown and save it:
//
//	opts := export.DefaultOptions()
//	opts.OutputDir = "./reports"
//	path, err := export.ExportMarkdown(run, opts)
//
// Render in memory for terminal display:
//
//	content, err := export.NewMarkdownExporter(nil).Export(run)
package export
