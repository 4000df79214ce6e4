// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/opsforge/internal/storage"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports run reports to JSON format.
// NOTE: JSON exports always include the complete run record and do not
// respect filtering options. This ensures the exported JSON is a faithful
// representation of the stored run that can be re-imported.
type JSONExporter struct {
	// Options are accepted but currently not used for filtering.
	// JSON exports always include complete data.
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
// The options parameter is accepted for consistency with other exporters,
// but JSON exports always include the complete run record.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export renders a stored run to JSON format.
// NOTE: This always exports the complete record regardless of options.
func (e *JSONExporter) Export(run *storage.StoredRun) ([]byte, error) {
	// Validate run data
	if run == nil {
		return nil, fmt.Errorf("run is nil")
	}

	return json.MarshalIndent(run, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
