// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

// Schema creates the run event log. The table is append-only: rows are
// inserted by Record and never updated or deleted.
const Schema = `
CREATE TABLE IF NOT EXISTS run_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    event_type TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_run_events_event_type ON run_events(event_type);
CREATE INDEX IF NOT EXISTS idx_run_events_timestamp ON run_events(timestamp);
`
