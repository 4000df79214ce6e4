// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks tracks asynchronously submitted orchestration tasks.
//
// A Task wraps one goal execution accepted over the HTTP surface. The
// Manager bounds how many tasks execute concurrently, enforces a
// per-task timeout, and keeps a trimmed history of finished tasks for
// status queries.
//
// # Key Types
//
//   - Task: one submitted goal with its status and eventual result
//   - Status: accepted -> running -> completed/failed/canceled
//   - Manager: submits, tracks, and cancels tasks
//
// # Usage
//
//	mgr := tasks.NewManager(eng, tasks.WithMaxConcurrent(4))
//	task, err := mgr.Submit("Run ETL pipeline for sales data")
//	...
//	if snapshot, ok := mgr.Get(task.ID); ok {
//	    fmt.Println(snapshot.Status)
//	}
package tasks
