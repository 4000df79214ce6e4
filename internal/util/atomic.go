// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriteFile writes data to path without ever exposing a partial
// file: readers see the old content or the new content, nothing in
// between, even across a crash. Parent directories are created as
// needed.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp, err := writeTemp(dir, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace target file: %w", err)
	}
	return nil
}

// writeTemp writes data to a fresh temp file in dir, synced to disk
// and carrying the requested permissions, and returns its path. The
// temp file lives in dir itself: the rename that follows is only
// atomic when both paths share a filesystem.
func writeTemp(dir string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	fail := func(what string, err error) (string, error) {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to %s: %w", what, err)
	}

	if _, err := f.Write(data); err != nil {
		return fail("write temp file", err)
	}
	// The data must be on disk before the rename publishes it.
	if err := f.Sync(); err != nil {
		return fail("sync temp file", err)
	}
	// Close before chmod and rename; some platforms require it.
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	return name, nil
}
