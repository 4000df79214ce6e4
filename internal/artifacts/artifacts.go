// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package artifacts stores plan outputs as files under a single root
// directory. Artifact paths are always relative to the root; writes are
// atomic so readers never observe a partially written artifact.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeranaias/opsforge/internal/util"
)

// Store writes text artifacts beneath a root directory.
type Store struct {
	root string
}

// NewStore creates the artifact root when missing and returns a store
// bound to it.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute artifact root directory.
func (s *Store) Root() string {
	return s.root
}

// WriteText stores content at the given relative path and returns the
// absolute location of the written artifact.
func (s *Store) WriteText(path, content string) (string, error) {
	target, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := util.AtomicWriteFile(target, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return target, nil
}

// ReadText returns the content of the artifact at the given relative
// path.
func (s *Store) ReadText(path string) (string, error) {
	target, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	return string(data), nil
}

// List returns the relative paths of all stored artifacts, sorted.
func (s *Store) List() ([]string, error) {
	var paths []string
	err := filepath.Walk(s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// resolve maps a relative artifact path to an absolute path under the
// root, rejecting absolute paths and anything escaping the root.
func (s *Store) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("artifact path cannot be empty")
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("artifact path must be relative: %s", path)
	}

	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact path escapes store root: %s", path)
	}

	return filepath.Join(s.root, clean), nil
}
