// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrUnknownTool is returned when a name does not resolve to a
// registered tool.
var ErrUnknownTool = errors.New("unknown tool")

// =============================================================================
// SINK INTERFACES
// =============================================================================

// EventRecorder persists lifecycle events.
type EventRecorder interface {
	Record(ctx context.Context, eventType string, details map[string]interface{}) (int64, error)
}

// ArtifactWriter stores text artifacts and returns where they landed.
type ArtifactWriter interface {
	WriteText(path, content string) (string, error)
}

// JobService submits pipeline, training, and deployment work.
type JobService interface {
	RunJob(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error)
	SubmitTraining(ctx context.Context, modelName string, config map[string]interface{}) (map[string]interface{}, error)
	Deploy(ctx context.Context, agentName, version string, config map[string]interface{}) (map[string]interface{}, error)
}

// =============================================================================
// TOOL DEFINITION
// =============================================================================

// Runner executes a tool invocation.
type Runner interface {
	Run(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return f(ctx, args)
}

// Tool binds a registry name to its implementation.
type Tool struct {
	// Name is the registry key, e.g. "etl_run_job".
	Name string

	// Description is a one-line summary for listings.
	Description string

	// Runner performs the actual work.
	Runner Runner
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds the available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// NewDefaultRegistry creates a registry with the five built-in tools
// wired to the given backends.
func NewDefaultRegistry(events EventRecorder, store ArtifactWriter, svc JobService) *Registry {
	r := NewRegistry()
	r.Register(NewRecordEventTool(events))
	r.Register(NewWriteArtifactTool(store))
	r.Register(NewRunJobTool(svc))
	r.Register(NewTrainModelTool(svc))
	r.Register(NewDeployAgentTool(svc))
	return r
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(tool *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
}

// Get retrieves a tool by name, or nil when unknown.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Resolve retrieves a tool by name, returning ErrUnknownTool when the
// name is not registered.
func (r *Registry) Resolve(name string) (*Tool, error) {
	if tool := r.Get(name); tool != nil {
		return tool, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
