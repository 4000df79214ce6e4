// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// WORKFLOW KINDS
// =============================================================================

// WorkflowKind identifies the step template a goal resolves to.
type WorkflowKind int

const (
	// WorkflowGeneric is the fallback when no keyword group matches.
	WorkflowGeneric WorkflowKind = iota

	// WorkflowETL covers data movement and pipeline goals.
	WorkflowETL

	// WorkflowTraining covers model training goals.
	WorkflowTraining

	// WorkflowDeployment covers agent rollout goals.
	WorkflowDeployment
)

// String returns the human-readable name of the workflow kind.
func (k WorkflowKind) String() string {
	switch k {
	case WorkflowETL:
		return "etl"
	case WorkflowTraining:
		return "training"
	case WorkflowDeployment:
		return "deployment"
	case WorkflowGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier maps a goal to the workflow kind whose template the planner
// instantiates. Implementations must be deterministic: the same goal
// always yields the same kind.
type Classifier interface {
	Classify(goal string) WorkflowKind
}

// keywordGroup binds a workflow kind to the substrings that select it.
type keywordGroup struct {
	kind     WorkflowKind
	keywords []string
}

// KeywordClassifier matches goals against ordered keyword groups using
// case-insensitive substring containment. The first group with any hit
// wins, so earlier groups take priority when a goal mentions several
// domains.
type KeywordClassifier struct {
	groups []keywordGroup
}

// NewKeywordClassifier returns a classifier with the built-in keyword
// groups, checked in order: ETL, training, deployment.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		groups: []keywordGroup{
			{kind: WorkflowETL, keywords: []string{"etl", "data", "pipeline"}},
			{kind: WorkflowTraining, keywords: []string{"train", "model"}},
			{kind: WorkflowDeployment, keywords: []string{"deploy", "agent"}},
		},
	}
}

// Classify returns the workflow kind for goal. Matching runs on the
// NFC-normalized, lowercased goal so composed and decomposed input
// compare equal.
func (c *KeywordClassifier) Classify(goal string) WorkflowKind {
	normalized := strings.ToLower(norm.NFC.String(goal))
	for _, group := range c.groups {
		for _, kw := range group.keywords {
			if strings.Contains(normalized, kw) {
				return group.kind
			}
		}
	}
	return WorkflowGeneric
}
