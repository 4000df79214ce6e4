// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import "testing"

func TestClassifyKeywordGroups(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		goal string
		want WorkflowKind
	}{
		{"run the nightly ETL job", WorkflowETL},
		{"move data into the warehouse", WorkflowETL},
		{"kick off the ingest pipeline", WorkflowETL},
		{"train the ranking model", WorkflowTraining},
		{"retrain on fresh labels", WorkflowTraining},
		{"evaluate the new model", WorkflowTraining},
		{"deploy to staging", WorkflowDeployment},
		{"roll out the support agent", WorkflowDeployment},
		{"summarize last week's incidents", WorkflowGeneric},
		{"", WorkflowGeneric},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.goal); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.goal, got, tt.want)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := NewKeywordClassifier()

	if got := c.Classify("DEPLOY THE AGENT"); got != WorkflowDeployment {
		t.Errorf("Classify uppercase = %s, want deployment", got)
	}

	if got := c.Classify("Run The Data Export"); got != WorkflowETL {
		t.Errorf("Classify mixed case = %s, want etl", got)
	}
}

func TestClassifySubstringMatch(t *testing.T) {
	c := NewKeywordClassifier()

	// Keywords match inside larger words.
	if got := c.Classify("refresh the database"); got != WorkflowETL {
		t.Errorf("Classify(database) = %s, want etl", got)
	}

	if got := c.Classify("resume training"); got != WorkflowTraining {
		t.Errorf("Classify(training) = %s, want training", got)
	}

	if got := c.Classify("redeployment window"); got != WorkflowDeployment {
		t.Errorf("Classify(redeployment) = %s, want deployment", got)
	}
}

func TestClassifyGroupPriority(t *testing.T) {
	c := NewKeywordClassifier()

	// ETL keywords win over later groups when both appear.
	if got := c.Classify("train the model on pipeline data"); got != WorkflowETL {
		t.Errorf("Classify mixed-domain goal = %s, want etl", got)
	}

	// Training wins over deployment.
	if got := c.Classify("train then deploy"); got != WorkflowTraining {
		t.Errorf("Classify train+deploy = %s, want training", got)
	}
}

func TestWorkflowKindString(t *testing.T) {
	tests := []struct {
		kind WorkflowKind
		want string
	}{
		{WorkflowETL, "etl"},
		{WorkflowTraining, "training"},
		{WorkflowDeployment, "deployment"},
		{WorkflowGeneric, "generic"},
		{WorkflowKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("WorkflowKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
