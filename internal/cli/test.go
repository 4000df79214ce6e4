// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/opsforge/internal/jobs"
)

// =============================================================================
// SELF TEST COMMAND
// =============================================================================

// Self test statuses.
const (
	TestStatusPass = "PASS"
	TestStatusFail = "FAIL"
	TestStatusSkip = "SKIP"
)

// selfTestTimeout bounds each probe individually.
const selfTestTimeout = 10 * time.Second

// SelfTest is one built-in probe. Probes run against the configured
// stores, so a pass means the real deployment is usable, not just the
// code.
type SelfTest struct {
	ID          string
	Name        string
	Description string
	Category    string
	Run         func(ctx context.Context, s *stack) (message string, err error)
}

// SelfTestResult is the outcome of one probe.
type SelfTestResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"-"`
}

// MarshalJSON adds the duration in milliseconds to the wire form.
func (r SelfTestResult) MarshalJSON() ([]byte, error) {
	type alias SelfTestResult
	return json.Marshal(struct {
		alias
		DurationMs int64 `json:"duration_ms"`
	}{
		alias:      alias(r),
		DurationMs: r.Duration.Milliseconds(),
	})
}

// SelfTestSummary aggregates probe outcomes.
type SelfTestSummary struct {
	Total    int   `json:"total"`
	Passed   int   `json:"passed"`
	Failed   int   `json:"failed"`
	Skipped  int   `json:"skipped"`
	Duration int64 `json:"duration_ms"`
}

// selfTests is the probe registry, in execution order.
var selfTests = []SelfTest{
	{
		ID:          "STORE-001",
		Name:        "Event store insert",
		Description: "Records a SELF_TEST event in the configured event store",
		Category:    "Storage",
		Run: func(ctx context.Context, s *stack) (string, error) {
			id, err := s.events.Record(ctx, "SELF_TEST", map[string]interface{}{
				"probe":     true,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("event id %d", id), nil
		},
	},
	{
		ID:          "STORE-002",
		Name:        "Event store query",
		Description: "Reads recent events back from the event store",
		Category:    "Storage",
		Run: func(ctx context.Context, s *stack) (string, error) {
			recent, err := s.events.Recent(ctx, 1)
			if err != nil {
				return "", err
			}
			if len(recent) == 0 {
				return "", fmt.Errorf("no events visible after insert probe")
			}
			total, err := s.events.Total(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d events total", total), nil
		},
	},
	{
		ID:          "STORE-003",
		Name:        "Artifact write/read",
		Description: "Writes a probe artifact and reads it back",
		Category:    "Storage",
		Run: func(ctx context.Context, s *stack) (string, error) {
			content := "self test probe at " + time.Now().UTC().Format(time.RFC3339Nano)
			path, err := s.store.WriteText("self_test/probe.txt", content)
			if err != nil {
				return "", err
			}
			back, err := s.store.ReadText("self_test/probe.txt")
			if err != nil {
				return "", err
			}
			if back != content {
				return "", fmt.Errorf("artifact content mismatch after rewrite")
			}
			return path, nil
		},
	},
	{
		ID:          "JOB-001",
		Name:        "ETL job simulation",
		Description: "Runs a short simulated pipeline job",
		Category:    "Jobs",
		Run: func(ctx context.Context, s *stack) (string, error) {
			svc := jobs.NewService(s.log, jobs.WithETLDelay(50*time.Millisecond))
			result, err := svc.RunJob(ctx, map[string]interface{}{
				"goal":     "self test",
				"pipeline": "self-test",
			})
			if err != nil {
				return "", err
			}
			return compactValue(result["status"]), nil
		},
	},
	{
		ID:          "JOB-002",
		Name:        "Deployment simulation",
		Description: "Submits a simulated agent deployment",
		Category:    "Jobs",
		Run: func(ctx context.Context, s *stack) (string, error) {
			svc := jobs.NewService(s.log, jobs.WithETLDelay(50*time.Millisecond))
			result, err := svc.Deploy(ctx, "self-test-agent", "v0.0.0", map[string]interface{}{
				"replicas": 1,
			})
			if err != nil {
				return "", err
			}
			return compactValue(result["status"]), nil
		},
	},
	{
		ID:          "PLAN-001",
		Name:        "Planner round trip",
		Description: "Plans a goal and validates it against the registry",
		Category:    "Planner",
		Run: func(ctx context.Context, s *stack) (string, error) {
			p := s.engine.Plan("run the self test pipeline")
			if err := s.engine.Runner().Validate(p); err != nil {
				return "", err
			}
			return fmt.Sprintf("%d steps", len(p.Steps)), nil
		},
	},
}

// HandleTest runs the built-in self tests against the configured
// deployment.
//
// Usage:
//
//	opsforge test [--json]
func HandleTest(args Args) error {
	s, err := buildStack(args)
	if err != nil {
		return err
	}
	defer s.Close()

	results, summary := runSelfTests(s)

	if args.JSON {
		resp := NewSuccessResponse("test", map[string]interface{}{
			"results": results,
			"summary": summary,
		})
		if summary.Failed > 0 {
			resp.Success = false
			resp.Error = fmt.Sprintf("%d of %d self tests failed", summary.Failed, summary.Total)
		}
		resp.Print()
		if summary.Failed > 0 {
			os.Exit(ExitGeneralError)
		}
		return nil
	}

	printSelfTestResults(results, summary)

	if summary.Failed > 0 {
		return NewCommandError("test",
			fmt.Sprintf("%d of %d self tests failed", summary.Failed, summary.Total),
			ExitGeneralError, nil)
	}
	return nil
}

// runSelfTests executes every registered probe in order.
func runSelfTests(s *stack) ([]SelfTestResult, SelfTestSummary) {
	start := time.Now()
	results := make([]SelfTestResult, 0, len(selfTests))
	summary := SelfTestSummary{Total: len(selfTests)}

	for _, test := range selfTests {
		ctx, cancel := context.WithTimeout(context.Background(), selfTestTimeout)
		probeStart := time.Now()
		message, err := test.Run(ctx, s)
		cancel()

		result := SelfTestResult{
			ID:       test.ID,
			Name:     test.Name,
			Category: test.Category,
			Status:   TestStatusPass,
			Message:  message,
			Duration: time.Since(probeStart),
		}
		if err != nil {
			result.Status = TestStatusFail
			result.Message = err.Error()
			summary.Failed++
		} else {
			summary.Passed++
		}
		results = append(results, result)
	}

	summary.Duration = time.Since(start).Milliseconds()
	return results, summary
}

// printSelfTestResults renders probe outcomes grouped by category.
func printSelfTestResults(results []SelfTestResult, summary SelfTestSummary) {
	fmt.Println(TitleStyle.Render("opsforge self test"))
	fmt.Println()

	category := ""
	for _, r := range results {
		if r.Category != category {
			category = r.Category
			fmt.Println(SectionStyle.Render(category))
		}
		fmt.Printf("  %s %-10s %-24s %6s  %s\n",
			renderTestStatus(r.Status), r.ID, r.Name,
			fmt.Sprintf("%dms", r.Duration.Milliseconds()),
			DimStyle.Render(r.Message))
	}

	fmt.Println()
	line := fmt.Sprintf("%d passed, %d failed of %d in %dms",
		summary.Passed, summary.Failed, summary.Total, summary.Duration)
	if summary.Failed > 0 {
		fmt.Println(ErrorStyle.Render(line))
	} else {
		fmt.Println(SuccessStyle.Render(line))
	}
}

// renderTestStatus renders a probe status marker.
func renderTestStatus(status string) string {
	switch status {
	case TestStatusPass:
		return SuccessStyle.Render("[PASS]")
	case TestStatusFail:
		return ErrorStyle.Render("[FAIL]")
	default:
		return WarningStyle.Render("[SKIP]")
	}
}
