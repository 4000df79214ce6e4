// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/opsforge/internal/engine"
	"github.com/jeranaias/opsforge/internal/history"
	"github.com/jeranaias/opsforge/internal/plan"
	"github.com/jeranaias/opsforge/internal/tools"
	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// PROGRESS EVENTS
// =============================================================================

// progressBuffer sizes the event channel so the executor never blocks
// on a slow or torn-down UI. Plans are a handful of steps, so this is
// generous.
const progressBuffer = 64

type stepStartedMsg struct {
	index int
	tool  string
}

type stepFinishedMsg struct {
	index  int
	result tools.StepResult
}

type runDoneMsg struct {
	result *engine.TaskResult
	err    error
}

// progressRunner decorates a step executor, reporting step lifecycle
// to the progress view. Steps execute sequentially, so the index needs
// no locking.
type progressRunner struct {
	inner engine.StepRunner
	ch    chan<- tea.Msg
	index int
}

func (r *progressRunner) ExecuteStep(ctx context.Context, step plan.Step) tools.StepResult {
	i := r.index
	r.index++

	r.ch <- stepStartedMsg{index: i, tool: step.Tool}
	result := r.inner.ExecuteStep(ctx, step)
	r.ch <- stepFinishedMsg{index: i, result: result}
	return result
}

// =============================================================================
// PROGRESS MODEL
// =============================================================================

type stepLine struct {
	tool   string
	status string
	detail string
}

type runModel struct {
	goal     string
	spinner  spinner.Model
	ch       chan tea.Msg
	steps    []stepLine
	done     bool
	canceled bool
	result   *engine.TaskResult
	err      error
	cancel   context.CancelFunc
}

func newRunModel(goal string, ch chan tea.Msg, cancel context.CancelFunc) runModel {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = InfoStyle

	return runModel{
		goal:    goal,
		spinner: sp,
		ch:      ch,
		cancel:  cancel,
	}
}

// waitForProgress relays the next engine event into the program.
func waitForProgress(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForProgress(m.ch))
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.done && !m.canceled {
				m.canceled = true
				m.cancel()
			}
			return m, nil
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepStartedMsg:
		for len(m.steps) <= msg.index {
			m.steps = append(m.steps, stepLine{})
		}
		m.steps[msg.index] = stepLine{tool: msg.tool, status: "running"}
		return m, waitForProgress(m.ch)

	case stepFinishedMsg:
		if msg.index < len(m.steps) {
			m.steps[msg.index].status = msg.result.Status
			m.steps[msg.index].detail = stepResultDetail(msg.result)
		}
		return m, waitForProgress(m.ch)

	case runDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m runModel) View() string {
	if m.done {
		// The command prints the results table after the program
		// exits; leave nothing behind.
		return ""
	}

	var b strings.Builder

	header := "Executing: " + util.TruncateWidth(m.goal, TerminalWidth()-14)
	if m.canceled {
		header = "Canceling: " + util.TruncateWidth(m.goal, TerminalWidth()-14)
	}
	b.WriteString(fmt.Sprintf("%s %s\n\n", m.spinner.View(), SectionStyle.Render(header)))

	for _, step := range m.steps {
		b.WriteString(fmt.Sprintf("  %s %s", stepSymbol(step.status, m.spinner.View()), step.tool))
		if step.detail != "" {
			b.WriteString(DimStyle.Render("  " + util.TruncateWidth(step.detail, 50)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(DimStyle.Render("Press ctrl+c to cancel"))
	b.WriteString("\n")
	return b.String()
}

// stepSymbol renders the status marker for a step line.
func stepSymbol(status, spinnerFrame string) string {
	switch status {
	case "running":
		return InfoStyle.Render(spinnerFrame)
	case history.StatusSuccess:
		return SuccessStyle.Render("[OK]")
	case history.StatusTimeout:
		return WarningStyle.Render("[!!]")
	case history.StatusError, history.StatusFailed:
		return ErrorStyle.Render("[FAIL]")
	default:
		return DimStyle.Render("[--]")
	}
}

// stepResultDetail summarizes one step outcome for single-line display.
func stepResultDetail(result tools.StepResult) string {
	if result.Error != "" {
		return result.Error
	}
	return compactResult(result.Result)
}

// =============================================================================
// PROGRAM DRIVER
// =============================================================================

// runWithProgress executes a goal with a live progress view. Ctrl+C
// cancels the in-flight step context; the run then winds down through
// the normal continue-on-error path.
func runWithProgress(ctx context.Context, s *stack, goal string) (*engine.TaskResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan tea.Msg, progressBuffer)
	eng := s.newEngine(engine.WithStepRunner(&progressRunner{
		inner: s.stepExecutor(),
		ch:    ch,
	}))

	program := tea.NewProgram(newRunModel(goal, ch, cancel))

	go func() {
		result, err := eng.ExecuteTask(ctx, goal)
		ch <- runDoneMsg{result: result, err: err}
	}()

	final, uiErr := program.Run()
	if uiErr != nil {
		// The terminal UI failed; wait for the engine directly so the
		// run still completes and reports.
		for msg := range ch {
			if done, ok := msg.(runDoneMsg); ok {
				return done.result, done.err
			}
		}
	}

	if m, ok := final.(runModel); ok {
		return m.result, m.err
	}
	return nil, fmt.Errorf("progress view ended unexpectedly")
}
