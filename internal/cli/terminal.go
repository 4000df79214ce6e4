// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TERMINAL DETECTION
// =============================================================================

// IsStdoutTTY returns true if stdout is connected to a terminal.
// When false (piped or redirected), commands should emit plain output
// without colors, spinners, or interactive prompts.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStderrTTY returns true if stderr is connected to a terminal.
func IsStderrTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// IsStdinTTY returns true if stdin is connected to a terminal.
// When false, interactive commands like shell cannot run.
func IsStdinTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// TerminalWidth returns the width of the terminal in columns.
// Returns 80 if the width cannot be determined, and never less than 40
// so tables stay readable in very narrow terminals.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	if width < 40 {
		return 40
	}
	return width
}

// =============================================================================
// COLOR SUPPORT
// =============================================================================

var (
	colorsOnce    sync.Once
	colorsEnabled bool
)

// ColorsEnabled reports whether colored output should be used.
//
// Order of precedence:
//  1. NO_COLOR set (any value): colors disabled (no-color.org)
//  2. FORCE_COLOR set (any value): colors enabled
//  3. stdout is a TTY: colors enabled
func ColorsEnabled() bool {
	colorsOnce.Do(func() {
		if _, set := os.LookupEnv("NO_COLOR"); set {
			colorsEnabled = false
			return
		}
		if _, set := os.LookupEnv("FORCE_COLOR"); set {
			colorsEnabled = true
			return
		}
		colorsEnabled = IsStdoutTTY()
	})
	return colorsEnabled
}

// GetColorProfile returns the termenv color profile to render with,
// honoring ColorsEnabled. Piped output gets the Ascii profile so no
// escape sequences leak into logs or files.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// TTY REQUIREMENTS
// =============================================================================

// TTYRequiredError is returned when an interactive command runs without
// a terminal attached.
type TTYRequiredError struct {
	Action string
}

func (e *TTYRequiredError) Error() string {
	return fmt.Sprintf("cannot %s: not connected to a terminal", e.Action)
}

// RequiresTTY returns an error unless both stdin and stdout are
// terminals. Interactive commands call this before starting.
func RequiresTTY(action string) error {
	if !IsStdinTTY() || !IsStdoutTTY() {
		return &TTYRequiredError{Action: action}
	}
	return nil
}

// CanPrompt returns true if the user can be prompted for input.
func CanPrompt() bool {
	return IsStdinTTY() && IsStdoutTTY()
}
