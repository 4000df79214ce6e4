// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// SHARED STYLES
// =============================================================================

// Styles shared across command output so every command renders status,
// labels, and separators the same way.
var (
	// TitleStyle renders top-level banners.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// SectionStyle renders section headers inside command output.
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	// LabelStyle renders the fixed-width key of a "key: value" line.
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(20)

	// SuccessStyle renders success markers and healthy values.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// ErrorStyle renders failure markers and error text.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// WarningStyle renders degraded or skipped states.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle renders secondary detail like timestamps and hints.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// SeparatorStyle renders horizontal rules.
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// HighlightStyle renders values worth drawing the eye to.
	HighlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	// InfoStyle renders informational values.
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))
)

func init() {
	// Pin the lipgloss profile once so piped output degrades to plain
	// text instead of leaking escape codes.
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

// RenderStatus renders a status word in the color that matches it.
func RenderStatus(status string) string {
	switch strings.ToLower(status) {
	case "success", "completed", "healthy", "ok", "pass", "passed":
		return SuccessStyle.Render(status)
	case "error", "failed", "fail", "unhealthy":
		return ErrorStyle.Render(status)
	case "timeout", "degraded", "warn", "warning", "skipped", "canceled":
		return WarningStyle.Render(status)
	default:
		return status
	}
}

// RenderSeparator renders a horizontal rule of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 41
	}
	return SeparatorStyle.Render(strings.Repeat("=", width))
}
