// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strconv"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// TRUNCATION
// =============================================================================

// Truncation counts runes or terminal columns, never bytes, so a cut
// can never land inside a UTF-8 sequence.

// TruncateRunes caps a string at maxRunes characters, appending "..."
// when anything was cut. Budgets of three runes or fewer leave no room
// for the ellipsis and cut bare.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	keep := maxRunes - 3
	if keep <= 0 {
		return string(runes[:maxRunes])
	}
	return string(runes[:keep]) + "..."
}

// TruncateWidth caps a string at maxWidth terminal columns, appending
// "..." when anything was cut. Wide characters (CJK) occupy two
// columns, so the rune count of the result depends on content.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	tail := "..."
	if maxWidth <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(s, maxWidth, tail)
}

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

// IntToString formats an int for display.
func IntToString(i int) string {
	return strconv.Itoa(i)
}

// Int64ToString formats an int64 for display.
func Int64ToString(i int64) string {
	return strconv.FormatInt(i, 10)
}

// FloatToString formats a float64 with two decimal places, the
// precision command output uses for rates and durations.
func FloatToString(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
