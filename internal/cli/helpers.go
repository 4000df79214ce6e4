// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/opsforge/internal/util"
)

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatSeconds renders a duration in seconds for display: "0.42s",
// "12.50s", "2m 5s".
func formatSeconds(secs float64) string {
	if secs < 0 {
		secs = 0
	}
	if secs < 60 {
		return util.FloatToString(secs) + "s"
	}
	mins := int(secs) / 60
	rem := int(secs) % 60
	return util.IntToString(mins) + "m " + util.IntToString(rem) + "s"
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return util.Int64ToString(bytes) + " B"
	}
}

// relativeTime renders a timestamp relative to now for recent times,
// falling back to the date for anything older than a week.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	elapsed := time.Since(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return util.IntToString(int(elapsed.Minutes())) + "m ago"
	case elapsed < 24*time.Hour:
		return util.IntToString(int(elapsed.Hours())) + "h ago"
	case elapsed < 7*24*time.Hour:
		return util.IntToString(int(elapsed.Hours()/24)) + "d ago"
	default:
		return t.Format("2006-01-02")
	}
}

// compactResult renders a tool result map as "key=value" pairs in key
// order, for one-line display in tables.
func compactResult(result map[string]interface{}) string {
	if len(result) == 0 {
		return ""
	}

	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+compactValue(result[k]))
	}
	return strings.Join(parts, " ")
}

// compactValue renders a single result value tersely. JSON numbers
// decode as float64, so whole numbers are printed without a decimal
// point.
func compactValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == float64(int64(val)) {
			return util.Int64ToString(int64(val))
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return util.IntToString(val)
	case int64:
		return util.Int64ToString(val)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// confirmed reports whether a destructive subcommand may proceed:
// either --confirm was passed, or the user answers an interactive
// prompt with y/yes.
func confirmed(parser *ArgParser, prompt string) bool {
	if parser.Bool("confirm") {
		return true
	}
	if !CanPrompt() {
		fmt.Println("Refusing to proceed without --confirm (no terminal for prompt)")
		return false
	}

	fmt.Printf("%s [y/N]: ", prompt)
	var answer string
	fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
