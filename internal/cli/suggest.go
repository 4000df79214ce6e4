// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "strings"

// =============================================================================
// COMMAND SUGGESTIONS
// =============================================================================

// validCommands are the commands suggestions are drawn from.
var validCommands = []string{
	"run",
	"plan",
	"status",
	"serve",
	"shell",
	"runs",
	"test",
	"config",
	"doctor",
	"version",
	"help",
}

// SuggestCommand returns the closest valid command to the given input,
// or "" when nothing is close enough to be a plausible typo.
func SuggestCommand(input string) string {
	input = strings.ToLower(input)

	// Typo tolerance scales with input length: one edit for short
	// inputs, up to three for long ones.
	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}
	if len(input) > 8 {
		maxDistance = 3
	}

	best := ""
	bestDistance := maxDistance + 1

	for _, cmd := range validCommands {
		d := levenshteinDistance(input, cmd)
		if d < bestDistance {
			best = cmd
			bestDistance = d
		}
	}

	if bestDistance > maxDistance {
		return ""
	}
	return best
}

// levenshteinDistance computes the edit distance between two strings
// using the two-row dynamic programming method.
func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
