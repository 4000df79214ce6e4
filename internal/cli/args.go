// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "strings"

// =============================================================================
// ARGUMENT PARSER
// =============================================================================

// boolOnlyFlags are flags that never take a value. A token following
// one of these is positional, not the flag's value.
var boolOnlyFlags = map[string]bool{
	"json":    true,
	"verbose": true,
	"quiet":   true,
	"dry-run": true,
	"confirm": true,
	"no-save": true,
	"full":    true,
}

// ArgParser parses subcommand arguments into flags and positionals.
//
// Supported forms:
//
//	--flag value
//	--flag=value
//	--bool-flag
//	-v (short flags, boolean only)
//	positional arguments
//
// The first positional argument is conventionally the subcommand, e.g.
// "runs show abc123" parses to subcommand "show" with argument
// "abc123".
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// NewArgParser parses the given arguments.
func NewArgParser(args []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case strings.HasPrefix(arg, "--"):
			name := strings.TrimPrefix(arg, "--")

			if eq := strings.Index(name, "="); eq >= 0 {
				value := name[eq+1:]
				name = name[:eq]
				if value == "true" || value == "false" {
					p.boolFlags[name] = value == "true"
				} else {
					p.flags[name] = value
				}
				continue
			}

			if boolOnlyFlags[name] {
				p.boolFlags[name] = true
				continue
			}

			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				p.flags[name] = args[i+1]
				i++
			} else {
				p.boolFlags[name] = true
			}

		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			p.boolFlags[strings.TrimPrefix(arg, "-")] = true

		default:
			p.positional = append(p.positional, arg)
		}
	}

	return p
}

// Flag returns a flag value and whether it was set.
func (p *ArgParser) Flag(name string) (string, bool) {
	value, ok := p.flags[name]
	return value, ok
}

// FlagOr returns a flag value, or def when the flag was not set.
func (p *ArgParser) FlagOr(name, def string) string {
	if value, ok := p.flags[name]; ok {
		return value
	}
	return def
}

// Bool returns true if a boolean flag was set.
func (p *ArgParser) Bool(name string) bool {
	return p.boolFlags[name]
}

// Has returns true if the flag was set in either form.
func (p *ArgParser) Has(name string) bool {
	if _, ok := p.flags[name]; ok {
		return true
	}
	return p.boolFlags[name]
}

// Positional returns all positional arguments.
func (p *ArgParser) Positional() []string {
	return p.positional
}

// Subcommand returns the first positional argument, or "" when none.
func (p *ArgParser) Subcommand() string {
	if len(p.positional) == 0 {
		return ""
	}
	return p.positional[0]
}

// Arg returns the positional argument at index i, or "" when out of
// range.
func (p *ArgParser) Arg(i int) string {
	if i < 0 || i >= len(p.positional) {
		return ""
	}
	return p.positional[i]
}

// Rest returns the positional arguments from index i on, joined with
// spaces. Useful for free-text arguments like goals.
func (p *ArgParser) Rest(i int) string {
	if i < 0 || i >= len(p.positional) {
		return ""
	}
	return strings.Join(p.positional[i:], " ")
}
