// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownOnce     sync.Once
	markdownRenderer *glamour.TermRenderer
)

// RenderMarkdown renders markdown for terminal display. Piped output
// and renderer failures fall back to the raw markdown so content is
// never lost.
func RenderMarkdown(md string) string {
	if !IsStdoutTTY() || !ColorsEnabled() {
		return md
	}

	markdownOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			markdownRenderer = r
		}
	})

	if markdownRenderer == nil {
		return md
	}

	out, err := markdownRenderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// =============================================================================
// JSON HIGHLIGHTING
// =============================================================================

// HighlightJSON syntax-highlights a JSON string for terminal display.
// Returns the input unchanged when colors are disabled or highlighting
// fails.
func HighlightJSON(src string) string {
	if !ColorsEnabled() {
		return src
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return buf.String()
}

// RenderJSON marshals a value to indented JSON and highlights it for
// the terminal.
func RenderJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return HighlightJSON(string(data))
}
