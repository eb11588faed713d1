// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the draftpad TUI.
package components

import (
	"strings"
	"testing"
)

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestNewCodeBlockDefaults(t *testing.T) {
	cb := NewCodeBlock("go", "package main")

	if cb.Language != "go" {
		t.Errorf("Language = %q, want %q", cb.Language, "go")
	}
	if cb.MaxWidth != 80 {
		t.Errorf("MaxWidth = %d, want 80", cb.MaxWidth)
	}
	if !cb.Dark {
		t.Error("Dark should default to true")
	}
}

func TestCodeBlockRenderContainsCode(t *testing.T) {
	cb := NewCodeBlock("", "just some plain text")
	out := cb.Render()

	if !strings.Contains(out, "just some plain text") {
		t.Errorf("rendered block should contain the code, got %q", out)
	}
}

func TestCodeBlockRenderLineNumbers(t *testing.T) {
	cb := NewCodeBlock("", "one\ntwo\nthree")
	out := cb.Render()

	for _, num := range []string{"1", "2", "3"} {
		if !strings.Contains(out, num) {
			t.Errorf("rendered block should contain line number %s", num)
		}
	}
}

func TestParseCodeBlocksLeavesProse(t *testing.T) {
	text := "Here is an explanation.\nAnd a second line."
	out := ParseCodeBlocks(text, 80, true)

	if out != text {
		t.Errorf("prose without fences should pass through unchanged, got %q", out)
	}
}

func TestParseCodeBlocksRendersFence(t *testing.T) {
	text := "Before.\n```\nfenced content\n```\nAfter."
	out := ParseCodeBlocks(text, 80, true)

	if !strings.Contains(out, "Before.") {
		t.Error("prose before the fence should survive")
	}
	if !strings.Contains(out, "After.") {
		t.Error("prose after the fence should survive")
	}
	if !strings.Contains(out, "fenced content") {
		t.Error("fenced code should appear in the output")
	}
	if strings.Contains(out, "```") {
		t.Error("fence markers should be consumed")
	}
}

func TestParseCodeBlocksUnclosedFence(t *testing.T) {
	// Streaming transcripts see the opening fence before the closing one.
	text := "Intro.\n```go\nfmt.Println(1)"
	out := ParseCodeBlocks(text, 80, true)

	if !strings.Contains(out, "Intro.") {
		t.Error("prose should survive an unclosed fence")
	}
	if !strings.Contains(out, "fmt.Println(1)") {
		t.Error("partial code should render under an unclosed fence")
	}
}

func TestParseCodeBlocksEmptyInput(t *testing.T) {
	if out := ParseCodeBlocks("", 80, true); out != "" {
		t.Errorf("empty input should stay empty, got %q", out)
	}
}

// =============================================================================
// HIGHLIGHTING TESTS
// =============================================================================

func TestHighlightCodeUnknownLanguage(t *testing.T) {
	code := "totally unremarkable text"
	out := highlightCode(code, "not-a-language", true)

	if !strings.Contains(out, "totally unremarkable text") {
		t.Errorf("fallback highlighting should preserve the code, got %q", out)
	}
}

func TestHighlightCodeLightStyle(t *testing.T) {
	out := highlightCode("x = 1", "python", false)

	if !strings.Contains(out, "x") || !strings.Contains(out, "1") {
		t.Errorf("light-style highlighting should preserve tokens, got %q", out)
	}
}

func TestDetectLanguageEmpty(t *testing.T) {
	// A single bare word gives chroma nothing to go on; any answer is
	// acceptable as long as it does not panic.
	_ = detectLanguage("hello")
}
