// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the draftpad TUI.

This package contains styled components built on top of the Lip Gloss and
Chroma libraries, consistent with the draftpad design language.

# Components

CodeBlock (codeblock.go) - Syntax-highlighted code blocks using Chroma,
with line numbers, an optional language badge, and a rounded border.
ParseCodeBlocks scans chat transcripts for fenced code and renders each
block in place, so code stays highlighted even when markdown rendering
is turned off.

# Usage

	cb := components.NewCodeBlock("go", source)
	cb.MaxWidth = viewportWidth
	fmt.Println(cb.Render())

Or over a whole transcript:

	rendered := components.ParseCodeBlocks(reply, width, theme.IsDark)
*/
package components
