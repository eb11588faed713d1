// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the draftpad application.
package util

import "strings"

// MetaBlockOpen and MetaBlockClose delimit the reasoning spans that some
// local models interleave with their answer. Transcript views never show
// the content between the sentinels.
const (
	MetaBlockOpen  = "<think>"
	MetaBlockClose = "</think>"
)

// StripMetaBlocks removes every complete MetaBlockOpen..MetaBlockClose span
// from s, sentinels included. An opening sentinel whose closer has not
// arrived yet (a block still being streamed) is left in place, so the filter
// can be re-applied on every accumulation step: applying it twice gives the
// same result as applying it once.
func StripMetaBlocks(s string) string {
	open := strings.Index(s, MetaBlockOpen)
	if open < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for open >= 0 {
		rest := s[open+len(MetaBlockOpen):]
		end := strings.Index(rest, MetaBlockClose)
		if end < 0 {
			// Unterminated block: keep the tail untouched until the
			// closing sentinel arrives.
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:open])
		s = rest[end+len(MetaBlockClose):]
		open = strings.Index(s, MetaBlockOpen)
	}
	b.WriteString(s)
	return b.String()
}

// VisibleText filters s for presentation: complete meta-blocks are removed
// and an unterminated span at the tail is dropped outright. Streaming
// accumulators must use StripMetaBlocks instead, which preserves the open
// tail so the closer can still match; VisibleText is for text that will not
// grow further, or for deciding what a reader sees right now.
func VisibleText(s string) string {
	s = StripMetaBlocks(s)
	if open := strings.LastIndex(s, MetaBlockOpen); open >= 0 && InMetaBlock(s) {
		s = strings.TrimRight(s[:open], " \t\n")
	}
	return s
}

// InMetaBlock reports whether s currently ends inside an unterminated
// meta-block. Streaming UIs use this to withhold reasoning output instead
// of rendering raw sentinel text.
func InMetaBlock(s string) bool {
	open := strings.LastIndex(s, MetaBlockOpen)
	if open < 0 {
		return false
	}
	return !strings.Contains(s[open+len(MetaBlockOpen):], MetaBlockClose)
}
