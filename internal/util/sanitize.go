// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the draftpad application.
package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SECURITY: Error text crosses a trust boundary.
// Backend error bodies and transport errors may contain HTML fragments, ANSI
// escapes, or other control sequences. Everything that ends up in an error
// event or a transcript entry passes through SanitizeErrorText first.

// MaxErrorTextLen is the rune cap applied to sanitized error messages.
const MaxErrorTextLen = 200

// controlFilter normalizes to NFKC and removes category-C runes: control
// characters, ANSI escape introducers, zero-width and format characters.
var controlFilter = transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.C)))

// SanitizeErrorText makes an arbitrary error string safe for single-line
// display. Markup is removed (the result contains no angle brackets), runs of
// whitespace collapse to single spaces, control characters are stripped, and
// the result is capped at MaxErrorTextLen runes.
func SanitizeErrorText(s string) string {
	s = stripMarkup(s)
	s = strings.Join(strings.Fields(s), " ")
	if out, _, err := transform.String(controlFilter, s); err == nil {
		s = out
	}
	return TruncateRunes(strings.TrimSpace(s), MaxErrorTextLen)
}

// stripMarkup drops angle-bracketed spans and any stray bracket characters.
// The scan is deliberately strict: nothing between '<' and its matching '>'
// survives, and neither bracket ever appears in the output.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
