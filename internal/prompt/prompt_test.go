// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt turns editor intents into backend prompt strings.
package prompt

import (
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"chat_only", Request{Message: "hello"}, nil},
		{"transform_only", Request{Selection: "some text", Action: "shorten"}, nil},
		{"transform_no_action", Request{Selection: "some text"}, nil},
		{"chat_with_doc", Request{Message: "hi", Doc: "draft"}, nil},
		{"neither", Request{}, ErrNoInput},
		{"whitespace_only_message", Request{Message: "   \n\t"}, ErrNoInput},
		{"whitespace_only_selection", Request{Selection: "  "}, ErrNoInput},
		{"both", Request{Message: "hi", Selection: "text"}, ErrAmbiguousInput},
		{"doc_alone_is_not_input", Request{Doc: "draft"}, ErrNoInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate(%+v) = %v, want %v", tc.req, err, tc.wantErr)
			}
		})
	}
}

func TestRequestKind(t *testing.T) {
	if got := (Request{Message: "hi"}).Kind(); got != KindChat {
		t.Errorf("chat request Kind = %v, want KindChat", got)
	}
	if got := (Request{Selection: "text"}).Kind(); got != KindTransform {
		t.Errorf("transform request Kind = %v, want KindTransform", got)
	}
}

// =============================================================================
// ACTION PARSING TESTS
// =============================================================================

func TestParseAction(t *testing.T) {
	testCases := []struct {
		input    string
		expected Action
	}{
		{"shorten", ActionShorten},
		{"lengthen", ActionLengthen},
		{"tabularize", ActionTabularize},
		{"proofread", ActionProofread},
		{"SHORTEN", ActionShorten},
		{"  proofread  ", ActionProofread},
		{"", ActionProofread},
		{"summarize", ActionProofread}, // unknown falls back to proofread
		{"garbage!!", ActionProofread},
	}

	for _, tc := range testCases {
		if got := ParseAction(tc.input); got != tc.expected {
			t.Errorf("ParseAction(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestValidAction(t *testing.T) {
	for _, name := range ActionNames() {
		if !ValidAction(name) {
			t.Errorf("ValidAction(%q) = false, want true", name)
		}
	}
	for _, bad := range []string{"", "summarize", "delete"} {
		if ValidAction(bad) {
			t.Errorf("ValidAction(%q) = true, want false", bad)
		}
	}
}

// =============================================================================
// PROMPT ASSEMBLY TESTS
// =============================================================================

func TestBuild_Deterministic(t *testing.T) {
	reqs := []Request{
		{Message: "what rhymes with orange?"},
		{Message: "summarize this", Doc: "a long draft about geese"},
		{Selection: "The cat sat on the mat.", Action: "shorten"},
		{Selection: "a, b, c", Action: "tabularize"},
	}
	for _, req := range reqs {
		first := Build(req)
		second := Build(req)
		if first != second {
			t.Errorf("Build not deterministic for %+v", req)
		}
		if first == "" {
			t.Errorf("Build(%+v) returned empty prompt", req)
		}
	}
}

func TestBuild_TransformEmbedsSelection(t *testing.T) {
	selection := "The quick brown fox jumps over the lazy dog."
	for _, action := range ActionNames() {
		prompt := Build(Request{Selection: selection, Action: action})
		if !strings.Contains(prompt, selection) {
			t.Errorf("action %q: prompt does not embed selection verbatim", action)
		}
	}
}

func TestBuild_TransformTrimsOuterWhitespace(t *testing.T) {
	prompt := Build(Request{Selection: "  padded text  ", Action: "proofread"})
	if !strings.Contains(prompt, "padded text") {
		t.Errorf("prompt missing selection: %q", prompt)
	}
	if strings.Contains(prompt, "  padded text  ") {
		t.Errorf("prompt embeds untrimmed selection: %q", prompt)
	}
}

func TestBuild_UnknownActionUsesProofread(t *testing.T) {
	known := Build(Request{Selection: "text", Action: "proofread"})
	fallback := Build(Request{Selection: "text", Action: "no-such-action"})
	if known != fallback {
		t.Errorf("unknown action prompt differs from proofread prompt")
	}
}

func TestBuild_ChatDocContext(t *testing.T) {
	withDoc := Build(Request{Message: "improve the intro", Doc: "My essay draft."})
	if !strings.Contains(withDoc, "My essay draft.") {
		t.Errorf("prompt does not embed document context: %q", withDoc)
	}
	if !strings.Contains(withDoc, "improve the intro") {
		t.Errorf("prompt does not embed message: %q", withDoc)
	}

	noDoc := Build(Request{Message: "improve the intro"})
	blankDoc := Build(Request{Message: "improve the intro", Doc: "   \n "})
	if noDoc != blankDoc {
		t.Errorf("whitespace-only doc should build the context-free template")
	}
	if strings.Contains(noDoc, "<document>") {
		t.Errorf("context-free template must not contain a document section: %q", noDoc)
	}
}

func TestBuild_ChatAndTransformDiffer(t *testing.T) {
	chat := Build(Request{Message: "shorten"})
	transform := Build(Request{Selection: "shorten"})
	if chat == transform {
		t.Errorf("chat and transform templates must differ")
	}
}
