// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt turns editor intents into backend prompt strings.
package prompt

import (
	"errors"
	"strings"
)

// =============================================================================
// REQUEST
// =============================================================================

// Request is the wire shape accepted by the relay's generate endpoint and
// produced by every client surface (browser sidebar, REPL, TUI, one-shot CLI).
//
// Exactly one of Message (chat mode) or Selection (transform mode) must be
// present; Validate enforces the contract.
type Request struct {
	// Message is a free-form chat message.
	Message string `json:"message,omitempty"`

	// Doc optionally carries the current document so chat answers can refer
	// to what the user is writing. Ignored in transform mode.
	Doc string `json:"doc,omitempty"`

	// Selection is the text a transform acts on.
	Selection string `json:"selection,omitempty"`

	// Action names the transform template. Empty or unknown values fall back
	// to proofread.
	Action string `json:"action,omitempty"`

	// Model overrides the relay's configured default model for this request.
	// The relay passes it through to the backend unchanged.
	Model string `json:"model,omitempty"`
}

// Kind distinguishes the two request modes.
type Kind int

const (
	// KindChat is a conversational request built from Message (+ Doc).
	KindChat Kind = iota
	// KindTransform is an editing request built from Selection (+ Action).
	KindTransform
)

// Kind reports the mode of a validated request. For requests that fail
// Validate the result is meaningless.
func (r Request) Kind() Kind {
	if strings.TrimSpace(r.Selection) != "" {
		return KindTransform
	}
	return KindChat
}

// Validation errors. The relay converts these into stream error events so
// malformed requests travel the same channel as runtime failures.
var (
	ErrNoInput        = errors.New("request needs a message or a selection")
	ErrAmbiguousInput = errors.New("request must not carry both a message and a selection")
)

// Validate enforces the request contract: exactly one of Message or
// Selection must be non-empty after trimming.
func Validate(req Request) error {
	hasMessage := strings.TrimSpace(req.Message) != ""
	hasSelection := strings.TrimSpace(req.Selection) != ""
	switch {
	case hasMessage && hasSelection:
		return ErrAmbiguousInput
	case !hasMessage && !hasSelection:
		return ErrNoInput
	}
	return nil
}

// =============================================================================
// TRANSFORM ACTIONS
// =============================================================================

// Action names a text transform applied to an editor selection.
type Action string

const (
	ActionShorten    Action = "shorten"
	ActionLengthen   Action = "lengthen"
	ActionTabularize Action = "tabularize"
	ActionProofread  Action = "proofread"
)

// ParseAction maps a wire action string to a known Action. Unknown or empty
// values fall back to ActionProofread so a stale client can never wedge a
// request on an unrecognized verb.
func ParseAction(s string) Action {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionShorten:
		return ActionShorten
	case ActionLengthen:
		return ActionLengthen
	case ActionTabularize:
		return ActionTabularize
	default:
		return ActionProofread
	}
}

// ValidAction reports whether s names a known transform action exactly.
// CLI surfaces use this for strict argument checking; the wire path stays
// lenient through ParseAction.
func ValidAction(s string) bool {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionShorten, ActionLengthen, ActionTabularize, ActionProofread:
		return true
	}
	return false
}

// ActionNames lists the known actions for usage text.
func ActionNames() []string {
	return []string{
		string(ActionShorten),
		string(ActionLengthen),
		string(ActionTabularize),
		string(ActionProofread),
	}
}

// =============================================================================
// PROMPT ASSEMBLY
// =============================================================================

// answerOnly is appended to every transform template so the backend returns
// text that can be pasted straight back into the document.
const answerOnly = "Return only the resulting text with no preamble, no explanation, and no markdown formatting."

// chatPersona frames chat requests. Kept short: local models follow short
// system framing more reliably than long instruction blocks.
const chatPersona = "You are a concise writing assistant embedded in a text editor."

// Build renders the upstream prompt for a validated request. Pure and
// deterministic: the same request always yields the same prompt string.
func Build(req Request) string {
	if req.Kind() == KindTransform {
		return buildTransform(ParseAction(req.Action), strings.TrimSpace(req.Selection))
	}
	return buildChat(strings.TrimSpace(req.Message), strings.TrimSpace(req.Doc))
}

func buildTransform(action Action, selection string) string {
	var sb strings.Builder
	switch action {
	case ActionShorten:
		sb.WriteString("Rewrite the following text to be significantly shorter while keeping its meaning and tone. ")
	case ActionLengthen:
		sb.WriteString("Expand the following text with more detail and smoother flow while keeping its meaning and tone. ")
	case ActionTabularize:
		sb.WriteString("Restructure the following text as a plain-text table with one row per item and aligned columns. ")
	default:
		sb.WriteString("Proofread the following text, correcting spelling, grammar, and punctuation without changing its meaning. ")
	}
	sb.WriteString(answerOnly)
	sb.WriteString("\n\n")
	sb.WriteString(selection)
	return sb.String()
}

func buildChat(message, doc string) string {
	var sb strings.Builder
	sb.WriteString(chatPersona)
	sb.WriteString("\n\n")
	if doc != "" {
		sb.WriteString("The user is currently working on this document:\n<document>\n")
		sb.WriteString(doc)
		sb.WriteString("\n</document>\n\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(message)
	sb.WriteString("\nAssistant:")
	return sb.String()
}
