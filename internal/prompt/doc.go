// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt turns editor intents into backend prompt strings.
//
// A Request is either a chat message (optionally carrying the current
// document as context) or a document selection paired with a transform
// action. Build is a pure function: no state, no I/O, same request in,
// same prompt out.
package prompt
