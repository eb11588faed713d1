// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the data structures for chat transcripts.
//
// A Conversation is an in-memory list of Messages. Assistant messages are
// created in a streaming state and mutated in place as chunks arrive; when
// the stream finishes they are finalized with the meta-filtered text and
// per-generation Statistics. Nothing here is persisted: a transcript lives
// exactly as long as its UI surface.
package transcript
