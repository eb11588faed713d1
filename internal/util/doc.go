// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the draftpad application.
//
// This package contains the small pure functions used on both sides of the
// relay: rune-aware string truncation, display-safe error sanitization,
// meta-block filtering of model output, and crash-safe file writing.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: terminal-column aware truncation
//
// Model Output:
//   - StripMetaBlocks: removes paired reasoning sentinels from streamed text
//   - VisibleText: StripMetaBlocks plus dropping an unterminated tail span
//   - SanitizeErrorText: makes arbitrary error strings safe for display
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	// Truncate long strings safely for display
//	display := util.TruncateRunes(longText, 50)
//
//	// Hide reasoning spans when rendering model output
//	shown := util.VisibleText(accumulated)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
