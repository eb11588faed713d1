// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the data structures for chat transcripts.
package transcript

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/draftpad/internal/util"
)

// NoResponsePlaceholder is shown when a generation completes without
// producing any visible text (empty stream, or output that was entirely
// meta-blocks).
const NoResponsePlaceholder = "(no response)"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single entry in a transcript.
type Message struct {
	// Identity
	ID        string
	Role      Role
	Timestamp time.Time

	// Content is the final text once streaming has finished.
	Content string

	// IsError marks entries that carry a sanitized error message instead of
	// assistant output; UIs style them differently.
	IsError bool

	// Streaming state.
	// PERFORMANCE: strings.Builder avoids quadratic allocations while chunks
	// arrive.
	IsStreaming   bool
	streamContent strings.Builder

	// Generation metrics, set on finalize.
	TTFT          time.Duration // time to first chunk
	TotalDuration time.Duration
	ChunkCount    int
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message in streaming state.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewErrorMessage creates a finalized assistant entry carrying a sanitized
// error message.
func NewErrorMessage(text string) *Message {
	msg := NewMessage(RoleAssistant, text)
	msg.IsError = true
	return msg
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendChunk appends a raw stream fragment to a streaming message.
func (m *Message) AppendChunk(chunk string) {
	if m.IsStreaming {
		m.streamContent.WriteString(chunk)
		m.ChunkCount++
	}
}

// SetStreamContent replaces the streaming buffer wholesale. Session updates
// carry the whole accumulated text, so re-rendering surfaces use this rather
// than AppendChunk.
func (m *Message) SetStreamContent(text string) {
	if m.IsStreaming {
		m.streamContent.Reset()
		m.streamContent.WriteString(text)
	}
}

// FinalizeStream completes streaming: the buffered text is meta-filtered,
// empty output becomes the NoResponsePlaceholder, and statistics are
// attached. A finalized message is never mutated again.
func (m *Message) FinalizeStream(stats *Statistics) {
	if !m.IsStreaming {
		return
	}

	content := util.VisibleText(m.streamContent.String())
	if strings.TrimSpace(content) == "" {
		content = NoResponsePlaceholder
	}
	m.Content = content
	m.streamContent.Reset()
	m.IsStreaming = false

	if stats != nil {
		m.TTFT = stats.TTFT
		m.TotalDuration = stats.TotalDuration
		if stats.Chunks > 0 {
			m.ChunkCount = stats.Chunks
		}
	}
}

// FinalizeError completes streaming with a sanitized error message. Any
// partial output already accumulated stays visible above the error text.
func (m *Message) FinalizeError(text string) {
	if !m.IsStreaming {
		return
	}

	partial := util.VisibleText(m.streamContent.String())
	if strings.TrimSpace(partial) == "" {
		m.Content = text
	} else {
		m.Content = partial + "\n\n" + text
	}
	m.streamContent.Reset()
	m.IsStreaming = false
	m.IsError = true
}

// GetDisplayContent returns the content to display. While streaming, the
// buffered text is shown with meta-blocks filtered out; a reasoning span
// still waiting for its closing sentinel is hidden entirely rather than
// shown raw.
func (m *Message) GetDisplayContent() string {
	if m.IsStreaming {
		return util.VisibleText(m.streamContent.String())
	}
	return m.Content
}

// Preview returns a truncated single-line preview of the message content.
func (m *Message) Preview(maxLen int) string {
	content := strings.Join(strings.Fields(m.GetDisplayContent()), " ")
	return util.TruncateRunes(content, maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// FormatStats returns a formatted statistics line for assistant messages,
// e.g. "2.5s | 42 chunks | TTFT 234ms". Empty when no metrics were recorded.
func (m *Message) FormatStats() string {
	if m.Role != RoleAssistant || m.TotalDuration == 0 {
		return ""
	}
	return fmt.Sprintf("%s | %d chunks | TTFT %dms",
		formatDuration(m.TotalDuration), m.ChunkCount, m.TTFT.Milliseconds())
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds client-side timing for one generation. The relay protocol
// carries bare text, so chunk counts and wall-clock timings are all a client
// can measure.
type Statistics struct {
	StartTime      time.Time
	FirstChunkTime time.Time
	EndTime        time.Time

	Chunks int

	// Derived metrics (computed on Finalize)
	TTFT          time.Duration
	TotalDuration time.Duration
}

// NewStatistics creates a new Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
	}
}

// RecordChunk notes one received chunk, capturing first-chunk latency.
func (s *Statistics) RecordChunk() {
	s.Chunks++
	if s.FirstChunkTime.IsZero() {
		s.FirstChunkTime = time.Now()
		s.TTFT = s.FirstChunkTime.Sub(s.StartTime)
	}
}

// Finalize computes the final statistics.
func (s *Statistics) Finalize() {
	s.EndTime = time.Now()
	s.TotalDuration = s.EndTime.Sub(s.StartTime)
}

// Format returns a formatted string of the statistics.
func (s *Statistics) Format() string {
	return fmt.Sprintf("%s | %d chunks | TTFT %dms",
		formatDuration(s.TotalDuration), s.Chunks, s.TTFT.Milliseconds())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}

// formatDuration renders sub-second durations in milliseconds and longer
// ones in seconds with one decimal.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
