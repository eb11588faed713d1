// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the data structures for chat transcripts.
package transcript

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want 'Hello'", msg.Content)
	}
	if msg.IsStreaming {
		t.Error("user message should not be streaming")
	}
	if msg.ID == "" {
		t.Error("message should have a generated ID")
	}
}

func TestNewAssistantMessage_Streaming(t *testing.T) {
	msg := NewAssistantMessage()

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", msg.Role, RoleAssistant)
	}
	if !msg.IsStreaming {
		t.Error("new assistant message should be streaming")
	}
}

func TestMessage_AppendAndFinalize(t *testing.T) {
	msg := NewAssistantMessage()
	for _, chunk := range []string{"Hi", " there", "!"} {
		msg.AppendChunk(chunk)
	}

	if got := msg.GetDisplayContent(); got != "Hi there!" {
		t.Errorf("display content while streaming = %q, want 'Hi there!'", got)
	}

	msg.FinalizeStream(nil)

	if msg.IsStreaming {
		t.Error("message should no longer be streaming after finalize")
	}
	if msg.Content != "Hi there!" {
		t.Errorf("Content = %q, want 'Hi there!'", msg.Content)
	}
}

func TestMessage_FinalizeFiltersMetaBlocks(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendChunk("<think>some reasoning</think>")
	msg.AppendChunk("The answer.")
	msg.FinalizeStream(nil)

	if msg.Content != "The answer." {
		t.Errorf("Content = %q, want meta-block removed", msg.Content)
	}
}

func TestMessage_FinalizeEmptyUsesPlaceholder(t *testing.T) {
	empty := NewAssistantMessage()
	empty.FinalizeStream(nil)
	if empty.Content != NoResponsePlaceholder {
		t.Errorf("Content = %q, want placeholder %q", empty.Content, NoResponsePlaceholder)
	}

	// Output that is nothing but a complete meta-block also collapses to
	// the placeholder.
	onlyMeta := NewAssistantMessage()
	onlyMeta.AppendChunk("<think>pondering</think>")
	onlyMeta.FinalizeStream(nil)
	if onlyMeta.Content != NoResponsePlaceholder {
		t.Errorf("Content = %q, want placeholder for all-meta output", onlyMeta.Content)
	}
}

func TestMessage_FinalizeIsTerminal(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendChunk("final")
	msg.FinalizeStream(nil)

	msg.AppendChunk(" more")
	msg.FinalizeStream(nil)

	if msg.Content != "final" {
		t.Errorf("Content = %q, finalized message must not change", msg.Content)
	}
}

func TestMessage_SetStreamContent(t *testing.T) {
	msg := NewAssistantMessage()
	msg.SetStreamContent("Hi")
	msg.SetStreamContent("Hi there")

	if got := msg.GetDisplayContent(); got != "Hi there" {
		t.Errorf("display content = %q, want replaced text", got)
	}
}

func TestMessage_FinalizeError(t *testing.T) {
	// Error with no partial output: error text stands alone.
	msg := NewAssistantMessage()
	msg.FinalizeError("backend unreachable")
	if msg.Content != "backend unreachable" {
		t.Errorf("Content = %q, want bare error text", msg.Content)
	}
	if !msg.IsError {
		t.Error("IsError should be set")
	}

	// Error after partial output: partial text retained above the error.
	partial := NewAssistantMessage()
	partial.AppendChunk("Once upon a")
	partial.FinalizeError("stream failed")
	if !strings.Contains(partial.Content, "Once upon a") {
		t.Errorf("Content = %q, want partial output retained", partial.Content)
	}
	if !strings.Contains(partial.Content, "stream failed") {
		t.Errorf("Content = %q, want error text appended", partial.Content)
	}
}

func TestMessage_StreamingDisplayFiltersMeta(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendChunk("answer<think>unfinished reaso")

	// An open reasoning span is hidden until its closer arrives.
	if got := msg.GetDisplayContent(); got != "answer" {
		t.Errorf("display = %q, want open reasoning span hidden", got)
	}

	msg.AppendChunk("ning</think> done")
	if got := msg.GetDisplayContent(); got != "answer done" {
		t.Errorf("display = %q, want completed block removed", got)
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("one\ntwo\tthree   four")
	if got := msg.Preview(50); got != "one two three four" {
		t.Errorf("Preview = %q, want whitespace collapsed", got)
	}

	long := NewUserMessage(strings.Repeat("word ", 50))
	if got := long.Preview(20); len([]rune(got)) > 20 {
		t.Errorf("Preview length = %d, want <= 20", len([]rune(got)))
	}
}

func TestMessage_FormatStats(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendChunk("hello")
	stats := &Statistics{
		Chunks:        42,
		TTFT:          234 * time.Millisecond,
		TotalDuration: 2500 * time.Millisecond,
	}
	msg.FinalizeStream(stats)

	got := msg.FormatStats()
	if !strings.Contains(got, "42 chunks") {
		t.Errorf("FormatStats = %q, want chunk count", got)
	}
	if !strings.Contains(got, "TTFT 234ms") {
		t.Errorf("FormatStats = %q, want TTFT", got)
	}
	if !strings.Contains(got, "2.5s") {
		t.Errorf("FormatStats = %q, want duration", got)
	}

	user := NewUserMessage("hi")
	if user.FormatStats() != "" {
		t.Error("user messages have no stats line")
	}
}

// =============================================================================
// STATISTICS TESTS
// =============================================================================

func TestStatistics_RecordChunk(t *testing.T) {
	stats := NewStatistics()
	stats.RecordChunk()
	first := stats.FirstChunkTime
	stats.RecordChunk()
	stats.RecordChunk()

	if stats.Chunks != 3 {
		t.Errorf("Chunks = %d, want 3", stats.Chunks)
	}
	if stats.FirstChunkTime != first {
		t.Error("FirstChunkTime should be set once")
	}

	stats.Finalize()
	if stats.TotalDuration <= 0 {
		t.Error("TotalDuration should be positive after Finalize")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_StreamingLifecycle(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hello")
	asst := conv.AddAssistantMessage()

	conv.SetStreamContent("Hi")
	conv.SetStreamContent("Hi there!")
	conv.FinalizeLast(nil)

	if asst.Content != "Hi there!" {
		t.Errorf("assistant content = %q, want 'Hi there!'", asst.Content)
	}
	if conv.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", conv.MessageCount())
	}
}

func TestConversation_SetStreamContentIgnoredWhenNotStreaming(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hello")

	// Last message is a user message; nothing should change.
	conv.SetStreamContent("stray")
	if conv.GetLastMessage().Content != "hello" {
		t.Error("SetStreamContent must not touch non-streaming messages")
	}
}

func TestConversation_FinalizeLastError(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hello")
	conv.AddAssistantMessage()
	conv.SetStreamContent("partial")
	conv.FinalizeLastError("backend gone")

	last := conv.GetLastMessage()
	if !last.IsError {
		t.Error("last message should be marked as error")
	}
	if !strings.Contains(last.Content, "partial") || !strings.Contains(last.Content, "backend gone") {
		t.Errorf("Content = %q, want partial plus error", last.Content)
	}
}

func TestConversation_DropLast(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hello")
	conv.AddAssistantMessage()
	conv.DropLast()

	if conv.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1 after DropLast", conv.MessageCount())
	}
	if conv.GetLastMessage().Role != RoleUser {
		t.Error("remaining message should be the user message")
	}
}

func TestConversation_TitleFromFirstUserMessage(t *testing.T) {
	conv := NewConversation()
	if conv.GetTitle() != "New Conversation" {
		t.Errorf("empty title = %q, want default", conv.GetTitle())
	}

	conv.AddUserMessage("Summarize my essay about geese migration patterns please")
	title := conv.GetTitle()
	if title == "New Conversation" || title == "" {
		t.Errorf("title = %q, want derived from first user message", title)
	}
	if len([]rune(title)) > 50 {
		t.Errorf("title length = %d, want <= 50", len([]rune(title)))
	}
}

func TestConversation_Pruning(t *testing.T) {
	conv := NewConversation()
	for i := 0; i < MaxMessages+25; i++ {
		conv.AddUserMessage("message")
	}

	if conv.MessageCount() != MaxMessages {
		t.Errorf("MessageCount = %d, want pruned to %d", conv.MessageCount(), MaxMessages)
	}
}

func TestConversation_GetMessageByID(t *testing.T) {
	conv := NewConversation()
	msg := conv.AddUserMessage("find me")

	if got := conv.GetMessageByID(msg.ID); got != msg {
		t.Error("GetMessageByID should return the added message")
	}
	if got := conv.GetMessageByID("msg_nope"); got != nil {
		t.Error("GetMessageByID should return nil for unknown ID")
	}
}

func TestConversation_ClearHistory(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("one")
	conv.AddUserMessage("two")
	conv.ClearHistory()

	if !conv.IsEmpty() {
		t.Error("conversation should be empty after ClearHistory")
	}
}
