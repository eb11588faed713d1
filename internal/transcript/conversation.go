// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the data structures for chat transcripts.
package transcript

import (
	"time"
)

// MaxMessages is the maximum number of messages kept in a transcript.
// When exceeded, the oldest messages are pruned to prevent unbounded
// memory growth over a long editing session.
const MaxMessages = 500

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an in-memory chat transcript with metadata.
type Conversation struct {
	// Identity
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Messages in arrival order.
	Messages []*Message

	// Model last used for this conversation, for display only.
	Model string
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage adds a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.pruneOldMessages()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds a streaming assistant message.
func (c *Conversation) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	c.AddMessage(msg)
	return msg
}

// AddErrorMessage creates and adds a finalized error entry.
func (c *Conversation) AddErrorMessage(text string) *Message {
	msg := NewErrorMessage(text)
	c.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastAssistantMessage returns the most recent assistant message.
func (c *Conversation) GetLastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// GetMessageByID returns a message by its ID, or nil.
func (c *Conversation) GetMessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// SetStreamContent replaces the streaming buffer of the last message when it
// is still streaming. Session updates deliver whole accumulated text, so
// this is the per-update entry point for live transcripts.
func (c *Conversation) SetStreamContent(text string) {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.SetStreamContent(text)
	}
}

// FinalizeLast finalizes the last streaming message with statistics.
func (c *Conversation) FinalizeLast(stats *Statistics) {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.FinalizeStream(stats)
		c.UpdatedAt = time.Now()
	}
}

// FinalizeLastError finalizes the last streaming message with a sanitized
// error message.
func (c *Conversation) FinalizeLastError(text string) {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.FinalizeError(text)
		c.UpdatedAt = time.Now()
	}
}

// DropLast removes the most recent message. Cancellation surfaces use this
// to discard an assistant entry that never produced output.
func (c *Conversation) DropLast() {
	if len(c.Messages) == 0 {
		return
	}
	c.Messages = c.Messages[:len(c.Messages)-1]
	c.UpdatedAt = time.Now()
}

// ClearHistory removes all messages from the conversation.
func (c *Conversation) ClearHistory() {
	c.Messages = make([]*Message, 0)
	c.UpdatedAt = time.Now()
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user message if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			c.Title = msg.Preview(50)
			return
		}
	}
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// =============================================================================
// PRUNING
// =============================================================================

// pruneOldMessages drops the oldest messages once the transcript exceeds
// MaxMessages.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	start := len(c.Messages) - MaxMessages
	c.Messages = append(c.Messages[:0:0], c.Messages[start:]...)
}
