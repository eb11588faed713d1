// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file renders the chat interface: header, transcript, input area,
// and status bar.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/draftpad/internal/transcript"
	"github.com/jeranaias/draftpad/internal/ui/components"
	"github.com/jeranaias/draftpad/internal/ui/styles"
	"github.com/jeranaias/draftpad/internal/util"
)

// View renders the chat view.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()

	messages := m.viewport.View()

	// Clamp the viewport if its rendered height drifted from the layout
	// budget, otherwise the input area gets pushed off screen.
	availableHeight := m.height - lipgloss.Height(header) - lipgloss.Height(input) - lipgloss.Height(status)
	if availableHeight < 1 {
		availableHeight = 1
	}
	if lipgloss.Height(messages) != availableHeight {
		messages = lipgloss.NewStyle().
			Height(availableHeight).
			MaxHeight(availableHeight).
			Width(m.width).
			Render(messages)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		messages,
		input,
		status,
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	brand := m.theme.HeaderBrand.Render("draftpad")

	// Long model tags (name:variant-quant) would push the status indicator
	// off narrow terminals.
	nameWidth := width - 16
	if nameWidth < 8 {
		nameWidth = 8
	}
	meta := m.theme.HeaderMeta.Render(" | " + util.TruncateWidth(m.modelName, nameWidth))

	var indicator string
	switch {
	case m.state == StateStreaming:
		indicator = m.theme.Streaming.Render(" " + styles.StatusIndicators.Active)
	case m.backendUp:
		indicator = m.theme.BackendUp.Render(" " + styles.StatusIndicators.Success)
	default:
		indicator = m.theme.BackendDown.Render(" " + styles.StatusIndicators.Error)
	}

	return m.theme.Header.
		Width(width).
		Render(brand + meta + indicator)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderMessages renders the whole conversation.
func (m *Model) renderMessages() string {
	if m.conversation == nil || m.conversation.IsEmpty() {
		return m.renderEmptyState()
	}

	var parts []string
	for _, msg := range m.conversation.Messages {
		switch {
		case msg.Role == transcript.RoleUser:
			parts = append(parts, m.renderUserMessage(msg))
		default:
			parts = append(parts, m.renderAssistantMessage(msg))
		}
	}

	if m.state == StateStreaming && m.waitingFirst {
		parts = append(parts, m.renderThinking())
	}

	return strings.Join(parts, "\n")
}

// renderUserMessage renders a user turn: label plus indented body.
func (m *Model) renderUserMessage(msg *transcript.Message) string {
	body := m.theme.MessageBody.
		Width(m.bodyWidth()).
		Render(msg.GetDisplayContent())

	return lipgloss.NewStyle().MarginTop(1).Render(
		m.theme.UserLabel.Render("You") + "\n" + body,
	)
}

// renderAssistantMessage renders an assistant turn with markdown or
// highlighted code blocks, a streaming cursor, and an optional stats line.
func (m *Model) renderAssistantMessage(msg *transcript.Message) string {
	content := msg.GetDisplayContent()

	if strings.TrimSpace(content) == "" && !msg.IsStreaming {
		return ""
	}

	var body string
	switch {
	case msg.IsError:
		body = m.theme.ErrorBody.
			Width(m.bodyWidth()).
			Render(content)

	case m.renderMarkdown && m.renderer != nil && !msg.IsStreaming:
		// Full markdown only once the message is complete; partial
		// markdown renders badly mid-fence.
		out, err := m.renderer.Render(content)
		if err != nil {
			body = m.renderPlainBody(content, msg.IsStreaming)
		} else {
			body = strings.TrimRight(out, "\n")
		}

	default:
		body = m.renderPlainBody(content, msg.IsStreaming)
	}

	var statsLine string
	if m.showStats && !msg.IsStreaming && !msg.IsError {
		if stats := msg.FormatStats(); stats != "" {
			statsLine = "\n" + m.theme.StatsLine.Render(stats)
		}
	}

	return lipgloss.NewStyle().MarginTop(1).Render(
		m.theme.AssistantLabel.Render("draftpad") + "\n" + body + statsLine,
	)
}

// renderPlainBody renders message text without markdown, keeping fenced
// code highlighted and appending the streaming cursor.
func (m *Model) renderPlainBody(content string, streaming bool) string {
	if streaming {
		if content == "" {
			content = "_"
		} else {
			content += "_"
		}
	}

	rendered := components.ParseCodeBlocks(content, m.bodyWidth(), m.theme.IsDark)
	return m.theme.MessageBody.
		Width(m.bodyWidth()).
		Render(rendered)
}

// renderThinking renders the spinner shown before the first fragment.
func (m *Model) renderThinking() string {
	return "\n" + m.theme.Spinner.Render(m.spin.View()) +
		m.theme.StatsLine.Render(" waiting for the model...")
}

// renderEmptyState renders the welcome screen for an empty transcript.
func (m *Model) renderEmptyState() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	innerWidth := width - 8
	if innerWidth < 40 {
		innerWidth = 40
	}
	if innerWidth > 76 {
		innerWidth = 76
	}

	var sb strings.Builder

	title := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true).
		Align(lipgloss.Center).
		Width(innerWidth)
	sb.WriteString(title.Render("draftpad chat"))
	sb.WriteString("\n\n")

	modelLine := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Align(lipgloss.Center).
		Width(innerWidth)
	sb.WriteString(modelLine.Render("Model: " + m.modelName))
	sb.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	tips := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send a message"},
		{"Esc", "Cancel a running generation"},
		{"Ctrl+T", "Toggle markdown rendering"},
		{"Ctrl+L", "Clear the transcript"},
		{"PgUp/PgDn", "Scroll the transcript"},
		{"Ctrl+C", "Cancel, or quit when idle"},
	}
	for _, tip := range tips {
		sb.WriteString(fmt.Sprintf("  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-12s", tip.key)),
			descStyle.Render(tip.desc)))
	}

	container := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(width - 4).
		Padding(2, 0)

	return container.Render(sb.String())
}

// bodyWidth returns the wrap width for message bodies.
func (m *Model) bodyWidth() int {
	w := m.width - 6
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInput renders the input area: separator, input line, char count.
// Fixed at three lines so the layout never shifts while typing.
func (m Model) renderInput() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	separator := m.theme.Separator.Render(strings.Repeat("─", width))

	var streamingNote string
	if m.state == StateStreaming {
		streamingNote = m.theme.Streaming.Render(" (streaming, Esc cancels)")
	}

	inputLineWidth := width - 4
	if inputLineWidth < 10 {
		inputLineWidth = 10
	}
	inputLine := lipgloss.NewStyle().
		Width(inputLineWidth).
		Render("  " + m.input.View() + streamingNote)

	count := util.RuneLen(m.input.Value())
	charCount := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(width - 2).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%d/%d", count, m.input.CharLimit))

	result := lipgloss.JoinVertical(
		lipgloss.Left,
		separator,
		inputLine,
		charCount,
	)

	return lipgloss.NewStyle().
		Height(3).
		MaxHeight(3).
		Width(width).
		Render(result)
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var backend string
	if m.backendUp {
		label := styles.StatusIndicators.Success + " backend"
		if m.backendModels > 0 {
			label = fmt.Sprintf("%s (%d models)", label, m.backendModels)
		}
		backend = m.theme.BackendUp.Render(label)
	} else {
		backend = m.theme.BackendDown.Render(styles.StatusIndicators.Error + " backend")
	}

	left := m.theme.HeaderMeta.Render(m.modelName) + "  " + backend
	if m.statusMsg != "" {
		// Status text is unbounded (sanitized error strings); clamp it so
		// the bar stays one line.
		left += "  " + m.theme.StatusMessage.Render(util.TruncateWidth(m.statusMsg, width/2))
	}

	var shortcuts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		shortcuts = append(shortcuts,
			m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	right := strings.Join(shortcuts, "  ")

	// Drop the shortcut help before truncating the left side
	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = width - 2 - lipgloss.Width(left)
		if gap < 0 {
			gap = 0
		}
	}

	bar := left + strings.Repeat(" ", gap) + right
	return m.theme.StatusBar.
		Width(width).
		MaxHeight(1).
		Render(bar)
}
