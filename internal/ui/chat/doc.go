// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat view component for the draftpad TUI.

The chat package implements a terminal chat interface on the Bubble Tea
framework, speaking to the local draftpad server the same way the browser
sidebar does: each turn goes through the relay as a self-contained request
and streams back over SSE.

# Key Components

Model (model.go) holds all chat state: the transcript, the relay session,
the viewport, the text input, and the streaming state machine. One
generation runs at a time; Esc or Ctrl+C cancels it and the partial text
stays in the transcript.

View rendering (view.go) draws the header, the scrollable transcript,
the input area, and the status bar. Completed assistant turns render as
markdown through glamour when enabled; otherwise fenced code blocks are
highlighted in place via the components package.

Messages (messages.go) defines the Bubble Tea messages. Streaming arrives
as StreamUpdateMsg values posted by the notify bridge in main; each update
carries the full accumulated text, so dropped frames cost nothing and the
transcript re-renders at a capped rate.

# Usage

	client := session.NewClient("http://127.0.0.1:8787")
	sess := session.New(client, notify)
	m := chat.New(chat.Options{
		Theme:     styles.NewTheme("auto"),
		Client:    client,
		Session:   sess,
		ModelName: "llama3.2",
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}

The notify func passed to session.New must forward updates into the
program with p.Send(chat.StreamUpdateMsg{Update: u}).
*/
package chat
