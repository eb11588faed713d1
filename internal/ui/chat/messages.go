// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea messages that flow through the chat
// interface and the commands that produce them.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/draftpad/internal/session"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamUpdateMsg carries one session update into the program. The notify
// bridge in main converts session callbacks into these; the update already
// holds the filtered accumulated text, so the handler replaces rather than
// appends.
type StreamUpdateMsg struct {
	Update session.Update
}

// =============================================================================
// BACKEND STATUS MESSAGES
// =============================================================================

// BackendStatusMsg reports the result of a relay ping.
type BackendStatusMsg struct {
	OK     bool
	Models int
	Err    error
}

// backendTickMsg schedules the next periodic backend probe.
type backendTickMsg struct{}

// =============================================================================
// COMMANDS
// =============================================================================

// backendProbeInterval is how often the status bar re-checks the backend.
const backendProbeInterval = 30 * time.Second

// CheckBackendCmd pings the relay and reports whether the model backend
// behind it is reachable.
func CheckBackendCmd(client *session.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return BackendStatusMsg{OK: false}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		ping, err := client.Ping(ctx)
		if err != nil {
			return BackendStatusMsg{OK: false, Err: err}
		}
		return BackendStatusMsg{OK: ping.OK, Models: ping.ModelsAvailable}
	}
}

// backendTickCmd schedules the next periodic probe.
func backendTickCmd() tea.Cmd {
	return tea.Tick(backendProbeInterval, func(time.Time) tea.Msg {
		return backendTickMsg{}
	})
}
