// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the draftpad TUI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the chat TUI.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	MessageBody    lipgloss.Style
	ErrorBody      lipgloss.Style
	StatsLine      lipgloss.Style

	// ==========================================================================
	// INPUT AREA
	// ==========================================================================

	InputPrompt lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar     lipgloss.Style
	BackendUp     lipgloss.Style
	BackendDown   lipgloss.Style
	Streaming     lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style
	StatusMessage lipgloss.Style

	// ==========================================================================
	// MISC
	// ==========================================================================

	Spinner   lipgloss.Style
	Separator lipgloss.Style
}

// NewTheme creates a theme honoring the configured preference: "dark",
// "light", or "auto" (detect from the terminal).
func NewTheme(pref string) *Theme {
	switch strings.ToLower(pref) {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       lipgloss.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Transcript
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.MessageBody = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ErrorBody = lipgloss.NewStyle().
		Foreground(Rose)

	t.StatsLine = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Input area
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.BackendUp = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.BackendDown = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Streaming = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatusMessage = lipgloss.NewStyle().
		Foreground(Amber)

	// Misc
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.Separator = lipgloss.NewStyle().
		Foreground(Overlay)
}
