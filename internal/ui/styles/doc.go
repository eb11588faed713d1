// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the draftpad TUI.

This package defines the color palette and theme used by the full-screen
chat view. All colors use Lip Gloss AdaptiveColor for automatic light/dark
terminal detection.

# Color System (colors.go)

Accent colors:

  - Purple - Primary accent for assistant messages
  - Cyan - Brand color for user highlights and key hints
  - Emerald - Success states and the backend-up indicator
  - Amber - Warnings and cancelled generations
  - Rose - Errors and the backend-down indicator

Surface and text colors follow the same layering:

	Surface     - Main background
	SurfaceDim  - Header and status bar backgrounds
	Overlay     - Borders and separators
	TextPrimary - Main content text
	TextMuted   - Hints and stats lines

# Theme System (theme.go)

The Theme struct carries the configured styles:

	theme := styles.NewTheme("auto")
	if theme.IsDark {
		// Dark terminal detected
	}

NewTheme accepts the ui.theme preference from configuration: "dark" and
"light" force the palette, "auto" detects from the terminal.

# Status Indicators

ASCII indicators accompany colors so state reads on monochrome terminals:

	StatusIndicators.Success - [OK]
	StatusIndicators.Error   - [X]
	StatusIndicators.Warning - [!]
*/
package styles
