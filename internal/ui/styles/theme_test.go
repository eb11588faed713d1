// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual theme for the draftpad TUI.
package styles

import (
	"testing"
)

// =============================================================================
// THEME TESTS
// =============================================================================

func TestNewThemeDark(t *testing.T) {
	theme := NewTheme("dark")

	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}
	if !theme.IsDark {
		t.Error("dark preference should produce a dark theme")
	}
}

func TestNewThemeLight(t *testing.T) {
	theme := NewTheme("light")

	if theme.IsDark {
		t.Error("light preference should produce a light theme")
	}
}

func TestNewThemeCaseInsensitive(t *testing.T) {
	theme := NewTheme("DARK")

	if !theme.IsDark {
		t.Error("preference matching should ignore case")
	}
}

func TestNewThemeAuto(t *testing.T) {
	// Auto detection depends on the terminal; only verify construction.
	theme := NewTheme("auto")

	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}
}

func TestThemeStylesInitialized(t *testing.T) {
	theme := NewTheme("dark")

	// Styles with Bold set prove initStyles ran; zero-value lipgloss
	// styles report false.
	if !theme.HeaderBrand.GetBold() {
		t.Error("HeaderBrand should be bold")
	}
	if !theme.UserLabel.GetBold() {
		t.Error("UserLabel should be bold")
	}
	if !theme.BackendUp.GetBold() {
		t.Error("BackendUp should be bold")
	}
}

// =============================================================================
// STATUS INDICATOR TESTS
// =============================================================================

func TestStatusIndicatorsASCII(t *testing.T) {
	// Indicators must stay plain ASCII so they render in every terminal.
	indicators := []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Active,
	}

	for _, ind := range indicators {
		if ind == "" {
			t.Error("status indicator should not be empty")
		}
		for _, r := range ind {
			if r > 127 {
				t.Errorf("status indicator %q contains non-ASCII rune %q", ind, r)
			}
		}
	}
}

func TestAdaptiveColorsDistinct(t *testing.T) {
	// Each adaptive color needs distinct light and dark values or the
	// theme preference would be a no-op.
	pairs := map[string][2]string{
		"Purple":      {Purple.Light, Purple.Dark},
		"Cyan":        {Cyan.Light, Cyan.Dark},
		"Emerald":     {Emerald.Light, Emerald.Dark},
		"Rose":        {Rose.Light, Rose.Dark},
		"Amber":       {Amber.Light, Amber.Dark},
		"TextPrimary": {TextPrimary.Light, TextPrimary.Dark},
	}

	for name, pair := range pairs {
		if pair[0] == pair[1] {
			t.Errorf("%s has identical light and dark values: %s", name, pair[0])
		}
		if pair[0] == "" || pair[1] == "" {
			t.Errorf("%s has an empty variant", name)
		}
	}
}
