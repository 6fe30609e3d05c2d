// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/ui/styles"
)

// =============================================================================
// HEADER
// =============================================================================

// Header renders the top bar: brand, current module, and active model.
type Header struct {
	theme *styles.Theme
}

// NewHeader creates a new header component.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{theme: theme}
}

// Render renders the header for the given session state.
func (h *Header) Render(width int, mode model.Mode, module model.ModuleType, modelID model.ModelID) string {
	brand := h.theme.HeaderBrand.Render("Utopia AI")
	modeLabel := h.theme.HeaderSubtitle.Render(mode.DisplayName())

	info := module.Info()
	var moduleLabel string
	if info.Title != "" {
		moduleLabel = h.theme.HeaderTitle.Render(info.Icon + " " + info.Title)
	} else {
		moduleLabel = h.theme.HeaderTitle.Render(module.Title())
	}

	modelLabel := h.theme.HeaderSubtitle.Render(modelID.DisplayName())

	left := brand + "  " + modeLabel
	right := moduleLabel + "  " + modelLabel

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + right

	return h.theme.StatusBar.Width(width).Render(line)
}
