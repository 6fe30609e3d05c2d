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
// MODE SELECT
// =============================================================================

// ModeSelect renders the initial mode choice as two side-by-side cards.
type ModeSelect struct {
	theme  *styles.Theme
	cursor int
}

// NewModeSelect creates a new mode selection component.
func NewModeSelect(theme *styles.Theme) *ModeSelect {
	return &ModeSelect{theme: theme}
}

// MoveLeft moves the selection left.
func (s *ModeSelect) MoveLeft() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// MoveRight moves the selection right.
func (s *ModeSelect) MoveRight() {
	if s.cursor < len(model.Modes)-1 {
		s.cursor++
	}
}

// Selected returns the mode under the cursor.
func (s *ModeSelect) Selected() model.Mode {
	return model.Modes[s.cursor]
}

// Render renders the mode cards centered in the given area.
func (s *ModeSelect) Render(width, height int) string {
	title := s.theme.HeaderTitle.Render("Welcome to Utopia AI")
	subtitle := s.theme.HeaderSubtitle.Render("How would you like to work today?")

	var cards []string
	for i, mode := range model.Modes {
		cards = append(cards, s.renderCard(mode, i == s.cursor))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	hint := s.theme.ShortcutDesc.Render("←/→ choose  enter confirm")

	content := lipgloss.JoinVertical(lipgloss.Center, title, subtitle, "", row, "", hint)

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

// renderCard renders one mode card.
func (s *ModeSelect) renderCard(mode model.Mode, selected bool) string {
	var lines []string
	lines = append(lines,
		s.theme.ModeCardTitle.Render(mode.DisplayName()),
		s.theme.ModeCardTagline.Render(mode.Tagline()),
		"",
	)
	for _, f := range mode.Features() {
		lines = append(lines, s.theme.ModeCardFeature.Render("- "+f))
	}

	body := strings.Join(lines, "\n")
	if selected {
		return s.theme.ModeCardSelected.Render(body)
	}
	return s.theme.ModeCard.Render(body)
}
