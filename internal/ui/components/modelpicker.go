// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/venture-tui/internal/api"
	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/ui/styles"
	"github.com/jeranaias/venture-tui/internal/util"
)

// =============================================================================
// MODEL PICKER
// =============================================================================

// ModelPicker renders a selectable list of available models.
type ModelPicker struct {
	theme  *styles.Theme
	models []api.ModelInfo
	cursor int
	active model.ModelID
}

// NewModelPicker creates a new model picker.
func NewModelPicker(theme *styles.Theme) *ModelPicker {
	return &ModelPicker{theme: theme}
}

// SetModels replaces the listed models and positions the cursor on the
// active one.
func (p *ModelPicker) SetModels(models []api.ModelInfo, active model.ModelID) {
	p.models = models
	p.active = active
	p.cursor = 0
	for i, m := range models {
		if m.ID == active {
			p.cursor = i
			break
		}
	}
}

// Models returns the listed models.
func (p *ModelPicker) Models() []api.ModelInfo {
	return p.models
}

// MoveUp moves the cursor up.
func (p *ModelPicker) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// MoveDown moves the cursor down.
func (p *ModelPicker) MoveDown() {
	if p.cursor < len(p.models)-1 {
		p.cursor++
	}
}

// Selected returns the model under the cursor.
func (p *ModelPicker) Selected() (api.ModelInfo, bool) {
	if p.cursor < 0 || p.cursor >= len(p.models) {
		return api.ModelInfo{}, false
	}
	return p.models[p.cursor], true
}

// Render renders the picker.
func (p *ModelPicker) Render() string {
	if len(p.models) == 0 {
		return p.theme.PickerBox.Render(p.theme.PickerDesc.Render("No models available"))
	}

	var rows []string
	rows = append(rows, p.theme.HeaderTitle.Render("Select Model"), "")

	for i, m := range p.models {
		var badges []string
		if m.ID == p.active {
			badges = append(badges, p.theme.PickerBadge.Render("Active"))
		}
		if m.Default {
			badges = append(badges, p.theme.PickerDesc.Render("Default"))
		}

		line := m.Name
		if len(badges) > 0 {
			line += "  " + strings.Join(badges, " ")
		}

		if i == p.cursor {
			rows = append(rows, p.theme.PickerSelected.Render("> "+line))
		} else {
			rows = append(rows, p.theme.PickerItem.Render("  "+line))
		}
		rows = append(rows, p.theme.PickerDesc.Render("    "+util.TruncateWidth(m.Description, 56)))
	}

	rows = append(rows, "", p.theme.ShortcutDesc.Render("enter select  esc cancel"))

	return p.theme.PickerBox.Render(strings.Join(rows, "\n"))
}
