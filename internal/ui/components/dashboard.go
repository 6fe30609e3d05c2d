// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/ui/styles"
)

// =============================================================================
// MODULE DASHBOARD
// =============================================================================

// Dashboard renders the plan progression: one row per module with its
// status, plus an overall progress bar.
type Dashboard struct {
	theme *styles.Theme
}

// NewDashboard creates a new dashboard component.
func NewDashboard(theme *styles.Theme) *Dashboard {
	return &Dashboard{theme: theme}
}

// Render renders the dashboard for the given session snapshot.
func (d *Dashboard) Render(session *model.SessionData, current model.ModuleType, width int) string {
	completed := session.Completed()
	started := session.Started()

	var rows []string
	for _, mod := range model.ModuleOrder {
		rows = append(rows, d.renderRow(mod, current, completed, started, session))
	}

	percent := model.ProgressPercent(completed)
	bar := d.renderProgressBar(percent, width-12)

	body := strings.Join(rows, "\n") + "\n\n" + bar

	box := d.theme.DashboardBox
	if width > 8 {
		box = box.Width(width - 4)
	}
	return box.Render(body)
}

// renderRow renders one module row.
func (d *Dashboard) renderRow(mod, current model.ModuleType, completed, started model.ModuleSet, session *model.SessionData) string {
	info := mod.Info()

	var indicator string
	var style = d.theme.ModuleRow

	switch {
	case completed[mod]:
		indicator = styles.StatusIndicators.Success
		style = d.theme.ModuleRowCompleted
	case mod == current:
		indicator = styles.StatusIndicators.Active
		style = d.theme.ModuleRowActive
	case model.Accessible(mod, started, session.BucketHasData):
		indicator = styles.StatusIndicators.Pending
	default:
		indicator = styles.StatusIndicators.Locked
		style = d.theme.ModuleRowLocked
	}

	line := fmt.Sprintf("%s %s %s", indicator, info.Icon, info.Title)
	if mod == current {
		line += "  (current)"
	}
	return style.Render(line)
}

// renderProgressBar renders the overall completion bar.
func (d *Dashboard) renderProgressBar(percent, width int) string {
	if width < 10 {
		width = 10
	}

	filled := width * percent / 100
	if filled > width {
		filled = width
	}

	bar := d.theme.ProgressFill.Render(strings.Repeat("█", filled)) +
		d.theme.ProgressEmpty.Render(strings.Repeat("░", width-filled))

	label := d.theme.ProgressLabel.Render(fmt.Sprintf(" %d%%", percent))
	return bar + label
}
