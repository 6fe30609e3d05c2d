// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/ui/components"
	"github.com/jeranaias/venture-tui/internal/ui/styles"
	"github.com/jeranaias/venture-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full interface.
func (m *Model) View() string {
	if !m.ready {
		return "Starting venture..."
	}

	if m.choosingMode {
		return m.modeSelect.Render(m.width, m.height)
	}

	header := m.header.Render(m.width, m.controller.Mode(),
		m.controller.CurrentModule(), m.controller.ActiveModel())

	body := m.renderBody()
	status := m.renderStatusBar()
	input := m.renderInputLine()

	view := lipgloss.JoinVertical(lipgloss.Left, header, body, status, input)

	if m.toasts.HasToasts() {
		stack := components.RenderToastStack(m.toasts.GetToasts(), m.width, 1)
		view = lipgloss.JoinVertical(lipgloss.Left, view, stack)
	}
	return view
}

// renderBody picks the main area: an overlay when one is open, the
// transcript otherwise.
func (m *Model) renderBody() string {
	switch {
	case m.showHelp:
		return m.renderHelp()
	case m.showDashboard:
		snap := m.controller.Session()
		if snap == nil {
			snap = &model.SessionData{}
		}
		return m.dashboard.Render(snap, m.controller.CurrentModule(), m.width)
	case m.showModelPicker:
		return m.modelPicker.Render()
	}

	if m.activeForm != nil && m.activeForm.Active() {
		transcript := m.viewport.View()
		form := m.activeForm.Render(m.width)
		return lipgloss.JoinVertical(lipgloss.Left, transcript, form)
	}
	return m.viewport.View()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport rebuilds the transcript view from the message list.
func (m *Model) refreshViewport() {
	var parts []string
	for _, msg := range m.controller.Messages() {
		parts = append(parts, m.renderMessage(msg))
	}
	if m.controller.IsLoading() {
		parts = append(parts, m.renderThinking())
	}
	m.viewport.SetContent(strings.Join(parts, "\n"))
}

// renderMessage renders one transcript entry.
func (m *Model) renderMessage(msg model.Message) string {
	ts := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	switch msg.Role {
	case model.RoleUser:
		label := m.theme.UserBubble.Render("You") + " " + ts
		return label + "\n" + indent(msg.Content, 2) + "\n"

	case model.RoleAssistant:
		name := msg.Agent.DisplayName()
		if name == "" {
			name = "Assistant"
		}
		label := m.theme.AgentLabel.
			Foreground(styles.AgentColor(msg.Agent)).
			Render(name) + " " + ts
		return label + "\n" + indent(m.renderMarkdown(msg.Content), 2) + "\n"

	default:
		return m.theme.SystemBubble.Render(msg.Content) + "\n"
	}
}

// renderMarkdown renders assistant markdown, falling back to the raw
// text when glamour is unavailable or errors.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// renderThinking shows the loading indicator.
func (m *Model) renderThinking() string {
	return m.spin.View() + " " + m.theme.ThinkingText.Render("Thinking...")
}

// =============================================================================
// CHROME
// =============================================================================

// renderStatusBar renders the bottom status line.
func (m *Model) renderStatusBar() string {
	left := m.theme.StatusModel.Render(m.controller.ActiveModel().DisplayName())
	if snap := m.controller.Session(); snap != nil {
		percent := model.ProgressPercent(snap.Completed())
		left += m.theme.StatusModule.Render("  " + progressLabel(percent))
	}

	right := m.theme.ShortcutKey.Render("ctrl+d") +
		m.theme.ShortcutDesc.Render(" modules  ") +
		m.theme.ShortcutKey.Render("/help") +
		m.theme.ShortcutDesc.Render(" commands  ") +
		m.theme.ShortcutKey.Render("ctrl+c") +
		m.theme.ShortcutDesc.Render(" quit")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}

// renderInputLine renders the prompt line.
func (m *Model) renderInputLine() string {
	if m.controller.IsLoading() {
		return m.renderThinking()
	}
	if m.activeForm != nil && m.activeForm.Active() {
		return m.theme.FormHint.Render("Answer the questions above, or esc to dismiss")
	}
	return m.input.View()
}

// renderHelp renders the command reference overlay.
func (m *Model) renderHelp() string {
	rows := []struct{ cmd, desc string }{
		{"/help", "Show this help"},
		{"/clear", "Start a fresh conversation"},
		{"/model [id]", "Switch model, or open the picker"},
		{"/models", "Open the model picker"},
		{"/module [name]", "Jump to a module, or open the dashboard"},
		{"/next", "Advance to the next module"},
		{"/mode", "Change working mode"},
		{"/status", "Show session status"},
		{"/history [query]", "Browse the exchange log"},
		{"/save", "Save the session locally"},
		{"/sessions", "List saved sessions"},
		{"/quit", "Exit venture"},
	}

	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Commands") + "\n\n")
	for _, r := range rows {
		b.WriteString("  " + m.theme.ShortcutKey.Render(util.PadRight(r.cmd, 18)) +
			m.theme.ShortcutDesc.Render(r.desc) + "\n")
	}
	b.WriteString("\n" + m.theme.FormHint.Render("Press any key to close"))

	return m.theme.PickerBox.Render(b.String())
}

// =============================================================================
// HELPERS
// =============================================================================

// indent prefixes every line with n spaces.
func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}
