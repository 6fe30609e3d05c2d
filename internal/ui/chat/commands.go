// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/venture-tui/internal/model"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// CommandHandler executes one slash command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names (without the slash) to handlers.
var commandHandlers = map[string]CommandHandler{
	"help":     cmdHelp,
	"clear":    cmdClear,
	"new":      cmdClear,
	"model":    cmdModel,
	"models":   cmdModels,
	"module":   cmdModule,
	"next":     cmdNext,
	"mode":     cmdMode,
	"status":   cmdStatus,
	"history":  cmdHistory,
	"save":     cmdSave,
	"sessions": cmdSessions,
	"quit":     cmdQuit,
	"exit":     cmdQuit,
}

// handleCommand parses and dispatches a slash command line.
func (m *Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return m, nil
	}
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))

	handler, ok := commandHandlers[name]
	if !ok {
		m.controller.AddSystemMessage("Error: Unknown command '" + name + "'\nType /help for available commands")
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil
	}
	return handler(m, parts[1:])
}

// =============================================================================
// HANDLERS
// =============================================================================

func cmdHelp(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.showHelp = true
	return m, nil
}

// cmdClear resets the conversation. Local state clears immediately; the
// server-side clear runs in the background.
func cmdClear(m *Model, _ []string) (tea.Model, tea.Cmd) {
	id := m.controller.SessionID()
	mode := m.controller.Mode()
	m.controller.ClearLocal()
	m.controller.SetMode(mode)
	m.activeForm = nil
	m.addWelcome()
	m.refreshViewport()

	if id != "" {
		return m, clearSessionCmd(m.client, id)
	}
	return m, nil
}

func cmdModel(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.showModelPicker = true
		return m, loadModelsCmd(m.client)
	}
	id, err := model.ParseModelID(args[0])
	if err != nil {
		m.toasts.AddError("Unknown model '" + args[0] + "'. Use /models to list available models.")
		return m, nil
	}
	m.selectModel(id)
	return m, nil
}

func cmdModels(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.showModelPicker = true
	return m, loadModelsCmd(m.client)
}

func cmdModule(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.showDashboard = true
		return m, nil
	}
	mod, err := model.ParseModuleType(args[0])
	if err != nil {
		m.toasts.AddError("Unknown module '" + args[0] + "'. Press ctrl+d for the module dashboard.")
		return m, nil
	}
	m.enterModule(mod)
	m.refreshViewport()
	return m, nil
}

func cmdNext(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return m.advanceModule()
}

func cmdMode(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.choosingMode = true
	return m, nil
}

func cmdStatus(m *Model, _ []string) (tea.Model, tea.Cmd) {
	var b strings.Builder
	b.WriteString("Session status:\n")
	if id := m.controller.SessionID(); id != "" {
		b.WriteString("  Session:  " + id + "\n")
	} else {
		b.WriteString("  Session:  (not started)\n")
	}
	b.WriteString("  Mode:     " + m.controller.Mode().DisplayName() + "\n")
	info := m.controller.CurrentModule().Info()
	b.WriteString("  Module:   " + info.Title + "\n")
	b.WriteString("  Model:    " + m.controller.ActiveModel().DisplayName() + "\n")
	if snap := m.controller.Session(); snap != nil {
		b.WriteString("  Progress: " +
			progressLabel(model.ProgressPercent(snap.Completed())) + "\n")
	}
	m.controller.AddSystemMessage(strings.TrimRight(b.String(), "\n"))
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func cmdHistory(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.history == nil {
		m.toasts.AddWarning("History is disabled")
		return m, nil
	}
	query := strings.Join(args, " ")
	return m, queryHistoryCmd(m.history, query, 10)
}

func cmdSave(m *Model, _ []string) (tea.Model, tea.Cmd) {
	if m.sessions == nil {
		m.toasts.AddWarning("Session storage is disabled")
		return m, nil
	}
	return m, m.saveSessionCmd()
}

func cmdSessions(m *Model, _ []string) (tea.Model, tea.Cmd) {
	if m.sessions == nil {
		m.toasts.AddWarning("Session storage is disabled")
		return m, nil
	}
	metas, err := m.sessions.List()
	if err != nil {
		m.toasts.AddError("Could not list sessions: " + err.Error())
		return m, nil
	}
	if len(metas) == 0 {
		m.controller.AddSystemMessage("No saved sessions.")
		m.refreshViewport()
		return m, nil
	}

	var b strings.Builder
	b.WriteString("Saved sessions:\n")
	for _, meta := range metas {
		b.WriteString("  " + meta.ID + "  " + meta.UpdatedAt.Format("2006-01-02 15:04"))
		if meta.Preview != "" {
			b.WriteString("  " + meta.Preview)
		}
		b.WriteString("\n")
	}
	m.controller.AddSystemMessage(strings.TrimRight(b.String(), "\n"))
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func cmdQuit(m *Model, _ []string) (tea.Model, tea.Cmd) {
	return m, tea.Quit
}

// progressLabel formats a completion percentage.
func progressLabel(percent int) string {
	return strconv.Itoa(percent) + "% complete"
}
