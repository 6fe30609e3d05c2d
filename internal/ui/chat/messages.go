// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat
// interface and the commands that produce them. Network calls run in
// commands so the update loop never blocks on the backend.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/venture-tui/internal/api"
	"github.com/jeranaias/venture-tui/internal/config"
	"github.com/jeranaias/venture-tui/internal/history"
	"github.com/jeranaias/venture-tui/internal/model"
)

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

// ChatResultMsg delivers the backend's reply to a chat turn.
type ChatResultMsg struct {
	Response *api.ChatResponse
	Err      error
}

// SnapshotMsg delivers a session snapshot from a background refresh.
type SnapshotMsg struct {
	Data *model.SessionData
	Err  error
}

// ResetResultMsg reports the server-side outcome of a session reset.
type ResetResultMsg struct {
	Err error
}

// ModelsMsg delivers the list of available models.
type ModelsMsg struct {
	Models []api.ModelInfo
	Err    error
}

// HealthMsg reports backend reachability at startup.
type HealthMsg struct {
	Err error
}

// HistoryMsg delivers recent or matching exchanges for /history.
type HistoryMsg struct {
	Query     string
	Exchanges []history.Exchange
	Err       error
}

// SessionSavedMsg confirms a local session save.
type SessionSavedMsg struct {
	ID  string
	Err error
}

// ConfigReloadMsg carries a freshly reloaded configuration file. The
// config watcher sends it into the running program.
type ConfigReloadMsg struct {
	Config *config.Config
}

// =============================================================================
// COMMANDS
// =============================================================================

// sendChatCmd puts a chat request on the wire.
func sendChatCmd(client *api.Client, req api.ChatRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendChat(context.Background(), req)
		return ChatResultMsg{Response: resp, Err: err}
	}
}

// refreshSessionCmd fetches the session snapshot.
func refreshSessionCmd(client *api.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		data, err := client.GetSession(context.Background(), sessionID)
		return SnapshotMsg{Data: data, Err: err}
	}
}

// clearSessionCmd asks the server to clear a session.
func clearSessionCmd(client *api.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := client.ClearSession(context.Background(), sessionID)
		return ResetResultMsg{Err: err}
	}
}

// loadModelsCmd fetches the available models.
func loadModelsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		models, err := client.ListModels(context.Background())
		return ModelsMsg{Models: models, Err: err}
	}
}

// checkHealthCmd pings the backend.
func checkHealthCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return HealthMsg{Err: client.Health(ctx)}
	}
}

// recordExchangeCmd logs a completed exchange. Best effort: recording
// failures never surface in the UI.
func recordExchangeCmd(store *history.Store, ex history.Exchange) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Record(ctx, ex)
		return nil
	}
}

// queryHistoryCmd searches the exchange log, or lists recent entries
// when query is empty.
func queryHistoryCmd(store *history.Store, query string, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var (
			exchanges []history.Exchange
			err       error
		)
		if query == "" {
			exchanges, err = store.Recent(ctx, limit)
		} else {
			exchanges, err = store.Search(ctx, query, limit)
		}
		return HistoryMsg{Query: query, Exchanges: exchanges, Err: err}
	}
}
