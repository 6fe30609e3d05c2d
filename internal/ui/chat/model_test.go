// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/venture-tui/internal/api"
	"github.com/jeranaias/venture-tui/internal/config"
	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/session"
)

// fakeBackend satisfies session.Backend without touching the network.
type fakeBackend struct{}

func (fakeBackend) SendChat(context.Context, api.ChatRequest) (*api.ChatResponse, error) {
	return nil, errors.New("not wired")
}

func (fakeBackend) GetSession(context.Context, string) (*model.SessionData, error) {
	return nil, errors.New("not wired")
}

func (fakeBackend) ClearSession(context.Context, string) error {
	return nil
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := New(Options{
		Controller:     session.NewController(fakeBackend{}),
		SkipModeSelect: true,
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func lastMessage(t *testing.T, m *Model) model.Message {
	t.Helper()
	msgs := m.controller.Messages()
	if len(msgs) == 0 {
		t.Fatal("expected at least one message")
	}
	return msgs[len(msgs)-1]
}

func TestUnknownCommandAddsSystemMessage(t *testing.T) {
	m := newTestModel(t)

	m.handleCommand("/bogus")

	msg := lastMessage(t, m)
	if msg.Role != model.RoleSystem {
		t.Fatalf("role = %q, want system", msg.Role)
	}
	if !strings.Contains(msg.Content, "Unknown command 'bogus'") {
		t.Errorf("content = %q, want unknown command notice", msg.Content)
	}
	if !strings.Contains(msg.Content, "/help") {
		t.Errorf("content = %q, want /help pointer", msg.Content)
	}
}

func TestCommandRegistryCoversHelpText(t *testing.T) {
	// Every command listed in the help overlay must resolve.
	for _, name := range []string{
		"help", "clear", "model", "models", "module",
		"next", "mode", "status", "history", "save", "sessions", "quit",
	} {
		if _, ok := commandHandlers[name]; !ok {
			t.Errorf("command %q has no handler", name)
		}
	}
}

func TestModelCommandRejectsUnknownID(t *testing.T) {
	m := newTestModel(t)

	m.handleCommand("/model gpt-99")

	if !m.toasts.HasToasts() {
		t.Fatal("expected an error toast")
	}
	got := m.toasts.GetToasts()[0].Message
	if !strings.Contains(got, "gpt-99") {
		t.Errorf("toast = %q, want model id echoed", got)
	}
}

func TestModelCommandSwitchesModel(t *testing.T) {
	m := newTestModel(t)

	m.handleCommand("/model gpt-4o")

	if got := m.controller.ActiveModel(); got != model.ModelGPT4o {
		t.Errorf("active model = %q, want gpt-4o", got)
	}
}

func TestModuleCommandRefusesLockedModule(t *testing.T) {
	m := newTestModel(t)

	m.handleCommand("/module financial_plan")

	if got := m.controller.CurrentModule(); got == model.ModuleFinancialPlan {
		t.Fatal("locked module should not become current")
	}
	if !m.toasts.HasToasts() {
		t.Fatal("expected a locked-module toast")
	}
	if got := m.toasts.GetToasts()[0].Message; got != "Module not yet available" {
		t.Errorf("toast = %q, want locked-module text", got)
	}
}

func TestClearResetsTranscriptKeepsMode(t *testing.T) {
	m := newTestModel(t)
	m.controller.SetMode(model.ModeConsultant)
	m.controller.AddSystemMessage("old content")

	m.handleCommand("/clear")

	if got := m.controller.Mode(); got != model.ModeConsultant {
		t.Errorf("mode = %q, want consultant preserved", got)
	}
	for _, msg := range m.controller.Messages() {
		if msg.Content == "old content" {
			t.Fatal("transcript should be cleared")
		}
	}
	// A fresh welcome replaces the old transcript.
	if !strings.Contains(lastMessage(t, m).Content, "Welcome to Utopia AI") {
		t.Error("expected a welcome message after clear")
	}
}

func TestModeSelectStartsFreshConversation(t *testing.T) {
	m := newTestModel(t)
	m.controller.SetMode(model.ModeEntrepreneur)
	m.controller.SelectModel(model.ModelGPT4o)
	m.controller.AddSystemMessage("earlier mode content")
	m.controller.AdoptSession("sess-live")

	m.handleCommand("/mode")
	if !m.choosingMode {
		t.Fatal("/mode should open the mode picker")
	}

	// Pick the other mode and confirm.
	m.handleModeSelectKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	m.handleModeSelectKey(tea.KeyMsg{Type: tea.KeyEnter})

	if m.choosingMode {
		t.Error("mode picker should close after confirm")
	}
	if got := m.controller.Mode(); got != model.ModeConsultant {
		t.Errorf("mode = %q, want consultant", got)
	}
	if got := m.controller.SessionID(); got != "" {
		t.Errorf("session id = %q, want dropped on mode switch", got)
	}
	if got := m.controller.SelectedModel(); got != model.ModelGPT4o {
		t.Errorf("selected model = %q, want preserved across mode switch", got)
	}
	for _, msg := range m.controller.Messages() {
		if msg.Content == "earlier mode content" {
			t.Fatal("old transcript carried into the new mode")
		}
	}
	if !strings.Contains(lastMessage(t, m).Content, "Welcome to Utopia AI") {
		t.Error("expected a fresh welcome after the mode switch")
	}
}

func TestConfigReloadRepointsClient(t *testing.T) {
	client := api.NewClient()
	m := New(Options{
		Client:         client,
		Controller:     session.NewController(fakeBackend{}),
		SkipModeSelect: true,
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	cfg := config.Default()
	cfg.Server.URL = "http://localhost:9000/api/"
	m.Update(ConfigReloadMsg{Config: cfg})

	if got := client.BaseURL(); got != "http://localhost:9000/api" {
		t.Errorf("base url = %q, want the reloaded server url", got)
	}
	if !m.toasts.HasToasts() {
		t.Error("expected a reload notice")
	}
}

func TestChatResultErrorToasts(t *testing.T) {
	m := newTestModel(t)

	m.handleChatResult(ChatResultMsg{Err: errors.New("boom")})

	if !m.toasts.HasToasts() {
		t.Fatal("expected an error toast")
	}
	if m.controller.IsLoading() {
		t.Error("loading flag should clear on failure")
	}
}

func TestChatResultActivatesQuestionForm(t *testing.T) {
	m := newTestModel(t)
	if _, ok := m.controller.BeginSend("my idea"); !ok {
		t.Fatal("BeginSend refused")
	}

	m.handleChatResult(ChatResultMsg{Response: &api.ChatResponse{
		SessionID: "sess-1",
		Message:   "Tell me more",
		Agent:     model.AgentIdea,
		Questions: []model.StructuredQuestion{
			{ID: "q1", Question: "Who is the customer?", Kind: model.QuestionTextarea, Required: true},
		},
	}})

	if m.activeForm == nil || !m.activeForm.Active() {
		t.Fatal("expected an active question form")
	}
	if got := m.controller.SessionID(); got != "sess-1" {
		t.Errorf("session id = %q, want sess-1", got)
	}
}

func TestSubmitInputIgnoresBlank(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("   ")

	m.submitInput()

	if m.controller.MessageCount() != 0 {
		t.Error("blank input should not produce a message")
	}
	if m.controller.IsLoading() {
		t.Error("blank input should not start a send")
	}
}

func TestViewShowsTranscript(t *testing.T) {
	m := newTestModel(t)
	m.controller.AddSystemMessage("system check line")
	m.refreshViewport()

	view := m.View()
	if !strings.Contains(view, "system check line") {
		t.Error("view should contain the transcript")
	}
}

func TestHelpOverlayListsCommands(t *testing.T) {
	m := newTestModel(t)

	m.handleCommand("/help")
	view := m.View()

	for _, cmd := range []string{"/clear", "/models", "/next", "/status"} {
		if !strings.Contains(view, cmd) {
			t.Errorf("help view missing %q", cmd)
		}
	}
}
