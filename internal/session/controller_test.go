// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/jeranaias/venture-tui/internal/api"
	"github.com/jeranaias/venture-tui/internal/model"
)

// fakeBackend scripts the backend for controller tests.
type fakeBackend struct {
	chatResp    *api.ChatResponse
	chatErr     error
	sessionData *model.SessionData
	sessionErr  error
	clearErr    error

	chatCalls  int
	clearCalls int
	lastReq    api.ChatRequest
}

func (f *fakeBackend) SendChat(_ context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.chatCalls++
	f.lastReq = req
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.chatResp, nil
}

func (f *fakeBackend) GetSession(_ context.Context, _ string) (*model.SessionData, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.sessionData, nil
}

func (f *fakeBackend) ClearSession(_ context.Context, _ string) error {
	f.clearCalls++
	return f.clearErr
}

func okResponse() *api.ChatResponse {
	return &api.ChatResponse{
		SessionID:     "sess-1",
		Message:       "Tell me about your idea.",
		Agent:         model.AgentIdea,
		CurrentModule: model.ModuleIdeaConcept,
		CurrentModel:  model.ModelGPT4oMini,
	}
}

func TestSendSuccessGrowsTranscriptByTwo(t *testing.T) {
	backend := &fakeBackend{chatResp: okResponse()}
	c := NewController(backend)
	c.SetMode(model.ModeEntrepreneur)

	if _, err := c.Send(context.Background(), "I want to open a bakery"); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript = %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[1].Role != model.RoleAssistant {
		t.Errorf("roles = %v, %v", msgs[0].Role, msgs[1].Role)
	}
	if c.IsLoading() {
		t.Error("loading must terminate after success")
	}
	if c.SessionID() != "sess-1" {
		t.Errorf("session id = %q", c.SessionID())
	}
	if c.CurrentAgent() != model.AgentIdea {
		t.Errorf("agent = %v", c.CurrentAgent())
	}
	if c.CurrentModule() != model.ModuleIdeaConcept {
		t.Errorf("module = %v", c.CurrentModule())
	}
	if backend.lastReq.Mode != model.ModeEntrepreneur {
		t.Errorf("request mode = %v", backend.lastReq.Mode)
	}
}

func TestSendFailureKeepsOptimisticTurn(t *testing.T) {
	backend := &fakeBackend{chatErr: api.ErrServer}
	c := NewController(backend)

	_, err := c.Send(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}

	msgs := c.Messages()
	if len(msgs) != 1 {
		t.Fatalf("transcript = %d messages, want 1 (optimistic turn kept)", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "hello" {
		t.Errorf("kept message = %+v", msgs[0])
	}
	if c.IsLoading() {
		t.Error("loading must terminate after failure")
	}
}

func TestApplyFailureMessages(t *testing.T) {
	c := NewController(&fakeBackend{})

	if got := c.ApplyFailure(api.ErrInvalidModel); got != "Invalid model selected. Please choose a different model." {
		t.Errorf("invalid model toast = %q", got)
	}
	if got := c.ApplyFailure(errors.New("boom")); got != "An unexpected error occurred. Please try again." {
		t.Errorf("generic toast = %q", got)
	}
}

func TestBeginSendRefusals(t *testing.T) {
	c := NewController(&fakeBackend{})

	if _, ok := c.BeginSend(""); ok {
		t.Error("blank text must not start a send")
	}

	if _, ok := c.BeginSend("first"); !ok {
		t.Fatal("first send should start")
	}
	// A second send while loading is refused and changes nothing.
	if _, ok := c.BeginSend("second"); ok {
		t.Error("send while loading must be refused")
	}
	if n := c.MessageCount(); n != 1 {
		t.Errorf("transcript = %d, want 1", n)
	}
}

func TestStructuredSend(t *testing.T) {
	backend := &fakeBackend{chatResp: okResponse()}
	c := NewController(backend)

	responses := []model.StructuredResponse{
		{QuestionID: "q1", Question: "What do you sell?", Response: "Bread"},
	}
	req, ok := c.BeginStructuredSend(responses)
	if !ok {
		t.Fatal("structured send should start")
	}
	if req.Message != model.StructuredResponsePlaceholder {
		t.Errorf("placeholder = %q", req.Message)
	}
	if len(req.StructuredResponses) != 1 {
		t.Errorf("responses = %d", len(req.StructuredResponses))
	}

	msgs := c.Messages()
	if msgs[0].Content != model.StructuredResponsePlaceholder {
		t.Errorf("transcript line = %q", msgs[0].Content)
	}
}

func TestSnapshotNeverClobbersTranscript(t *testing.T) {
	backend := &fakeBackend{chatResp: okResponse()}
	c := NewController(backend)

	if _, err := c.Send(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	before := c.Messages()

	// A snapshot with a conflicting transcript must only update metadata.
	c.ApplySnapshot(&model.SessionData{
		ID:            "sess-1",
		Mode:          model.ModeEntrepreneur,
		CurrentAgent:  model.AgentStrategy,
		CurrentModule: model.ModuleTargetMarket,
		Transcript: []model.Message{
			model.NewSystemMessage("server-side rewritten history"),
		},
	})

	after := c.Messages()
	if len(after) != len(before) {
		t.Fatalf("snapshot changed transcript length: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Fatalf("snapshot reordered transcript at %d", i)
		}
	}
	if c.CurrentAgent() != model.AgentStrategy {
		t.Error("snapshot metadata not adopted")
	}
	if c.CurrentModule() != model.ModuleTargetMarket {
		t.Error("snapshot module not adopted")
	}
}

func TestSnapshotAdoptsTranscriptWhenEmpty(t *testing.T) {
	c := NewController(&fakeBackend{})
	c.AdoptSession("sess-7")

	c.ApplySnapshot(&model.SessionData{
		ID:           "sess-7",
		Mode:         model.ModeConsultant,
		CurrentAgent: model.AgentIdea,
		Transcript: []model.Message{
			model.NewUserMessage("earlier question"),
			model.NewAssistantMessage("earlier answer", model.AgentIdea),
		},
	})

	if n := c.MessageCount(); n != 2 {
		t.Errorf("resumed transcript = %d messages, want 2", n)
	}
	if c.Mode() != model.ModeConsultant {
		t.Errorf("mode = %v", c.Mode())
	}
}

func TestRefreshFailureIsSilent(t *testing.T) {
	backend := &fakeBackend{chatResp: okResponse(), sessionErr: api.ErrServer}
	c := NewController(backend)

	// Send succeeds even though the follow-up refresh fails.
	if _, err := c.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send should not surface refresh failure: %v", err)
	}
	if n := c.MessageCount(); n != 2 {
		t.Errorf("transcript = %d, want 2", n)
	}
}

func TestResetClearsLocalStateRegardlessOfServer(t *testing.T) {
	backend := &fakeBackend{chatResp: okResponse(), clearErr: api.ErrServer}
	c := NewController(backend)

	if _, err := c.Send(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}

	err := c.Reset(context.Background())
	if err == nil {
		t.Error("server clear failure should be reported")
	}

	if c.MessageCount() != 0 || c.SessionID() != "" || c.IsLoading() {
		t.Error("local state must be cleared even when the server clear fails")
	}
	if c.Mode() != "" || c.CurrentModule() != "" {
		t.Error("mode and module must be cleared")
	}
	if backend.clearCalls != 1 {
		t.Errorf("clear calls = %d", backend.clearCalls)
	}
}

func TestResetWithoutSessionSkipsServer(t *testing.T) {
	backend := &fakeBackend{}
	c := NewController(backend)

	if err := c.Reset(context.Background()); err != nil {
		t.Errorf("reset without session: %v", err)
	}
	if backend.clearCalls != 0 {
		t.Error("no server call expected without a session id")
	}
}

func TestSelectModule(t *testing.T) {
	c := NewController(&fakeBackend{})

	// Without a snapshot only the first module is open.
	if err := c.SelectModule(model.ModuleIdeaConcept); err != nil {
		t.Errorf("first module: %v", err)
	}
	if err := c.SelectModule(model.ModuleTargetMarket); !errors.Is(err, ErrModuleLocked) {
		t.Errorf("locked module error = %v", err)
	}

	c.ApplySnapshot(&model.SessionData{
		ID:           "s",
		Mode:         model.ModeEntrepreneur,
		CurrentAgent: model.AgentIdea,
		Buckets: map[model.ModuleType]model.ContextBucket{
			model.ModuleIdeaConcept: {Module: model.ModuleIdeaConcept, Status: model.StatusInProgress},
			model.ModuleFinancialPlan: {
				Module:  model.ModuleFinancialPlan,
				Status:  model.StatusEmpty,
				Summary: "old notes",
			},
		},
	})

	if err := c.SelectModule(model.ModuleTargetMarket); err != nil {
		t.Errorf("unlocked module: %v", err)
	}
	if c.CurrentModule() != model.ModuleTargetMarket {
		t.Errorf("module pointer = %v", c.CurrentModule())
	}

	// Data bypass: a later module with existing notes is reachable.
	if err := c.SelectModule(model.ModuleFinancialPlan); err != nil {
		t.Errorf("module with data: %v", err)
	}

	// Selecting a module sends nothing.
	if c.MessageCount() != 0 {
		t.Error("module selection must not append messages")
	}
}

func TestAdvanceModule(t *testing.T) {
	c := NewController(&fakeBackend{})
	c.ApplySnapshot(&model.SessionData{
		ID:            "s",
		Mode:          model.ModeEntrepreneur,
		CurrentAgent:  model.AgentIdea,
		CurrentModule: model.ModuleIdeaConcept,
		Buckets: map[model.ModuleType]model.ContextBucket{
			model.ModuleIdeaConcept: {Module: model.ModuleIdeaConcept, Status: model.StatusCompleted},
		},
	})

	next, transition, done, err := c.AdvanceModule()
	if err != nil || done {
		t.Fatalf("advance: next=%v done=%v err=%v", next, done, err)
	}
	if next != model.ModuleTargetMarket {
		t.Errorf("next = %v", next)
	}
	if transition == "" {
		t.Error("expected transition message")
	}

	// Walk to the end; advancing past the last module reports done.
	for i := 0; i < 10; i++ {
		snap := c.Session()
		snap.Buckets[c.CurrentModule()] = model.ContextBucket{
			Module: c.CurrentModule(), Status: model.StatusCompleted,
		}
		_, _, done, err = c.AdvanceModule()
		if err != nil {
			t.Fatalf("advance step %d: %v", i, err)
		}
		if done {
			break
		}
	}
	if !done {
		t.Error("walking the progression should end with done")
	}
}

func TestAdvanceModuleBeforeConversation(t *testing.T) {
	c := NewController(&fakeBackend{})

	// With no snapshot yet the plan sits on the first module, and the
	// second module is still locked.
	_, _, done, err := c.AdvanceModule()
	if done {
		t.Error("advance before any conversation reported done")
	}
	if !errors.Is(err, ErrModuleLocked) {
		t.Errorf("advance before any conversation: err = %v, want ErrModuleLocked", err)
	}
}

func TestModelSelection(t *testing.T) {
	backend := &fakeBackend{chatResp: okResponse()}
	c := NewController(backend)

	if c.ActiveModel() != model.DefaultModel {
		t.Errorf("initial active model = %v", c.ActiveModel())
	}

	c.SelectModel(model.ModelGPT4o)
	if c.ActiveModel() != model.ModelGPT4o {
		t.Errorf("pending model = %v", c.ActiveModel())
	}

	req, _ := c.BeginSend("hi")
	if req.Model != model.ModelGPT4o {
		t.Errorf("request model = %v", req.Model)
	}

	// The server's echo wins once the response lands.
	resp := okResponse()
	resp.CurrentModel = model.ModelGPT4Turbo
	c.ApplyResponse(resp)
	c.SelectModel("")
	if c.ActiveModel() != model.ModelGPT4Turbo {
		t.Errorf("active model after echo = %v", c.ActiveModel())
	}
}
