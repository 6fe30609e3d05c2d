// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeranaias/venture-tui/internal/model"
)

// newTestClient points a client at a test server with short timeouts
// and no rate limiting delays.
func newTestClient(srv *httptest.Server) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:           srv.URL,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		HTTPClient:        srv.Client(),
	})
}

func TestSendChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req["message"] != "I want to open a bakery" {
			t.Errorf("message = %v", req["message"])
		}
		if req["mode"] != "entrepreneur" {
			t.Errorf("mode = %v", req["mode"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"sessionId":     "sess-1",
			"message":       "Tell me more about your bakery.",
			"agent":         "idea",
			"currentModule": "idea_concept",
			"currentModel":  "gpt-4o-mini",
			"structuredQuestions": []map[string]any{
				{"id": "q1", "question": "What kind of baked goods?", "type": "textarea", "required": true},
				{"id": "q2", "question": "Pick a style", "type": "buttons", "options": []string{"Artisan", "Classic"}},
				{"id": "q3", "question": "Anything else?", "type": "mystery_widget"},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	resp, err := client.SendChat(context.Background(), ChatRequest{
		Message: "I want to open a bakery",
		Mode:    model.ModeEntrepreneur,
	})
	if err != nil {
		t.Fatalf("SendChat error: %v", err)
	}

	if resp.SessionID != "sess-1" {
		t.Errorf("SessionID = %q", resp.SessionID)
	}
	if resp.Agent != model.AgentIdea {
		t.Errorf("Agent = %v", resp.Agent)
	}
	if resp.CurrentModule != model.ModuleIdeaConcept {
		t.Errorf("CurrentModule = %v", resp.CurrentModule)
	}
	if resp.CurrentModel != model.ModelGPT4oMini {
		t.Errorf("CurrentModel = %v", resp.CurrentModel)
	}
	if len(resp.Questions) != 3 {
		t.Fatalf("Questions = %d, want 3", len(resp.Questions))
	}
	if resp.Questions[0].Kind != model.QuestionTextarea {
		t.Errorf("question 1 kind = %v", resp.Questions[0].Kind)
	}
	// Unknown input kinds degrade to plain text.
	if resp.Questions[2].Kind != model.QuestionText {
		t.Errorf("question 3 kind = %v", resp.Questions[2].Kind)
	}
}

func TestSendChatRejectsUnknownAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sessionId": "sess-1",
			"message":   "hi",
			"agent":     "astrologer",
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SendChat(context.Background(), ChatRequest{Message: "hi"})
	if err == nil {
		t.Fatal("expected error for unknown agent")
	}
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		msg    string
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			check:  func(err error) bool { return err == ErrNotFound },
			msg:    "API endpoint not found. Please check the server configuration.",
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			check:  func(err error) bool { return err == ErrServer },
			msg:    "Server error occurred. Please try again.",
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			check:  IsRateLimited,
			msg:    "Service is currently rate limited. Please wait a moment and try again.",
		},
		{
			name:   "invalid model",
			status: http.StatusBadRequest,
			body:   `{"message":"Invalid model: gpt-9"}`,
			check:  IsInvalidModel,
			msg:    "Invalid model selected. Please choose a different model.",
		},
		{
			name:   "detail passthrough",
			status: http.StatusBadRequest,
			body:   `{"message":"Session has expired"}`,
			check:  func(err error) bool { return !IsInvalidModel(err) },
			msg:    "Session has expired",
		},
		{
			name:   "no detail",
			status: http.StatusBadRequest,
			check:  func(err error) bool { return err != nil },
			msg:    genericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			defer srv.Close()

			_, err := newTestClient(srv).SendChat(context.Background(), ChatRequest{Message: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("error %v failed type check", err)
			}
			if got := UserMessage(err); got != tt.msg {
				t.Errorf("UserMessage = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestSendChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.SendChat(ctx, ChatRequest{Message: "x"})
	if !IsTimeout(err) {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestSendChatUnreachable(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{
		BaseURL:           "http://127.0.0.1:1",
		Timeout:           time.Second,
		RequestsPerSecond: 1000,
	})
	_, err := client.SendChat(context.Background(), ChatRequest{Message: "x"})
	if !IsUnreachable(err) {
		t.Errorf("expected unreachable error, got %v", err)
	}
}

func TestGetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/sess-9" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sessionId":     "sess-9",
			"mode":          "consultant",
			"currentAgent":  "strategy",
			"currentModule": "target_market",
			"modules": []map[string]any{
				{"moduleType": "idea_concept", "completionStatus": "completed", "summary": "A bakery"},
				{"moduleType": "target_market", "completionStatus": "in_progress", "data": map[string]any{"segment": "locals"}},
				{"moduleType": "moon_base", "completionStatus": "completed"},
			},
			"conversationHistory": []map[string]any{
				{"id": "m1", "role": "user", "content": "hello"},
				{"id": "m2", "role": "assistant", "content": "hi", "agent": "idea"},
				{"id": "m3", "role": "narrator", "content": "dropped"},
			},
		})
	}))
	defer srv.Close()

	data, err := newTestClient(srv).GetSession(context.Background(), "sess-9")
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}

	if data.Mode != model.ModeConsultant || data.CurrentAgent != model.AgentStrategy {
		t.Errorf("mode/agent = %v/%v", data.Mode, data.CurrentAgent)
	}
	if data.CurrentModule != model.ModuleTargetMarket {
		t.Errorf("module = %v", data.CurrentModule)
	}
	// The unknown moon_base bucket is dropped.
	if len(data.Buckets) != 2 {
		t.Errorf("buckets = %d, want 2", len(data.Buckets))
	}
	if !data.Completed()[model.ModuleIdeaConcept] {
		t.Error("idea_concept should be completed")
	}
	if !data.BucketHasData(model.ModuleTargetMarket) {
		t.Error("target_market should have data")
	}
	// The unknown-role message is dropped.
	if len(data.Transcript) != 2 {
		t.Errorf("transcript = %d, want 2", len(data.Transcript))
	}
	if data.Transcript[1].Agent != model.AgentIdea {
		t.Errorf("assistant agent = %v", data.Transcript[1].Agent)
	}
}

func TestClearSession(t *testing.T) {
	var cleared bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/sess-9/clear" && r.Method == http.MethodPost {
			cleared = true
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := newTestClient(srv).ClearSession(context.Background(), "sess-9"); err != nil {
		t.Fatalf("ClearSession error: %v", err)
	}
	if !cleared {
		t.Error("clear endpoint was not hit")
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []string{"gpt-4o", "gpt-4o-mini", "gpt-9-experimental"},
			"modelDescriptions": map[string]string{
				"gpt-4o": "Most capable model",
			},
			"defaultModel": "gpt-4o-mini",
			"currentModel": "gpt-4o",
		})
	}))
	defer srv.Close()

	models, err := newTestClient(srv).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}

	// The unknown experimental model is dropped.
	if len(models) != 2 {
		t.Fatalf("models = %d, want 2", len(models))
	}
	if models[0].ID != model.ModelGPT4o || !models[0].Current {
		t.Errorf("first model = %+v", models[0])
	}
	if models[0].Description != "Most capable model" {
		t.Errorf("description = %q", models[0].Description)
	}
	if !models[1].Default {
		t.Error("gpt-4o-mini should be marked default")
	}
	if models[1].Description != "AI model" {
		t.Errorf("fallback description = %q", models[1].Description)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	if err := newTestClient(srv).Health(context.Background()); err != nil {
		t.Errorf("Health error: %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://example.com/api/"})
	cfg := client.GetConfig()

	if cfg.BaseURL != "http://example.com/api" {
		t.Errorf("trailing slash not trimmed: %q", cfg.BaseURL)
	}
	if cfg.Timeout != 300*time.Second {
		t.Errorf("timeout default = %v", cfg.Timeout)
	}

	nilClient := NewClientWithConfig(nil)
	if nilClient.GetConfig().BaseURL == "" {
		t.Error("nil config should get defaults")
	}
}

func TestSetBaseURL(t *testing.T) {
	client := NewClient()

	client.SetBaseURL("http://localhost:9000/api/")
	if got := client.BaseURL(); got != "http://localhost:9000/api" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", got)
	}

	// Empty input keeps the current URL.
	client.SetBaseURL("")
	if got := client.BaseURL(); got != "http://localhost:9000/api" {
		t.Errorf("BaseURL = %q, want unchanged on empty input", got)
	}
}
