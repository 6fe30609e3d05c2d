// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"entrepreneur", ModeEntrepreneur, false},
		{"consultant", ModeConsultant, false},
		{"investor", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestModeFeatures(t *testing.T) {
	for _, m := range Modes {
		if len(m.Features()) != 3 {
			t.Errorf("mode %v should have 3 features, got %d", m, len(m.Features()))
		}
		if m.Tagline() == "" {
			t.Errorf("mode %v has no tagline", m)
		}
	}
}

func TestParseAgent(t *testing.T) {
	for _, a := range []AgentType{AgentIdea, AgentStrategy, AgentFinance, AgentOperations} {
		got, err := ParseAgent(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAgent(%q) = %v, %v", a, got, err)
		}
	}
	if _, err := ParseAgent("marketing"); err == nil {
		t.Error("expected error for unknown agent")
	}
}

func TestParseModelID(t *testing.T) {
	got, err := ParseModelID("gpt-4o-mini")
	if err != nil || got != ModelGPT4oMini {
		t.Fatalf("ParseModelID(gpt-4o-mini) = %v, %v", got, err)
	}
	if !got.IsDefault() {
		t.Error("gpt-4o-mini should be the default model")
	}
	if _, err := ParseModelID("gpt-5"); err == nil {
		t.Error("expected error for unknown model")
	}
	if ModelGPT4Turbo.DisplayName() != "GPT-4 Turbo" {
		t.Errorf("display name = %q", ModelGPT4Turbo.DisplayName())
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("hello")
	if msg.Role != RoleUser {
		t.Errorf("role = %v", msg.Role)
	}
	if msg.Content != "hello" {
		t.Errorf("content = %q", msg.Content)
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("id %q should have msg_ prefix", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	other := NewUserMessage("hello")
	if other.ID == msg.ID {
		t.Error("message IDs should be unique")
	}
}

func TestStructuredUserMessage(t *testing.T) {
	responses := []StructuredResponse{
		{QuestionID: "q1", Question: "What problem do you solve?", Response: "Parking"},
	}
	msg := NewStructuredUserMessage(responses)
	if msg.Content != StructuredResponsePlaceholder {
		t.Errorf("content = %q", msg.Content)
	}
	if len(msg.Responses) != 1 {
		t.Errorf("responses = %d", len(msg.Responses))
	}
	if msg.IsEmpty() {
		t.Error("structured message should not be empty")
	}
}

func TestMessagePreview(t *testing.T) {
	msg := NewAssistantMessage("a longer answer about your market", AgentStrategy)
	if got := msg.Preview(10); got != "a longe..." {
		t.Errorf("preview = %q", got)
	}
	if got := msg.Preview(100); got != msg.Content {
		t.Errorf("short content should not be truncated: %q", got)
	}

	// Multi-byte content must not be split mid-rune.
	uni := NewUserMessage("日本語のテキストです")
	if got := uni.Preview(5); got != "日本..." {
		t.Errorf("unicode preview = %q", got)
	}
}

func TestBuildResponses(t *testing.T) {
	questions := []StructuredQuestion{
		{ID: "q1", Question: "Who is the customer?", Kind: QuestionTextarea, Required: true},
		{ID: "q2", Question: "Pick a channel", Kind: QuestionButtons, Options: []string{"Online", "Retail"}},
	}

	answers := map[string]string{"q1": "Small restaurants"}
	if Answered(questions, answers) != true {
		t.Error("optional question should not block submission")
	}
	if Answered(questions, map[string]string{}) {
		t.Error("missing required answer should block submission")
	}

	responses := BuildResponses(questions, answers)
	if len(responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(responses))
	}
	if responses[0].Response != "Small restaurants" || responses[1].Response != "" {
		t.Errorf("responses = %+v", responses)
	}
	if responses[0].Question != "Who is the customer?" {
		t.Errorf("question text not carried: %+v", responses[0])
	}
}

func TestSessionDataSets(t *testing.T) {
	data := &SessionData{
		Buckets: map[ModuleType]ContextBucket{
			ModuleIdeaConcept:  {Module: ModuleIdeaConcept, Status: StatusCompleted, Summary: "An app"},
			ModuleTargetMarket: {Module: ModuleTargetMarket, Status: StatusInProgress},
			ModuleBusinessModel: {
				Module: ModuleBusinessModel,
				Status: StatusEmpty,
				Data:   map[string]any{"revenue": "subscriptions"},
			},
		},
	}

	completed := data.Completed()
	if len(completed) != 1 || !completed[ModuleIdeaConcept] {
		t.Errorf("completed = %v", completed)
	}

	started := data.Started()
	if len(started) != 2 || !started[ModuleTargetMarket] {
		t.Errorf("started = %v", started)
	}

	if !data.BucketHasData(ModuleBusinessModel) {
		t.Error("bucket with data keys should report data")
	}
	if data.BucketHasData(ModuleFinancialPlan) {
		t.Error("absent bucket should report no data")
	}
}

func TestParseCompletionStatus(t *testing.T) {
	if ParseCompletionStatus("completed") != StatusCompleted {
		t.Error("completed should round-trip")
	}
	if ParseCompletionStatus("in_progress") != StatusInProgress {
		t.Error("in_progress should round-trip")
	}
	if ParseCompletionStatus("garbage") != StatusEmpty {
		t.Error("unknown status should degrade to empty")
	}
}
