// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// StructuredResponsePlaceholder is the transcript line recorded for a
// user turn that answered structured questions instead of typing text.
// The backend requires a non-empty message field.
const StructuredResponsePlaceholder = "User has submitted structured responses."

// Message represents a single message in the conversation transcript.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Attribution (assistant messages)
	Agent  AgentType  `json:"agent,omitempty"`
	Module ModuleType `json:"module,omitempty"`

	// Structured interaction
	Questions []StructuredQuestion `json:"questions,omitempty"`
	Responses []StructuredResponse `json:"responses,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewStructuredUserMessage creates the user turn for a structured
// answer submission.
func NewStructuredUserMessage(responses []StructuredResponse) Message {
	msg := NewMessage(RoleUser, StructuredResponsePlaceholder)
	msg.Responses = responses
	return msg
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string, agent AgentType) Message {
	msg := NewMessage(RoleAssistant, content)
	msg.Agent = agent
	return msg
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// IsEmpty returns true if the message carries no text or responses.
func (m Message) IsEmpty() bool {
	return m.Content == "" && len(m.Responses) == 0
}

// Preview returns a truncated preview of the message content.
// Rune-based so multi-byte characters are never split.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
