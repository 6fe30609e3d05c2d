// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// =============================================================================
// AGENT TYPE
// =============================================================================

// AgentType identifies which specialist agent produced an assistant
// message. The backend routes the conversation between agents as the
// plan progresses; the client only labels messages with the source.
type AgentType string

const (
	AgentIdea       AgentType = "idea"
	AgentStrategy   AgentType = "strategy"
	AgentFinance    AgentType = "finance"
	AgentOperations AgentType = "operations"
)

// ParseAgent converts a wire value into an AgentType.
func ParseAgent(s string) (AgentType, error) {
	switch AgentType(s) {
	case AgentIdea, AgentStrategy, AgentFinance, AgentOperations:
		return AgentType(s), nil
	}
	return "", fmt.Errorf("unknown agent %q", s)
}

// String returns the wire representation of the agent.
func (a AgentType) String() string {
	return string(a)
}

// DisplayName returns a human-readable name for the agent badge.
func (a AgentType) DisplayName() string {
	switch a {
	case AgentIdea:
		return "Idea Agent"
	case AgentStrategy:
		return "Strategy Agent"
	case AgentFinance:
		return "Finance Agent"
	case AgentOperations:
		return "Operations Agent"
	default:
		return string(a)
	}
}
