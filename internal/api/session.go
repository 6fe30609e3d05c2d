// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/jeranaias/venture-tui/internal/model"
)

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

type sessionModuleWire struct {
	ModuleType       string         `json:"moduleType"`
	Data             map[string]any `json:"data"`
	Summary          string         `json:"summary,omitempty"`
	CompletionStatus string         `json:"completionStatus"`
	LastUpdated      time.Time      `json:"lastUpdated"`
}

type conversationMessageWire struct {
	ID        string                   `json:"id"`
	Role      string                   `json:"role"`
	Content   string                   `json:"content"`
	Agent     string                   `json:"agent,omitempty"`
	Module    string                   `json:"module,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
	Questions []structuredQuestionWire `json:"questions,omitempty"`
}

type sessionDataWire struct {
	SessionID           string                    `json:"sessionId"`
	Mode                string                    `json:"mode"`
	CurrentAgent        string                    `json:"currentAgent"`
	CurrentModule       string                    `json:"currentModule,omitempty"`
	CurrentModel        string                    `json:"currentModel,omitempty"`
	Modules             []sessionModuleWire       `json:"modules"`
	ConversationHistory []conversationMessageWire `json:"conversationHistory"`
}

// GetSession fetches the server's snapshot of a planning session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*model.SessionData, error) {
	resp, err := c.do(ctx, http.MethodGet, "/session/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var wire sessionDataWire
	if err := decode(resp, &wire); err != nil {
		return nil, err
	}
	return parseSessionData(wire)
}

// ClearSession asks the backend to discard a session's state.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	resp, err := c.do(ctx, http.MethodPost, "/session/"+url.PathEscape(sessionID)+"/clear", nil)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// parseSessionData converts the wire snapshot into domain types.
func parseSessionData(wire sessionDataWire) (*model.SessionData, error) {
	mode, err := model.ParseMode(wire.Mode)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
	}
	agent, err := model.ParseAgent(wire.CurrentAgent)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
	}

	data := &model.SessionData{
		ID:           wire.SessionID,
		Mode:         mode,
		CurrentAgent: agent,
		Buckets:      make(map[model.ModuleType]model.ContextBucket, len(wire.Modules)),
	}

	if wire.CurrentModule != "" {
		mod, err := model.ParseModuleType(wire.CurrentModule)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
		}
		data.CurrentModule = mod
	}

	if wire.CurrentModel != "" {
		id, err := model.ParseModelID(wire.CurrentModel)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
		}
		data.CurrentModel = id
	}

	for _, m := range wire.Modules {
		mod, err := model.ParseModuleType(m.ModuleType)
		if err != nil {
			// Skip buckets for modules this client does not know.
			continue
		}
		data.Buckets[mod] = model.ContextBucket{
			Module:      mod,
			Data:        m.Data,
			Summary:     m.Summary,
			LastUpdated: m.LastUpdated,
			Status:      model.ParseCompletionStatus(m.CompletionStatus),
		}
	}

	for _, m := range wire.ConversationHistory {
		msg, ok := parseHistoryMessage(m)
		if !ok {
			continue
		}
		data.Transcript = append(data.Transcript, msg)
	}

	return data, nil
}

// parseHistoryMessage maps one transcript entry. Entries with roles or
// attributions this client does not know are dropped, not fatal; a
// resumed session should still render everything it can.
func parseHistoryMessage(wire conversationMessageWire) (model.Message, bool) {
	role := model.Role(wire.Role)
	switch role {
	case model.RoleUser, model.RoleAssistant, model.RoleSystem:
	default:
		return model.Message{}, false
	}

	msg := model.Message{
		ID:        wire.ID,
		Role:      role,
		Content:   wire.Content,
		Timestamp: wire.Timestamp,
	}

	if wire.Agent != "" {
		if agent, err := model.ParseAgent(wire.Agent); err == nil {
			msg.Agent = agent
		}
	}
	if wire.Module != "" {
		if mod, err := model.ParseModuleType(wire.Module); err == nil {
			msg.Module = mod
		}
	}
	for _, q := range wire.Questions {
		msg.Questions = append(msg.Questions, parseQuestion(q))
	}

	return msg, true
}
