// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/jeranaias/venture-tui/internal/model"
)

// =============================================================================
// CHAT REQUEST / RESPONSE
// =============================================================================

// ChatRequest carries one user turn to the backend.
type ChatRequest struct {
	Message             string
	SessionID           string
	Mode                model.Mode
	Model               model.ModelID
	StructuredResponses []model.StructuredResponse
}

// ChatResponse is the backend's reply to a chat turn, with all
// enumerated fields already parsed into closed types.
type ChatResponse struct {
	SessionID           string
	Message             string
	Agent               model.AgentType
	CurrentModule       model.ModuleType // empty when the backend did not report one
	CurrentModel        model.ModelID    // empty when the backend did not report one
	Questions           []model.StructuredQuestion
	IsModuleTransition  bool
	UpdatedModules      []model.ContextBucket
	SuggestedNextModule model.ModuleType
}

// wire shapes, camelCase to match the backend.

type chatRequestWire struct {
	Message             string                     `json:"message"`
	SessionID           string                     `json:"sessionId,omitempty"`
	Mode                string                     `json:"mode,omitempty"`
	Model               string                     `json:"model,omitempty"`
	StructuredResponses []model.StructuredResponse `json:"structuredResponses,omitempty"`
}

type moduleUpdateWire struct {
	ModuleType       string         `json:"moduleType"`
	Data             map[string]any `json:"data"`
	Summary          string         `json:"summary"`
	CompletionStatus string         `json:"completionStatus"`
}

type chatResponseWire struct {
	SessionID           string                     `json:"sessionId"`
	Message             string                     `json:"message"`
	Agent               string                     `json:"agent"`
	CurrentModule       string                     `json:"currentModule,omitempty"`
	CurrentModel        string                     `json:"currentModel,omitempty"`
	StructuredQuestions []structuredQuestionWire   `json:"structuredQuestions,omitempty"`
	IsModuleTransition  bool                       `json:"isModuleTransition,omitempty"`
	UpdatedModules      []moduleUpdateWire         `json:"updatedModules,omitempty"`
	SuggestedNextModule string                     `json:"suggestedNextModule,omitempty"`
}

type structuredQuestionWire struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Type        string   `json:"type"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
	Required    bool     `json:"required,omitempty"`
}

// =============================================================================
// SEND CHAT
// =============================================================================

// SendChat sends one chat turn and returns the parsed response.
func (c *Client) SendChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	wire := chatRequestWire{
		Message:             req.Message,
		SessionID:           req.SessionID,
		Mode:                req.Mode.String(),
		Model:               req.Model.String(),
		StructuredResponses: req.StructuredResponses,
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
	}

	resp, err := c.do(ctx, http.MethodPost, "/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var wireResp chatResponseWire
	if err := decode(resp, &wireResp); err != nil {
		return nil, err
	}
	return parseChatResponse(wireResp)
}

// parseChatResponse converts the wire response into domain types,
// rejecting enum values this client does not know.
func parseChatResponse(wire chatResponseWire) (*ChatResponse, error) {
	agent, err := model.ParseAgent(wire.Agent)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
	}

	out := &ChatResponse{
		SessionID:          wire.SessionID,
		Message:            wire.Message,
		Agent:              agent,
		IsModuleTransition: wire.IsModuleTransition,
	}

	if wire.CurrentModule != "" {
		mod, err := model.ParseModuleType(wire.CurrentModule)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
		}
		out.CurrentModule = mod
	}

	if wire.CurrentModel != "" {
		id, err := model.ParseModelID(wire.CurrentModel)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
		}
		out.CurrentModel = id
	}

	if wire.SuggestedNextModule != "" {
		mod, err := model.ParseModuleType(wire.SuggestedNextModule)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
		}
		out.SuggestedNextModule = mod
	}

	for _, q := range wire.StructuredQuestions {
		out.Questions = append(out.Questions, parseQuestion(q))
	}

	for _, u := range wire.UpdatedModules {
		mod, err := model.ParseModuleType(u.ModuleType)
		if err != nil {
			// An update for a module this client does not know is
			// dropped rather than failing the whole turn.
			continue
		}
		out.UpdatedModules = append(out.UpdatedModules, model.ContextBucket{
			Module:  mod,
			Data:    u.Data,
			Summary: u.Summary,
			Status:  model.ParseCompletionStatus(u.CompletionStatus),
		})
	}

	return out, nil
}

// parseQuestion maps a wire question onto the domain type. Unknown
// input kinds degrade to plain text so the user can always answer.
func parseQuestion(q structuredQuestionWire) model.StructuredQuestion {
	kind := model.QuestionKind(q.Type)
	switch kind {
	case model.QuestionTextarea, model.QuestionButtons, model.QuestionText:
	default:
		kind = model.QuestionText
	}
	return model.StructuredQuestion{
		ID:          q.ID,
		Question:    q.Question,
		Kind:        kind,
		Placeholder: q.Placeholder,
		Options:     q.Options,
		Required:    q.Required,
	}
}
