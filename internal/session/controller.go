// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat state controller for venture.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jeranaias/venture-tui/internal/api"
	"github.com/jeranaias/venture-tui/internal/model"
)

// ErrModuleLocked is returned when the user tries to enter a module
// they have not unlocked yet. Its text is shown verbatim in a toast.
var ErrModuleLocked = errors.New("Module not yet available")

// ErrBusy is returned when a send is attempted while one is in flight.
var ErrBusy = errors.New("a message is already being sent")

// Backend is the slice of the API client the controller needs.
type Backend interface {
	SendChat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
	GetSession(ctx context.Context, sessionID string) (*model.SessionData, error)
	ClearSession(ctx context.Context, sessionID string) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the client-side conversation state: the transcript,
// the loading flag, and the session metadata mirrored from the server.
//
// The transcript is append-only. User turns are appended optimistically
// before the network round trip; a failed send keeps the optimistic
// turn so the user can see what they said and try again. Background
// session refreshes only ever touch metadata, never the transcript,
// except when the local transcript is empty (resuming a session).
//
// All methods are safe for concurrent use. The bubbletea layer calls
// the granular Begin/Apply methods from its update loop; the plain REPL
// uses the synchronous Send.
type Controller struct {
	backend Backend

	mu        sync.Mutex
	messages  []model.Message
	loading   bool
	sessionID string
	mode      model.Mode
	agent     model.AgentType
	module    model.ModuleType
	selected  model.ModelID // user's pending model choice
	current   model.ModelID // model the server last reported
	snapshot  *model.SessionData
}

// NewController creates a controller backed by the given client.
func NewController(backend Backend) *Controller {
	return &Controller{backend: backend}
}

// =============================================================================
// SNAPSHOT ACCESSORS
// =============================================================================

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// MessageCount returns the transcript length.
func (c *Controller) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// IsLoading reports whether a send is in flight.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// SessionID returns the server-assigned session id, if any.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Mode returns the selected planning mode.
func (c *Controller) Mode() model.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode selects the planning mode for subsequent requests.
func (c *Controller) SetMode(m model.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

// CurrentAgent returns the agent that produced the last response.
func (c *Controller) CurrentAgent() model.AgentType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agent
}

// CurrentModule returns the module the conversation is working on.
func (c *Controller) CurrentModule() model.ModuleType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.module
}

// SelectedModel returns the user's pending model choice.
func (c *Controller) SelectedModel() model.ModelID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SelectModel records the model to use for the next request. The
// change takes effect when the server echoes it back.
func (c *Controller) SelectModel(id model.ModelID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = id
}

// ActiveModel returns the model shown in the header: the pending
// choice if any, else the server-reported model, else the default.
func (c *Controller) ActiveModel() model.ModelID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected != "" {
		return c.selected
	}
	if c.current != "" {
		return c.current
	}
	return model.DefaultModel
}

// Session returns the last session snapshot, or nil before the first
// refresh.
func (c *Controller) Session() *model.SessionData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// =============================================================================
// SEND FLOW
// =============================================================================

// BeginSend appends the optimistic user turn and marks the controller
// loading. It returns the request to put on the wire. ok is false when
// the text is blank or a send is already in flight; nothing changes in
// that case.
func (c *Controller) BeginSend(text string) (api.ChatRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading || text == "" {
		return api.ChatRequest{}, false
	}

	c.messages = append(c.messages, model.NewUserMessage(text))
	c.loading = true

	return api.ChatRequest{
		Message:   text,
		SessionID: c.sessionID,
		Mode:      c.mode,
		Model:     c.selected,
	}, true
}

// BeginStructuredSend is BeginSend for structured answers. The
// transcript records a placeholder line; the answers travel in the
// request payload.
func (c *Controller) BeginStructuredSend(responses []model.StructuredResponse) (api.ChatRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading || len(responses) == 0 {
		return api.ChatRequest{}, false
	}

	c.messages = append(c.messages, model.NewStructuredUserMessage(responses))
	c.loading = true

	return api.ChatRequest{
		Message:             model.StructuredResponsePlaceholder,
		SessionID:           c.sessionID,
		Mode:                c.mode,
		Model:               c.selected,
		StructuredResponses: responses,
	}, true
}

// ApplyResponse appends the assistant turn and adopts the session
// metadata from the response. refresh reports whether a background
// session refresh should follow.
func (c *Controller) ApplyResponse(resp *api.ChatResponse) (msg model.Message, refresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg = model.NewAssistantMessage(resp.Message, resp.Agent)
	msg.Module = resp.CurrentModule
	msg.Questions = resp.Questions

	c.messages = append(c.messages, msg)
	c.loading = false
	c.sessionID = resp.SessionID
	c.agent = resp.Agent
	if resp.CurrentModule != "" {
		c.module = resp.CurrentModule
	}
	if resp.CurrentModel != "" {
		c.current = resp.CurrentModel
	} else if c.selected != "" {
		c.current = c.selected
	}

	return msg, resp.SessionID != ""
}

// ApplyFailure clears the loading flag, keeping the optimistic user
// turn, and returns the message to toast.
func (c *Controller) ApplyFailure(err error) string {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	return api.UserMessage(err)
}

// Send runs the whole optimistic flow synchronously: append the user
// turn, call the backend, apply the result. Used by the plain REPL.
func (c *Controller) Send(ctx context.Context, text string) (*api.ChatResponse, error) {
	req, ok := c.BeginSend(text)
	if !ok {
		if c.IsLoading() {
			return nil, ErrBusy
		}
		return nil, errors.New("empty message")
	}

	resp, err := c.backend.SendChat(ctx, req)
	if err != nil {
		c.ApplyFailure(err)
		return nil, err
	}

	if _, refresh := c.ApplyResponse(resp); refresh {
		// Best effort; a failed refresh only means stale sidebar data.
		if data, err := c.backend.GetSession(ctx, resp.SessionID); err == nil {
			c.ApplySnapshot(data)
		}
	}
	return resp, nil
}

// =============================================================================
// SNAPSHOT MERGE
// =============================================================================

// ApplySnapshot merges a server session snapshot. Metadata (buckets,
// mode, agent, module, model) is always adopted; the transcript is
// only adopted when the local transcript is empty, which happens when
// resuming a saved session. A snapshot can never reorder or drop
// locally held messages.
func (c *Controller) ApplySnapshot(data *model.SessionData) {
	if data == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = data
	c.sessionID = data.ID
	c.mode = data.Mode
	c.agent = data.CurrentAgent
	if data.CurrentModule != "" {
		c.module = data.CurrentModule
	}
	if data.CurrentModel != "" {
		c.current = data.CurrentModel
	}

	if len(c.messages) == 0 && len(data.Transcript) > 0 {
		c.messages = append(c.messages, data.Transcript...)
	}
}

// Refresh fetches and merges the current session snapshot.
func (c *Controller) Refresh(ctx context.Context) error {
	id := c.SessionID()
	if id == "" {
		return nil
	}
	data, err := c.backend.GetSession(ctx, id)
	if err != nil {
		return err
	}
	c.ApplySnapshot(data)
	return nil
}

// =============================================================================
// MODULE NAVIGATION
// =============================================================================

// SelectModule moves the conversation pointer to the given module.
// No message is sent; the next turn carries the new module context.
// Returns ErrModuleLocked when progression does not allow it yet.
func (c *Controller) SelectModule(m model.ModuleType) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	started := model.ModuleSet{}
	var hasData func(model.ModuleType) bool
	if c.snapshot != nil {
		started = c.snapshot.Started()
		hasData = c.snapshot.BucketHasData
	}

	if !model.Accessible(m, started, hasData) {
		return ErrModuleLocked
	}
	c.module = m
	return nil
}

// AdvanceModule moves to the next module in the progression. When the
// plan is already on the last module, done is true and the caller
// should celebrate with model.PlanCompleteMessage. transition carries
// the message to show for the move.
func (c *Controller) AdvanceModule() (next model.ModuleType, transition string, done bool, err error) {
	c.mu.Lock()
	cur := c.module
	c.mu.Unlock()

	// Before any conversation the plan sits on the first module, so the
	// accessibility check below tells the user it is too early to skip.
	if cur == "" {
		cur = model.ModuleOrder[0]
	}

	next, ok := cur.Next()
	if !ok {
		return "", "", true, nil
	}

	if err := c.SelectModule(next); err != nil {
		return "", "", false, err
	}
	return next, model.TransitionMessage(cur, next), false, nil
}

// =============================================================================
// RESET
// =============================================================================

// Reset clears all local state and asks the server to clear the
// session. Local state is cleared regardless of the server outcome;
// the user always gets a fresh start. The returned error reports the
// server-side result for optional surfacing.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	id := c.sessionID
	c.clearLocked()
	c.mu.Unlock()

	if id == "" {
		return nil
	}
	return c.backend.ClearSession(ctx, id)
}

// ClearLocal drops all local state without touching the server.
func (c *Controller) ClearLocal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	c.messages = nil
	c.loading = false
	c.sessionID = ""
	c.mode = ""
	c.agent = ""
	c.module = ""
	c.selected = ""
	c.current = ""
	c.snapshot = nil
}

// AddSystemMessage appends a locally generated system line, such as a
// module transition note.
func (c *Controller) AddSystemMessage(text string) model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := model.NewSystemMessage(text)
	c.messages = append(c.messages, msg)
	return msg
}

// AdoptSession points the controller at a previously saved session so
// the next Refresh resumes it.
func (c *Controller) AdoptSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
}
