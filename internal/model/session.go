// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// COMPLETION STATUS
// =============================================================================

// CompletionStatus tracks how far a module has progressed.
type CompletionStatus string

const (
	StatusEmpty      CompletionStatus = "empty"
	StatusInProgress CompletionStatus = "in_progress"
	StatusCompleted  CompletionStatus = "completed"
)

// ParseCompletionStatus converts a wire value into a CompletionStatus.
// Unknown values degrade to empty rather than failing; a module the
// client cannot classify is treated as not started.
func ParseCompletionStatus(s string) CompletionStatus {
	switch CompletionStatus(s) {
	case StatusInProgress, StatusCompleted:
		return CompletionStatus(s)
	}
	return StatusEmpty
}

// =============================================================================
// CONTEXT BUCKET
// =============================================================================

// ContextBucket holds the data the backend has gathered for one module.
type ContextBucket struct {
	Module      ModuleType       `json:"moduleType"`
	Data        map[string]any   `json:"data,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	LastUpdated time.Time        `json:"lastUpdated"`
	Status      CompletionStatus `json:"completionStatus"`
}

// HasData reports whether the bucket already holds planning material.
func (b ContextBucket) HasData() bool {
	return b.Summary != "" || len(b.Data) > 0
}

// =============================================================================
// SESSION DATA
// =============================================================================

// SessionData is the server's snapshot of one planning session.
type SessionData struct {
	ID            string
	Mode          Mode
	CurrentAgent  AgentType
	CurrentModule ModuleType
	CurrentModel  ModelID
	Buckets       map[ModuleType]ContextBucket
	Transcript    []Message
}

// Completed returns the set of completed modules.
func (s *SessionData) Completed() ModuleSet {
	set := make(ModuleSet)
	for m, b := range s.Buckets {
		if b.Status == StatusCompleted {
			set[m] = true
		}
	}
	return set
}

// Started returns the set of modules that are completed or in progress.
func (s *SessionData) Started() ModuleSet {
	set := make(ModuleSet)
	for m, b := range s.Buckets {
		if b.Status == StatusCompleted || b.Status == StatusInProgress {
			set[m] = true
		}
	}
	return set
}

// BucketHasData reports whether the named module already holds data.
func (s *SessionData) BucketHasData(m ModuleType) bool {
	b, ok := s.Buckets[m]
	return ok && b.HasData()
}
