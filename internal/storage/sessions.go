// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists planning sessions locally so venture can
// resume where the user left off.
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/venture-tui/internal/model"
	"github.com/jeranaias/venture-tui/internal/util"
)

// ErrNotFound is returned when no saved session matches.
var ErrNotFound = errors.New("session not found")

// =============================================================================
// STORED SESSION TYPE
// =============================================================================

// StoredSession is the on-disk form of a planning session: the server
// session id plus a transcript snapshot for offline review.
type StoredSession struct {
	ID            string    `json:"id"`
	Mode          string    `json:"mode"`
	CurrentModule string    `json:"current_module,omitempty"`
	Model         string    `json:"model,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Messages []model.Message `json:"messages"`
}

// SessionMeta describes a saved session for listing.
type SessionMeta struct {
	ID            string    `json:"id"`
	Mode          string    `json:"mode"`
	CurrentModule string    `json:"current_module,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
	MessageCount  int       `json:"message_count"`
	Preview       string    `json:"preview"`
}

// =============================================================================
// SESSION STORE
// =============================================================================

// SessionStore persists sessions as JSON files, one per session.
type SessionStore struct {
	// BaseDir is the storage directory. Default: ~/.venture/sessions/
	BaseDir string

	// MaxSessions caps stored sessions; oldest are pruned (0 = unlimited).
	MaxSessions int
}

// NewSessionStore creates a store under the user's home directory.
func NewSessionStore() (*SessionStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewSessionStoreWithDir(filepath.Join(home, ".venture", "sessions"))
}

// NewSessionStoreWithDir creates a store with a custom directory.
func NewSessionStoreWithDir(baseDir string) (*SessionStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &SessionStore{
		BaseDir:     baseDir,
		MaxSessions: 50,
	}, nil
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// Save persists a session snapshot. CreatedAt is preserved across
// saves of the same session.
func (s *SessionStore) Save(sess *StoredSession) error {
	if sess.ID == "" {
		return errors.New("session has no id")
	}

	sess.UpdatedAt = time.Now()
	if sess.CreatedAt.IsZero() {
		if prev, err := s.Load(sess.ID); err == nil {
			sess.CreatedAt = prev.CreatedAt
		} else {
			sess.CreatedAt = sess.UpdatedAt
		}
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}

	if err := util.AtomicWriteFile(s.filePath(sess.ID), data, 0644); err != nil {
		return err
	}
	return s.prune()
}

// Load reads one saved session by id.
func (s *SessionStore) Load(id string) (*StoredSession, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sess StoredSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// LoadLast returns the most recently updated session, or ErrNotFound
// when nothing is saved.
func (s *SessionStore) LoadLast() (*StoredSession, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, ErrNotFound
	}
	return s.Load(metas[0].ID)
}

// List returns metadata for all saved sessions, newest first.
func (s *SessionStore) List() ([]SessionMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var metas []SessionMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sess, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Unreadable files are skipped, not fatal.
			continue
		}
		metas = append(metas, SessionMeta{
			ID:            sess.ID,
			Mode:          sess.Mode,
			CurrentModule: sess.CurrentModule,
			UpdatedAt:     sess.UpdatedAt,
			MessageCount:  len(sess.Messages),
			Preview:       firstUserPreview(sess.Messages),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes a saved session.
func (s *SessionStore) Delete(id string) error {
	err := os.Remove(s.filePath(id))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// DeleteAll removes every saved session.
func (s *SessionStore) DeleteAll() error {
	metas, err := s.List()
	if err != nil {
		return err
	}
	for _, m := range metas {
		if err := s.Delete(m.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *SessionStore) filePath(id string) string {
	// Session ids come from the server; keep the filename safe anyway.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
	return filepath.Join(s.BaseDir, safe+".json")
}

// prune removes the oldest sessions beyond MaxSessions.
func (s *SessionStore) prune() error {
	if s.MaxSessions <= 0 {
		return nil
	}
	metas, err := s.List()
	if err != nil {
		return err
	}
	for _, m := range metas[min(len(metas), s.MaxSessions):] {
		if err := s.Delete(m.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// firstUserPreview returns a short preview from the first user turn.
func firstUserPreview(messages []model.Message) string {
	for _, m := range messages {
		if m.Role == model.RoleUser && m.Content != "" {
			return util.TruncateRunes(m.Content, 60)
		}
	}
	return ""
}
