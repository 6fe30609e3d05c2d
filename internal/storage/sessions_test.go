// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jeranaias/venture-tui/internal/model"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := NewSessionStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewSessionStoreWithDir: %v", err)
	}
	return store
}

func TestSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	sess := &StoredSession{
		ID:            "sess-1",
		Mode:          "entrepreneur",
		CurrentModule: "idea_concept",
		Messages: []model.Message{
			model.NewUserMessage("I want to open a bakery"),
			model.NewAssistantMessage("Tell me more.", model.AgentIdea),
		},
	}
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load("sess-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Mode != "entrepreneur" || len(loaded.Messages) != 2 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.CreatedAt.IsZero() || loaded.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	// Re-saving keeps the original creation time.
	created := loaded.CreatedAt
	time.Sleep(10 * time.Millisecond)
	if err := store.Save(&StoredSession{ID: "sess-1", Mode: "entrepreneur"}); err != nil {
		t.Fatal(err)
	}
	reloaded, err := store.Load("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed: %v -> %v", created, reloaded.CreatedAt)
	}
	if !reloaded.UpdatedAt.After(created) {
		t.Error("UpdatedAt not advanced")
	}
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.LoadLast(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadLast on empty store = %v", err)
	}
}

func TestListAndLoadLast(t *testing.T) {
	store := newTestStore(t)

	for i := 1; i <= 3; i++ {
		sess := &StoredSession{
			ID:   fmt.Sprintf("sess-%d", i),
			Mode: "consultant",
			Messages: []model.Message{
				model.NewUserMessage(fmt.Sprintf("question %d", i)),
			},
		}
		if err := store.Save(sess); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 3 {
		t.Fatalf("list = %d sessions", len(metas))
	}
	if metas[0].ID != "sess-3" {
		t.Errorf("newest first: got %s", metas[0].ID)
	}
	if metas[0].Preview != "question 3" {
		t.Errorf("preview = %q", metas[0].Preview)
	}

	last, err := store.LoadLast()
	if err != nil {
		t.Fatal(err)
	}
	if last.ID != "sess-3" {
		t.Errorf("LoadLast = %s", last.ID)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(&StoredSession{ID: "sess-1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load("sess-1"); !errors.Is(err, ErrNotFound) {
		t.Error("session should be gone")
	}
	if err := store.Delete("sess-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete = %v", err)
	}
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)
	store.MaxSessions = 2

	for i := 1; i <= 4; i++ {
		if err := store.Save(&StoredSession{ID: fmt.Sprintf("sess-%d", i)}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("after prune = %d sessions, want 2", len(metas))
	}
	if metas[0].ID != "sess-4" || metas[1].ID != "sess-3" {
		t.Errorf("kept %s, %s", metas[0].ID, metas[1].ID)
	}
}

func TestFilenameSanitization(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(&StoredSession{ID: "../../evil"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load("../../evil")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != "../../evil" {
		t.Errorf("id = %q", loaded.ID)
	}
}
