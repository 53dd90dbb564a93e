package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pep299/trends-dashboard/internal/trend"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	s := New()
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Fatalf("Expected UUID session ID, got '%s'", s.ID)
	}
	s.Error = "boom"

	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Error != "boom" {
		t.Errorf("Expected error 'boom', got '%s'", loaded.Error)
	}
	if store.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", store.Count())
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreRejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	if _, err := store.Load(ctx, "../../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, State{}); err == nil {
		t.Error("Expected error saving a state without ID")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(50 * time.Millisecond)

	s := New()
	store.Save(ctx, s)
	time.Sleep(100 * time.Millisecond)

	if _, err := store.Load(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected expired session, got %v", err)
	}
}

func TestHasTable(t *testing.T) {
	if New().HasTable() {
		t.Error("Expected new state to hold no table")
	}
	s := State{Table: &trend.Table{Keywords: []string{"a"}}}
	if s.HasTable() {
		t.Error("Expected table without rows to count as empty")
	}
}
