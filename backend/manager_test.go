package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	manager := NewManager(ctx, NewConfigStore(testAIConfig()), zerolog.Nop())
	t.Cleanup(func() {
		manager.Shutdown()
		cancel()
	})
	return manager
}

func TestManagerCreateGetDelete(t *testing.T) {
	manager := newTestManager(t)

	session := manager.Create(humanSettings(9))
	if session.ID() == "" {
		t.Fatalf("session must get an id")
	}
	if manager.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", manager.Count())
	}

	got, err := manager.Get(session.ID())
	if err != nil || got != session {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if _, err := manager.Get("no-such-id"); err != errGameNotFound {
		t.Fatalf("unknown id must yield errGameNotFound, got %v", err)
	}

	if err := manager.Delete(session.ID()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if manager.Count() != 0 {
		t.Fatalf("expected no sessions after delete, got %d", manager.Count())
	}
	if err := manager.Delete(session.ID()); err != errGameNotFound {
		t.Fatalf("double delete must yield errGameNotFound, got %v", err)
	}
}

func TestManagerListOldestFirst(t *testing.T) {
	manager := newTestManager(t)

	first := manager.Create(humanSettings(9))
	second := manager.Create(humanSettings(9))
	third := manager.Create(humanSettings(9))

	listed := manager.List()
	if len(listed) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(listed))
	}
	if listed[0] != first || listed[1] != second || listed[2] != third {
		t.Fatalf("sessions must list oldest first")
	}
}

func TestManagerShutdownDropsAllSessions(t *testing.T) {
	manager := newTestManager(t)
	manager.Create(humanSettings(9))
	manager.Create(humanSettings(9))

	manager.Shutdown()
	if manager.Count() != 0 {
		t.Fatalf("shutdown must drop every session, %d left", manager.Count())
	}
}
