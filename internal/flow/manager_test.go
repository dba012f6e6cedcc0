package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/store"
)

func TestManagerStartAndGet(t *testing.T) {
	m := NewManager(store.NewInMemoryStore(), &fakeGenerator{})
	sess := m.Start(context.Background())

	got, err := m.Get(sess.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != sess {
		t.Error("Expected the live session instance")
	}

	if _, err := m.Get("sess_unknown"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerRehydratesFromStore(t *testing.T) {
	st := store.NewInMemoryStore()
	gen := &fakeGenerator{}

	first := NewManager(st, gen)
	sess := first.Start(context.Background())
	if _, err := sess.SubmitAnswer(context.Background(), "10001"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	id := sess.ID()

	// A fresh manager over the same store simulates a process restart.
	second := NewManager(st, gen)
	restored, err := second.Get(id)
	if err != nil {
		t.Fatalf("Get after restart failed: %v", err)
	}

	rec := restored.Record()
	if rec.Owner.ZipCode != "10001" || rec.Owner.State != "NY" {
		t.Errorf("Restored record lost answers: %+v", rec.Owner)
	}
	prompt := restored.CurrentPrompt()
	if prompt == nil || prompt.ID != "has_multiple_items" {
		t.Errorf("Restored session at wrong question: %+v", prompt)
	}
}

func TestManagerRehydrationFailsInterruptedGeneration(t *testing.T) {
	st := store.NewInMemoryStore()
	gen := &fakeGenerator{}

	// A record persisted while the remote workflow was running, as happens
	// when the process dies mid-generation.
	rec := models.SessionRecord{ID: "sess_interrupted"}
	rec.Record.Owner.ZipCode = "10001"
	rec.Record.Owner.State = "NY"
	rec.State = models.FlowState{
		SessionID: rec.ID,
		Phase:     models.PhaseGeneratingQuote,
		Loading:   true,
	}
	if err := st.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	restored, err := NewManager(st, gen).Get(rec.ID)
	if err != nil {
		t.Fatalf("Get after restart failed: %v", err)
	}

	state := restored.Status()
	if state.Phase != models.PhaseFailed {
		t.Errorf("Expected interrupted generation to fail on restore, got phase %q", state.Phase)
	}
	if state.Loading {
		t.Error("Expected loading cleared on restore")
	}
	if state.LastError == "" {
		t.Error("Expected a failure reason on the restored state")
	}
	if got := restored.Record(); got.Owner.ZipCode != "10001" {
		t.Errorf("Restored record lost answers: %+v", got.Owner)
	}

	// The session is failed, not wedged behind an in-flight generation.
	if _, err := restored.Issue(context.Background()); !errors.Is(err, models.ErrNoQuoteResult) {
		t.Errorf("Expected ErrNoQuoteResult from failed session, got %v", err)
	}
	if _, err := restored.SubmitAnswer(context.Background(), "anything"); !errors.Is(err, models.ErrNotAwaiting) {
		t.Errorf("Expected ErrNotAwaiting from failed session, got %v", err)
	}
}

func TestManagerReset(t *testing.T) {
	st := store.NewInMemoryStore()
	m := NewManager(st, &fakeGenerator{})
	sess := m.Start(context.Background())
	id := sess.ID()

	if err := m.Reset(id); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := m.Get(id); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Expected session gone after reset, got %v", err)
	}

	persisted, err := st.GetSession(id)
	if err != nil {
		t.Fatalf("store lookup failed: %v", err)
	}
	if persisted != nil {
		t.Error("Expected persisted session deleted on reset")
	}

	// Resetting an unknown session is not an error.
	if err := m.Reset("sess_unknown"); err != nil {
		t.Errorf("Reset of unknown session failed: %v", err)
	}
}
