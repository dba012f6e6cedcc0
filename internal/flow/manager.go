package flow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gemshield/gemshield/internal/models"
	"github.com/gemshield/gemshield/internal/store"
	"github.com/gemshield/gemshield/internal/util"
)

// Manager owns the live session registry. Sessions are created here, looked
// up by locator, and rehydrated from the store after a restart.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	questions []Question
	gen       QuoteGenerator
	st        store.Store
}

// NewManager creates a session manager over the given store and orchestrator.
func NewManager(st store.Store, gen QuoteGenerator) *Manager {
	slog.Debug("Manager.NewManager: creating session manager")
	return &Manager{
		sessions:  make(map[string]*Session),
		questions: Questions(),
		gen:       gen,
		st:        st,
	}
}

// Start creates a new session and presents its first question.
func (m *Manager) Start(ctx context.Context) *Session {
	id := util.GenerateSessionID()
	sess := NewSession(id, m.questions, m.gen, m.st)

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	sess.Start(ctx)
	slog.Info("Manager.Start: session started", "sessionID", id)
	return sess
}

// Get returns the live session for a locator, falling back to the store for
// sessions created before the last restart.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return sess, nil
	}

	if m.st != nil {
		rec, err := m.st.GetSession(id)
		if err != nil {
			slog.Error("Manager.Get: store lookup failed", "sessionID", id, "error", err)
			return nil, err
		}
		if rec != nil {
			sess = restore(*rec, m.questions, m.gen, m.st)
			m.mu.Lock()
			m.sessions[id] = sess
			m.mu.Unlock()
			slog.Info("Manager.Get: session rehydrated from store", "sessionID", id)
			return sess, nil
		}
	}

	slog.Debug("Manager.Get: session not found", "sessionID", id)
	return nil, models.ErrSessionNotFound
}

// Reset destroys a session and its persisted state. The user record is
// discarded; a subsequent Start yields a fresh session.
func (m *Manager) Reset(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.st != nil {
		if err := m.st.DeleteSession(id); err != nil {
			slog.Error("Manager.Reset: failed to delete persisted session", "sessionID", id, "error", err)
			return err
		}
	}
	if !ok {
		slog.Debug("Manager.Reset: session was not live", "sessionID", id)
	}
	slog.Info("Manager.Reset: session reset", "sessionID", id)
	return nil
}
