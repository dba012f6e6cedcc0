// Package store provides storage backends for Gemshield sessions.
//
// It includes an in-memory store for tests and single-process use, plus
// SQLite and PostgreSQL backends selected by DSN shape.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/gemshield/gemshield/internal/models"
)

// Store is the session persistence interface shared by all backends.
type Store interface {
	SaveSession(rec models.SessionRecord) error
	GetSession(id string) (*models.SessionRecord, error)
	DeleteSession(id string) error
	ListSessions() ([]models.SessionRecord, error)
	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option defines a functional option for store configuration.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports the database driver implied by a DSN: "postgres" for
// URL or key=value connection strings, "sqlite3" for anything else.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}

// InMemoryStore is a simple in-memory session store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.SessionRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.SessionRecord)}
}

func (s *InMemoryStore) SaveSession(rec models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[rec.ID]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.UpdatedAt = time.Now()
	s.sessions[rec.ID] = rec
	return nil
}

func (s *InMemoryStore) GetSession(id string) (*models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *InMemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *InMemoryStore) ListSessions() ([]models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]models.SessionRecord, 0, len(s.sessions))
	for _, rec := range s.sessions {
		sessions = append(sessions, rec)
	}
	return sessions, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
