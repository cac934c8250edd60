package session

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/graphscope/pkg/errors"
)

// Store persists sessions.
type Store interface {
	// Get retrieves a session by ID. Missing or expired sessions fail with
	// SESSION_NOT_FOUND.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any previous state with the same ID.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	Close() error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
}

// MemoryStore keeps snapshots in process memory. Stored sessions are
// snapshots: later changes to a session are only visible after another Set.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	exp  map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), exp: make(map[string]time.Time)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	data, ok := m.data[id]
	exp := m.exp[id]
	m.mu.RUnlock()
	if !ok || time.Now().After(exp) {
		return nil, notFound(id)
	}
	return decodeSnapshot(data)
}

func (m *MemoryStore) Set(ctx context.Context, s *Session) error {
	data, err := encodeSnapshot(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = data
	m.exp[s.ID] = s.ExpiresAt
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	delete(m.exp, id)
	return nil
}

func (m *MemoryStore) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, exp := range m.exp {
		if now.After(exp) {
			delete(m.data, id)
			delete(m.exp, id)
		}
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
