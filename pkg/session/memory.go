package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with a process-local map. It is the fallback
// when Redis is unreachable and the default for tests. Sessions never expire;
// the process lifetime bounds them.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Create initializes a new session in the initial flow.
func (m *MemoryStore) Create(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	now := time.Now().UTC()
	s := &Session{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		LastActive:    now,
		FlowType:      FlowInitial,
		History:       []Message{},
		ScreeningData: map[string]ScreeningRecord{},
	}
	m.sessions[s.ID] = s
	return s.Clone(), nil
}

// Get retrieves a session by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Update applies mutate under the store lock.
func (m *MemoryStore) Update(ctx context.Context, id string, mutate func(*Session)) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	mutate(s)
	s.LastActive = time.Now().UTC()
	return s.Clone(), nil
}

// AppendMessage adds one message to the conversation history.
func (m *MemoryStore) AppendMessage(ctx context.Context, id string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	_, err := m.Update(ctx, id, func(s *Session) {
		s.History = append(s.History, msg)
	})
	return err
}

// Delete removes a session.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.sessions, id)
	return nil
}

// Ping always succeeds while the store is open.
func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
