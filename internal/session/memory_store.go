package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in-process (single instance only).
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idleTTL  map[string]time.Duration
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		idleTTL:  make(map[string]time.Duration),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session, idleTTL time.Duration) error {
	cp := *s
	m.mu.Lock()
	m.sessions[s.ID] = &cp
	m.idleTTL[s.ID] = idleTTL
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Expired(m.now(), m.idleTTL[id]) {
		delete(m.sessions, id)
		delete(m.idleTTL, id)
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Touch(_ context.Context, id string, seenAt time.Time, idleTTL time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.LastSeenAt = seenAt
	m.idleTTL[id] = idleTTL
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	delete(m.idleTTL, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			delete(m.idleTTL, id)
		}
	}
	return nil
}

func (m *MemoryStore) SweepExpired(_ context.Context, now time.Time, idleTTL time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		ttl := m.idleTTL[id]
		if ttl == 0 {
			ttl = idleTTL
		}
		if s.Expired(now, ttl) {
			delete(m.sessions, id)
			delete(m.idleTTL, id)
			removed++
		}
	}
	return removed, nil
}
