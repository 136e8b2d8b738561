package store

import (
	"context"
	"sync"
	"time"

	"group-order-service/internal/models"
)

// MemoryStore is the default process-local store. All sessions are lost on
// restart; durability is explicitly out of scope for this deployment shape.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.GroupSession
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.GroupSession)}
}

// Create registers a new session.
func (s *MemoryStore) Create(ctx context.Context, session *models.GroupSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return ErrAlreadyExists
	}
	session.Version = 1
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// Get returns a copy of the stored session.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.GroupSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(session), nil
}

// Put replaces the stored session when the version matches.
func (s *MemoryStore) Put(ctx context.Context, session *models.GroupSession, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	session.Version = expectedVersion + 1
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List returns copies of every stored session.
func (s *MemoryStore) List(ctx context.Context) ([]*models.GroupSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.GroupSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, cloneSession(session))
	}
	return out, nil
}

// SweepExpired evicts every session past its expiry.
func (s *MemoryStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Len reports how many sessions are stored, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// cloneSession deep-copies a session so callers can't mutate stored state
// behind the lock.
func cloneSession(s *models.GroupSession) *models.GroupSession {
	out := *s
	out.Participants = make([]models.GroupParticipant, len(s.Participants))
	copy(out.Participants, s.Participants)
	out.Items = make([]models.CartItem, len(s.Items))
	for i, item := range s.Items {
		out.Items[i] = item
		if item.Variant != nil {
			variant := *item.Variant
			out.Items[i].Variant = &variant
		}
	}
	return &out
}
