package sessions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"group-order-service/internal/models"
	"group-order-service/internal/observability"
	"group-order-service/internal/store"
	"group-order-service/internal/watch"
)

// maxPutRetries bounds the read-modify-write retry loop on version conflicts.
const maxPutRetries = 3

// Service is the authoritative session lifecycle and participant management
// layer. Every mutation is a compare-and-swap against the store, retried on
// version conflict, so concurrent handlers cannot clobber each other's
// writes.
type Service struct {
	store store.Store
	hub   *watch.Hub
	now   func() time.Time
}

// NewService builds a Service. hub may be nil when change notification is
// not wanted (tests).
func NewService(s store.Store, hub *watch.Hub) *Service {
	return &Service{store: s, hub: hub, now: time.Now}
}

// SessionPatch is a shallow merge applied by Update. Nil fields are left
// untouched; a non-nil empty Items or Participants slice replaces the list.
type SessionPatch struct {
	HostID        *string                   `json:"hostId"`
	HostName      *string                   `json:"hostName"`
	Status        *models.SessionStatus     `json:"status"`
	ShareableLink *string                   `json:"shareableLink"`
	Settings      *models.SessionSettings   `json:"settings"`
	Participants  []models.GroupParticipant `json:"participants"`
	Items         []models.CartItem         `json:"items"`
}

// Create validates and registers a client-built session. The creator is
// trusted to have assembled a consistent initial record.
func (s *Service) Create(ctx context.Context, session *models.GroupSession) (*models.GroupSession, error) {
	if strings.TrimSpace(session.ID) == "" || strings.TrimSpace(session.HostID) == "" || strings.TrimSpace(session.HostName) == "" {
		return nil, &ValidationError{Msg: "id, hostId and hostName are required"}
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	observability.IncSessionCreated()
	s.notify(models.SessionEvent{Type: "session_created", SessionID: session.ID, Session: session})
	return session, nil
}

// Get returns the session or evicts it when expired.
func (s *Service) Get(ctx context.Context, id string) (*models.GroupSession, error) {
	session, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		s.evict(ctx, id)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Update shallow-merges the patch into the stored session and persists it.
// No field-level validation happens here; callers submit valid partials.
func (s *Service) Update(ctx context.Context, id string, patch SessionPatch) (*models.GroupSession, error) {
	var updated *models.GroupSession
	err := s.mutate(ctx, id, func(session *models.GroupSession) error {
		applyPatch(session, patch)
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(models.SessionEvent{Type: "session_updated", SessionID: id, Session: updated})
	return updated, nil
}

// Delete removes the session unconditionally.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	s.notify(models.SessionEvent{Type: "session_deleted", SessionID: id})
	return nil
}

// List returns summaries of every non-expired session, oldest first. Full
// item lists are never included.
func (s *Service) List(ctx context.Context) ([]models.SessionSummary, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	summaries := make([]models.SessionSummary, 0, len(all))
	for _, session := range all {
		if session.Expired(now) {
			continue
		}
		summaries = append(summaries, session.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// mutate runs a read-modify-write cycle with CAS retries. fn may return a
// domain error to abort without writing.
func (s *Service) mutate(ctx context.Context, id string, fn func(*models.GroupSession) error) error {
	for attempt := 0; attempt < maxPutRetries; attempt++ {
		session, err := s.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if session.Expired(s.now()) {
			s.evict(ctx, id)
			return ErrSessionExpired
		}
		if err := fn(session); err != nil {
			return err
		}
		err = s.store.Put(ctx, session, session.Version)
		if errors.Is(err, store.ErrVersionConflict) {
			observability.IncStoreConflict()
			continue
		}
		return err
	}
	return store.ErrVersionConflict
}

func (s *Service) evict(ctx context.Context, id string) {
	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return
	}
	s.notify(models.SessionEvent{Type: "session_expired", SessionID: id})
}

func (s *Service) notify(event models.SessionEvent) {
	if s.hub != nil {
		s.hub.Notify(event)
	}
}

func applyPatch(session *models.GroupSession, patch SessionPatch) {
	if patch.HostID != nil {
		session.HostID = *patch.HostID
	}
	if patch.HostName != nil {
		session.HostName = *patch.HostName
	}
	if patch.Status != nil {
		session.Status = *patch.Status
	}
	if patch.ShareableLink != nil {
		session.ShareableLink = *patch.ShareableLink
	}
	if patch.Settings != nil {
		session.Settings = *patch.Settings
	}
	if patch.Participants != nil {
		session.Participants = patch.Participants
	}
	if patch.Items != nil {
		session.Items = patch.Items
	}
}
