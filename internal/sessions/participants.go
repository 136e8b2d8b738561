package sessions

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"group-order-service/internal/models"
	"group-order-service/internal/observability"
)

// Join adds a named guest to a session. Preconditions are checked in order
// and the first failure wins: non-empty name, session exists, not expired,
// open for joins, below capacity, name not taken (case-insensitive).
func (s *Service) Join(ctx context.Context, sessionID, participantName string) (*models.GroupSession, *models.GroupParticipant, error) {
	name := strings.TrimSpace(participantName)
	if name == "" {
		return nil, nil, &ValidationError{Msg: "participant name is required"}
	}

	var (
		updated     *models.GroupSession
		participant models.GroupParticipant
	)
	err := s.mutate(ctx, sessionID, func(session *models.GroupSession) error {
		if !session.Status.AcceptsJoins() {
			return ErrSessionClosed
		}
		if max := session.Settings.MaxParticipants; max > 0 && len(session.Participants) >= max {
			return ErrSessionFull
		}
		if session.HasParticipantNamed(name) {
			return ErrNameTaken
		}
		now := s.now()
		participant = models.GroupParticipant{
			ID:         uuid.NewString(),
			Name:       name,
			IsHost:     false,
			JoinedAt:   now,
			LastActive: now,
			Color:      models.ColorForIndex(len(session.Participants)),
		}
		session.Participants = append(session.Participants, participant)
		updated = session
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	observability.IncSessionJoin()
	s.notify(models.SessionEvent{Type: "participant_joined", SessionID: sessionID, Session: updated})
	return updated, &participant, nil
}

// Leave removes a participant. Items attributed to the departing participant
// stay in the shared cart with their attribution stripped. If the host
// leaves, the first remaining participant is promoted; if nobody remains the
// session is cancelled.
//
// An expired session is evicted first, so leaving it reports not-found.
func (s *Service) Leave(ctx context.Context, sessionID, participantID string) (*models.GroupSession, error) {
	var updated *models.GroupSession
	err := s.mutate(ctx, sessionID, func(session *models.GroupSession) error {
		idx := -1
		for i, p := range session.Participants {
			if p.ID == participantID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrParticipantNotFound
		}
		wasHost := session.Participants[idx].IsHost
		session.Participants = append(session.Participants[:idx], session.Participants[idx+1:]...)
		unlinkItems(session, participantID)

		if wasHost {
			if len(session.Participants) > 0 {
				session.Participants[0].IsHost = true
				session.Participants[0].LastActive = s.now()
				session.HostID = session.Participants[0].ID
				session.HostName = session.Participants[0].Name
			} else {
				session.Status = models.StatusCancelled
			}
		}
		updated = session
		return nil
	})
	if err != nil {
		if err == ErrSessionExpired {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	observability.IncSessionLeave()
	s.notify(models.SessionEvent{Type: "participant_left", SessionID: sessionID, Session: updated})
	return updated, nil
}

// RemoveParticipant is the host-initiated removal of another participant.
// Same effect as Leave minus the host handoff, since the host stays.
func (s *Service) RemoveParticipant(ctx context.Context, sessionID, participantID string) (*models.GroupSession, error) {
	var updated *models.GroupSession
	err := s.mutate(ctx, sessionID, func(session *models.GroupSession) error {
		idx := -1
		for i, p := range session.Participants {
			if p.ID == participantID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrParticipantNotFound
		}
		session.Participants = append(session.Participants[:idx], session.Participants[idx+1:]...)
		unlinkItems(session, participantID)
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.IncSessionLeave()
	s.notify(models.SessionEvent{Type: "participant_removed", SessionID: sessionID, Session: updated})
	return updated, nil
}

// unlinkItems strips attribution from a departed participant's items rather
// than deleting them, so their order history survives a rejoin.
func unlinkItems(session *models.GroupSession, participantID string) {
	for i := range session.Items {
		if session.Items[i].ParticipantID == participantID {
			session.Items[i].ParticipantID = ""
			session.Items[i].ParticipantName = ""
		}
	}
}
