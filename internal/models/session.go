package models

import (
	"strings"
	"time"
)

// SessionStatus is the lifecycle state of a group session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusOrdering  SessionStatus = "ordering"
	StatusCheckout  SessionStatus = "checkout"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
	StatusExpired   SessionStatus = "expired"
)

// AcceptsJoins reports whether new participants may still join a session
// in this status.
func (s SessionStatus) AcceptsJoins() bool {
	return s != StatusCompleted && s != StatusCancelled
}

// participantPalette is the fixed set of colors assigned to participants by
// join order. Colors repeat once a session grows past the palette size.
var participantPalette = []string{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#96CEB4",
	"#FFEAA7",
	"#DDA0DD",
	"#98D8C8",
	"#F7DC6F",
}

// ColorForIndex returns the palette color for the nth participant to join.
func ColorForIndex(n int) string {
	if n < 0 {
		n = 0
	}
	return participantPalette[n%len(participantPalette)]
}

// PaletteSize returns the number of distinct participant colors.
func PaletteSize() int {
	return len(participantPalette)
}

// SessionSettings is behavioral configuration fixed at session creation.
// RequireHostApproval and MaxOrdersPerPerson are carried on the wire but not
// enforced anywhere yet.
type SessionSettings struct {
	AllowGuestEdits      bool `json:"allowGuestEdits"`
	RequireHostApproval  bool `json:"requireHostApproval"`
	AutoExpireAfterHours int  `json:"autoExpireAfterHours"`
	MaxOrdersPerPerson   int  `json:"maxOrdersPerPerson,omitempty"`
	MaxParticipants      int  `json:"maxParticipants,omitempty"`
}

// DefaultSettings returns the settings applied when a host creates a session
// without overrides.
func DefaultSettings() SessionSettings {
	return SessionSettings{
		AllowGuestEdits:      true,
		RequireHostApproval:  false,
		AutoExpireAfterHours: 4,
	}
}

// GroupParticipant is one person attached to a session.
type GroupParticipant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IsHost     bool      `json:"isHost"`
	JoinedAt   time.Time `json:"joinedAt"`
	LastActive time.Time `json:"lastActive"`
	Color      string    `json:"color"`
}

// GroupSession is a shared ordering session with one host and zero or more
// guests. Version is the store's optimistic-concurrency counter and is
// incremented on every persisted write.
type GroupSession struct {
	ID            string             `json:"id"`
	HostID        string             `json:"hostId"`
	HostName      string             `json:"hostName"`
	CreatedAt     time.Time          `json:"createdAt"`
	ExpiresAt     time.Time          `json:"expiresAt"`
	Status        SessionStatus      `json:"status"`
	Participants  []GroupParticipant `json:"participants"`
	Items         []CartItem         `json:"items"`
	ShareableLink string             `json:"shareableLink,omitempty"`
	Settings      SessionSettings    `json:"settings"`
	Version       int64              `json:"version"`
}

// Expired reports whether the session is past its expiry instant.
func (s *GroupSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ParticipantByID returns the participant with the given id, if present.
func (s *GroupSession) ParticipantByID(id string) (GroupParticipant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return GroupParticipant{}, false
}

// HasParticipantNamed reports whether any participant's display name equals
// name case-insensitively after trimming.
func (s *GroupSession) HasParticipantNamed(name string) bool {
	name = strings.TrimSpace(name)
	for _, p := range s.Participants {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return true
		}
	}
	return false
}

// Summary projects the session to its listing fields. The item list is never
// included in summaries.
func (s *GroupSession) Summary() SessionSummary {
	return SessionSummary{
		ID:               s.ID,
		HostName:         s.HostName,
		ParticipantCount: len(s.Participants),
		Status:           s.Status,
		CreatedAt:        s.CreatedAt,
		ExpiresAt:        s.ExpiresAt,
	}
}

// SessionSummary is the projection returned by the list endpoint.
type SessionSummary struct {
	ID               string        `json:"id"`
	HostName         string        `json:"hostName"`
	ParticipantCount int           `json:"participantCount"`
	Status           SessionStatus `json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`
	ExpiresAt        time.Time     `json:"expiresAt"`
}

// SessionEvent describes a change applied to a session, emitted to the watch
// hub after every persisted mutation.
type SessionEvent struct {
	Type      string        `json:"type"`
	SessionID string        `json:"sessionId"`
	Session   *GroupSession `json:"session,omitempty"`
}
