// Package client is the session-mirror side of the sync contract: it
// creates or joins sessions over the HTTP API and keeps a local copy fresh
// by polling. The server's response always wins; local optimistic state is
// overwritten wholesale on every poll.
package client

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"group-order-service/internal/models"
	"group-order-service/internal/sessions"
)

// ConnectionStatus describes the controller's view of the server link.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

const defaultPollInterval = 5 * time.Second

// Config configures a Controller.
type Config struct {
	// BaseURL is the service root, e.g. http://localhost:8083.
	BaseURL string
	// Origin is the public web origin used to build shareable join links.
	Origin string
	// PollInterval overrides the default 5s sync poll.
	PollInterval time.Duration
}

// Controller mirrors one session for one participant. All methods are safe
// for concurrent use with the background poll loop.
type Controller struct {
	api          *APIClient
	origin       string
	pollInterval time.Duration

	mu           sync.RWMutex
	session      *models.GroupSession
	participant  *models.GroupParticipant
	isHost       bool
	status       ConnectionStatus
	syncConflict bool
	pendingPush  bool
	// generation guards against in-flight responses landing after the
	// controller stopped or switched sessions; stale responses are dropped.
	generation int
	cancelPoll  context.CancelFunc
}

// NewController builds a disconnected controller.
func NewController(cfg Config) *Controller {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Controller{
		api:          NewAPIClient(cfg.BaseURL),
		origin:       strings.TrimRight(cfg.Origin, "/"),
		pollInterval: interval,
		status:       StatusDisconnected,
	}
}

// SettingsOverride selectively replaces default session settings at
// creation. Nil fields keep the default.
type SettingsOverride struct {
	AllowGuestEdits      *bool
	RequireHostApproval  *bool
	AutoExpireAfterHours *int
	MaxOrdersPerPerson   *int
	MaxParticipants      *int
}

func (o *SettingsOverride) apply(settings *models.SessionSettings) {
	if o == nil {
		return
	}
	if o.AllowGuestEdits != nil {
		settings.AllowGuestEdits = *o.AllowGuestEdits
	}
	if o.RequireHostApproval != nil {
		settings.RequireHostApproval = *o.RequireHostApproval
	}
	if o.AutoExpireAfterHours != nil && *o.AutoExpireAfterHours > 0 {
		settings.AutoExpireAfterHours = *o.AutoExpireAfterHours
	}
	if o.MaxOrdersPerPerson != nil {
		settings.MaxOrdersPerPerson = *o.MaxOrdersPerPerson
	}
	if o.MaxParticipants != nil {
		settings.MaxParticipants = *o.MaxParticipants
	}
}

// CreateSession assembles a full session locally, submits it, adopts the
// server's copy as current state and starts the sync loop. The caller
// becomes host.
func (c *Controller) CreateSession(ctx context.Context, hostName string, overrides *SettingsOverride) (*models.GroupSession, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, &APIError{Status: 400, Message: "host name is required"}
	}

	settings := models.DefaultSettings()
	overrides.apply(&settings)

	now := time.Now()
	id := uuid.NewString()
	host := models.GroupParticipant{
		ID:         uuid.NewString(),
		Name:       hostName,
		IsHost:     true,
		JoinedAt:   now,
		LastActive: now,
		Color:      models.ColorForIndex(0),
	}
	session := &models.GroupSession{
		ID:            id,
		HostID:        host.ID,
		HostName:      hostName,
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Duration(settings.AutoExpireAfterHours) * time.Hour),
		Status:        models.StatusActive,
		Participants:  []models.GroupParticipant{host},
		Items:         []models.CartItem{},
		ShareableLink: c.origin + "/group/" + id,
		Settings:      settings,
	}

	c.setStatus(StatusConnecting)
	created, err := c.api.CreateSession(ctx, session)
	if err != nil {
		c.setStatus(StatusError)
		return nil, err
	}

	c.mu.Lock()
	c.session = created
	c.participant = &host
	c.isHost = true
	c.status = StatusConnected
	c.syncConflict = false
	c.pendingPush = false
	c.mu.Unlock()

	c.StartRealTimeSync()
	return created, nil
}

// JoinSession joins an existing session as a guest. Server-side failures are
// returned verbatim for the join form to display.
func (c *Controller) JoinSession(ctx context.Context, sessionID, participantName string) (*models.GroupSession, error) {
	c.setStatus(StatusConnecting)
	session, participant, err := c.api.Join(ctx, sessionID, participantName)
	if err != nil {
		c.setStatus(StatusError)
		return nil, err
	}

	c.mu.Lock()
	c.session = session
	c.participant = participant
	c.isHost = false
	c.status = StatusConnected
	c.syncConflict = false
	c.pendingPush = false
	c.mu.Unlock()

	c.StartRealTimeSync()
	return session, nil
}

// LeaveSession clears local state immediately and notifies the server in the
// background. A failed leave is logged, never surfaced; the user is exiting
// regardless.
func (c *Controller) LeaveSession() {
	c.mu.Lock()
	session := c.session
	participant := c.participant
	c.session = nil
	c.participant = nil
	c.isHost = false
	c.status = StatusDisconnected
	c.syncConflict = false
	c.pendingPush = false
	c.mu.Unlock()

	c.StopRealTimeSync()

	if session == nil || participant == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := c.api.Leave(ctx, session.ID, participant.ID); err != nil {
			slog.Warn("leave session failed", "session_id", session.ID, "error", err)
		}
	}()
}

// UpdateSessionStatus changes the session status. Host-only; silently a
// no-op for guests. The local state updates first and the server patch runs
// in the background without rollback on failure.
func (c *Controller) UpdateSessionStatus(status models.SessionStatus) {
	c.mu.Lock()
	if !c.isHost || c.session == nil {
		c.mu.Unlock()
		return
	}
	c.session.Status = status
	c.pendingPush = true
	sessionID := c.session.ID
	gen := c.generation
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		updated, err := c.api.PatchSession(ctx, sessionID, sessions.SessionPatch{Status: &status})
		if err != nil {
			slog.Warn("status update failed", "session_id", sessionID, "error", err)
			return
		}
		c.adopt(updated, gen)
	}()
}

// AddParticipant mutates only the local mirror, for optimistic UI updates.
// The authoritative add path is JoinSession.
func (c *Controller) AddParticipant(p models.GroupParticipant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	c.session.Participants = append(c.session.Participants, p)
}

// RemoveParticipant mutates only the local mirror.
func (c *Controller) RemoveParticipant(participantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	for i, p := range c.session.Participants {
		if p.ID == participantID {
			c.session.Participants = append(c.session.Participants[:i], c.session.Participants[i+1:]...)
			break
		}
	}
}

// UpdateParticipant mutates only the local mirror.
func (c *Controller) UpdateParticipant(p models.GroupParticipant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	for i := range c.session.Participants {
		if c.session.Participants[i].ID == p.ID {
			c.session.Participants[i] = p
			return
		}
	}
}

// SyncCartItems replaces the local item list and pushes the full list to the
// server.
func (c *Controller) SyncCartItems(ctx context.Context, items []models.CartItem) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil
	}
	c.session.Items = items
	c.pendingPush = true
	sessionID := c.session.ID
	gen := c.generation
	c.mu.Unlock()

	if items == nil {
		items = []models.CartItem{}
	}
	updated, err := c.api.PatchSession(ctx, sessionID, sessions.SessionPatch{Items: items})
	if err != nil {
		slog.Warn("cart sync failed", "session_id", sessionID, "error", err)
		return err
	}
	c.adopt(updated, gen)
	return nil
}

// AddItemToSession appends or merges an item locally and pushes the list.
func (c *Controller) AddItemToSession(ctx context.Context, item models.CartItem) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil
	}
	merged := false
	for i := range c.session.Items {
		if c.session.Items[i].ID == item.ID && c.session.Items[i].ParticipantID == item.ParticipantID {
			c.session.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		c.session.Items = append(c.session.Items, item)
	}
	items := append([]models.CartItem(nil), c.session.Items...)
	c.mu.Unlock()
	return c.SyncCartItems(ctx, items)
}

// RemoveItemFromSession deletes an item locally and pushes the list.
func (c *Controller) RemoveItemFromSession(ctx context.Context, itemID, participantID string) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil
	}
	for i := range c.session.Items {
		if c.session.Items[i].ID == itemID && c.session.Items[i].ParticipantID == participantID {
			c.session.Items = append(c.session.Items[:i], c.session.Items[i+1:]...)
			break
		}
	}
	items := append([]models.CartItem(nil), c.session.Items...)
	c.mu.Unlock()
	return c.SyncCartItems(ctx, items)
}

// UpdateItemInSession replaces a matching item locally and pushes the list.
func (c *Controller) UpdateItemInSession(ctx context.Context, item models.CartItem) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil
	}
	for i := range c.session.Items {
		if c.session.Items[i].ID == item.ID && c.session.Items[i].ParticipantID == item.ParticipantID {
			c.session.Items[i] = item
			break
		}
	}
	items := append([]models.CartItem(nil), c.session.Items...)
	c.mu.Unlock()
	return c.SyncCartItems(ctx, items)
}

// StartRealTimeSync begins the poll loop. Calling it again restarts the
// loop.
func (c *Controller) StartRealTimeSync() {
	c.StopRealTimeSync()

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	sessionID := c.session.ID
	gen := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelPoll = cancel
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.pollOnce(ctx, sessionID, gen)
			}
		}
	}()
}

// StopRealTimeSync cancels the poll loop. Responses of requests still in
// flight are discarded via the generation counter.
func (c *Controller) StopRealTimeSync() {
	c.mu.Lock()
	cancel := c.cancelPoll
	c.cancelPoll = nil
	c.generation++
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// PollNow runs one synchronous poll cycle, outside the timer.
func (c *Controller) PollNow(ctx context.Context) {
	c.mu.RLock()
	if c.session == nil {
		c.mu.RUnlock()
		return
	}
	sessionID := c.session.ID
	gen := c.generation
	c.mu.RUnlock()
	c.pollOnce(ctx, sessionID, gen)
}

func (c *Controller) pollOnce(ctx context.Context, sessionID string, gen int) {
	session, err := c.api.GetSession(ctx, sessionID)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && (apiErr.Status == 404 || apiErr.Status == 410) {
			// session evicted or deleted server-side: drop the mirror
			c.mu.Lock()
			if c.generation == gen {
				c.session = nil
				c.participant = nil
				c.isHost = false
				c.status = StatusDisconnected
			}
			c.mu.Unlock()
			c.StopRealTimeSync()
			return
		}
		c.setStatus(StatusError)
		slog.Debug("session poll failed", "session_id", sessionID, "error", err)
		return
	}
	c.adopt(session, gen)
}

// adopt replaces the local mirror with the server's copy unless the
// controller has moved on since the request was issued. A version the
// controller did not expect while a push was pending raises the sync
// conflict indicator instead of silently losing anything.
func (c *Controller) adopt(session *models.GroupSession, gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen || c.session == nil || c.session.ID != session.ID {
		return
	}
	if c.pendingPush {
		if c.session.Version != 0 && session.Version > c.session.Version+1 {
			c.syncConflict = true
		}
		c.pendingPush = false
	} else {
		c.syncConflict = false
	}
	c.session = session
	c.status = StatusConnected
	if c.participant != nil {
		if p, ok := session.ParticipantByID(c.participant.ID); ok {
			c.participant = &p
			c.isHost = p.IsHost
		}
	}
}

// CurrentSession returns the mirrored session, or nil when disconnected.
func (c *Controller) CurrentSession() *models.GroupSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// CurrentParticipant returns this client's identity in the session.
func (c *Controller) CurrentParticipant() *models.GroupParticipant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.participant
}

// IsHost reports whether this client holds the host role.
func (c *Controller) IsHost() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isHost
}

// Status returns the connection status.
func (c *Controller) Status() ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// SyncConflict reports whether a poll observed server changes that raced a
// pending local push. It clears on the next clean poll.
func (c *Controller) SyncConflict() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.syncConflict
}

// ShareableLink returns the join link for the current session.
func (c *Controller) ShareableLink() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.ShareableLink
}

func (c *Controller) setStatus(status ConnectionStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}
