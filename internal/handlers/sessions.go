package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"group-order-service/internal/models"
	"group-order-service/internal/sessions"
	"group-order-service/internal/store"
	"group-order-service/internal/telemetry"
)

// SessionHandler manages the /group-sessions endpoints.
type SessionHandler struct {
	service *sessions.Service
	audit   *telemetry.AuditEmitter
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(service *sessions.Service, audit *telemetry.AuditEmitter) *SessionHandler {
	return &SessionHandler{service: service, audit: audit}
}

// Create handles POST /group-sessions. The client submits the full session
// it assembled; only the identifying fields are validated here.
func (h *SessionHandler) Create(c *gin.Context) {
	var session models.GroupSession
	if err := c.ShouldBindJSON(&session); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload", "")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), &session)
	if err != nil {
		h.respondError(c, err, session.ID)
		return
	}

	h.emitAudit(c, "INFO", "Session created", created.ID)
	c.JSON(http.StatusCreated, created)
}

// GetOrList handles GET /group-sessions. With an id query parameter it
// behaves like a single fetch; without one it lists all live sessions.
func (h *SessionHandler) GetOrList(c *gin.Context) {
	if id := c.Query("id"); id != "" {
		h.getByID(c, id)
		return
	}

	summaries, err := h.service.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": summaries})
}

// Get handles GET /group-sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	h.getByID(c, c.Param("id"))
}

func (h *SessionHandler) getByID(c *gin.Context, id string) {
	session, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, id)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Patch handles PATCH /group-sessions/:id, shallow-merging the submitted
// fields into the stored session.
func (h *SessionHandler) Patch(c *gin.Context) {
	id := c.Param("id")

	var patch sessions.SessionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload", id)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.respondError(c, err, id)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Delete handles DELETE /group-sessions/:id.
func (h *SessionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, id)
		return
	}
	h.emitAudit(c, "INFO", "Session deleted", id)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// respondError maps service errors onto the HTTP taxonomy: validation 400,
// unknown ids 404, expiry 410, join conflicts 409, everything else a
// generic 500 with details kept server-side.
func (h *SessionHandler) respondError(c *gin.Context, err error, sessionID string) {
	switch {
	case sessions.IsValidation(err):
		h.emitAudit(c, "ERROR", "invalid request payload", sessionID)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, sessions.ErrSessionNotFound), errors.Is(err, sessions.ErrParticipantNotFound):
		h.emitAudit(c, "ERROR", "not found", sessionID)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, sessions.ErrSessionExpired):
		h.emitAudit(c, "ERROR", "session expired", sessionID)
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, sessions.ErrSessionClosed),
		errors.Is(err, sessions.ErrSessionFull),
		errors.Is(err, sessions.ErrNameTaken),
		errors.Is(err, store.ErrAlreadyExists):
		h.emitAudit(c, "ERROR", "conflict", sessionID)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.emitAudit(c, "ERROR", "internal error", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *SessionHandler) emitAudit(c *gin.Context, level, text, sessionID string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), sessionID)
}
