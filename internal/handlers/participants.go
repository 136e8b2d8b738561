package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"group-order-service/internal/observability"
)

// Join handles POST /group-sessions/:id/join. Precondition failures map to
// 400 (bad name), 404, 410 (expired) and 409 (closed, full, name taken).
func (h *SessionHandler) Join(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload", id)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, participant, err := h.service.Join(c.Request.Context(), id, req.Name)
	if err != nil {
		h.respondError(c, err, id)
		return
	}

	h.emitAudit(c, "INFO", "Participant joined from "+observability.IPFromRequest(c.Request), id)
	c.JSON(http.StatusOK, gin.H{"session": session, "participant": participant})
}

// Leave handles POST /group-sessions/:id/leave, removing the participant and
// reassigning the host role when the host departs.
func (h *SessionHandler) Leave(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		ParticipantID string `json:"participantId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload", id)
		c.JSON(http.StatusBadRequest, gin.H{"error": "participantId is required"})
		return
	}

	session, err := h.service.Leave(c.Request.Context(), id, req.ParticipantID)
	if err != nil {
		h.respondError(c, err, id)
		return
	}

	h.emitAudit(c, "INFO", "Participant left", id)
	c.JSON(http.StatusOK, session)
}
