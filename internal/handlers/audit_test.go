package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"group-order-service/internal/mocks"
	"group-order-service/internal/telemetry"
)

func auditedRouter(t *testing.T) (*gin.Engine, *mocks.PublisherMock) {
	t.Helper()
	publisher := new(mocks.PublisherMock)
	audit := telemetry.NewAuditEmitter(publisher, "audit.group-order", "group-order-service", "test")
	return setupRouterWithAudit(newService(), audit), publisher
}

func auditEvent(level, text string) any {
	return mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		return ok && envelope.EventType == "audit_log" &&
			envelope.Payload.Level == level && envelope.Payload.Text == text
	})
}

func TestCreateSessionEmitsAuditEvent(t *testing.T) {
	router, publisher := auditedRouter(t)
	publisher.On("Publish", mock.Anything, "audit.group-order", auditEvent("INFO", "Session created")).Return(nil).Once()

	createSession(t, router, "s1", "Alice")
	publisher.AssertExpectations(t)
}

func TestJoinAndLeaveEmitAuditEvents(t *testing.T) {
	router, publisher := auditedRouter(t)
	publisher.On("Publish", mock.Anything, "audit.group-order", auditEvent("INFO", "Session created")).Return(nil).Once()
	publisher.On("Publish", mock.Anything, "audit.group-order", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		return ok && envelope.Payload.Level == "INFO" && envelope.SessionID == "s1" &&
			len(envelope.Payload.Text) > 0 && envelope.Payload.Text != "Session created"
	})).Return(nil).Twice()

	createSession(t, router, "s1", "Alice")

	code, _ := joinSession(t, router, "s1", "Bob")
	require.Equal(t, http.StatusOK, code)

	payload := []byte(`{"participantId":"s1-host"}`)
	req := httptest.NewRequest(http.MethodPost, "/group-sessions/s1/leave", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	publisher.AssertExpectations(t)
}

func TestErrorResponsesEmitAuditEvents(t *testing.T) {
	router, publisher := auditedRouter(t)
	publisher.On("Publish", mock.Anything, "audit.group-order", auditEvent("ERROR", "not found")).Return(nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/group-sessions/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	publisher.AssertExpectations(t)
}

func TestExpiredSessionEmitsAuditEvent(t *testing.T) {
	router, publisher := auditedRouter(t)
	publisher.On("Publish", mock.Anything, "audit.group-order", auditEvent("INFO", "Session created")).Return(nil).Once()
	publisher.On("Publish", mock.Anything, "audit.group-order", auditEvent("ERROR", "session expired")).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/group-sessions", bytes.NewReader(sessionBody("old", "Alice", time.Now().Add(-time.Minute))))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/group-sessions/old", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusGone, rec.Code)

	publisher.AssertExpectations(t)
}
