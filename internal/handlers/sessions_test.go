package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"group-order-service/internal/mocks"
	"group-order-service/internal/models"
	"group-order-service/internal/sessions"
	"group-order-service/internal/store"
	"group-order-service/internal/telemetry"
)

func setupRouter(svc *sessions.Service) *gin.Engine {
	return setupRouterWithAudit(svc, nil)
}

func setupRouterWithAudit(svc *sessions.Service, audit *telemetry.AuditEmitter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSessionHandler(svc, audit)
	r.POST("/group-sessions", h.Create)
	r.GET("/group-sessions", h.GetOrList)
	r.GET("/group-sessions/:id", h.Get)
	r.PATCH("/group-sessions/:id", h.Patch)
	r.DELETE("/group-sessions/:id", h.Delete)
	r.POST("/group-sessions/:id/join", h.Join)
	r.POST("/group-sessions/:id/leave", h.Leave)
	return r
}

func newService() *sessions.Service {
	return sessions.NewService(store.NewMemoryStore(), nil)
}

func sessionBody(id, hostName string, expiresAt time.Time) []byte {
	now := time.Now()
	session := models.GroupSession{
		ID:        id,
		HostID:    id + "-host",
		HostName:  hostName,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Status:    models.StatusActive,
		Participants: []models.GroupParticipant{{
			ID:         id + "-host",
			Name:       hostName,
			IsHost:     true,
			JoinedAt:   now,
			LastActive: now,
			Color:      models.ColorForIndex(0),
		}},
		Items:    []models.CartItem{},
		Settings: models.DefaultSettings(),
	}
	data, _ := json.Marshal(session)
	return data
}

func createSession(t *testing.T, router *gin.Engine, id, hostName string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/group-sessions", bytes.NewReader(sessionBody(id, hostName, time.Now().Add(time.Hour))))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateSessionSuccess(t *testing.T) {
	router := setupRouter(newService())

	req := httptest.NewRequest(http.MethodPost, "/group-sessions", bytes.NewReader(sessionBody("s1", "Alice", time.Now().Add(time.Hour))))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.GroupSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "s1", created.ID)
	require.Equal(t, int64(1), created.Version)
}

func TestCreateSessionMissingFields(t *testing.T) {
	router := setupRouter(newService())

	req := httptest.NewRequest(http.MethodPost, "/group-sessions", bytes.NewBufferString(`{"id":"s1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSessionDuplicateID(t *testing.T) {
	router := setupRouter(newService())
	createSession(t, router, "s1", "Alice")

	req := httptest.NewRequest(http.MethodPost, "/group-sessions", bytes.NewReader(sessionBody("s1", "Bob", time.Now().Add(time.Hour))))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetSessionNotFound(t *testing.T) {
	router := setupRouter(newService())

	req := httptest.NewRequest(http.MethodGet, "/group-sessions/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetExpiredSessionGoneThenNotFound(t *testing.T) {
	router := setupRouter(newService())

	req := httptest.NewRequest(http.MethodPost, "/group-sessions", bytes.NewReader(sessionBody("old", "Alice", time.Now().Add(-time.Minute))))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/group-sessions/old", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusGone, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/group-sessions/old", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByQueryParameter(t *testing.T) {
	router := setupRouter(newService())
	createSession(t, router, "s1", "Alice")

	req := httptest.NewRequest(http.MethodGet, "/group-sessions?id=s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var session models.GroupSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.Equal(t, "s1", session.ID)
}

func TestListSessionsReturnsSummaries(t *testing.T) {
	router := setupRouter(newService())
	createSession(t, router, "s1", "Alice")
	createSession(t, router, "s2", "Bob")

	req := httptest.NewRequest(http.MethodGet, "/group-sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sessions []models.SessionSummary `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 2)
	require.NotContains(t, rec.Body.String(), `"items"`)
}

func TestListSessionsStoreError(t *testing.T) {
	storeMock := new(mocks.StoreMock)
	storeMock.On("List", mock.Anything).Return(nil, errors.New("boom")).Once()
	router := setupRouter(sessions.NewService(storeMock, nil))

	req := httptest.NewRequest(http.MethodGet, "/group-sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal error")
	storeMock.AssertExpectations(t)
}

func TestPatchSessionStatusRoundTrip(t *testing.T) {
	router := setupRouter(newService())
	createSession(t, router, "s1", "Alice")

	req := httptest.NewRequest(http.MethodPatch, "/group-sessions/s1", bytes.NewBufferString(`{"status":"checkout"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/group-sessions/s1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var session models.GroupSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.Equal(t, models.StatusCheckout, session.Status)
	require.Equal(t, "Alice", session.HostName)
	require.Len(t, session.Participants, 1)
}

func TestPatchUnknownSession(t *testing.T) {
	router := setupRouter(newService())

	req := httptest.NewRequest(http.MethodPatch, "/group-sessions/missing", bytes.NewBufferString(`{"status":"ordering"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	router := setupRouter(newService())
	createSession(t, router, "s1", "Alice")

	req := httptest.NewRequest(http.MethodDelete, "/group-sessions/s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/group-sessions/s1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
