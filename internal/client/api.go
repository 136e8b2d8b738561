package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"group-order-service/internal/models"
	"group-order-service/internal/sessions"
)

// APIError carries the server's status code and error message verbatim, so
// callers can show it to users unchanged.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// APIClient is a thin HTTP client over the group-sessions surface.
type APIClient struct {
	baseURL string
	http    *http.Client
}

// NewAPIClient builds a client for the service at baseURL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateSession submits a client-built session.
func (a *APIClient) CreateSession(ctx context.Context, session *models.GroupSession) (*models.GroupSession, error) {
	var out models.GroupSession
	if err := a.do(ctx, http.MethodPost, "/group-sessions", session, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession fetches one session.
func (a *APIClient) GetSession(ctx context.Context, id string) (*models.GroupSession, error) {
	var out models.GroupSession
	if err := a.do(ctx, http.MethodGet, "/group-sessions/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions fetches summaries of all live sessions.
func (a *APIClient) ListSessions(ctx context.Context) ([]models.SessionSummary, error) {
	var out struct {
		Sessions []models.SessionSummary `json:"sessions"`
	}
	if err := a.do(ctx, http.MethodGet, "/group-sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// PatchSession merge-updates fields of a session.
func (a *APIClient) PatchSession(ctx context.Context, id string, patch sessions.SessionPatch) (*models.GroupSession, error) {
	var out models.GroupSession
	if err := a.do(ctx, http.MethodPatch, "/group-sessions/"+id, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession removes a session.
func (a *APIClient) DeleteSession(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/group-sessions/"+id, nil, nil)
}

// Join adds a participant and returns the updated session plus the assigned
// identity.
func (a *APIClient) Join(ctx context.Context, id, name string) (*models.GroupSession, *models.GroupParticipant, error) {
	body := map[string]string{"name": name}
	var out struct {
		Session     *models.GroupSession     `json:"session"`
		Participant *models.GroupParticipant `json:"participant"`
	}
	if err := a.do(ctx, http.MethodPost, "/group-sessions/"+id+"/join", body, &out); err != nil {
		return nil, nil, err
	}
	return out.Session, out.Participant, nil
}

// Leave removes a participant from a session.
func (a *APIClient) Leave(ctx context.Context, id, participantID string) (*models.GroupSession, error) {
	body := map[string]string{"participantId": participantID}
	var out models.GroupSession
	if err := a.do(ctx, http.MethodPost, "/group-sessions/"+id+"/leave", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
