package ingress

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookHandler_StartSession(t *testing.T) {
	a := NewAdapter(newFakeSessions(), newFakeImages(), nil, nil)
	r := Router(a)

	body, err := json.Marshal(Update{UserID: 1, Command: "/start_session"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Reply, "started session")
}

func TestWebhookHandler_MalformedBodyStillAnswers200(t *testing.T) {
	a := NewAdapter(newFakeSessions(), newFakeImages(), nil, nil)
	r := Router(a)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Reply, "could not read request")
}

func TestSessionHandler_NotFoundSurfacesRealStatus(t *testing.T) {
	a := NewAdapter(newFakeSessions(), newFakeImages(), nil, nil)
	r := Router(a)

	req := httptest.NewRequest(http.MethodGet, "/sessions/00000000-0000-0000-0000-000000000000", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_BadIDIsBadRequest(t *testing.T) {
	a := NewAdapter(newFakeSessions(), newFakeImages(), nil, nil)
	r := Router(a)

	req := httptest.NewRequest(http.MethodGet, "/sessions/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandler_FoundReturnsSessionJSON(t *testing.T) {
	sessions := newFakeSessions()
	a := NewAdapter(sessions, newFakeImages(), nil, nil)
	r := Router(a)

	s, err := sessions.Create(context.Background(), 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+s.ID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, s.ID.String(), resp.ID)
	assert.Equal(t, "open", resp.State)
}
