package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nwalsh/timekeep/internal/auth"
	"github.com/nwalsh/timekeep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	sessions map[string]*models.User
}

func (f *fakeResolver) Resolve(ctx context.Context, sessionID string) (*models.User, error) {
	user, ok := f.sessions[sessionID]
	if !ok {
		return nil, auth.ErrNoSession
	}
	return user, nil
}

func newUpgradeServer(t *testing.T, resolver *fakeResolver) (*httptest.Server, *Registry) {
	t.Helper()
	registry := NewRegistry(newFakeTimerSource())
	gatekeeper := NewGatekeeper(resolver, registry, DefaultConfig())

	mux := http.NewServeMux()
	gatekeeper.RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, registry
}

func wsURL(server *httptest.Server, query string) string {
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

func dialWithCookie(server *httptest.Server, sessionID, query string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{}
	if sessionID != "" {
		header.Set("Cookie", auth.SessionCookie+"="+sessionID)
	}
	return websocket.DefaultDialer.Dial(wsURL(server, query), header)
}

func TestUpgradeAdmitsResolvableSession(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	sessionID := uuid.New().String()
	resolver := &fakeResolver{sessions: map[string]*models.User{sessionID: user}}

	server, registry := newUpgradeServer(t, resolver)

	conn, _, err := dialWithCookie(server, sessionID, "")
	require.NoError(t, err)
	defer conn.Close()

	// The very first message on the wire is the full snapshot.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, MessageTypeAllTimers, snap.Type)
	assert.Equal(t, 1, registry.Len())
}

func TestUpgradeAdmitsQueryParamSession(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	sessionID := uuid.New().String()
	resolver := &fakeResolver{sessions: map[string]*models.User{sessionID: user}}

	server, registry := newUpgradeServer(t, resolver)

	conn, _, err := dialWithCookie(server, "", SessionQueryParam+"="+sessionID)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 1, registry.Len())
}

func TestUpgradeRejectsUnresolvableSession(t *testing.T) {
	resolver := &fakeResolver{sessions: map[string]*models.User{}}
	server, registry := newUpgradeServer(t, resolver)

	_, resp, err := dialWithCookie(server, uuid.New().String(), "")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, registry.Len())
}

func TestUpgradeRejectsMissingSession(t *testing.T) {
	resolver := &fakeResolver{sessions: map[string]*models.User{}}
	server, registry := newUpgradeServer(t, resolver)

	_, resp, err := dialWithCookie(server, "", "")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, registry.Len())
}

func TestUpgradeRejectsCookieQueryMismatch(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	sessionID := uuid.New().String()
	resolver := &fakeResolver{sessions: map[string]*models.User{sessionID: user}}

	server, registry := newUpgradeServer(t, resolver)

	// The cookie alone would resolve; the divergent query copy still rejects.
	_, resp, err := dialWithCookie(server, sessionID, SessionQueryParam+"="+uuid.New().String())
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, registry.Len())
}
