package push

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/nwalsh/timekeep/internal/auth"
	"github.com/nwalsh/timekeep/internal/models"
	"github.com/rs/zerolog/log"
)

// SessionQueryParam is the query parameter carrying a redundant copy of the
// session identifier alongside the auth.SessionCookie cookie.
const SessionQueryParam = "session_id"

// SessionResolver resolves an opaque session identifier to the owning user.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*models.User, error)
}

// Gatekeeper decides whether a connection-upgrade request is admitted into
// the live-push system. A request whose session does not resolve is rejected
// before any handshake completes.
type Gatekeeper struct {
	resolver SessionResolver
	registry *Registry
	upgrader websocket.Upgrader
	config   Config
}

// NewGatekeeper creates a new upgrade gatekeeper.
func NewGatekeeper(resolver SessionResolver, registry *Registry, config Config) *Gatekeeper {
	return &Gatekeeper{
		resolver: resolver,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// HandleUpgrade validates the request's session, upgrades the connection
// and hands it to the registry. Every rejection is a 404 with no handshake:
// missing identifier, cookie/query mismatch, unresolvable session and
// resolver failure all gate admission.
func (g *Gatekeeper) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromRequest(r)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	user, err := g.resolver.Resolve(r.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			log.Error().Err(err).Msg("session resolution failed during upgrade")
		}
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	connection := NewConnection(user.ID, conn, g.registry, g.config)
	if err := g.registry.Register(r.Context(), connection); err != nil {
		log.Error().
			Err(err).
			Str("user_id", user.ID.String()).
			Msg("failed to register connection")
		conn.Close()
		return
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("user_id", user.ID.String()).
		Msg("WebSocket connection established")
}

// RegisterRoutes registers the upgrade endpoint with an HTTP mux.
func (g *Gatekeeper) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", g.HandleUpgrade)
}

// sessionIDFromRequest extracts the session identifier, preferring the
// cookie and falling back to the query parameter. When both are present
// they must agree.
func sessionIDFromRequest(r *http.Request) (string, bool) {
	var fromCookie string
	if c, err := r.Cookie(auth.SessionCookie); err == nil {
		fromCookie = c.Value
	}
	fromQuery := r.URL.Query().Get(SessionQueryParam)

	if fromCookie != "" && fromQuery != "" && fromCookie != fromQuery {
		return "", false
	}
	if fromCookie != "" {
		return fromCookie, true
	}
	if fromQuery != "" {
		return fromQuery, true
	}
	return "", false
}
