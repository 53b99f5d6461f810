package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/nwalsh/timekeep/internal/auth"
	"github.com/nwalsh/timekeep/internal/models"
	"github.com/nwalsh/timekeep/internal/timers"
	"github.com/rs/zerolog/log"
)

// AuthService defines what the handlers need from the auth layer.
type AuthService interface {
	Signup(ctx context.Context, username, password string) (uuid.UUID, error)
	Login(ctx context.Context, username, password string) (uuid.UUID, error)
	Logout(ctx context.Context, sessionID string) error
	Resolve(ctx context.Context, sessionID string) (*models.User, error)
}

// TimerService defines what the handlers need from the timer lifecycle.
type TimerService interface {
	Start(ctx context.Context, userID uuid.UUID, description string) (*models.Timer, error)
	Stop(ctx context.Context, id uuid.UUID) (*models.Timer, error)
	ListByOwner(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.Timer, error)
}

// Handler serves the JSON API for accounts and timers.
type Handler struct {
	auth   AuthService
	timers TimerService
}

// NewHandler creates a new API handler.
func NewHandler(authSvc AuthService, timerSvc TimerService) *Handler {
	return &Handler{
		auth:   authSvc,
		timers: timerSvc,
	}
}

// RegisterRoutes registers the API routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /signup", h.handleSignup)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /logout", h.requireAuth(h.handleLogout))
	mux.HandleFunc("POST /api/timers", h.requireAuth(h.handleCreateTimer))
	mux.HandleFunc("POST /api/timers/{id}/stop", h.handleStopTimer)
	mux.HandleFunc("GET /api/timers", h.requireAuth(h.handleListTimers))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	sessionID, err := h.auth.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		log.Error().Err(err).Msg("signup failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, sessionID.String())
	writeJSON(w, sessionResponse{SessionID: sessionID.String()})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	sessionID, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, "wrong username or password", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Msg("login failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, sessionID.String())
	writeJSON(w, sessionResponse{SessionID: sessionID.String()})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), sessionFromContext(r.Context())); err != nil {
		log.Error().Err(err).Msg("logout failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type createTimerRequest struct {
	Description string `json:"description"`
}

type timerIDResponse struct {
	ID string `json:"id"`
}

func (h *Handler) handleCreateTimer(w http.ResponseWriter, r *http.Request) {
	var req createTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user := userFromContext(r.Context())
	timer, err := h.timers.Start(r.Context(), user.ID, req.Description)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create timer")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, timerIDResponse{ID: timer.ID.String()})
}

func (h *Handler) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "timer not found", http.StatusNotFound)
		return
	}

	timer, err := h.timers.Stop(r.Context(), id)
	if err != nil {
		if errors.Is(err, timers.ErrTimerNotFound) {
			http.Error(w, "timer not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("timer_id", id.String()).Msg("failed to stop timer")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, timerIDResponse{ID: timer.ID.String()})
}

func (h *Handler) handleListTimers(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	activeOnly := r.URL.Query().Get("isActive") == "true"

	list, err := h.timers.ListByOwner(r.Context(), user.ID, activeOnly)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to list timers")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !activeOnly {
		stopped := make([]models.Timer, 0, len(list))
		for _, timer := range list {
			if !timer.IsActive {
				stopped = append(stopped, timer)
			}
		}
		list = stopped
	}

	if list == nil {
		list = []models.Timer{}
	}
	writeJSON(w, list)
}

func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}
