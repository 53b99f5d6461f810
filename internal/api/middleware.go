package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/nwalsh/timekeep/internal/auth"
	"github.com/nwalsh/timekeep/internal/models"
	"github.com/rs/zerolog/log"
)

type contextKey int

const (
	userKey contextKey = iota
	sessionKey
)

// requireAuth resolves the session cookie and rejects the request with 401
// when it does not resolve to a user. The user and session id are placed on
// the request context for the wrapped handler.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.SessionCookie)
		if err != nil {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}

		user, err := h.auth.Resolve(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, auth.ErrNoSession) {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			log.Error().Err(err).Msg("session resolution failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, sessionKey, cookie.Value)
		next(w, r.WithContext(ctx))
	}
}

func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

func sessionFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionKey).(string)
	return sessionID
}
