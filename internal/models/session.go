package models

import (
	"github.com/google/uuid"
)

// Session ties an opaque session identifier to the user it authenticates.
// Sessions live until deleted by logout; there is no expiry.
type Session struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
}
