package models

import (
	"github.com/google/uuid"
)

// User represents an account in the system. The salt and verifier are only
// ever handled by the auth package and never serialized.
type User struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	PasswordSalt     []byte    `json:"-"`
	PasswordVerifier []byte    `json:"-"`
}
