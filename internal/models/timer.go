package models

import (
	"github.com/google/uuid"
)

// Timer represents a tracked time interval owned by a user.
//
// Start, End and Duration are epoch milliseconds. End and Duration stay 0
// while the timer is running and are stamped exactly once at stop. Progress
// is never persisted; it is recomputed on every read of an active timer.
type Timer struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Description string    `json:"description"`
	Start       int64     `json:"start"`
	End         int64     `json:"end"`
	Duration    int64     `json:"duration"`
	IsActive    bool      `json:"isActive"`
	Progress    int64     `json:"progress,omitempty"`
}
