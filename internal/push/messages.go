package push

import (
	"github.com/nwalsh/timekeep/internal/models"
)

// MessageType distinguishes the one-shot full snapshot sent at registration
// from the periodic incremental pushes.
type MessageType string

const (
	MessageTypeAllTimers    MessageType = "all_timers"
	MessageTypeActiveTimers MessageType = "active_timers"
)

// Snapshot is the envelope pushed over a live connection.
type Snapshot struct {
	Type   MessageType    `json:"type"`
	Timers []models.Timer `json:"timers"`
}
