package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nwalsh/timekeep/internal/models"
	"github.com/rs/zerolog/log"
)

// TimerSource provides timer snapshots for registered users.
type TimerSource interface {
	ListByOwner(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.Timer, error)
}

// Registry is the process-wide map from user identity to that user's
// current push connection. It is the only shared mutable state in the
// realtime core; the lock is held for structural changes only, never
// across a store read or a network send.
type Registry struct {
	connections map[uuid.UUID]*Connection
	mu          sync.RWMutex

	timers TimerSource
}

// NewRegistry creates a new connection registry.
func NewRegistry(timers TimerSource) *Registry {
	return &Registry{
		connections: make(map[uuid.UUID]*Connection),
		timers:      timers,
	}
}

// Register sends the user's full timer snapshot on the new connection and
// then inserts it into the registry, replacing any previous entry for the
// same user. The snapshot is enqueued before the connection becomes visible
// to ForEach, so it always precedes the first periodic push on the wire.
// A replaced connection is left to its own close path; it is never closed
// here.
func (r *Registry) Register(ctx context.Context, conn *Connection) error {
	timers, err := r.timers.ListByOwner(ctx, conn.UserID, false)
	if err != nil {
		return fmt.Errorf("failed to load timer snapshot: %w", err)
	}

	data, err := marshalSnapshot(MessageTypeAllTimers, timers)
	if err != nil {
		return err
	}
	conn.TrySend(data)

	r.mu.Lock()
	previous := r.connections[conn.UserID]
	r.connections[conn.UserID] = conn
	total := len(r.connections)
	r.mu.Unlock()

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", conn.UserID.String()).
		Bool("replaced", previous != nil).
		Int("total_connections", total).
		Msg("connection registered")
	return nil
}

// Unregister removes the connection if it is still the current entry for
// its user. It is a no-op when the connection was already replaced.
func (r *Registry) Unregister(conn *Connection) {
	r.mu.Lock()
	current, ok := r.connections[conn.UserID]
	if ok && current == conn {
		delete(r.connections, conn.UserID)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	conn.closeSend()
	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", conn.UserID.String()).
		Msg("connection unregistered")
}

// ForEach calls fn for every currently registered connection. It iterates
// over a snapshot of the entries so registrations and removals during the
// iteration cannot corrupt it; fn runs without the registry lock held.
func (r *Registry) ForEach(fn func(conn *Connection)) {
	r.mu.RLock()
	snapshot := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		snapshot = append(snapshot, conn)
	}
	r.mu.RUnlock()

	for _, conn := range snapshot {
		fn(conn)
	}
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

func marshalSnapshot(kind MessageType, timers []models.Timer) ([]byte, error) {
	if timers == nil {
		timers = []models.Timer{}
	}
	data, err := json.Marshal(Snapshot{Type: kind, Timers: timers})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s snapshot: %w", kind, err)
	}
	return data, nil
}
