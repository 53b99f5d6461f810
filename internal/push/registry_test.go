package push

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nwalsh/timekeep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimerSource struct {
	timers map[uuid.UUID][]models.Timer
	err    error
}

func newFakeTimerSource() *fakeTimerSource {
	return &fakeTimerSource{timers: make(map[uuid.UUID][]models.Timer)}
}

func (f *fakeTimerSource) ListByOwner(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.Timer, error) {
	if f.err != nil {
		return nil, f.err
	}
	var result []models.Timer
	for _, timer := range f.timers[userID] {
		if activeOnly && !timer.IsActive {
			continue
		}
		result = append(result, timer)
	}
	return result, nil
}

func testConnection(registry *Registry, userID uuid.UUID) *Connection {
	return NewConnection(userID, nil, registry, DefaultConfig())
}

func receiveSnapshot(t *testing.T, conn *Connection) Snapshot {
	t.Helper()
	select {
	case data := <-conn.Send:
		var snap Snapshot
		require.NoError(t, json.Unmarshal(data, &snap))
		return snap
	default:
		t.Fatal("no message queued on connection")
		return Snapshot{}
	}
}

func TestRegisterSendsFullSnapshotFirst(t *testing.T) {
	source := newFakeTimerSource()
	userID := uuid.New()
	source.timers[userID] = []models.Timer{
		{ID: uuid.New(), UserID: userID, Description: "running", Start: 1000, IsActive: true},
		{ID: uuid.New(), UserID: userID, Description: "done", Start: 1000, End: 2000, Duration: 1000},
	}

	registry := NewRegistry(source)
	conn := testConnection(registry, userID)

	require.NoError(t, registry.Register(context.Background(), conn))
	assert.Equal(t, 1, registry.Len())

	snap := receiveSnapshot(t, conn)
	assert.Equal(t, MessageTypeAllTimers, snap.Type)
	assert.Len(t, snap.Timers, 2)
}

func TestRegisterReplacesEarlierConnection(t *testing.T) {
	registry := NewRegistry(newFakeTimerSource())
	userID := uuid.New()

	first := testConnection(registry, userID)
	second := testConnection(registry, userID)

	require.NoError(t, registry.Register(context.Background(), first))
	require.NoError(t, registry.Register(context.Background(), second))

	assert.Equal(t, 1, registry.Len())

	var seen []*Connection
	registry.ForEach(func(conn *Connection) {
		seen = append(seen, conn)
	})
	require.Len(t, seen, 1)
	assert.Same(t, second, seen[0])
}

func TestUnregisterIsNoOpAfterReplacement(t *testing.T) {
	registry := NewRegistry(newFakeTimerSource())
	userID := uuid.New()

	first := testConnection(registry, userID)
	second := testConnection(registry, userID)

	require.NoError(t, registry.Register(context.Background(), first))
	require.NoError(t, registry.Register(context.Background(), second))

	// The orphaned connection closing must not evict its replacement.
	registry.Unregister(first)
	assert.Equal(t, 1, registry.Len())

	registry.Unregister(second)
	assert.Equal(t, 0, registry.Len())
}

func TestRegisterFailsWhenSnapshotUnavailable(t *testing.T) {
	source := newFakeTimerSource()
	source.err = errors.New("store down")
	registry := NewRegistry(source)

	err := registry.Register(context.Background(), testConnection(registry, uuid.New()))
	require.Error(t, err)
	assert.Equal(t, 0, registry.Len())
}

func TestTrySendOnClosedConnection(t *testing.T) {
	registry := NewRegistry(newFakeTimerSource())
	conn := testConnection(registry, uuid.New())

	assert.True(t, conn.TrySend([]byte("x")))
	conn.closeSend()
	assert.False(t, conn.TrySend([]byte("y")))

	// Closing twice must not panic.
	conn.closeSend()
}

func TestForEachRunsWithoutLockHeld(t *testing.T) {
	registry := NewRegistry(newFakeTimerSource())
	userID := uuid.New()
	conn := testConnection(registry, userID)
	require.NoError(t, registry.Register(context.Background(), conn))

	// Structural mutation from inside the callback must not deadlock.
	registry.ForEach(func(c *Connection) {
		registry.Unregister(c)
	})
	assert.Equal(t, 0, registry.Len())
}
