package push

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultBroadcastInterval is the cadence at which active-timer snapshots
// are pushed to every registered connection.
const DefaultBroadcastInterval = time.Second

// Broadcaster periodically pushes each registered user's active timers,
// with freshly computed progress, over that user's connection. Failures
// are isolated per connection: a broken channel or a store error for one
// user never aborts the rest of the tick. Cleanup of dead connections is
// left to their own close path, not done here.
type Broadcaster struct {
	registry *Registry
	timers   TimerSource
	clock    clockwork.Clock
	interval time.Duration
}

// NewBroadcaster creates a new broadcast scheduler.
func NewBroadcaster(registry *Registry, timers TimerSource, clock clockwork.Clock, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	return &Broadcaster{
		registry: registry,
		timers:   timers,
		clock:    clock,
		interval: interval,
	}
}

// Run drives the tick loop until the context is cancelled. Ticks do not
// queue; an overrunning tick simply delays the next one.
func (b *Broadcaster) Run(ctx context.Context) {
	log.Info().Dur("interval", b.interval).Msg("broadcaster started")

	ticker := b.clock.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("broadcaster shutting down")
			return
		case <-ticker.Chan():
			b.Tick(ctx)
		}
	}
}

// Tick pushes one active_timers snapshot to every registered connection.
func (b *Broadcaster) Tick(ctx context.Context) {
	b.registry.ForEach(func(conn *Connection) {
		timers, err := b.timers.ListByOwner(ctx, conn.UserID, true)
		if err != nil {
			log.Error().
				Err(err).
				Str("user_id", conn.UserID.String()).
				Msg("failed to load active timers for broadcast")
			return
		}

		data, err := marshalSnapshot(MessageTypeActiveTimers, timers)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal broadcast snapshot")
			return
		}

		if !conn.TrySend(data) {
			log.Warn().
				Str("connection_id", conn.ID).
				Str("user_id", conn.UserID.String()).
				Msg("dropped broadcast push")
		}
	})
}
