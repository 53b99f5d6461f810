package timers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nwalsh/timekeep/internal/models"
)

// DefaultDescription is used when a timer is created with an empty label.
const DefaultDescription = "No Name"

// TimerRepository defines what the service needs from the storage layer.
type TimerRepository interface {
	CreateTimer(ctx context.Context, timer *models.Timer) error
	GetTimer(ctx context.Context, id uuid.UUID) (*models.Timer, error)
	StopTimer(ctx context.Context, id uuid.UUID, endMs, durationMs int64) error
	ListTimersByUser(ctx context.Context, userID uuid.UUID) ([]models.Timer, error)
}

// Service implements the timer lifecycle: create -> running -> stopped,
// with duration stamped once at stop and progress derived on every read.
type Service struct {
	repo  TimerRepository
	clock clockwork.Clock
}

// NewService creates a new timers service.
func NewService(repo TimerRepository, clock clockwork.Clock) *Service {
	return &Service{
		repo:  repo,
		clock: clock,
	}
}

// Start creates a new running timer for the given owner.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, description string) (*models.Timer, error) {
	if description == "" {
		description = DefaultDescription
	}

	timer := &models.Timer{
		ID:          uuid.New(),
		UserID:      userID,
		Description: description,
		Start:       s.clock.Now().UnixMilli(),
		IsActive:    true,
	}

	if err := s.repo.CreateTimer(ctx, timer); err != nil {
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}

	return timer, nil
}

// Stop transitions a timer to its terminal state, stamping end and duration.
// Stopping an already-stopped timer is a no-op returning the stored record;
// end and duration are never re-stamped.
func (s *Service) Stop(ctx context.Context, id uuid.UUID) (*models.Timer, error) {
	timer, err := s.repo.GetTimer(ctx, id)
	if err != nil {
		return nil, err
	}

	if !timer.IsActive {
		return timer, nil
	}

	end := s.clock.Now().UnixMilli()
	duration := end - timer.Start

	if err := s.repo.StopTimer(ctx, id, end, duration); err != nil {
		return nil, err
	}

	timer.End = end
	timer.Duration = duration
	timer.IsActive = false
	return timer, nil
}

// ListByOwner returns the owner's timers. With activeOnly set, only running
// timers are returned and each carries a progress value computed from the
// current clock reading.
func (s *Service) ListByOwner(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.Timer, error) {
	all, err := s.repo.ListTimersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timers for user: %w", err)
	}

	if !activeOnly {
		return all, nil
	}

	now := s.clock.Now().UnixMilli()
	active := make([]models.Timer, 0, len(all))
	for _, timer := range all {
		if !timer.IsActive {
			continue
		}
		timer.Progress = now - timer.Start
		active = append(active, timer)
	}
	return active, nil
}
