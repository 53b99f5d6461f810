package timers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nwalsh/timekeep/internal/models"
)

// Repository implements timer data access against Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new timers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

// CreateTimer inserts a new timer record.
func (r *Repository) CreateTimer(ctx context.Context, timer *models.Timer) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO timers (id, user_id, description, start_ms, is_active)
        VALUES ($1, $2, $3, $4, $5)
    `,
		timer.ID, timer.UserID, timer.Description, timer.Start, timer.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create timer: %w", err)
	}
	return nil
}

// GetTimer retrieves a timer by ID.
func (r *Repository) GetTimer(ctx context.Context, id uuid.UUID) (*models.Timer, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, user_id, description, start_ms, end_ms, duration_ms, is_active
        FROM timers
        WHERE id = $1
    `, id)

	var timer models.Timer
	err := row.Scan(&timer.ID, &timer.UserID, &timer.Description,
		&timer.Start, &timer.End, &timer.Duration, &timer.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimerNotFound
		}
		return nil, fmt.Errorf("failed to get timer: %w", err)
	}

	return &timer, nil
}

// StopTimer marks a timer inactive and stamps its end and duration.
func (r *Repository) StopTimer(ctx context.Context, id uuid.UUID, endMs, durationMs int64) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE timers
        SET is_active = false, end_ms = $2, duration_ms = $3
        WHERE id = $1
    `, id, endMs, durationMs)
	if err != nil {
		return fmt.Errorf("failed to stop timer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTimerNotFound
	}
	return nil
}

// ListTimersByUser returns every timer owned by the given user.
func (r *Repository) ListTimersByUser(ctx context.Context, userID uuid.UUID) ([]models.Timer, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, user_id, description, start_ms, end_ms, duration_ms, is_active
        FROM timers
        WHERE user_id = $1
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timers: %w", err)
	}
	defer rows.Close()

	var result []models.Timer
	for rows.Next() {
		var timer models.Timer
		if err := rows.Scan(&timer.ID, &timer.UserID, &timer.Description,
			&timer.Start, &timer.End, &timer.Duration, &timer.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan timer: %w", err)
		}
		result = append(result, timer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timers: %w", err)
	}

	return result, nil
}
