package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nwalsh/timekeep/internal/models"
)

// Repository implements user and session data access against Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

// CreateUser inserts a new user record.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO users (id, username, password_salt, password_verifier)
        VALUES ($1, $2, $3, $4)
    `,
		user.ID, user.Username, user.PasswordSalt, user.PasswordVerifier,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, username, password_salt, password_verifier
        FROM users
        WHERE username = $1
    `, username)

	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordSalt, &user.PasswordVerifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// CreateSession inserts a new session record.
func (r *Repository) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO sessions (session_id, user_id)
        VALUES ($1, $2)
    `, session.SessionID, session.UserID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionUser resolves a session identifier to the owning user.
func (r *Repository) GetSessionUser(ctx context.Context, sessionID uuid.UUID) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT u.id, u.username, u.password_salt, u.password_verifier
        FROM sessions s
        JOIN users u ON u.id = s.user_id
        WHERE s.session_id = $1
    `, sessionID)

	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordSalt, &user.PasswordVerifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	return &user, nil
}

// DeleteSession removes a session record. Deleting an absent session is
// not an error.
func (r *Repository) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
        DELETE FROM sessions WHERE session_id = $1
    `, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
