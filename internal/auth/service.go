package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nwalsh/timekeep/internal/models"
)

// AuthRepository defines what the service needs from the storage layer.
type AuthRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionUser(ctx context.Context, sessionID uuid.UUID) (*models.User, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// Service implements account management and session resolution.
type Service struct {
	repo AuthRepository
}

// NewService creates a new auth service.
func NewService(repo AuthRepository) *Service {
	return &Service{
		repo: repo,
	}
}

// Signup creates a user with a derived password verifier and logs them in,
// returning the new session identifier.
func (s *Service) Signup(ctx context.Context, username, password string) (uuid.UUID, error) {
	salt, err := newSalt()
	if err != nil {
		return uuid.Nil, err
	}

	user := &models.User{
		ID:               uuid.New(),
		Username:         username,
		PasswordSalt:     salt,
		PasswordVerifier: deriveVerifier([]byte(password), salt),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return uuid.Nil, err
	}

	return s.createSession(ctx, user.ID)
}

// Login verifies the credentials and mints a new session.
func (s *Service) Login(ctx context.Context, username, password string) (uuid.UUID, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return uuid.Nil, err
	}

	candidate := deriveVerifier([]byte(password), user.PasswordSalt)
	if !verifierMatches(user.PasswordVerifier, candidate) {
		return uuid.Nil, ErrInvalidCredentials
	}

	return s.createSession(ctx, user.ID)
}

// Logout destroys the session. Unknown or malformed session identifiers
// are treated as already logged out.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil
	}
	return s.repo.DeleteSession(ctx, id)
}

// Resolve looks up the user owning the given session identifier. It returns
// ErrNoSession when the identifier is malformed or does not resolve; that is
// an "unauthenticated" signal, never a system failure.
func (s *Service) Resolve(ctx context.Context, sessionID string) (*models.User, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, ErrNoSession
	}
	return s.repo.GetSessionUser(ctx, id)
}

func (s *Service) createSession(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	session := &models.Session{
		SessionID: uuid.New(),
		UserID:    userID,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session.SessionID, nil
}
