package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nwalsh/timekeep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	usersByName map[string]*models.User
	sessions    map[uuid.UUID]uuid.UUID
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		usersByName: make(map[string]*models.User),
		sessions:    make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeRepository) CreateUser(ctx context.Context, user *models.User) error {
	if _, exists := f.usersByName[user.Username]; exists {
		return ErrUsernameTaken
	}
	f.usersByName[user.Username] = user
	return nil
}

func (f *fakeRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := f.usersByName[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (f *fakeRepository) CreateSession(ctx context.Context, session *models.Session) error {
	f.sessions[session.SessionID] = session.UserID
	return nil
}

func (f *fakeRepository) GetSessionUser(ctx context.Context, sessionID uuid.UUID) (*models.User, error) {
	userID, ok := f.sessions[sessionID]
	if !ok {
		return nil, ErrNoSession
	}
	for _, user := range f.usersByName {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, ErrNoSession
}

func (f *fakeRepository) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	delete(f.sessions, sessionID)
	return nil
}

func TestSignupThenResolve(t *testing.T) {
	svc := NewService(newFakeRepository())

	sessionID, err := svc.Signup(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	user, err := svc.Resolve(context.Background(), sessionID.String())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestSignupDuplicateUsername(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.Signup(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "alice", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.Signup(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid credentials", username: "alice", password: "hunter2"},
		{name: "wrong password", username: "alice", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown user", username: "bob", password: "hunter2", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessionID, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			user, err := svc.Resolve(context.Background(), sessionID.String())
			require.NoError(t, err)
			assert.Equal(t, tt.username, user.Username)
		})
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	svc := NewService(newFakeRepository())

	sessionID, err := svc.Signup(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), sessionID.String()))

	_, err = svc.Resolve(context.Background(), sessionID.String())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestResolveMalformedSessionID(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.Resolve(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestVerifierRoundTrip(t *testing.T) {
	salt, err := newSalt()
	require.NoError(t, err)

	verifier := deriveVerifier([]byte("hunter2"), salt)
	assert.True(t, verifierMatches(verifier, deriveVerifier([]byte("hunter2"), salt)))
	assert.False(t, verifierMatches(verifier, deriveVerifier([]byte("hunter3"), salt)))
}
