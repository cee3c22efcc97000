package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
	"github.com/projectboard/backend/internal/token"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user              *models.User
	createErr         error
	getErr            error
	updatePasswordErr error
	updatedHash       string
	revokedUserID     int
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserRepository) UpdatePasswordRevokingSessions(ctx context.Context, userID int, newHash string) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	m.revokedUserID = userID
	m.updatedHash = newHash
	return nil
}

// mockSessionRepository is a mock implementation of SessionRepository backed
// by an in-memory map so rotation and revocation can be observed
type mockSessionRepository struct {
	sessions  map[string]*models.Session
	createErr error
	getErr    error
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]*models.Session)}
}

func (m *mockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *mockSessionRepository) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *mockSessionRepository) UpdateSecret(ctx context.Context, sessionID, secretHash string, expiresAt time.Time) error {
	session, ok := m.sessions[sessionID]
	if !ok {
		return apperrors.ErrNotFound
	}
	session.SecretHash = secretHash
	session.ExpiresAt = expiresAt
	return nil
}

func (m *mockSessionRepository) DeleteByID(ctx context.Context, sessionID string) error {
	if _, ok := m.sessions[sessionID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *mockSessionRepository) DeleteAllForUser(ctx context.Context, userID int) error {
	for id, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

// newTestAuthService builds an auth service over the given mocks
func newTestAuthService(userRepo *mockUserRepository, sessionRepo *mockSessionRepository) *authService {
	logger, _ := zap.NewDevelopment()
	generator := token.NewGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return NewAuthService(userRepo, sessionRepo, generator, 7*24*time.Hour, logger)
}

// testPasswordHash hashes a fixture password at minimum cost
func testPasswordHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Signup(t *testing.T) {
	t.Run("success opens a session", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		sessionRepo := newMockSessionRepository()
		svc := newTestAuthService(userRepo, sessionRepo)

		resp, err := svc.Signup(context.Background(), &models.SignupRequest{
			Name:     "Alice",
			Email:    "Alice@Example.com",
			Password: "pw1234",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "alice@example.com", resp.User.Email)
		assert.Len(t, sessionRepo.sessions, 1)

		session := sessionRepo.sessions[resp.SessionID]
		require.NotNil(t, session)
		assert.Equal(t, hashSessionSecret(resp.RefreshToken), session.SecretHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := &mockUserRepository{createErr: apperrors.ErrDuplicateEmail}
		svc := newTestAuthService(userRepo, newMockSessionRepository())

		_, err := svc.Signup(context.Background(), &models.SignupRequest{
			Name:     "Alice",
			Email:    "alice@example.com",
			Password: "pw1234",
		})
		assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
	})

	t.Run("password too short", func(t *testing.T) {
		svc := newTestAuthService(&mockUserRepository{}, newMockSessionRepository())

		_, err := svc.Signup(context.Background(), &models.SignupRequest{
			Name:     "Alice",
			Email:    "alice@example.com",
			Password: "pw",
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("invalid email", func(t *testing.T) {
		svc := newTestAuthService(&mockUserRepository{}, newMockSessionRepository())

		_, err := svc.Signup(context.Background(), &models.SignupRequest{
			Name:     "Alice",
			Email:    "not-an-email",
			Password: "pw1234",
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestAuthService_Login(t *testing.T) {
	user := &models.User{
		ID:    1,
		Name:  "Alice",
		Email: "alice@example.com",
	}

	t.Run("success", func(t *testing.T) {
		user := *user
		user.PasswordHash = testPasswordHash(t, "pw1234")
		userRepo := &mockUserRepository{user: &user}
		sessionRepo := newMockSessionRepository()
		svc := newTestAuthService(userRepo, sessionRepo)

		resp, err := svc.Login(context.Background(), &models.LoginRequest{
			Email:    "alice@example.com",
			Password: "pw1234",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Len(t, sessionRepo.sessions, 1)
	})

	t.Run("wrong password", func(t *testing.T) {
		user := *user
		user.PasswordHash = testPasswordHash(t, "pw1234")
		svc := newTestAuthService(&mockUserRepository{user: &user}, newMockSessionRepository())

		_, err := svc.Login(context.Background(), &models.LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc := newTestAuthService(&mockUserRepository{getErr: apperrors.ErrNotFound}, newMockSessionRepository())

		_, err := svc.Login(context.Background(), &models.LoginRequest{
			Email:    "ghost@example.com",
			Password: "pw1234",
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("two logins open two sessions", func(t *testing.T) {
		user := *user
		user.PasswordHash = testPasswordHash(t, "pw1234")
		sessionRepo := newMockSessionRepository()
		svc := newTestAuthService(&mockUserRepository{user: &user}, sessionRepo)

		req := &models.LoginRequest{Email: "alice@example.com", Password: "pw1234"}
		first, err := svc.Login(context.Background(), req)
		require.NoError(t, err)
		second, err := svc.Login(context.Background(), req)
		require.NoError(t, err)

		assert.NotEqual(t, first.SessionID, second.SessionID)
		assert.Len(t, sessionRepo.sessions, 2)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	user := &models.User{ID: 1, Name: "Alice", Email: "alice@example.com"}
	user.PasswordHash = testPasswordHash(t, "pw1234")

	t.Run("valid token resolves principal", func(t *testing.T) {
		sessionRepo := newMockSessionRepository()
		svc := newTestAuthService(&mockUserRepository{user: user}, sessionRepo)

		resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: user.Email, Password: "pw1234"})
		require.NoError(t, err)

		principal, err := svc.Authenticate(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, 1, principal.UserID)
		assert.Equal(t, "alice@example.com", principal.Email)
		assert.Equal(t, resp.SessionID, principal.SessionID)
	})

	t.Run("revoked session fails even with valid signature", func(t *testing.T) {
		sessionRepo := newMockSessionRepository()
		svc := newTestAuthService(&mockUserRepository{user: user}, sessionRepo)

		resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: user.Email, Password: "pw1234"})
		require.NoError(t, err)

		require.NoError(t, svc.Logout(context.Background(), resp.SessionID))

		_, err = svc.Authenticate(context.Background(), resp.AccessToken)
		assert.ErrorIs(t, err, apperrors.ErrSessionRevoked)
	})

	t.Run("expired session", func(t *testing.T) {
		sessionRepo := newMockSessionRepository()
		svc := newTestAuthService(&mockUserRepository{user: user}, sessionRepo)

		resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: user.Email, Password: "pw1234"})
		require.NoError(t, err)

		sessionRepo.sessions[resp.SessionID].ExpiresAt = time.Now().Add(-time.Minute)

		_, err = svc.Authenticate(context.Background(), resp.AccessToken)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := newTestAuthService(&mockUserRepository{user: user}, newMockSessionRepository())

		_, err := svc.Authenticate(context.Background(), "garbage")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	user := &models.User{ID: 1, Name: "Alice", Email: "alice@example.com"}
	user.PasswordHash = testPasswordHash(t, "pw1234")

	t.Run("exchange rotates the session secret", func(t *testing.T) {
		sessionRepo := newMockSessionRepository()
		svc := newTestAuthService(&mockUserRepository{user: user}, sessionRepo)

		login, err := svc.Login(context.Background(), &models.LoginRequest{Email: user.Email, Password: "pw1234"})
		require.NoError(t, err)

		refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, login.SessionID, refreshed.SessionID)
		assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

		// The presented token was rotated away and cannot be replayed
		_, err = svc.Refresh(context.Background(), login.RefreshToken)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		// The rotated token still works
		_, err = svc.Refresh(context.Background(), refreshed.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("revoked session", func(t *testing.T) {
		sessionRepo := newMockSessionRepository()
		svc := newTestAuthService(&mockUserRepository{user: user}, sessionRepo)

		login, err := svc.Login(context.Background(), &models.LoginRequest{Email: user.Email, Password: "pw1234"})
		require.NoError(t, err)
		require.NoError(t, svc.Logout(context.Background(), login.SessionID))

		_, err = svc.Refresh(context.Background(), login.RefreshToken)
		assert.ErrorIs(t, err, apperrors.ErrSessionRevoked)
	})

	t.Run("access token rejected", func(t *testing.T) {
		sessionRepo := newMockSessionRepository()
		svc := newTestAuthService(&mockUserRepository{user: user}, sessionRepo)

		login, err := svc.Login(context.Background(), &models.LoginRequest{Email: user.Email, Password: "pw1234"})
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), login.AccessToken)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("unknown session", func(t *testing.T) {
		svc := newTestAuthService(&mockUserRepository{}, newMockSessionRepository())

		err := svc.Logout(context.Background(), "missing-session")
		assert.ErrorIs(t, err, apperrors.ErrSessionRevoked)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	user := &models.User{ID: 1, Name: "Alice", Email: "alice@example.com"}
	user.PasswordHash = testPasswordHash(t, "oldpass")

	t.Run("success revokes sessions with the hash update", func(t *testing.T) {
		userRepo := &mockUserRepository{user: user}
		svc := newTestAuthService(userRepo, newMockSessionRepository())

		err := svc.ChangePassword(context.Background(), 1, &models.ChangePasswordRequest{
			OldPassword: "oldpass",
			NewPassword: "newpass",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, userRepo.revokedUserID)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(userRepo.updatedHash), []byte("newpass")))
	})

	t.Run("wrong old password", func(t *testing.T) {
		svc := newTestAuthService(&mockUserRepository{user: user}, newMockSessionRepository())

		err := svc.ChangePassword(context.Background(), 1, &models.ChangePasswordRequest{
			OldPassword: "wrong",
			NewPassword: "newpass",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("new password too short", func(t *testing.T) {
		svc := newTestAuthService(&mockUserRepository{user: user}, newMockSessionRepository())

		err := svc.ChangePassword(context.Background(), 1, &models.ChangePasswordRequest{
			OldPassword: "oldpass",
			NewPassword: "pw",
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
