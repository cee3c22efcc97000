package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
	"github.com/projectboard/backend/internal/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is the bcrypt cost used for stored password hashes
const passwordHashCost = 12

// minPasswordLength is the minimum accepted password length
const minPasswordLength = 6

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user.
	//
	// Returns apperrors.ErrDuplicateEmail when the email is already registered.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user by email.
	//
	// Returns apperrors.ErrNotFound when no such user exists.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// Returns apperrors.ErrNotFound when no such user exists.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method UpdatePasswordRevokingSessions atomically revokes every session of
	// the user and stores the new password hash; both effects apply or neither.
	UpdatePasswordRevokingSessions(ctx context.Context, userID int, newHash string) error
}

// SessionRepository is the interface that wraps methods for sessions table data access
type SessionRepository interface {
	// Method Create inserts a new session with a caller-assigned UUID id.
	Create(ctx context.Context, session *models.Session) error
	// Method GetByID retrieves a session by its id.
	//
	// Returns apperrors.ErrNotFound when the session has been revoked.
	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
	// Method UpdateSecret rotates the session's secret hash and extends its expiry.
	UpdateSecret(ctx context.Context, sessionID, secretHash string, expiresAt time.Time) error
	// Method DeleteByID revokes a single session.
	DeleteByID(ctx context.Context, sessionID string) error
	// Method DeleteAllForUser revokes every session of a user.
	DeleteAllForUser(ctx context.Context, userID int) error
}

// authService implements signup, login, logout, password change, the refresh
// exchange and bearer-token authentication.
type authService struct {
	userRepo       UserRepository
	sessionRepo    SessionRepository
	tokenGenerator *token.Generator
	sessionTTL     time.Duration
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	tokenGenerator *token.Generator,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		tokenGenerator: tokenGenerator,
		sessionTTL:     sessionTTL,
		logger:         logger,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Signup creates a new account and opens its first session
func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidation)
	}
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", apperrors.ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters long", apperrors.ErrValidation, minPasswordLength)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.GlobalRoleUser, // Default role
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

// Login authenticates a user and opens a new session. Multiple concurrent
// sessions per user are allowed; each login gets its own.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", apperrors.ErrValidation)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// Verify against the primary stored password hash only
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// openSession creates a session and issues a token pair bound to it.
// The session stores a digest of the refresh token so the refresh exchange
// can detect tokens that were already rotated away.
func (s *authService) openSession(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	sessionID := uuid.New().String()

	accessToken, refreshToken, err := s.tokenGenerator.GenerateTokens(&token.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	session := &models.Session{
		ID:         sessionID,
		UserID:     user.ID,
		SecretHash: hashSessionSecret(refreshToken),
		ExpiresAt:  time.Now().Add(s.sessionTTL),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
		SessionID:    sessionID,
	}, nil
}

// Authenticate validates an access token and resolves its session.
// Cryptographic validity alone is insufficient: a revoked session fails with
// ErrSessionRevoked, an expired one with ErrUnauthorized.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*models.Principal, error) {
	claims, err := s.tokenGenerator.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	session, err := s.sessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrSessionRevoked
		}
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, apperrors.ErrUnauthorized
	}

	return &models.Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		SessionID: claims.SessionID,
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair, rotating the
// session secret so the presented token cannot be replayed.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)

	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	session, err := s.sessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrSessionRevoked
		}
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, apperrors.ErrUnauthorized
	}

	// A signature-valid token whose digest no longer matches was already
	// rotated away; treat it as unauthorized, not as the current credential.
	if subtle.ConstantTimeCompare(
		[]byte(session.SecretHash),
		[]byte(hashSessionSecret(refreshToken)),
	) != 1 {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(&token.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: session.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.sessionRepo.UpdateSecret(ctx, session.ID, hashSessionSecret(newRefreshToken), time.Now().Add(s.sessionTTL)); err != nil {
		return nil, fmt.Errorf("failed to rotate session secret: %w", err)
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		User:         user.Public(),
		SessionID:    session.ID,
	}, nil
}

// Logout revokes the session named by the caller's token
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrSessionRevoked
		}
		return err
	}
	return nil
}

// ChangePassword verifies the old password and applies the new one. Every
// session of the user is revoked in the same transaction as the hash update,
// so previously issued tokens fail verification immediately afterwards.
func (s *authService) ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", apperrors.ErrValidation, minPasswordLength)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), passwordHashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordRevokingSessions(ctx, userID, string(newHash)); err != nil {
		return err
	}

	s.logger.Info("password changed, all sessions revoked", zap.Int("userId", userID))
	return nil
}

// hashSessionSecret digests a refresh token for storage in the session row.
// sha256 rather than bcrypt because bcrypt caps its input at 72 bytes, well
// below the length of a signed token.
func hashSessionSecret(refreshToken string) string {
	sum := sha256.Sum256([]byte(refreshToken))
	return hex.EncodeToString(sum[:])
}
