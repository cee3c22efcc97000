package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
)

// sessionRepository implements the session registry over the sessions table.
// Row existence is the authoritative revocation signal: deleting a row
// immediately invalidates every token that references it.
type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *sessionRepository {
	return &sessionRepository{
		db: db,
	}
}

// Create inserts a new session. The caller assigns the UUID id so a revoked
// session's identifier is never reused.
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, secret_hash, expires_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, session.SecretHash, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its id
func (r *sessionRepository) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, secret_hash, expires_at, created_at
		FROM sessions
		WHERE id = ?
		LIMIT 1
	`

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.SecretHash,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	return session, nil
}

// UpdateSecret rotates the session's secret hash and extends its expiry.
// Used by the refresh exchange.
func (r *sessionRepository) UpdateSecret(ctx context.Context, sessionID, secretHash string, expiresAt time.Time) error {
	query := `
		UPDATE sessions
		SET secret_hash = ?, expires_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, secretHash, expiresAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session secret: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeleteByID deletes a session by its id
func (r *sessionRepository) DeleteByID(ctx context.Context, sessionID string) error {
	query := `DELETE FROM sessions WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeleteAllForUser deletes every session owned by the user
func (r *sessionRepository) DeleteAllForUser(ctx context.Context, userID int) error {
	query := `DELETE FROM sessions WHERE user_id = ?`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete sessions for user: %w", err)
	}

	return nil
}

// DeleteExpired deletes all sessions with expires_at at or before the given time
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM sessions WHERE expires_at <= ?`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
