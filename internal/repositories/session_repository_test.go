package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
)

// setupSessionTestRepository creates a session repository with a mock database
func setupSessionTestRepository(t *testing.T) (*sessionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewSessionRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestSessionRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		session   *models.Session
		setupMock func(sqlmock.Sqlmock)
		wantErr   bool
	}{
		{
			name: "success",
			session: &models.Session{
				ID:         "6f1c2b9e-1111-2222-3333-444455556666",
				UserID:     1,
				SecretHash: "secrethash",
				ExpiresAt:  time.Now().Add(time.Hour),
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO sessions`).
					WithArgs("6f1c2b9e-1111-2222-3333-444455556666", 1, "secrethash", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "database error",
			session: &models.Session{
				ID:         "6f1c2b9e-1111-2222-3333-444455556666",
				UserID:     1,
				SecretHash: "secrethash",
				ExpiresAt:  time.Now().Add(time.Hour),
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO sessions`).
					WithArgs("6f1c2b9e-1111-2222-3333-444455556666", 1, "secrethash", sqlmock.AnyArg()).
					WillReturnError(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupSessionTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.session)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSessionRepository_GetByID(t *testing.T) {
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupSessionTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "user_id", "secret_hash", "expires_at", "created_at"}).
			AddRow("session-1", 1, "secrethash", now.Add(time.Hour), now)
		mock.ExpectQuery(`SELECT id, user_id, secret_hash, expires_at, created_at`).
			WithArgs("session-1").
			WillReturnRows(rows)

		session, err := repo.GetByID(context.Background(), "session-1")
		require.NoError(t, err)
		assert.Equal(t, "session-1", session.ID)
		assert.Equal(t, 1, session.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupSessionTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT id, user_id, secret_hash, expires_at, created_at`).
			WithArgs("session-missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "secret_hash", "expires_at", "created_at"}))

		session, err := repo.GetByID(context.Background(), "session-missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Nil(t, session)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSessionRepository_UpdateSecret(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupSessionTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE sessions SET secret_hash = \?, expires_at = \? WHERE id = \?`).
			WithArgs("newhash", sqlmock.AnyArg(), "session-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateSecret(context.Background(), "session-1", "newhash", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("revoked session has no row to update", func(t *testing.T) {
		repo, mock, cleanup := setupSessionTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE sessions SET secret_hash = \?, expires_at = \? WHERE id = \?`).
			WithArgs("newhash", sqlmock.AnyArg(), "session-gone").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateSecret(context.Background(), "session-gone", "newhash", time.Now().Add(time.Hour))
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSessionRepository_DeleteByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupSessionTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`DELETE FROM sessions WHERE id = \?`).
			WithArgs("session-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DeleteByID(context.Background(), "session-1")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already deleted", func(t *testing.T) {
		repo, mock, cleanup := setupSessionTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`DELETE FROM sessions WHERE id = \?`).
			WithArgs("session-gone").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteByID(context.Background(), "session-gone")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSessionRepository_DeleteAllForUser(t *testing.T) {
	repo, mock, cleanup := setupSessionTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM sessions WHERE user_id = \?`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.DeleteAllForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	repo, mock, cleanup := setupSessionTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \?`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 5))

	count, err := repo.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
