package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
)

// notificationListLimit caps a single notification page
const notificationListLimit = 50

// notificationRepository implements notification data access
type notificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *notificationRepository {
	return &notificationRepository{
		db: db,
	}
}

// Create inserts a new notification
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, task_id, type, message)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, n.UserID, n.TaskID, n.Type, n.Message)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = int(id)
	return nil
}

// GetByID retrieves a notification by id
func (r *notificationRepository) GetByID(ctx context.Context, id int) (*models.Notification, error) {
	query := `
		SELECT id, user_id, task_id, type, message, is_read, created_at
		FROM notifications
		WHERE id = ?
		LIMIT 1
	`

	n := &models.Notification{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID, &n.UserID, &n.TaskID, &n.Type, &n.Message, &n.Read, &n.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// ListForUser retrieves the user's notifications, newest first. When after is
// non-zero only notifications created after it are returned.
func (r *notificationRepository) ListForUser(ctx context.Context, userID int, after time.Time) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, task_id, type, message, is_read, created_at
		FROM notifications
		WHERE user_id = ?
	`
	args := []any{userID}

	if !after.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, after)
	}

	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, notificationListLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.TaskID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead marks the user's listed notifications as read and returns the
// number of rows updated. Ids belonging to other users are ignored.
func (r *notificationRepository) MarkRead(ctx context.Context, userID int, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(
		`UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND id IN (%s)`,
		placeholders,
	)

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
