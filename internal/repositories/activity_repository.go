package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/projectboard/backend/internal/models"
)

// activityRepository implements the project activity feed
type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sql.DB) *activityRepository {
	return &activityRepository{
		db: db,
	}
}

// Create inserts an activity entry
func (r *activityRepository) Create(ctx context.Context, entry *models.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (project_id, user_id, action)
		VALUES (?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, entry.ProjectID, entry.UserID, entry.Action); err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}

	return nil
}

// ListByProject retrieves a project's activity entries, newest first
func (r *activityRepository) ListByProject(ctx context.Context, projectID int) ([]models.ActivityEntry, error) {
	query := `
		SELECT id, project_id, user_id, action, created_at
		FROM activity_log
		WHERE project_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.UserID, &e.Action, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity entries: %w", err)
	}

	return entries, nil
}
