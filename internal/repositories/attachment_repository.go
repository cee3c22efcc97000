package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/projectboard/backend/internal/models"
)

// attachmentRepository implements attachment metadata access
type attachmentRepository struct {
	db *sql.DB
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sql.DB) *attachmentRepository {
	return &attachmentRepository{
		db: db,
	}
}

// Create inserts an attachment row
func (r *attachmentRepository) Create(ctx context.Context, a *models.Attachment) error {
	query := `
		INSERT INTO attachments (task_id, project_id, filename, mime, size, storage_key, created_by_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		a.TaskID, a.ProjectID, a.Filename, a.Mime, a.Size, a.StorageKey, a.CreatedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	a.ID = int(id)
	return nil
}

// ListByTask retrieves a task's attachments
func (r *attachmentRepository) ListByTask(ctx context.Context, taskID int) ([]models.Attachment, error) {
	query := `
		SELECT id, task_id, project_id, filename, mime, size, storage_key, created_by_id, created_at
		FROM attachments
		WHERE task_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(
			&a.ID, &a.TaskID, &a.ProjectID, &a.Filename, &a.Mime,
			&a.Size, &a.StorageKey, &a.CreatedByID, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachments: %w", err)
	}

	return attachments, nil
}
