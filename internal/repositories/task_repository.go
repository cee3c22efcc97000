package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
	"go.uber.org/zap"
)

// taskRepository implements task data access
type taskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) *taskRepository {
	return &taskRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new task
func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (project_id, title, description, status, priority, assignee_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		task.ProjectID, task.Title, task.Description, task.Status, task.Priority, task.AssigneeID,
	)
	if err != nil {
		r.logger.Error("failed to create task", zap.Error(err))
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = int(id)
	return nil
}

// GetByID retrieves a task by id
func (r *taskRepository) GetByID(ctx context.Context, taskID int) (*models.Task, error) {
	query := `
		SELECT id, project_id, title, description, status, priority, assignee_id, created_at, updated_at
		FROM tasks
		WHERE id = ?
		LIMIT 1
	`

	task := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, taskID).Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.AssigneeID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get task by id", zap.Error(err), zap.Int("taskId", taskID))
		return nil, fmt.Errorf("failed to get task by id: %w", err)
	}

	return task, nil
}

// Update updates a task's mutable fields
func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, task.ID,
	); err != nil {
		r.logger.Error("failed to update task", zap.Error(err), zap.Int("taskId", task.ID))
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// Delete deletes a task by id
func (r *taskRepository) Delete(ctx context.Context, taskID int) error {
	query := `DELETE FROM tasks WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
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

// ListByProject retrieves all tasks of a project
func (r *taskRepository) ListByProject(ctx context.Context, projectID int) ([]models.Task, error) {
	query := `
		SELECT id, project_id, title, description, status, priority, assignee_id, created_at, updated_at
		FROM tasks
		WHERE project_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// Filter retrieves tasks across every project the user owns or belongs to,
// narrowed by the optional filter criteria.
func (r *taskRepository) Filter(ctx context.Context, userID int, filter *models.TaskFilter) ([]models.Task, error) {
	query := `
		SELECT DISTINCT t.id, t.project_id, t.title, t.description, t.status, t.priority, t.assignee_id, t.created_at, t.updated_at
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		LEFT JOIN project_memberships m ON m.project_id = p.id AND m.user_id = ?
		WHERE (p.owner_id = ? OR m.user_id IS NOT NULL)
	`
	args := []any{userID, userID}

	if filter.AssigneeID != 0 {
		query += ` AND t.assignee_id = ?`
		args = append(args, filter.AssigneeID)
	}
	if filter.Status != "" {
		query += ` AND t.status = ?`
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		query += ` AND t.priority = ?`
		args = append(args, filter.Priority)
	}
	if filter.Search != "" {
		query += ` AND (t.title LIKE ? OR t.description LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	query += ` ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// scanTasks reads task rows into a slice
func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(
			&t.ID, &t.ProjectID, &t.Title, &t.Description,
			&t.Status, &t.Priority, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}
