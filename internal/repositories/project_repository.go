package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
	"go.uber.org/zap"
)

// projectRepository implements project data access
type projectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) *projectRepository {
	return &projectRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the project, the owner's ADMIN membership and any extra
// memberships in one transaction, so a project can never exist without its
// owner holding ADMIN.
func (r *projectRepository) Create(ctx context.Context, project *models.Project, extraMembers []models.MemberRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO projects (name, owner_id) VALUES (?, ?)`,
		project.Name, project.OwnerID,
	)
	if err != nil {
		r.logger.Error("failed to create project", zap.Error(err))
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	project.ID = int(id)

	memberQuery := `INSERT INTO project_memberships (user_id, project_id, role) VALUES (?, ?, ?)`

	if _, err := tx.ExecContext(ctx, memberQuery, project.OwnerID, project.ID, models.ProjectRoleAdmin); err != nil {
		r.logger.Error("failed to create owner membership", zap.Error(err))
		return fmt.Errorf("failed to create owner membership: %w", err)
	}
	project.Members = append(project.Members, models.ProjectMembership{
		UserID:    project.OwnerID,
		ProjectID: project.ID,
		Role:      models.ProjectRoleAdmin,
	})

	for _, m := range extraMembers {
		if m.UserID == project.OwnerID {
			continue // owner membership already written
		}
		if _, err := tx.ExecContext(ctx, memberQuery, m.UserID, project.ID, m.Role); err != nil {
			r.logger.Error("failed to create membership", zap.Error(err), zap.Int("userId", m.UserID))
			return fmt.Errorf("failed to create membership for user %d: %w", m.UserID, err)
		}
		project.Members = append(project.Members, models.ProjectMembership{
			UserID:    m.UserID,
			ProjectID: project.ID,
			Role:      m.Role,
		})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit project creation: %w", err)
	}

	return nil
}

// GetByID retrieves a project by id
func (r *projectRepository) GetByID(ctx context.Context, projectID int) (*models.Project, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM projects
		WHERE id = ?
		LIMIT 1
	`

	project := &models.Project{}
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&project.ID,
		&project.Name,
		&project.OwnerID,
		&project.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get project by id", zap.Error(err), zap.Int("projectId", projectID))
		return nil, fmt.Errorf("failed to get project by id: %w", err)
	}

	return project, nil
}

// ListForUser retrieves all projects the user owns or is a member of
func (r *projectRepository) ListForUser(ctx context.Context, userID int) ([]models.Project, error) {
	query := `
		SELECT DISTINCT p.id, p.name, p.owner_id, p.created_at
		FROM projects p
		LEFT JOIN project_memberships m ON m.project_id = p.id
		WHERE p.owner_id = ? OR m.user_id = ?
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// UpdateName updates a project's name
func (r *projectRepository) UpdateName(ctx context.Context, projectID int, name string) error {
	query := `UPDATE projects SET name = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, name, projectID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
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

// Delete deletes a project. Memberships, tasks and dependent rows are removed
// by the schema's ON DELETE CASCADE constraints.
func (r *projectRepository) Delete(ctx context.Context, projectID int) error {
	query := `DELETE FROM projects WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
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
