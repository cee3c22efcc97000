package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
)

// membershipRepository implements the membership resolver over the
// project_memberships table. Every check is a fresh read; there is no cache.
type membershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *sql.DB) *membershipRepository {
	return &membershipRepository{
		db: db,
	}
}

// Create inserts a new membership row. Memberships are unique per
// (user, project); a duplicate grant fails.
func (r *membershipRepository) Create(ctx context.Context, membership *models.ProjectMembership) error {
	query := `
		INSERT INTO project_memberships (user_id, project_id, role)
		VALUES (?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, membership.UserID, membership.ProjectID, membership.Role); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return fmt.Errorf("%w: user %d, project %d", apperrors.ErrDuplicateMember, membership.UserID, membership.ProjectID)
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}

	return nil
}

// RoleOf looks up the user's role within the project.
// Returns apperrors.ErrNotFound when no membership row exists.
func (r *membershipRepository) RoleOf(ctx context.Context, userID, projectID int) (models.ProjectRole, error) {
	query := `
		SELECT role
		FROM project_memberships
		WHERE user_id = ? AND project_id = ?
		LIMIT 1
	`

	var role models.ProjectRole
	err := r.db.QueryRowContext(ctx, query, userID, projectID).Scan(&role)

	if err == sql.ErrNoRows {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get role: %w", err)
	}

	return role, nil
}
