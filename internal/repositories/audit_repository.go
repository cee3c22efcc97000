package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/projectboard/backend/internal/models"
)

// auditRepository implements the audit log
type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) *auditRepository {
	return &auditRepository{
		db: db,
	}
}

// Create inserts an audit entry
func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_log (action, entity_type, entity_id, old_data, new_data, user_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query,
		entry.Action, entry.EntityType, entry.EntityID,
		nullableString(entry.OldData), nullableString(entry.NewData), entry.UserID,
	); err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// nullableString maps an empty string to NULL
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
