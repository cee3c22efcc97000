package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
)

// paymentRepository implements subscription and plan data access
type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB) *paymentRepository {
	return &paymentRepository{
		db: db,
	}
}

// CreateSubscription inserts a pending subscription
func (r *paymentRepository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, amount, currency, provider_id, status)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, sub.UserID, sub.Amount, sub.Currency, sub.ProviderID, sub.Status)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	sub.ID = int(id)
	return nil
}

// GetByProviderID retrieves a subscription by the provider order id
func (r *paymentRepository) GetByProviderID(ctx context.Context, providerID string) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, amount, currency, provider_id, status, created_at
		FROM subscriptions
		WHERE provider_id = ?
		LIMIT 1
	`

	sub := &models.Subscription{}
	err := r.db.QueryRowContext(ctx, query, providerID).Scan(
		&sub.ID, &sub.UserID, &sub.Amount, &sub.Currency, &sub.ProviderID, &sub.Status, &sub.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return sub, nil
}

// UpdateStatus sets a subscription's status
func (r *paymentRepository) UpdateStatus(ctx context.Context, providerID string, status models.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = ? WHERE provider_id = ?`

	if _, err := r.db.ExecContext(ctx, query, status, providerID); err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}

	return nil
}

// UpsertPlan creates or extends the user's plan
func (r *paymentRepository) UpsertPlan(ctx context.Context, userID int, plan string, expiresAt time.Time) error {
	query := `
		INSERT INTO plans (user_id, plan, expires_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE plan = VALUES(plan), expires_at = VALUES(expires_at)
	`

	if _, err := r.db.ExecContext(ctx, query, userID, plan, expiresAt); err != nil {
		return fmt.Errorf("failed to upsert plan: %w", err)
	}

	return nil
}

// GetPlan retrieves the user's plan.
// Returns apperrors.ErrNotFound when the user never paid.
func (r *paymentRepository) GetPlan(ctx context.Context, userID int) (*models.Plan, error) {
	query := `
		SELECT user_id, plan, expires_at
		FROM plans
		WHERE user_id = ?
		LIMIT 1
	`

	plan := &models.Plan{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&plan.UserID, &plan.Plan, &plan.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return plan, nil
}
