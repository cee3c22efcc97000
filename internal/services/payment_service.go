package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
	"go.uber.org/zap"
)

// paymentProviderURL is the provider's hosted payment page
const paymentProviderURL = "https://www.paysera.com/pay"

// premiumDuration is how long one successful payment keeps premium active
const premiumDuration = 30 * 24 * time.Hour

// PaymentRepository is the interface that wraps subscription and plan data access
type PaymentRepository interface {
	// Method CreateSubscription inserts a pending subscription.
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	// Method GetByProviderID retrieves a subscription by the provider order id.
	//
	// Returns apperrors.ErrNotFound when no such subscription exists.
	GetByProviderID(ctx context.Context, providerID string) (*models.Subscription, error)
	// Method UpdateStatus sets a subscription's status.
	UpdateStatus(ctx context.Context, providerID string, status models.SubscriptionStatus) error
	// Method UpsertPlan creates or extends the user's plan.
	UpsertPlan(ctx context.Context, userID int, plan string, expiresAt time.Time) error
	// Method GetPlan retrieves the user's plan.
	//
	// Returns apperrors.ErrNotFound when the user never paid.
	GetPlan(ctx context.Context, userID int) (*models.Plan, error)
}

// paymentService builds the provider redirect, confirms webhook callbacks and
// answers premium checks
type paymentService struct {
	repo      PaymentRepository
	projectID string
	password  string
	apiBase   string
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(repo PaymentRepository, projectID, password, apiBase string, logger *zap.Logger) *paymentService {
	return &paymentService{
		repo:      repo,
		projectID: projectID,
		password:  password,
		apiBase:   apiBase,
		logger:    logger,
	}
}

// CreatePayment records a pending subscription and returns the provider
// redirect URL. The query is signed with md5(query + password) as the
// provider requires.
func (s *paymentService) CreatePayment(ctx context.Context, userID, amount int) (string, error) {
	if s.projectID == "" || s.password == "" {
		return "", fmt.Errorf("payment provider is not configured")
	}
	if amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	orderID := uuid.New().String()
	currency := "EUR"

	data := url.Values{}
	data.Set("projectid", s.projectID)
	data.Set("orderid", orderID)
	data.Set("amount", fmt.Sprintf("%d", amount*100))
	data.Set("currency", currency)
	data.Set("accepturl", s.apiBase+"/payments/success")
	data.Set("cancelurl", s.apiBase+"/payments/cancel")
	data.Set("callbackurl", s.apiBase+"/payments/webhook")

	encoded := data.Encode()
	sum := md5.Sum([]byte(encoded + s.password))
	sign := hex.EncodeToString(sum[:])

	sub := &models.Subscription{
		UserID:     userID,
		Amount:     amount * 100,
		Currency:   currency,
		ProviderID: orderID,
		Status:     models.SubscriptionPending,
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return "", err
	}

	s.logger.Info("payment created", zap.Int("userId", userID), zap.String("orderId", orderID))

	return fmt.Sprintf("%s?%s&sign=%s", paymentProviderURL, encoded, sign), nil
}

// ConfirmPayment processes the provider's webhook callback. A SUCCESS status
// activates one month of premium for the paying user; anything else marks the
// subscription failed.
func (s *paymentService) ConfirmPayment(ctx context.Context, providerID, status string) error {
	sub, err := s.repo.GetByProviderID(ctx, providerID)
	if err != nil {
		return err
	}

	if status != string(models.SubscriptionSuccess) {
		if err := s.repo.UpdateStatus(ctx, providerID, models.SubscriptionFailed); err != nil {
			return err
		}
		return fmt.Errorf("%w: payment %s failed with status %q", apperrors.ErrValidation, providerID, status)
	}

	if err := s.repo.UpdateStatus(ctx, providerID, models.SubscriptionSuccess); err != nil {
		return err
	}

	if err := s.repo.UpsertPlan(ctx, sub.UserID, models.PlanPremium, time.Now().Add(premiumDuration)); err != nil {
		return err
	}

	s.logger.Info("premium activated", zap.Int("userId", sub.UserID), zap.String("orderId", providerID))
	return nil
}

// IsPremium reports whether the user currently holds an unexpired premium plan
func (s *paymentService) IsPremium(ctx context.Context, userID int) (bool, error) {
	plan, err := s.repo.GetPlan(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return plan.Plan == models.PlanPremium && time.Now().Before(plan.ExpiresAt), nil
}
