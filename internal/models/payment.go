package models

import "time"

// SubscriptionStatus is the state of a payment transaction
type SubscriptionStatus string

// Subscription status constants
const (
	SubscriptionPending SubscriptionStatus = "PENDING"
	SubscriptionSuccess SubscriptionStatus = "SUCCESS"
	SubscriptionFailed  SubscriptionStatus = "FAILED"
)

// Subscription represents one payment attempt towards the premium plan
type Subscription struct {
	ID         int                `json:"id"`
	UserID     int                `json:"userId"`
	Amount     int                `json:"amount"` // minor units
	Currency   string             `json:"currency"`
	ProviderID string             `json:"providerId"` // order id sent to the provider
	Status     SubscriptionStatus `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// Plan represents a user's active payment plan
type Plan struct {
	UserID    int       `json:"userId"`
	Plan      string    `json:"plan"` // FREE or PREMIUM
	ExpiresAt time.Time `json:"expiresAt"`
}

// PlanPremium is the paid plan unlocking raised limits
const PlanPremium = "PREMIUM"
