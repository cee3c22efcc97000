package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/projectboard/backend/internal/middleware"
	"github.com/projectboard/backend/internal/models"
)

// PaymentService is the interface that wraps methods for payment business logic
type PaymentService interface {
	// CreatePayment opens a pending subscription and returns the signed
	// provider redirect URL
	//
	// "ctx" parameter is used to specify the context.
	// "userID" parameter is used to identify the paying user.
	// "amount" parameter is used to specify the amount in major units.
	//
	// If the provider is not configured or the amount is invalid, the error will be returned.
	CreatePayment(ctx context.Context, userID, amount int) (string, error)
	// ConfirmPayment settles a subscription from a provider callback
	ConfirmPayment(ctx context.Context, providerID, status string) error
	// IsPremium reports whether the user holds an unexpired premium plan
	IsPremium(ctx context.Context, userID int) (bool, error)
}

// PaymentHandler handles payment requests
type PaymentHandler struct {
	BaseHandler
	paymentService PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		paymentService: paymentService,
	}
}

// RegisterRoutes registers payment routes that require authentication
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/premium", h.Premium)
	})
}

// RegisterWebhookRoutes registers the provider callback, which is
// authenticated by its signature rather than a bearer token
func (h *PaymentHandler) RegisterWebhookRoutes(r chi.Router) {
	r.Post("/payments/webhook", h.Webhook)
}

// Create handles POST /payments
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	redirectURL, err := h.paymentService.CreatePayment(r.Context(), principal.UserID, req.Amount)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, map[string]string{"url": redirectURL})
}

// Premium handles GET /payments/premium
func (h *PaymentHandler) Premium(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	premium, err := h.paymentService.IsPremium(r.Context(), principal.UserID)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]bool{"premium": premium})
}

// WebhookRequest represents a payment provider callback
type WebhookRequest struct {
	OrderID string `json:"orderid"`
	Status  string `json:"status"`
}

// Webhook handles POST /payments/webhook
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.paymentService.ConfirmPayment(r.Context(), req.OrderID, req.Status); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	// Paysera expects a literal OK acknowledgement
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
