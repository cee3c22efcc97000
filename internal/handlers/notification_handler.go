package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/projectboard/backend/internal/middleware"
	"github.com/projectboard/backend/internal/models"
)

// NotificationService is the interface that wraps methods for notification business logic
type NotificationService interface {
	// List returns the user's notifications created after the given time,
	// newest first, capped to one page
	List(ctx context.Context, userID int, after time.Time) ([]models.Notification, error)
	// MarkRead marks the user's listed notifications as read and returns
	// how many rows changed
	MarkRead(ctx context.Context, userID int, ids []int) (int, error)
}

// NotificationHandler handles notification requests
type NotificationHandler struct {
	BaseHandler
	notificationService NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         BaseHandler{Logger: logger},
		notificationService: notificationService,
	}
}

// RegisterRoutes registers notification routes
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.List)
		r.Patch("/read", h.MarkRead)
	})
}

// List handles GET /notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var after time.Time
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid after timestamp, expected RFC3339")
			return
		}
		after = parsed
	}

	notifications, err := h.notificationService.List(r.Context(), principal.UserID, after)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, notifications)
}

// MarkReadRequest represents a request to mark notifications as read
type MarkReadRequest struct {
	IDs []int `json:"ids"`
}

// MarkRead handles PATCH /notifications/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.notificationService.MarkRead(r.Context(), principal.UserID, req.IDs)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
