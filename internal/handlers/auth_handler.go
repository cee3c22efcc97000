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

// AuthService is the interface that wraps methods for authentication business logic
type AuthService interface {
	// Signup registers a new user and opens their first session
	//
	// "ctx" parameter is used to specify the context.
	// "req" parameter is used to specify the signup request.
	//
	// If the email is already registered or validation fails, the error will be returned.
	Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error)
	// Login verifies credentials and opens a new session
	//
	// "ctx" parameter is used to specify the context.
	// "req" parameter is used to specify the login request.
	//
	// If the credentials do not match, the error will be returned.
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	// Refresh exchanges a valid refresh token for a new token pair,
	// rotating the session secret
	//
	// "ctx" parameter is used to specify the context.
	// "refreshToken" parameter is used to specify the refresh token being exchanged.
	//
	// If the token or its session is invalid, the error will be returned.
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	// Logout revokes a single session
	//
	// "ctx" parameter is used to specify the context.
	// "sessionID" parameter is used to identify the session to revoke.
	//
	// If the session does not exist, the error will be returned.
	Logout(ctx context.Context, sessionID string) error
	// ChangePassword verifies the old password, sets the new one and
	// revokes every session of the user
	//
	// "ctx" parameter is used to specify the context.
	// "userID" parameter is used to identify the user.
	// "req" parameter is used to specify the password change request.
	//
	// If the old password does not match, the error will be returned.
	ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterRoutes registers public auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
	})
}

// RegisterProtectedRoutes registers auth routes that require a valid session
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/logout", h.Logout)
		r.Patch("/change-password", h.ChangePassword)
	})
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.authService.Logout(r.Context(), principal.SessionID); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), principal.UserID, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
