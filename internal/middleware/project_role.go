package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
)

// Authorizer decides whether a user may act on a project with one of
// the required roles
type Authorizer interface {
	// Authorize checks the user's relationship to the project against the
	// required roles. The project owner passes regardless of membership.
	Authorize(ctx context.Context, userID, projectID int, required ...models.ProjectRole) error
}

// RequireProjectRoles gates a route group behind project roles. The
// project ID is taken from the "projectId" URL parameter and the caller
// from the authenticated principal, so this must run after AuthMiddleware.
func RequireProjectRoles(authz Authorizer, logger *zap.Logger, required ...models.ProjectRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				unauthorized(w, "authentication required")
				return
			}

			projectID, err := strconv.Atoi(chi.URLParam(r, "projectId"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid project id")
				return
			}

			if err := authz.Authorize(r.Context(), principal.UserID, projectID, required...); err != nil {
				switch {
				case errors.Is(err, apperrors.ErrNotFound):
					writeError(w, http.StatusNotFound, "project not found")
				case errors.Is(err, apperrors.ErrForbidden):
					writeError(w, http.StatusForbidden, "insufficient project role")
				default:
					logger.Error("authorization check failed",
						zap.String("request_id", GetRequestID(r.Context())),
						zap.Int("user_id", principal.UserID),
						zap.Int("project_id", projectID),
						zap.Error(err),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
