package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/projectboard/backend/internal/models"
)

const principalKey contextKey = "principal"

// Authenticator defines the interface for resolving an access token
// into the authenticated principal behind it
type Authenticator interface {
	// Authenticate verifies an access token and returns the principal it
	// belongs to, checking that the backing session is still live
	Authenticate(ctx context.Context, accessToken string) (*models.Principal, error)
}

// AuthMiddleware validates the Authorization header and injects the
// authenticated principal into the request context
func AuthMiddleware(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractBearerToken(r)
			if !ok {
				unauthorized(w, "missing or malformed authorization header")
				return
			}

			principal, err := auth.Authenticate(r.Context(), tokenString)
			if err != nil {
				logger.Debug("authentication failed",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal retrieves the authenticated principal from context
func GetPrincipal(ctx context.Context) (*models.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*models.Principal)
	return principal, ok
}

// extractBearerToken reads the access token from the Authorization header.
// Tokens are accepted from the header only, never from query parameters
// or cookies.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
