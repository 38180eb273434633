// Package middleware resolves the authenticated user of a request and enforces roles
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/yowaacademy/backend/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// TokenValidator validates access tokens
type TokenValidator interface {
	// ValidateAccessToken returns the user id and role encoded in the token
	ValidateAccessToken(token string) (int, string, error)
}

// UserResolver loads the user referenced by a token.
// The returned user must not carry a password hash.
type UserResolver interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// AuthMiddleware validates the JWT access token, loads the user and stores it in the request context
func AuthMiddleware(validator TokenValidator, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, ok := resolveUser(r.Context(), validator, users, token)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuthMiddleware attaches the user when a valid token is present and never rejects
func OptionalAuthMiddleware(validator TokenValidator, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				if user, ok := resolveUser(r.Context(), validator, users, token); ok {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles rejects users whose role is not in roles.
// It must run after AuthMiddleware.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(roles, user.Role) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser retrieves the authenticated user from context
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

// GetUserID retrieves the authenticated user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	user, ok := GetUser(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}

func resolveUser(ctx context.Context, validator TokenValidator, users UserResolver, token string) (*models.User, bool) {
	userID, _, err := validator.ValidateAccessToken(token)
	if err != nil {
		return nil, false
	}
	// Role comes from the stored user, so promotions apply without a new token
	user, err := users.GetByID(ctx, userID)
	if err != nil || user == nil {
		return nil, false
	}
	return user, true
}

// extractToken reads the bearer token from the Authorization header or the access_token cookie
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
