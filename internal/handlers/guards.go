package handlers

import (
	"net/http"

	"github.com/yowaacademy/backend/internal/auth/middleware"
	"github.com/yowaacademy/backend/internal/models"
)

// Guards carries the authentication middlewares handlers attach to their routes
type Guards struct {
	// Auth rejects requests without a valid access token
	Auth func(http.Handler) http.Handler
	// OptionalAuth attaches the user when a token is present
	OptionalAuth func(http.Handler) http.Handler
}

// NewGuards builds Guards from a token validator and a user resolver
func NewGuards(validator middleware.TokenValidator, users middleware.UserResolver) Guards {
	return Guards{
		Auth:         middleware.AuthMiddleware(validator, users),
		OptionalAuth: middleware.OptionalAuthMiddleware(validator, users),
	}
}

// Roles returns the middleware chain for an authenticated user with one of roles
func (g Guards) Roles(roles ...models.Role) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{g.Auth, middleware.RequireRoles(roles...)}
}

// Admin returns the middleware chain for admin-only routes
func (g Guards) Admin() []func(http.Handler) http.Handler {
	return g.Roles(models.RoleAdmin)
}

// currentUser returns the user attached by the auth middleware
func currentUser(r *http.Request) *models.User {
	user, _ := middleware.GetUser(r.Context())
	return user
}
