package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// UserService is the interface that wraps admin user management
type UserService interface {
	// Method GetAll returns every user without password hashes.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method Delete removes a user account. Enrollments and authored courses are kept.
	//
	// If the admin tries to delete themselves a Validation error is returned.
	Delete(ctx context.Context, actor *models.User, id int) error
}

// UserHandler handles admin user endpoints
type UserHandler struct {
	BaseHandler
	userService UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger},
		userService: userService,
	}
}

// RegisterRoutes registers user routes. All of them are admin-only.
func (h *UserHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/users", func(r chi.Router) {
		r.Use(guards.Admin()...)
		r.Get("/", h.GetAll)
		r.Delete("/{id}", h.Delete)
	})
}

// GetAll handles GET /users
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /users [get]
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetAll(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	h.RespondJSON(w, http.StatusOK, users)
}

// Delete handles DELETE /users/{id}
// @Summary Delete user
// @Description Delete a user account. Enrollments and authored courses are kept.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string "User deleted"
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), currentUser(r), id); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondMessage(w, http.StatusOK, "user deleted successfully")
}
