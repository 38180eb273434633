package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// CategoryService is the interface that wraps methods for category management
type CategoryService interface {
	// Method Create adds a category. A taken name is an AlreadyExists error.
	Create(ctx context.Context, req *models.CategoryRequest) (*models.Category, error)
	// Method GetAll returns every category ordered by name.
	GetAll(ctx context.Context) ([]models.Category, error)
	// Method GetByID returns a category or a NotFound error.
	GetByID(ctx context.Context, id int) (*models.Category, error)
	// Method GetWithCourses returns a category with its published courses.
	GetWithCourses(ctx context.Context, id int) (*models.CategoryWithCourses, error)
	// Method Update changes the non-empty fields of the request.
	Update(ctx context.Context, id int, req *models.CategoryRequest) (*models.Category, error)
	// Method Delete removes a category. A category used by courses is a Conflict error.
	Delete(ctx context.Context, id int) error
}

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	BaseHandler
	categoryService CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		categoryService: categoryService,
	}
}

// RegisterRoutes registers category routes. Reads are public, writes are admin-only.
func (h *CategoryHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.GetAll)
		r.Get("/{id}", h.GetByID)
		r.Get("/{id}/courses", h.GetWithCourses)

		r.Group(func(r chi.Router) {
			r.Use(guards.Admin()...)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// GetAll handles GET /categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (h *CategoryHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.GetAll(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	h.RespondJSON(w, http.StatusOK, categories)
}

// GetByID handles GET /categories/{id}
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	category, err := h.categoryService.GetByID(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, category)
}

// GetWithCourses handles GET /categories/{id}/courses
// @Summary Get category with courses
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.CategoryWithCourses
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id}/courses [get]
func (h *CategoryHandler) GetWithCourses(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	result, err := h.categoryService.GetWithCourses(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, result)
}

// Create handles POST /categories
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Failure 400 {object} map[string]string "Invalid request or name taken"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /categories [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	category, err := h.categoryService.Create(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, category)
}

// Update handles PUT /categories/{id}
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body models.CategoryRequest true "Category fields"
// @Success 200 {object} models.Category
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.CategoryRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, category)
}

// Delete handles DELETE /categories/{id}
// @Summary Delete category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} map[string]string "Category deleted"
// @Failure 400 {object} map[string]string "Category is used by courses"
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondMessage(w, http.StatusOK, "category deleted successfully")
}
