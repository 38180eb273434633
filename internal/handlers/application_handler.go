package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// ApplicationService is the interface that wraps the lead intake pipeline
type ApplicationService interface {
	// Method Submit finds or creates the lead by email and files an application for a course.
	//
	// If the course does not exist, a NotFound error is returned.
	Submit(ctx context.Context, req *models.SubmitApplicationRequest) (*models.Application, error)
	// Method GetAll returns every application, newest first, with lead and course details.
	GetAll(ctx context.Context) ([]models.Application, error)
	// Method UpdateStatus moves an application to a new status and appends a history entry.
	UpdateStatus(ctx context.Context, actor *models.User, id int, req *models.UpdateApplicationStatusRequest) (*models.Application, error)
}

// ApplicationHandler handles lead application requests
type ApplicationHandler struct {
	BaseHandler
	applicationService ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applicationService ApplicationService, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler:        BaseHandler{Logger: logger},
		applicationService: applicationService,
	}
}

// RegisterRoutes registers application routes
func (h *ApplicationHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/applications", func(r chi.Router) {
		r.Post("/", h.Submit)

		r.Group(func(r chi.Router) {
			r.Use(guards.Admin()...)
			r.Get("/all", h.GetAll)
			r.Put("/{id}/status", h.UpdateStatus)
		})
	})
}

// Submit handles POST /applications
// @Summary Request course information
// @Description Public form. Creates or updates the lead and files an application for the course.
// @Tags applications
// @Accept json
// @Produce json
// @Param request body models.SubmitApplicationRequest true "Contact details and course"
// @Success 201 {object} map[string]interface{} "Application submitted"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /applications [post]
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitApplicationRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	app, err := h.applicationService.Submit(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"message":       "application submitted successfully, we will contact you soon",
		"applicationId": app.ID,
	})
}

// GetAll handles GET /applications/all
// @Summary List applications
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Application
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /applications/all [get]
func (h *ApplicationHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applicationService.GetAll(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}
	h.RespondJSON(w, http.StatusOK, apps)
}

// UpdateStatus handles PUT /applications/{id}/status
// @Summary Update application status
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body models.UpdateApplicationStatusRequest true "Status and notes"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 404 {object} map[string]string "Application not found"
// @Router /applications/{id}/status [put]
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.UpdateApplicationStatusRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	app, err := h.applicationService.UpdateStatus(r.Context(), currentUser(r), id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, app)
}
